package floppyimg

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergev/floppyimg/chs"
)

func blankTrackBytes(capacityCells int) []byte {
	return make([]byte, (capacityCells+7)/8)
}

// TestNextSectorOnTrack is scenario E5.
func TestNextSectorOnTrack(t *testing.T) {
	d := New(FormatPcFloppy360)
	require.NoError(t, d.AddTrackBitstream(EncodingMFM, Rate500Kbps, chs.CH{Cylinder: 0, Head: 0}, 500000, blankTrackBytes(150_000), nil))
	track, err := d.lookupTrack(chs.CH{Cylinder: 0, Head: 0})
	require.NoError(t, err)
	require.NoError(t, track.Data.Format(nineSectorChsns(0, 0), 0x00, 80))

	_, ok := d.NextSectorOnTrack(chs.CHS{Cylinder: 0, Head: 0, Sector: 9})
	require.False(t, ok, "NextSectorOnTrack at last sector should return None")

	next, ok := d.NextSectorOnTrack(chs.CHS{Cylinder: 0, Head: 0, Sector: 5})
	require.True(t, ok)
	require.Equal(t, uint8(6), next.Sector)
}

// TestByteStreamSectorList is scenario E3.
func TestByteStreamSectorList(t *testing.T) {
	d := New(FormatPcFloppy360)
	require.NoError(t, d.AddTrackBytestream(EncodingMFM, Rate500Kbps, chs.CH{Cylinder: 0, Head: 0}))
	payload := bytes.Repeat([]byte{0x42}, 512)
	descs := []SectorDescriptor{
		{ID: 1, N: 2, Data: payload},
		{ID: 2, N: 2, Data: payload, DataCRCError: true},
		{ID: 3, N: 2, Data: payload},
	}
	for _, desc := range descs {
		target := chs.CHS{Cylinder: 0, Head: 0, Sector: desc.ID}
		require.NoErrorf(t, d.MasterSector(target, desc), "MasterSector(%d)", desc.ID)
	}
	track, err := d.lookupTrack(chs.CH{Cylinder: 0, Head: 0})
	require.NoError(t, err)
	entries := track.Data.GetSectorList()
	require.Len(t, entries, 3)
	want := []bool{false, true, false}
	for i, e := range entries {
		require.Equalf(t, want[i], e.DataCRCError, "sector %d data_crc_error", i+1)
	}
}

// TestNormalizeRemovesEmptyTracks is testable property 9.
func TestNormalizeRemovesEmptyTracks(t *testing.T) {
	d := New(FormatPcFloppy720)
	for cyl := uint16(0); cyl < 80; cyl++ {
		require.NoErrorf(t, d.AddTrackBitstream(EncodingMFM, Rate500Kbps, chs.CH{Cylinder: cyl, Head: 0}, 500000, blankTrackBytes(100_000), nil), "AddTrackBitstream cyl %d", cyl)
		track, err := d.lookupTrack(chs.CH{Cylinder: cyl, Head: 0})
		require.NoErrorf(t, err, "lookupTrack cyl %d", cyl)
		if cyl%2 == 0 {
			// Every physical cylinder (0, 2, 4, ...) carries real
			// sectors; the odd "half-speed" cylinders stay blank.
			require.NoErrorf(t, track.Data.Format(nineSectorChsns(cyl, 0), 0x00, 80), "Format cyl %d", cyl)
		}
	}
	d.PostLoadProcess()
	require.Len(t, d.trackMap[0], 40, "post-normalisation cylinder count")
	for i, idx := range d.trackMap[0] {
		require.NotEqualf(t, trackMapEmpty, idx, "trackMap[0][%d] still tombstoned after normalisation", i)
	}
}

type stubDriver struct {
	magic   byte
	disk    *DiskImage
	loadErr error
}

func (s *stubDriver) Detect(r io.ReadSeeker) (bool, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}
	defer r.Seek(pos, io.SeekStart)

	var b [1]byte
	if _, err := r.Read(b[:]); err != nil {
		return false, nil
	}
	return b[0] == s.magic, nil
}

func (s *stubDriver) Load(r io.ReadSeeker) (*DiskImage, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.disk, nil
}

func TestFormatDispatchTable(t *testing.T) {
	disk := New(FormatPcFloppy360)
	driver := &stubDriver{magic: 0x99, disk: disk}
	RegisterFormat(ImageFormatRawSector, driver)
	defer func() {
		delete(formatDrivers, ImageFormatRawSector)
		formatOrder = formatOrder[:len(formatOrder)-1]
	}()

	r := bytes.NewReader([]byte{0x99, 0x00, 0x00})
	loaded, err := Load(r)
	require.NoError(t, err)
	require.Same(t, disk, loaded, "Load returned a different DiskImage than the driver produced")
}
