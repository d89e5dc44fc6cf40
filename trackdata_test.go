package floppyimg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergev/floppyimg/bitstream"
	"github.com/sergev/floppyimg/chs"
	"github.com/sergev/floppyimg/system34"
)

func blankBitStreamTrack(t *testing.T, capacityCells int) *TrackData {
	t.Helper()
	data := make([]byte, (capacityCells+7)/8)
	return NewBitStreamTrack(EncodingMFM, Rate500Kbps, chs.CH{Cylinder: 0, Head: 0}, 500000, data, nil)
}

func nineSectorChsns(cylinder uint16, head uint8) []chs.CHSN {
	var sectors []chs.CHSN
	for s := uint8(1); s <= 9; s++ {
		sectors = append(sectors, chs.CHSN{Cylinder: cylinder, Head: head, Sector: s, N: 2})
	}
	return sectors
}

// TestBlankFormatThenReadFill is scenario E1.
func TestBlankFormatThenReadFill(t *testing.T) {
	track := blankBitStreamTrack(t, 100_000)
	require.NoError(t, track.Format(nineSectorChsns(0, 0), 0xF6, 80))
	result, err := track.ReadSector(chs.CHS{Cylinder: 0, Head: 0, Sector: 5}, nil, DataOnly, false)
	require.NoError(t, err)
	require.Equal(t, 512, result.DataLen)
	require.False(t, result.AddressCRCError)
	require.False(t, result.DataCRCError)
	for i, b := range result.ReadBuf {
		require.Equalf(t, byte(0xF6), b, "byte %d", i)
	}
}

// TestReadAfterWrite is testable property 6.
func TestReadAfterWrite(t *testing.T) {
	track := blankBitStreamTrack(t, 100_000)
	require.NoError(t, track.Format(nineSectorChsns(0, 0), 0x00, 80))
	payload := bytes.Repeat([]byte{0xAB, 0xCD}, 256)
	target := chs.CHS{Cylinder: 0, Head: 0, Sector: 3}
	_, err := track.WriteSector(target, nil, payload, DataOnly, false, false)
	require.NoError(t, err)
	result, err := track.ReadSector(target, nil, DataOnly, false)
	require.NoError(t, err)
	require.Equal(t, payload, result.ReadBuf, "read-after-write mismatch")
	require.False(t, result.DataCRCError, "data CRC should validate after write")
}

// TestWrongCylinderDetection is testable property 7.
func TestWrongCylinderDetection(t *testing.T) {
	track := blankBitStreamTrack(t, 50_000)
	sectors := []chs.CHSN{{Cylinder: 99, Head: 0, Sector: 1, N: 2}}
	require.NoError(t, track.Format(sectors, 0x5A, 40))
	result, err := track.ReadSector(chs.CHS{Cylinder: 0, Head: 0, Sector: 1}, nil, DataOnly, false)
	require.NoError(t, err)
	require.True(t, result.WrongCylinder)
	require.Equal(t, 512, result.DataLen, "payload should still be returned despite the mismatch")
}

// TestSectorLookupOrdering is testable property 8: duplicate IDAMs for
// the same sector id resolve to the first one encountered on the
// track, and GetNextId walks physical order, wrapping at the end.
func TestSectorLookupOrdering(t *testing.T) {
	track := blankBitStreamTrack(t, 120_000)
	sectors := []chs.CHSN{
		{Cylinder: 0, Head: 0, Sector: 1, N: 0}, // first copy of sector 1
		{Cylinder: 0, Head: 0, Sector: 2, N: 0},
		{Cylinder: 0, Head: 0, Sector: 1, N: 0}, // duplicate, later on the track
	}
	require.NoError(t, track.Format(sectors, 0x11, 30))

	next, ok := track.GetNextId(chs.CHS{Cylinder: 0, Head: 0, Sector: 1})
	require.True(t, ok)
	require.Equal(t, uint8(2), next.Sector, "GetNextId(sector 1) should find sector 2")

	next, ok = track.GetNextId(chs.CHS{Cylinder: 0, Head: 0, Sector: 2})
	require.True(t, ok)
	require.Equal(t, uint8(1), next.Sector, "GetNextId(sector 2) should find the second copy of sector 1")

	// Overwrite the second copy's payload directly in the cell buffer;
	// ReadSector must still return the first copy's fill bytes.
	var dataItems []int
	for i, item := range track.metadata {
		if item.Kind == system34.ElemData && item.CHSN.Sector == 1 {
			dataItems = append(dataItems, i)
		}
	}
	require.Len(t, dataItems, 2)
	second := track.metadata[dataItems[1]]
	require.NoError(t, track.mfm.WriteBuf(bytes.Repeat([]byte{0xEE}, 128), second.Start+4*bitstream.CellsPerDecodedByte))
	track.rescanBitStream()

	result, err := track.ReadSector(chs.CHS{Cylinder: 0, Head: 0, Sector: 1}, nil, DataOnly, false)
	require.NoError(t, err)
	for i, b := range result.ReadBuf {
		require.Equalf(t, byte(0x11), b, "byte %d came from the wrong copy", i)
	}
}

// TestReadAllSectorsEOT is testable property 10.
func TestReadAllSectorsEOT(t *testing.T) {
	track := blankBitStreamTrack(t, 150_000)
	require.NoError(t, track.Format(nineSectorChsns(0, 0), 0x00, 80))
	result := track.ReadAllSectors(2, 5)
	require.Equal(t, 5, result.SectorsRead)
	require.Len(t, result.ReadBuf, 5*512)
}

// TestWriteSectorBufferSizeMismatch is scenario E4.
func TestWriteSectorBufferSizeMismatch(t *testing.T) {
	track := blankBitStreamTrack(t, 100_000)
	require.NoError(t, track.Format(nineSectorChsns(0, 0), 0x00, 80))
	before := track.GetHash()
	_, err := track.WriteSector(chs.CHS{Cylinder: 0, Head: 0, Sector: 5}, nil, make([]byte, 500), DataOnly, false, false)
	fErr, ok := err.(*Error)
	require.True(t, ok, "expected a *Error, got %T", err)
	require.Equal(t, ParameterError, fErr.Kind)
	after := track.GetHash()
	require.Equal(t, before, after, "hash changed despite rejected write")
}

// TestCorruptIdamAddressCRC is scenario E2.
func TestCorruptIdamAddressCRC(t *testing.T) {
	track := blankBitStreamTrack(t, 50_000)
	sectors := []chs.CHSN{{Cylinder: 0, Head: 0, Sector: 1, N: 2}}
	require.NoError(t, track.Format(sectors, 0x77, 40))
	// Corrupt the IDAM's stored CRC bytes directly in the cell buffer.
	require.NoError(t, track.mfm.WriteBuf([]byte{0x00, 0x00}, track.markers[1].CellOffset+4*16+4*16))
	track.rescanBitStream()

	result, err := track.ReadSector(chs.CHS{Cylinder: 0, Head: 0, Sector: 1}, nil, DataOnly, false)
	require.NoError(t, err)
	require.True(t, result.AddressCRCError)
	require.Equal(t, 0, result.DataLen)

	result, err = track.ReadSector(chs.CHS{Cylinder: 0, Head: 0, Sector: 1}, nil, DataOnly, true)
	require.NoError(t, err)
	require.True(t, result.AddressCRCError)
	require.Equal(t, 512, result.DataLen)
}
