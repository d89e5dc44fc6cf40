// Package hfe implements the HFEv1 ("HXCPICFE") container: the
// flagship disk-image driver, round-tripping full BitStream tracks
// through system34/bitstream. Covers v1 only (no opcode stream, one
// fixed bit rate per disk) since this is the format the module writes
// back out.
package hfe

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/sergev/floppyimg"
	"github.com/sergev/floppyimg/chs"
)

const (
	signature = "HXCPICFE"
	blockSize = 512
)

// header is the fixed 26-byte HFEv1 header, little-endian.
type header struct {
	Signature           [8]byte
	FormatRevision      uint8
	NumberOfTrack       uint8
	NumberOfSide        uint8
	TrackEncoding       uint8
	BitRate             uint16
	FloppyRPM           uint16
	FloppyInterfaceMode uint8
	WriteProtected      uint8
	TrackListOffset     uint16
	WriteAllowed        uint8
	SingleStep          uint8
	Track0S0AltEncoding uint8
	Track0S0Encoding    uint8
	Track0S1AltEncoding uint8
	Track0S1Encoding    uint8
}

type trackHeader struct {
	Offset   uint16
	TrackLen uint16
}

// byteBitsInverter reverses a byte's bit order: HFE stores bitstreams
// LSB-first (PIC EUSART shift-out order); the rest of this module
// works MSB-first.
var byteBitsInverter [256]byte

func init() {
	for i := 0; i < 256; i++ {
		var inverted byte
		for j := 0; j < 8; j++ {
			if i&(1<<j) != 0 {
				inverted |= 1 << (7 - j)
			}
		}
		byteBitsInverter[i] = inverted
	}
	floppyimg.RegisterFormat(floppyimg.ImageFormatHFEv1, driver{})
}

type driver struct{}

// Detect reports whether r starts with the HFEv1 signature.
func (driver) Detect(r io.ReadSeeker) (bool, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}
	defer r.Seek(pos, io.SeekStart)

	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return false, nil
	}
	return string(sig[:]) == signature, nil
}

// guessFormat maps a cylinder/side count onto the nearest named
// FloppyFormat, falling back to FormatFloppyCustom for anything else
// (e.g. 3.5" HD images that HFE happens to carry at odd cylinder
// counts).
func guessFormat(cylinders int, heads uint8) floppyimg.FloppyFormat {
	switch {
	case cylinders <= 40 && heads == 1:
		return floppyimg.FormatPcFloppy180
	case cylinders <= 40 && heads == 2:
		return floppyimg.FormatPcFloppy360
	case cylinders <= 80 && heads == 2:
		return floppyimg.FormatPcFloppy1440
	default:
		return floppyimg.FormatFloppyCustom
	}
}

func dataRateFor(kbps uint16) floppyimg.DataRate {
	switch {
	case kbps <= 260:
		return floppyimg.Rate250Kbps
	case kbps <= 380:
		return floppyimg.Rate300Kbps
	default:
		return floppyimg.Rate500Kbps
	}
}

// Load parses an HFEv1 stream into a DiskImage, one BitStream track
// per (cylinder, head).
func (driver) Load(r io.ReadSeeker) (*floppyimg.DiskImage, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seek to start")
	}

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if string(h.Signature[:]) != signature {
		return nil, errors.Errorf("not an HFEv1 image: signature %q", h.Signature)
	}
	if h.FormatRevision != 0 {
		return nil, errors.Errorf("unsupported HFEv1 format revision %d", h.FormatRevision)
	}
	if h.NumberOfTrack == 0 || h.NumberOfSide == 0 || h.BitRate == 0 {
		return nil, errors.New("invalid HFEv1 header: zero track/side count or bit rate")
	}

	if _, err := r.Seek(int64(h.TrackListOffset)*blockSize, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seek to track list")
	}
	trackHeaders := make([]trackHeader, h.NumberOfTrack)
	for i := range trackHeaders {
		if err := binary.Read(r, binary.LittleEndian, &trackHeaders[i]); err != nil {
			return nil, errors.Wrapf(err, "read track header %d", i)
		}
	}

	format := guessFormat(int(h.NumberOfTrack), h.NumberOfSide)
	log.Debug().Str("format", format.String()).Int("tracks", int(h.NumberOfTrack)).
		Int("sides", int(h.NumberOfSide)).Msg("hfe: loading")

	img := floppyimg.New(format)
	rate := dataRateFor(h.BitRate)
	clockHz := int(h.BitRate) * 1000

	for cyl, th := range trackHeaders {
		sides, err := readTrack(r, th, h.NumberOfSide)
		if err != nil {
			return nil, errors.Wrapf(err, "read track %d", cyl)
		}
		for side, cells := range sides {
			if cells == nil {
				continue
			}
			ch := chs.CH{Cylinder: uint16(cyl), Head: uint8(side)}
			if err := img.AddTrackBitstream(floppyimg.EncodingMFM, rate, ch, clockHz, cells, nil); err != nil {
				return nil, errors.Wrapf(err, "add track %s", ch)
			}
		}
	}
	return img, nil
}

// readTrack reads one track's raw cell data and demuxes the two
// interleaved sides out of each 512-byte block.
func readTrack(r io.ReadSeeker, th trackHeader, numSides uint8) ([2][]byte, error) {
	var out [2][]byte

	trackLen := int(th.TrackLen)
	if trackLen&0x1FF != 0 {
		trackLen = (trackLen &^ 0x1FF) + 0x200
	}
	if _, err := r.Seek(int64(th.Offset)*blockSize, io.SeekStart); err != nil {
		return out, err
	}
	buf := make([]byte, trackLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return out, err
	}

	side0 := make([]byte, trackLen/2)
	side1 := make([]byte, trackLen/2)
	for j := 0; j < trackLen; j += blockSize {
		for k := 0; k < blockSize/2; k++ {
			side0[j/2+k] = byteBitsInverter[buf[j+k]]
			if numSides > 1 {
				side1[j/2+k] = byteBitsInverter[buf[j+blockSize/2+k]]
			}
		}
	}
	out[0] = side0
	if numSides > 1 {
		out[1] = side1
	}
	return out, nil
}

// Save writes img back out as an HFEv1 stream.
func Save(w io.WriteSeeker, img *floppyimg.DiskImage) error {
	cylinders, heads := img.DiskFormat.CH()
	rate := img.DiskFormat.DataRate()
	rpm := img.DiskFormat.Rpm()

	h := header{
		FormatRevision:      0,
		NumberOfTrack:       uint8(cylinders),
		NumberOfSide:        heads,
		TrackEncoding:       0, // ENC_ISOIBM_MFM
		BitRate:             uint16(rate),
		FloppyRPM:           uint16(rpm),
		FloppyInterfaceMode: 0, // IFM_IBMPC_DD
		WriteProtected:      0,
		TrackListOffset:     1,
		WriteAllowed:        1,
	}
	copy(h.Signature[:], signature)

	headerBlock := make([]byte, blockSize)
	for i := range headerBlock {
		headerBlock[i] = 0xFF
	}
	hbuf := make([]byte, 32)
	copy(hbuf[0:8], h.Signature[:])
	hbuf[8] = h.FormatRevision
	hbuf[9] = h.NumberOfTrack
	hbuf[10] = h.NumberOfSide
	hbuf[11] = h.TrackEncoding
	binary.LittleEndian.PutUint16(hbuf[12:14], h.BitRate)
	binary.LittleEndian.PutUint16(hbuf[14:16], h.FloppyRPM)
	hbuf[16] = h.FloppyInterfaceMode
	hbuf[17] = h.WriteProtected
	binary.LittleEndian.PutUint16(hbuf[18:20], h.TrackListOffset)
	hbuf[20] = h.WriteAllowed
	hbuf[21] = h.SingleStep
	copy(headerBlock, hbuf)
	if _, err := w.Write(headerBlock); err != nil {
		return errors.Wrap(err, "write header block")
	}

	type rawTrack struct{ side0, side1 []byte }
	tracks := make([]rawTrack, cylinders)
	trackHeaders := make([]trackHeader, cylinders)
	pos := uint16(2)

	for cyl := 0; cyl < cylinders; cyl++ {
		side0, err := encodeSide(img, uint16(cyl), 0)
		if err != nil {
			return errors.Wrapf(err, "encode cylinder %d head 0", cyl)
		}
		var side1 []byte
		if heads > 1 {
			side1, err = encodeSide(img, uint16(cyl), 1)
			if err != nil {
				return errors.Wrapf(err, "encode cylinder %d head 1", cyl)
			}
		}
		tracks[cyl] = rawTrack{side0: side0, side1: side1}

		trackLen := len(side0) * 2
		blocks := uint16((trackLen + blockSize - 1) / blockSize)
		trackHeaders[cyl] = trackHeader{Offset: pos, TrackLen: uint16(trackLen)}
		pos += blocks
	}

	trackListBlock := make([]byte, blockSize)
	for i := range trackListBlock {
		trackListBlock[i] = 0xFF
	}
	tlbuf := make([]byte, 4*len(trackHeaders))
	for i, th := range trackHeaders {
		binary.LittleEndian.PutUint16(tlbuf[4*i:4*i+2], th.Offset)
		binary.LittleEndian.PutUint16(tlbuf[4*i+2:4*i+4], th.TrackLen)
	}
	copy(trackListBlock, tlbuf)
	if _, err := w.Write(trackListBlock); err != nil {
		return errors.Wrap(err, "write track list block")
	}

	for _, t := range tracks {
		blockCount := (len(t.side0)*2 + blockSize - 1) / blockSize
		muxed := make([]byte, blockCount*blockSize)
		for i := range muxed {
			muxed[i] = 0xFF
		}
		for j := 0; j < blockCount; j++ {
			for k := 0; k < blockSize/2; k++ {
				srcIdx := j*(blockSize/2) + k
				if srcIdx < len(t.side0) {
					muxed[j*blockSize+k] = byteBitsInverter[t.side0[srcIdx]]
				}
				if t.side1 != nil && srcIdx < len(t.side1) {
					muxed[j*blockSize+blockSize/2+k] = byteBitsInverter[t.side1[srcIdx]]
				}
			}
		}
		if _, err := w.Write(muxed); err != nil {
			return errors.Wrap(err, "write track data")
		}
	}
	return nil
}

// encodeSide reads back the raw cell stream for one track straight
// from its TrackData; a BitStream track already holds exactly this.
func encodeSide(img *floppyimg.DiskImage, cyl uint16, head uint8) ([]byte, error) {
	result, err := img.ReadTrack(chs.CH{Cylinder: cyl, Head: head})
	if err != nil {
		return nil, err
	}
	if result.NotFound {
		return nil, errors.Errorf("no track at cylinder %d head %d", cyl, head)
	}
	return result.ReadBuf, nil
}
