package bitstream

import "fmt"

// MfmCodec decodes and re-encodes Modified Frequency Modulation cell
// streams. Each decoded data bit is carried by a clock cell followed by
// a data cell (16 cells per decoded byte); the clock cell is 1 iff
// neither the previous data bit nor the current data bit is 1. Standard
// address-mark bytes (0xA1, 0xC2) break this rule deliberately so the
// System 34 scanner can find them at any bit alignment (see
// system34.ScanTrackMarkers).
type MfmCodec struct {
	cells    *BitBuffer // the raw cell stream: clock bit, data bit, clock bit, data bit, ...
	clockMap *BitBuffer // true at cell indices the scanner has confirmed are clock positions
	cursor   int        // read cursor, in cells
}

// NewMfmCodec wraps an already-encoded MFM cell stream (as read from a
// bitstream container format) together with its weak-bit mask.
func NewMfmCodec(cells, weak []byte) *MfmCodec {
	buf := NewBitBufferWithWeak(cells, weak)
	return &MfmCodec{
		cells:    buf,
		clockMap: NewBitBuffer(make([]byte, buf.LenBytes())),
	}
}

// Seek positions the read cursor at cell offset halfBitOffset*2. The
// System 34 scanner reports field boundaries as cell indices, so callers
// convert them with CellsToHalfBits first; see bitstream.HalfBitsToCells.
func (m *MfmCodec) Seek(halfBitOffset int) {
	m.cursor = HalfBitsToCells(halfBitOffset)
}

// Len returns the cell-stream length in cells.
func (m *MfmCodec) Len() int { return m.cells.Len() }

// Data returns a borrowed view of the raw cell bytes.
func (m *MfmCodec) Data() []byte { return m.cells.AsBytes() }

// ClockMapMut returns the mutable clock/data classification bitmap,
// populated by system34.CreateClockMap once markers are located.
func (m *MfmCodec) ClockMapMut() *BitBuffer { return m.clockMap }

// HasWeakBits reports whether any cell underlying this codec is
// flagged weak.
func (m *MfmCodec) HasWeakBits() bool { return m.cells.HasWeakBits() }

// Cursor returns the current read cursor, in cells.
func (m *MfmCodec) Cursor() int { return m.cursor }

// SeekCells positions the read cursor at the given cell index directly,
// bypassing the half-bit conversion Seek performs. Call sites that
// already hold a cell offset (such as the cell indices the scanner
// reports field boundaries in) use this instead of converting to
// half-bits and back, so the two conventions stay visibly distinct at
// their call sites.
func (m *MfmCodec) SeekCells(cellOffset int) { m.cursor = cellOffset }

// RawByteAt decodes the clock byte and data byte of the 16 cells
// starting at cellStart, without regard to whether those cells form a
// legally-clocked byte. The System 34 scanner (system34.ScanTrackMarkers)
// uses this to recognise address marks by their deliberately illegal
// clock pattern before any clock map exists, and to decode payload bytes
// once a marker has anchored the phase. ok is false if cellStart+16
// would run past the end of the cell stream.
func (m *MfmCodec) RawByteAt(cellStart int) (clockByte, dataByte byte, ok bool) {
	if cellStart < 0 || cellStart+2*8 > m.cells.Len() {
		return 0, 0, false
	}
	for b := 0; b < 8; b++ {
		clockByte <<= 1
		if m.cells.GetBit(cellStart + b*2) {
			clockByte |= 1
		}
		dataByte <<= 1
		if m.cells.GetBit(cellStart + b*2 + 1) {
			dataByte |= 1
		}
	}
	return clockByte, dataByte, true
}

// WriteMarkerCells overwrites the 4-byte address-mark field starting at
// cellOffset: three sync bytes (syncDataByte, e.g. 0xA1 or 0xC2) encoded
// with a forced illegal clock byte instead of the normal MFM clock
// derivation, followed by one normally-clocked tag byte. This is how
// System 34 address marks are distinguishable from payload data at any
// bit alignment.
func (m *MfmCodec) WriteMarkerCells(cellOffset int, syncClockByte, syncDataByte, tag byte) error {
	bits := make([]bool, 0, 4*CellsPerDecodedByte)
	for rep := 0; rep < 3; rep++ {
		for b := 0; b < 8; b++ {
			bits = append(bits, syncClockByte&(0x80>>uint(b)) != 0, syncDataByte&(0x80>>uint(b)) != 0)
		}
	}
	prevBit := syncDataByte&0x01 != 0
	tagCells, _ := encodeByteCells(tag, prevBit)
	bits = append(bits, tagCells[:]...)
	return m.cells.WriteBitsAt(cellOffset, bits)
}

// decodeDataBitAt reads the data bit of the cell pair starting at cell
// index i, skipping its clock cell, and reports whether either of the
// pair's cells is flagged weak.
func (m *MfmCodec) decodeDataBitAt(i int) (bit, weak bool) {
	bit = m.cells.GetBit(i + 1)
	weak = m.cells.GetWeak(i) || m.cells.GetWeak(i+1)
	return
}

// ReadExact decodes len(dst) bytes starting at the current cursor,
// advancing it by 16*len(dst) cells, and reports per-byte weakness as
// an ancillary result rather than encoding it into the byte itself.
func (m *MfmCodec) ReadExact(dst []byte) (weakPerByte []bool, err error) {
	weakPerByte = make([]bool, len(dst))
	for i := range dst {
		var b byte
		weak := false
		for bitN := 0; bitN < 8; bitN++ {
			cellIdx := m.cursor
			if cellIdx+1 >= m.cells.Len() {
				return weakPerByte, fmt.Errorf("mfm: read past end of cell stream at cell %d (len %d)", cellIdx, m.cells.Len())
			}
			bit, w := m.decodeDataBitAt(cellIdx)
			weak = weak || w
			b <<= 1
			if bit {
				b |= 1
			}
			m.cursor += 2
		}
		dst[i] = b
		weakPerByte[i] = weak
	}
	return weakPerByte, nil
}

// encodeByteCells returns the 16 cells (clock,data,clock,data,...) for
// one byte, given the preceding data bit for clock-phase context, and
// returns the last data bit written (the new context for the next
// byte).
func encodeByteCells(b byte, prevDataBit bool) (cells [16]bool, lastBit bool) {
	prev := prevDataBit
	for bitN := 0; bitN < 8; bitN++ {
		bit := b&(0x80>>uint(bitN)) != 0
		clock := !(prev || bit)
		cells[bitN*2] = clock
		cells[bitN*2+1] = bit
		prev = bit
	}
	return cells, prev
}

// WriteBuf re-encodes src into MFM cells and overwrites the cell stream
// starting at cellOffset, deriving the first clock cell from the data
// bit immediately preceding cellOffset (0 if cellOffset is 0). Writing
// through a standard address mark's illegal clock pattern is undefined;
// callers must not write across markers.
func (m *MfmCodec) WriteBuf(src []byte, cellOffset int) error {
	prevBit := false
	if cellOffset > 0 {
		prevBit = m.cells.GetBit(cellOffset - 1)
	}
	bits := make([]bool, 0, len(src)*16)
	for _, b := range src {
		cells, last := encodeByteCells(b, prevBit)
		bits = append(bits, cells[:]...)
		prevBit = last
	}
	return m.cells.WriteBitsAt(cellOffset, bits)
}
