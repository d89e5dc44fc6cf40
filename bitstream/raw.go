package bitstream

import "fmt"

// RawCodec is the pass-through counterpart to MfmCodec for FM, GCR, and
// raw bit streams: it packs and unpacks cells 8-at-a-time with no clock
// distinction, and the structural parser never scans it for markers.
type RawCodec struct {
	cells  *BitBuffer
	cursor int // in bits
}

// NewRawCodec wraps already-packed bytes as a raw bit stream.
func NewRawCodec(data []byte) *RawCodec {
	return &RawCodec{cells: NewBitBuffer(data)}
}

// Seek positions the cursor at the given bit offset. Unlike MfmCodec,
// raw streams have no clock/data cell pairing, so offsets are plain bit
// indices rather than half-bit units.
func (r *RawCodec) Seek(bitOffset int) { r.cursor = bitOffset }

// Len returns the stream length in bits.
func (r *RawCodec) Len() int { return r.cells.Len() }

// Data returns a borrowed view of the raw bytes.
func (r *RawCodec) Data() []byte { return r.cells.AsBytes() }

// HasWeakBits always reports false: weak-bit tracking is an
// MFM-variant-only concept for BitStream tracks.
func (r *RawCodec) HasWeakBits() bool { return false }

// ReadExact packs len(dst) bytes starting at the cursor, 8 bits per
// byte, advancing the cursor by 8*len(dst) bits.
func (r *RawCodec) ReadExact(dst []byte) error {
	for i := range dst {
		var b byte
		for bitN := 0; bitN < 8; bitN++ {
			if r.cursor >= r.cells.Len() {
				return fmt.Errorf("raw: read past end of stream at bit %d (len %d)", r.cursor, r.cells.Len())
			}
			b <<= 1
			if r.cells.GetBit(r.cursor) {
				b |= 1
			}
			r.cursor++
		}
		dst[i] = b
	}
	return nil
}

// WriteBuf overwrites len(src)*8 bits starting at bitOffset.
func (r *RawCodec) WriteBuf(src []byte, bitOffset int) error {
	bits := make([]bool, 0, len(src)*8)
	for _, b := range src {
		for bitN := 0; bitN < 8; bitN++ {
			bits = append(bits, b&(0x80>>uint(bitN)) != 0)
		}
	}
	return r.cells.WriteBitsAt(bitOffset, bits)
}
