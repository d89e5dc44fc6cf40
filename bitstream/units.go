package bitstream

// Cell-stream unit conversions, kept as named functions rather than bare
// shift operators. The distinction between a cell index, a half-bit
// index, and a decoded-byte offset is easy to lose behind bare shifts,
// so every conversion gets a name.

// CellsPerDecodedByte is the number of MFM cells (clock+data pairs)
// consumed by one decoded byte: 8 data bits, each carried by a
// clock cell followed by a data cell.
const CellsPerDecodedByte = 16

// HalfBitsToCells converts a half-bit offset (the unit MfmCodec.Seek
// takes) to a cell index. The System 34 scanner reports marker/field
// offsets as cell indices.
func HalfBitsToCells(halfBits int) int {
	return halfBits * 2
}

// CellsToHalfBits is the inverse of HalfBitsToCells.
func CellsToHalfBits(cells int) int {
	return cells / 2
}

// CellsToDecodedByteOffset converts a cell index to the decoded-byte
// offset it falls within.
func CellsToDecodedByteOffset(cells int) int {
	return cells / CellsPerDecodedByte
}

// DecodedByteOffsetToCells is the inverse of CellsToDecodedByteOffset.
func DecodedByteOffsetToCells(byteOffset int) int {
	return byteOffset * CellsPerDecodedByte
}
