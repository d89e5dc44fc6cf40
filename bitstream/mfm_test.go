package bitstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeBytesAsCells is a small test helper that encodes data with
// WriteBuf into a zeroed codec and returns the resulting cells, so a
// test can decode them through a separate, freshly constructed codec.
func encodeBytesAsCells(t *testing.T, data []byte) []byte {
	t.Helper()
	codec := NewMfmCodec(make([]byte, (len(data)*16+7)/8), nil)
	require.NoError(t, codec.WriteBuf(data, 0))
	return codec.Data()
}

func TestMfmEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x00},
		{0xFF},
		{0xA5, 0x5A, 0x01, 0xFE},
		{0x4E, 0x4E, 0x4E, 0x00, 0x00, 0x00},
	}
	for _, data := range cases {
		cells := encodeBytesAsCells(t, data)
		codec := NewMfmCodec(cells, nil)
		codec.Seek(0)
		got := make([]byte, len(data))
		weak, err := codec.ReadExact(got)
		require.NoError(t, err)
		require.Equal(t, data, got)
		for i, w := range weak {
			require.Falsef(t, w, "byte %d unexpectedly flagged weak", i)
		}
	}
}

func TestMfmWeakBitSurfaced(t *testing.T) {
	data := []byte{0xAA}
	cells := encodeBytesAsCells(t, data)
	codec := NewMfmCodec(cells, nil)
	codec.cells.SetWeak(0, true) // flag the first clock cell weak
	codec.Seek(0)
	got := make([]byte, 1)
	weak, err := codec.ReadExact(got)
	require.NoError(t, err)
	require.True(t, weak[0], "expected byte 0 to be flagged weak")
	require.Equal(t, data[0], got[0], "weak flag must not corrupt decoded value")
}

func TestMfmSeekHalfBitUnits(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33}
	cells := encodeBytesAsCells(t, data)
	codec := NewMfmCodec(cells, nil)
	// Seeking to decoded-byte offset 1 means half-bit offset
	// CellsToHalfBits(16) = 8.
	codec.Seek(CellsToHalfBits(DecodedByteOffsetToCells(1)))
	got := make([]byte, 1)
	_, err := codec.ReadExact(got)
	require.NoError(t, err)
	require.Equal(t, data[1], got[0], "seek landed on wrong byte")
}
