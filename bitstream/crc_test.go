package bitstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16CCITTIncrementalMatchesWhole(t *testing.T) {
	data := []byte{0xA1, 0xA1, 0xA1, 0xFE, 0x00, 0x00, 0x01, 0x02}
	whole := CRC16CCITT(CRCSeed, data)

	seed := CRCSeed
	seed = CRC16CCITT(seed, data[:4])
	seed = CRC16CCITT(seed, data[4:])
	require.Equal(t, whole, seed, "incremental CRC should match whole-slice CRC")
}

func TestCRC16CCITTByteMatchesSliceOfOne(t *testing.T) {
	seed := CRCSeed
	for _, b := range []byte{0x00, 0xFF, 0xA1, 0x4E} {
		require.Equal(t, CRC16CCITT(seed, []byte{b}), CRC16CCITTByte(seed, b), "byte %#02x", b)
	}
}
