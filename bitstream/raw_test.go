package bitstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawCodecRoundTrip(t *testing.T) {
	data := []byte{0xA5, 0x5A, 0x01, 0xFE}
	codec := NewRawCodec(make([]byte, len(data)))
	require.NoError(t, codec.WriteBuf(data, 0))
	require.Equal(t, len(data)*8, codec.Len())
	require.False(t, codec.HasWeakBits())

	codec.Seek(0)
	got := make([]byte, len(data))
	require.NoError(t, codec.ReadExact(got))
	require.Equal(t, data, got)
}

func TestRawCodecSeekMidStream(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33}
	codec := NewRawCodec(make([]byte, len(data)))
	require.NoError(t, codec.WriteBuf(data, 0))

	codec.Seek(16) // third byte
	got := make([]byte, 1)
	require.NoError(t, codec.ReadExact(got))
	require.Equal(t, data[2], got[0])
}

func TestRawCodecWriteBufAtOffset(t *testing.T) {
	codec := NewRawCodec(make([]byte, 2))
	require.NoError(t, codec.WriteBuf([]byte{0xFF}, 4))

	codec.Seek(0)
	got := make([]byte, 2)
	require.NoError(t, codec.ReadExact(got))
	require.Equal(t, []byte{0x0F, 0xF0}, got)
}

func TestRawCodecReadPastEndErrors(t *testing.T) {
	codec := NewRawCodec(make([]byte, 1))
	codec.Seek(4)
	got := make([]byte, 1)
	require.Error(t, codec.ReadExact(got))
}
