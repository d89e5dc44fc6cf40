package chs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNToBytesRoundTrip(t *testing.T) {
	for n := uint8(0); n <= MaxN; n++ {
		got := NToBytes(n)
		require.Equal(t, 128<<n, got, "NToBytes(%d)", n)
		back, ok := BytesToN(got)
		require.True(t, ok, "BytesToN(%d)", got)
		require.Equal(t, n, back, "BytesToN(%d)", got)
	}
}

func TestBytesToNUnknown(t *testing.T) {
	_, ok := BytesToN(100)
	require.False(t, ok, "BytesToN(100) should not resolve to a valid N")
}

func TestGetNextSector(t *testing.T) {
	base := CHS{Cylinder: 1, Head: 0, Sector: 5}
	next := base.GetNextSector()
	require.Equal(t, CHS{Cylinder: 1, Head: 0, Sector: 6}, next)
}

func TestConversions(t *testing.T) {
	full := CHSN{Cylinder: 2, Head: 1, Sector: 3, N: 2}
	require.Equal(t, CHS{Cylinder: 2, Head: 1, Sector: 3}, full.CHS())
	require.Equal(t, CH{Cylinder: 2, Head: 1}, full.CH())
}
