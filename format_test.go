package floppyimg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeometryBijection(t *testing.T) {
	tags := []FloppyFormat{
		FormatPcFloppy160, FormatPcFloppy180, FormatPcFloppy320, FormatPcFloppy360,
		FormatPcFloppy720, FormatPcFloppy1200, FormatPcFloppy1440, FormatPcFloppy2880,
	}
	for _, tag := range tags {
		size := tag.Size()
		require.Equalf(t, tag, FormatFromSize(size), "FormatFromSize(%d)", size)
	}
}

func TestFormatFromSizeUnknown(t *testing.T) {
	require.Equal(t, FormatPcFloppy1440, FormatFromSize(1_474_560))
	require.Equal(t, FormatUnknown, FormatFromSize(100_000))
}

func TestRpmTable(t *testing.T) {
	require.Equal(t, Rpm360, FormatPcFloppy1200.Rpm(), "PcFloppy1200 should be 360 RPM")
	for _, tag := range []FloppyFormat{FormatUnknown, FormatFloppyCustom, FormatPcFloppy1440, FormatPcFloppy360} {
		require.Equalf(t, Rpm300, tag.Rpm(), "%v should be 300 RPM", tag)
	}
}
