// Package pcesector is a stub driver for the PCE sector-image (.psi)
// container: registered into the dispatch table so DetectFormat can
// name it, honest about being unimplemented.
package pcesector

import (
	"io"

	"github.com/sergev/floppyimg"
)

type driver struct{}

func init() {
	floppyimg.RegisterFormat(floppyimg.ImageFormatPceSector, driver{})
}

func (driver) Detect(r io.ReadSeeker) (bool, error) { return false, nil }

func (driver) Load(r io.ReadSeeker) (*floppyimg.DiskImage, error) {
	return nil, floppyimg.NewUnsupportedFormatError("PceSector")
}
