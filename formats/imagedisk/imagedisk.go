// Package imagedisk is a stub driver for the ImageDisk (.imd)
// container: registered into the dispatch table so DetectFormat can
// name it, honest about being unimplemented.
package imagedisk

import (
	"io"

	"github.com/sergev/floppyimg"
)

type driver struct{}

func init() {
	floppyimg.RegisterFormat(floppyimg.ImageFormatImageDisk, driver{})
}

func (driver) Detect(r io.ReadSeeker) (bool, error) { return false, nil }

func (driver) Load(r io.ReadSeeker) (*floppyimg.DiskImage, error) {
	return nil, floppyimg.NewUnsupportedFormatError("ImageDisk")
}
