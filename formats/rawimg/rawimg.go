// Package rawimg implements the plain sector-image container (.img,
// .ima): a flat dump of every sector in physical order, with no
// header at all. Detection is by exact file size against the known
// PC geometry table.
package rawimg

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/sergev/floppyimg"
	"github.com/sergev/floppyimg/chs"
)

type driver struct{}

func init() {
	floppyimg.RegisterFormat(floppyimg.ImageFormatRawSector, driver{})
}

// Detect reports whether r's total length matches a known raw floppy
// image size. A raw image carries no signature, so size is the only
// usable fingerprint.
func (driver) Detect(r io.ReadSeeker) (bool, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return false, err
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return false, err
	}
	return floppyimg.FormatFromSize(int(size)) != floppyimg.FormatUnknown, nil
}

// Load reads the whole stream and slices it into cylinder/head/sector
// ByteStream tracks in physical order.
func (driver) Load(r io.ReadSeeker) (*floppyimg.DiskImage, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seek to start")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read raw image")
	}

	format := floppyimg.FormatFromSize(len(data))
	if format == floppyimg.FormatUnknown {
		return nil, errors.Errorf("raw image size %d does not match a known floppy format", len(data))
	}

	cylinders, heads := format.CH()
	sectorsPerTrack := format.SectorsPerTrack()
	sectorSize := format.DefaultSectorSize()
	n, ok := chs.BytesToN(sectorSize)
	if !ok {
		return nil, errors.Errorf("sector size %d has no System 34 size code", sectorSize)
	}

	log.Debug().Str("format", format.String()).Int("size", len(data)).Msg("rawimg: loading")

	img := floppyimg.New(format)
	offset := 0
	for cyl := uint16(0); cyl < uint16(cylinders); cyl++ {
		for head := uint8(0); head < heads; head++ {
			ch := chs.CH{Cylinder: cyl, Head: head}
			if err := img.AddTrackBytestream(floppyimg.EncodingMFM, floppyimg.Rate500Kbps, ch); err != nil {
				return nil, errors.Wrapf(err, "add track %s", ch)
			}
			for sector := uint8(1); sector <= sectorsPerTrack; sector++ {
				if offset+sectorSize > len(data) {
					return nil, errors.Errorf("raw image truncated at cylinder %d head %d sector %d", cyl, head, sector)
				}
				desc := floppyimg.SectorDescriptor{
					ID:   sector,
					N:    n,
					Data: append([]byte(nil), data[offset:offset+sectorSize]...),
				}
				target := chs.CHS{Cylinder: cyl, Head: head, Sector: sector}
				if err := img.MasterSector(target, desc); err != nil {
					return nil, errors.Wrapf(err, "master sector %s", target)
				}
				offset += sectorSize
			}
		}
	}
	return img, nil
}

// Save writes img back out as a flat raw sector image, in the same
// physical order Load reads it.
func Save(w io.Writer, img *floppyimg.DiskImage) error {
	cylinders, heads := img.DiskFormat.CH()
	sectorsPerTrack := img.DiskFormat.SectorsPerTrack()
	for cyl := uint16(0); cyl < uint16(cylinders); cyl++ {
		for head := uint8(0); head < heads; head++ {
			for sector := uint8(1); sector <= sectorsPerTrack; sector++ {
				target := chs.CHS{Cylinder: cyl, Head: head, Sector: sector}
				result, err := img.ReadSector(target, nil, floppyimg.DataOnly, true)
				if err != nil {
					return errors.Wrapf(err, "read sector %s", target)
				}
				if _, err := w.Write(result.ReadBuf); err != nil {
					return errors.Wrap(err, "write sector payload")
				}
			}
		}
	}
	return nil
}
