package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sergev/floppyimg"
	"github.com/sergev/floppyimg/chs"
	"github.com/sergev/floppyimg/formats/hfe"
	"github.com/sergev/floppyimg/formats/rawimg"
)

// openImage loads the disk image at path through the core's format
// dispatch table (floppyimg.Load), returning the detected format
// alongside it so commands can report it or decide whether they can
// save back to the same container.
func openImage(path string) (*floppyimg.DiskImage, floppyimg.DiskImageFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, floppyimg.ImageFormatUnknown, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	tag, err := floppyimg.DetectFormat(f)
	if err != nil {
		return nil, floppyimg.ImageFormatUnknown, fmt.Errorf("detect format of %s: %w", path, err)
	}
	img, err := floppyimg.Load(f)
	if err != nil {
		return nil, tag, fmt.Errorf("load %s: %w", path, err)
	}
	return img, tag, nil
}

// saveByExtension writes img to path in the container its extension
// names. Only the two drivers this module writes (rawimg, hfe) are
// round-trippable; every other registered driver is Load-only.
func saveByExtension(path string, img *floppyimg.DiskImage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".img", ".ima":
		return rawimg.Save(f, img)
	case ".hfe":
		return hfe.Save(f, img)
	default:
		return fmt.Errorf("don't know how to save a %q file; use .img/.ima (raw) or .hfe", filepath.Ext(path))
	}
}

// parseCHS parses a "cylinder,head,sector" triple as used by the
// --chs flag of "dump hex".
func parseCHS(s string) (chs.CHS, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return chs.CHS{}, fmt.Errorf("--chs must be cylinder,head,sector (got %q)", s)
	}
	cyl, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return chs.CHS{}, fmt.Errorf("invalid cylinder in --chs: %w", err)
	}
	head, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return chs.CHS{}, fmt.Errorf("invalid head in --chs: %w", err)
	}
	sector, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return chs.CHS{}, fmt.Errorf("invalid sector in --chs: %w", err)
	}
	return chs.CHS{Cylinder: uint16(cyl), Head: uint8(head), Sector: uint8(sector)}, nil
}
