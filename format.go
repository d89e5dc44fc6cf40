package floppyimg

import "github.com/sergev/floppyimg/chs"

// Encoding tags which representational scheme a BitStream track's cells
// carry. Only Mfm is actually decoded by this module; Fm and Gcr are
// passed through opaquely and produce no structural metadata.
type Encoding int

const (
	EncodingMFM Encoding = iota
	EncodingFM
	EncodingGCR
	EncodingRaw
)

func (e Encoding) String() string {
	switch e {
	case EncodingMFM:
		return "MFM"
	case EncodingFM:
		return "FM"
	case EncodingGCR:
		return "GCR"
	case EncodingRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// DataRate is the nominal flux transfer rate of a track, in kbps.
type DataRate int

const (
	Rate250Kbps DataRate = 250
	Rate300Kbps DataRate = 300
	Rate500Kbps DataRate = 500
)

// Rpm is the nominal spindle speed implied by a disk format.
type Rpm int

const (
	Rpm300 Rpm = 300
	Rpm360 Rpm = 360
)

// FloppyFormat names a standard PC floppy geometry by its conventional
// capacity label. FloppyCustom covers a disk built with New that does
// not match any named size; Unknown covers a size seen on load that
// matches none of the size→tag entries below.
type FloppyFormat int

const (
	FormatUnknown FloppyFormat = iota
	FormatPcFloppy160
	FormatPcFloppy180
	FormatPcFloppy320
	FormatPcFloppy360
	FormatPcFloppy720
	FormatPcFloppy1200
	FormatPcFloppy1440
	FormatPcFloppy2880
	FormatFloppyCustom
)

func (f FloppyFormat) String() string {
	switch f {
	case FormatPcFloppy160:
		return "PcFloppy160"
	case FormatPcFloppy180:
		return "PcFloppy180"
	case FormatPcFloppy320:
		return "PcFloppy320"
	case FormatPcFloppy360:
		return "PcFloppy360"
	case FormatPcFloppy720:
		return "PcFloppy720"
	case FormatPcFloppy1200:
		return "PcFloppy1200"
	case FormatPcFloppy1440:
		return "PcFloppy1440"
	case FormatPcFloppy2880:
		return "PcFloppy2880"
	case FormatFloppyCustom:
		return "FloppyCustom"
	default:
		return "Unknown"
	}
}

// ParseFloppyFormat resolves a FloppyFormat's String() spelling back
// into its value, for config profiles that name a tag by string (the
// "tag" field of a [[format]] entry).
func ParseFloppyFormat(tag string) (FloppyFormat, error) {
	for _, f := range []FloppyFormat{
		FormatPcFloppy160, FormatPcFloppy180, FormatPcFloppy320, FormatPcFloppy360,
		FormatPcFloppy720, FormatPcFloppy1200, FormatPcFloppy1440, FormatPcFloppy2880,
		FormatFloppyCustom,
	} {
		if f.String() == tag {
			return f, nil
		}
	}
	return FormatUnknown, newError(ParameterError, "unrecognized format tag %q", tag)
}

type floppyGeometry struct {
	cylinders int
	heads     uint8
	sectors   uint8
	size      int
}

var floppyGeometries = map[FloppyFormat]floppyGeometry{
	FormatPcFloppy160:  {40, 1, 8, 163_840},
	FormatPcFloppy180:  {40, 1, 9, 184_320},
	FormatPcFloppy320:  {40, 2, 8, 327_680},
	FormatPcFloppy360:  {40, 2, 9, 368_640},
	FormatPcFloppy720:  {80, 2, 9, 737_280},
	FormatPcFloppy1200: {80, 2, 15, 1_228_800},
	FormatPcFloppy1440: {80, 2, 18, 1_474_560},
	FormatPcFloppy2880: {80, 2, 36, 2_949_120},
}

// FormatFromSize maps an image's byte size to its FloppyFormat tag.
// The match is exact; sizes that match no named geometry map to
// FormatUnknown.
func FormatFromSize(size int) FloppyFormat {
	for tag, g := range floppyGeometries {
		if g.size == size {
			return tag
		}
	}
	return FormatUnknown
}

// Size returns the format's total image size in bytes, or 0 for
// FormatUnknown/FormatFloppyCustom (which carry no fixed size).
func (f FloppyFormat) Size() int {
	return floppyGeometries[f].size
}

// CH returns the format's cylinder count and head count.
func (f FloppyFormat) CH() (cylinders int, heads uint8) {
	g, ok := floppyGeometries[f]
	if !ok {
		return 0, 0
	}
	return g.cylinders, g.heads
}

// SectorsPerTrack returns the format's physical sector count per track.
func (f FloppyFormat) SectorsPerTrack() uint8 {
	return floppyGeometries[f].sectors
}

// Rpm returns the nominal spindle speed implied by the format.
// PcFloppy1200 is the sole 360 RPM member of the family; every other
// tag, including Unknown and FloppyCustom, is 300 RPM.
func (f FloppyFormat) Rpm() Rpm {
	if f == FormatPcFloppy1200 {
		return Rpm360
	}
	return Rpm300
}

// DataEncoding returns the encoding every named PC floppy format
// uses: MFM throughout.
func (f FloppyFormat) DataEncoding() Encoding { return EncodingMFM }

// DataRate returns the data rate every named PC floppy format uses:
// 500 kbps throughout.
func (f FloppyFormat) DataRate() DataRate { return Rate500Kbps }

// DefaultSectorSize returns the conventional per-sector payload size
// for a format, 512 bytes for every named PC geometry.
func (f FloppyFormat) DefaultSectorSize() int {
	if _, ok := floppyGeometries[f]; !ok {
		return 0
	}
	return 512
}

// Descriptor builds the declarative DiskDescriptor a freshly
// constructed DiskImage of this format reports.
func (f FloppyFormat) Descriptor() DiskDescriptor {
	cylinders, heads := f.CH()
	rpm := f.Rpm()
	return DiskDescriptor{
		Geometry:          chs.CH{Cylinder: uint16(cylinders), Head: heads},
		DefaultSectorSize: f.DefaultSectorSize(),
		DataEncoding:      f.DataEncoding(),
		DataRate:          f.DataRate(),
		Rpm:               &rpm,
	}
}

// DiskImageFormat names an on-disk container format external drivers
// detect and load. The core only carries the tag
// and dispatch table; the container's own framing belongs entirely to
// the driver package registered under it.
type DiskImageFormat int

const (
	ImageFormatUnknown DiskImageFormat = iota
	ImageFormatRawSector
	ImageFormatHFEv1
	ImageFormatKryoflux
	ImageFormatSuperCardPro
	ImageFormatImageDisk
	ImageFormatTeleDisk
	ImageFormatPceSector
	ImageFormatPceBitstream
	ImageFormatHxcMfm
)

func (f DiskImageFormat) String() string {
	switch f {
	case ImageFormatRawSector:
		return "RawSector"
	case ImageFormatHFEv1:
		return "HFEv1"
	case ImageFormatKryoflux:
		return "Kryoflux"
	case ImageFormatSuperCardPro:
		return "SuperCardPro"
	case ImageFormatImageDisk:
		return "ImageDisk"
	case ImageFormatTeleDisk:
		return "TeleDisk"
	case ImageFormatPceSector:
		return "PceSector"
	case ImageFormatPceBitstream:
		return "PceBitstream"
	case ImageFormatHxcMfm:
		return "HxcMfm"
	default:
		return "Unknown"
	}
}
