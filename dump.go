package floppyimg

import (
	"fmt"
	"io"

	"github.com/sergev/floppyimg/chs"
)

// DumpInfo writes a human-readable summary of the disk's declared
// format, geometry, and cached consistency to w.
func (d *DiskImage) DumpInfo(w io.Writer) error {
	cylinders, heads := d.DiskFormat.CH()
	if _, err := fmt.Fprintf(w, "disk format:   %s\n", d.DiskFormat); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "geometry:      %d cylinders x %d heads\n", cylinders, heads); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "sector size:   %d bytes\n", d.SectorSize); err != nil {
		return err
	}
	if d.VolumeName != "" {
		if _, err := fmt.Fprintf(w, "volume name:   %s\n", d.VolumeName); err != nil {
			return err
		}
	}
	if d.Comment != "" {
		if _, err := fmt.Fprintf(w, "comment:       %s\n", d.Comment); err != nil {
			return err
		}
	}
	consistentSize := "varies"
	if d.Consistency.ConsistentSectorSize != nil {
		consistentSize = fmt.Sprintf("%d", *d.Consistency.ConsistentSectorSize)
	}
	consistentLen := "varies"
	if d.Consistency.ConsistentTrackLength != nil {
		consistentLen = fmt.Sprintf("%d", *d.Consistency.ConsistentTrackLength)
	}
	_, err := fmt.Fprintf(w, "consistency:   weak=%t deleted=%t sector_size=%s track_length=%s\n",
		d.Consistency.Weak, d.Consistency.Deleted, consistentSize, consistentLen)
	return err
}

// DumpSectorMap writes every track's sector list, per head and
// cylinder, to w.
func (d *DiskImage) DumpSectorMap(w io.Writer) error {
	for head := range d.trackMap {
		for cyl, idx := range d.trackMap[head] {
			if idx == trackMapEmpty {
				continue
			}
			track := d.trackPool[idx].Data
			entries := track.GetSectorList()
			if len(entries) == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "head %d cylinder %d (%s, %d kbps):\n",
				head, cyl, track.Encoding(), track.DataRate()); err != nil {
				return err
			}
			for _, e := range entries {
				if _, err := fmt.Fprintf(w, "  %s len=%d addr_crc_error=%t data_crc_error=%t deleted=%t\n",
					e.CHSN, e.Len, e.AddressCRCError, e.DataCRCError, e.DeletedMark); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// printableLow/printableHigh bound the ASCII range DumpSectorHex
// treats as printable in its gutter column: 0x28 through 0x7E,
// narrower than the conventional 0x20 start.
const (
	printableLow  = 0x28
	printableHigh = 0x7E
)

// DumpSectorHex reads one sector with DataOnly scope and writes a
// hex-plus-ASCII-gutter dump of it to w, bytesPerRow bytes per row,
// handling a short final row. debug is passed through to ReadSector so
// sectors with bad address CRCs can still be inspected.
func (d *DiskImage) DumpSectorHex(w io.Writer, target chs.CHS, bytesPerRow int, debug bool) error {
	result, err := d.ReadSector(target, nil, DataOnly, debug)
	if err != nil {
		return err
	}
	buf := result.ReadBuf
	for offset := 0; offset < len(buf); offset += bytesPerRow {
		rowLen := bytesPerRow
		if offset+rowLen > len(buf) {
			rowLen = len(buf) - offset
		}
		row := buf[offset : offset+rowLen]
		if _, err := fmt.Fprintf(w, "%08x  ", offset); err != nil {
			return err
		}
		for i := 0; i < bytesPerRow; i++ {
			if i < len(row) {
				if _, err := fmt.Fprintf(w, "%02x ", row[i]); err != nil {
					return err
				}
			} else if _, err := fmt.Fprint(w, "   "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, " "); err != nil {
			return err
		}
		for _, b := range row {
			c := byte('.')
			if b >= printableLow && b <= printableHigh {
				c = b
			}
			if _, err := fmt.Fprintf(w, "%c", c); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
