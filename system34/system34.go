// Package system34 implements the IBM System 34 / PC floppy structural
// parser: it scans a decoded MFM cell stream for address marks, computes
// and validates their CRCs, emits a metadata timeline of typed elements
// anchored at cell indices, and can synthesise a freshly formatted
// track from a sector list.
package system34

import (
	"sort"

	"github.com/sergev/floppyimg/bitstream"
	"github.com/sergev/floppyimg/chs"
)

// MarkerKind identifies which of the four System 34 address marks a
// Marker represents.
type MarkerKind int

const (
	IAM MarkerKind = iota
	IDAM
	DAM
	DDAM
)

func (k MarkerKind) String() string {
	switch k {
	case IAM:
		return "IAM"
	case IDAM:
		return "IDAM"
	case DAM:
		return "DAM"
	case DDAM:
		return "DDAM"
	default:
		return "unknown"
	}
}

// Marker records where an address mark was found, in cells.
type Marker struct {
	Kind       MarkerKind
	CellOffset int // cell index of the marker's first sync byte
}

// IBM System 34 byte-level constants.
const (
	GapByte  = 0x4E
	SyncByte = 0x00

	tagIAM  = 0xFC
	tagIDAM = 0xFE
	tagDAM  = 0xFB
	tagDDAM = 0xF8

	syncA1 = 0xA1
	syncC2 = 0xC2

	// clockA1/clockC2 are the deliberately illegal clock bytes that
	// accompany the 0xA1/0xC2 sync bytes so they can be recognised at
	// any bit alignment.
	clockA1 = 0x0A
	clockC2 = 0x14
)

// ElemKind tags the kind of a DiskStructureMetadataItem.
type ElemKind int

const (
	ElemIAM ElemKind = iota
	ElemIdam
	ElemData
	ElemDeletedData
)

// MetadataItem is one entry of the metadata timeline produced by
// ScanTrackMetadata: a typed element anchored at a [Start, End) cell
// range, with CHSN propagated from the governing IDAM where applicable.
type MetadataItem struct {
	Kind            ElemKind
	Start, End      int // cell offsets
	CHSN            *chs.CHSN
	AddressCRCValid bool
	DataCRCValid    bool
	Deleted         bool
}

func markerBytes(kind MarkerKind) (syncByte, tag byte) {
	switch kind {
	case IAM:
		return syncC2, tagIAM
	case IDAM:
		return syncA1, tagIDAM
	case DAM:
		return syncA1, tagDAM
	case DDAM:
		return syncA1, tagDDAM
	}
	return 0, 0
}

func classifyTag(syncByte, tag byte) (MarkerKind, bool) {
	switch {
	case syncByte == syncA1 && tag == tagIDAM:
		return IDAM, true
	case syncByte == syncA1 && tag == tagDAM:
		return DAM, true
	case syncByte == syncA1 && tag == tagDDAM:
		return DDAM, true
	case syncByte == syncC2 && tag == tagIAM:
		return IAM, true
	}
	return 0, false
}

// ScanTrackMarkers scans the raw cell stream (not the decoded byte
// stream — discovery must not depend on an already-correct clock
// phase) for every IAM/IDAM/DAM/DDAM marker, by matching the
// illegal clock pattern of three consecutive 0xA1 or 0xC2 bytes followed
// by a recognised tag byte.
func ScanTrackMarkers(codec *bitstream.MfmCodec) []Marker {
	var markers []Marker
	n := codec.Len()
	for i := 0; i+4*bitstream.CellsPerDecodedByte <= n; {
		c0, d0, _ := codec.RawByteAt(i)
		isA1 := c0 == clockA1 && d0 == syncA1
		isC2 := c0 == clockC2 && d0 == syncC2
		if !isA1 && !isC2 {
			i++
			continue
		}
		c1, d1, _ := codec.RawByteAt(i + bitstream.CellsPerDecodedByte)
		c2, d2, _ := codec.RawByteAt(i + 2*bitstream.CellsPerDecodedByte)
		if c1 != c0 || d1 != d0 || c2 != c0 || d2 != d0 {
			i++
			continue
		}
		_, tag, ok := codec.RawByteAt(i + 3*bitstream.CellsPerDecodedByte)
		if !ok {
			i++
			continue
		}
		kind, known := classifyTag(d0, tag)
		if !known {
			i++
			continue
		}
		markers = append(markers, Marker{Kind: kind, CellOffset: i})
		i += 4 * bitstream.CellsPerDecodedByte
	}
	return markers
}

func sortedMarkers(markers []Marker) []Marker {
	sorted := append([]Marker(nil), markers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CellOffset < sorted[j].CellOffset })
	return sorted
}

// CreateClockMap marks the clock-bit cell positions governed by each
// marker, from the marker's own 16 cells through to the next marker (or
// end of stream), so subsequent scans can interpret sync violations
// inside payload data as noise rather than spurious markers.
func CreateClockMap(codec *bitstream.MfmCodec, markers []Marker) {
	sorted := sortedMarkers(markers)
	clockMap := codec.ClockMapMut()
	n := codec.Len()
	for idx, mk := range sorted {
		end := n
		if idx+1 < len(sorted) {
			end = sorted[idx+1].CellOffset
		}
		for i := mk.CellOffset; i+1 < end; i += 2 {
			clockMap.SetBit(i, true)
		}
	}
}

// ScanTrackMetadata walks markers in ascending order, decodes the bytes
// following each, and emits the typed metadata timeline.
// Orphan IDAMs (no following DAM/DDAM) are recorded as
// address-valid-only items with no associated data; orphan DAM/DDAMs
// (no governing IDAM) are silently skipped, since there is no N to size
// their payload by.
func ScanTrackMetadata(codec *bitstream.MfmCodec, markers []Marker) []MetadataItem {
	sorted := sortedMarkers(markers)
	var items []MetadataItem
	var lastIdam *chs.CHSN
	var lastIdamAddrValid bool
	for _, mk := range sorted {
		switch mk.Kind {
		case IAM:
			items = append(items, MetadataItem{
				Kind:  ElemIAM,
				Start: mk.CellOffset,
				End:   mk.CellOffset + 4*bitstream.CellsPerDecodedByte,
			})
		case IDAM:
			item, chsn, addrValid := scanIdam(codec, mk)
			items = append(items, item)
			lastIdam = chsn
			lastIdamAddrValid = addrValid
		case DAM, DDAM:
			if lastIdam == nil {
				continue
			}
			if item, ok := scanData(codec, mk, *lastIdam, lastIdamAddrValid); ok {
				items = append(items, item)
			}
		}
	}
	return items
}

// ComputeAddressCRC returns the CRC-CCITT over an IDAM's marker bytes
// (A1 A1 A1 FE) followed by its C/H/R/N header, the same way
// scanIdam validates a scanned IDAM. Exported so TrackData.WriteSector
// can recompute an address field's CRC without re-deriving the marker
// byte sequence.
func ComputeAddressCRC(hdr [4]byte) uint16 {
	crc := bitstream.CRC16CCITT(bitstream.CRCSeed, []byte{syncA1, syncA1, syncA1, tagIDAM})
	return bitstream.CRC16CCITT(crc, hdr[:])
}

// ComputeDataCRC returns the CRC-CCITT over a DAM/DDAM's marker bytes
// followed by payload, the same way scanData validates a scanned data
// field. Exported so TrackData.WriteSector can recompute a data
// field's CRC after a sector write.
func ComputeDataCRC(deleted bool, payload []byte) uint16 {
	tag := byte(tagDAM)
	if deleted {
		tag = tagDDAM
	}
	crc := bitstream.CRC16CCITT(bitstream.CRCSeed, []byte{syncA1, syncA1, syncA1, tag})
	return bitstream.CRC16CCITT(crc, payload)
}

func scanIdam(codec *bitstream.MfmCodec, mk Marker) (MetadataItem, *chs.CHSN, bool) {
	fieldStart := mk.CellOffset + 4*bitstream.CellsPerDecodedByte
	var fields [6]byte
	for i := range fields {
		_, d, _ := codec.RawByteAt(fieldStart + i*bitstream.CellsPerDecodedByte)
		fields[i] = d
	}
	chsn := chs.CHSN{Cylinder: uint16(fields[0]), Head: fields[1], Sector: fields[2], N: fields[3]}
	stored := uint16(fields[4])<<8 | uint16(fields[5])
	// An N above chs.MaxN can never describe a real sector; treat it
	// the same as a CRC mismatch so scanData never sizes a payload
	// off it.
	valid := ComputeAddressCRC([4]byte(fields[:4])) == stored && chsn.N <= chs.MaxN
	end := fieldStart + 6*bitstream.CellsPerDecodedByte
	item := MetadataItem{
		Kind:            ElemIdam,
		Start:           mk.CellOffset,
		End:             end,
		CHSN:            &chsn,
		AddressCRCValid: valid,
	}
	return item, &chsn, valid
}

// scanData decodes the DAM/DDAM field governed by idamChsn. ok is false
// if idamChsn.N is out of chs.NToBytes's valid range (0..=chs.MaxN) — a
// corrupted IDAM byte must never size a payload allocation.
func scanData(codec *bitstream.MfmCodec, mk Marker, idamChsn chs.CHSN, addrValid bool) (item MetadataItem, ok bool) {
	if idamChsn.N > chs.MaxN {
		return MetadataItem{}, false
	}
	n := chs.NToBytes(idamChsn.N)
	fieldStart := mk.CellOffset + 4*bitstream.CellsPerDecodedByte
	payload := make([]byte, n)
	for i := range payload {
		_, d, _ := codec.RawByteAt(fieldStart + i*bitstream.CellsPerDecodedByte)
		payload[i] = d
	}
	crcFieldStart := fieldStart + n*bitstream.CellsPerDecodedByte
	var crcBytes [2]byte
	for i := range crcBytes {
		_, d, _ := codec.RawByteAt(crcFieldStart + i*bitstream.CellsPerDecodedByte)
		crcBytes[i] = d
	}
	stored := uint16(crcBytes[0])<<8 | uint16(crcBytes[1])

	kind := ElemData
	if mk.Kind == DDAM {
		kind = ElemDeletedData
	}
	dataValid := ComputeDataCRC(mk.Kind == DDAM, payload) == stored

	end := crcFieldStart + 2*bitstream.CellsPerDecodedByte
	chsnCopy := idamChsn
	return MetadataItem{
		Kind:            kind,
		Start:           mk.CellOffset,
		End:             end,
		CHSN:            &chsnCopy,
		AddressCRCValid: addrValid,
		DataCRCValid:    dataValid,
		Deleted:         mk.Kind == DDAM,
	}, true
}

// SetTrackMarkers writes the 0xA1/0xC2 marker bytes with their illegal
// clock patterns at each marker's recorded cell offset, overwriting
// whatever cells a bulk encode (bitstream.MfmCodec.WriteBuf) left there.
func SetTrackMarkers(codec *bitstream.MfmCodec, markers []Marker) error {
	for _, mk := range markers {
		syncByte, tag := markerBytes(mk.Kind)
		clockByte := clockA1
		if syncByte == syncC2 {
			clockByte = clockC2
		}
		if err := codec.WriteMarkerCells(mk.CellOffset, byte(clockByte), syncByte, tag); err != nil {
			return err
		}
	}
	return nil
}

// FormatTrackAsBytes synthesises a fresh IBM-format track as a flat byte
// buffer (gap4a, IAM, gap1, then per sector: sync, IDAM+CHSN+CRC, gap2,
// sync, DAM+payload+CRC, gap3; padded to capacity with gap4b).
// The returned markers are in cells (byteOffset*16),
// ready to hand to SetTrackMarkers once the buffer has been bulk-encoded
// into a codec.
func FormatTrackAsBytes(chsns []chs.CHSN, bitcellCapacity int, fillByte byte, gap3 int) (trackBytes []byte, markers []Marker) {
	const gap4a = 80
	const gap1 = 50
	const gap2 = 22
	const syncLen = 12

	var buf []byte
	appendN := func(b byte, n int) {
		for i := 0; i < n; i++ {
			buf = append(buf, b)
		}
	}

	appendN(GapByte, gap4a)
	iamOffset := len(buf)
	buf = append(buf, syncC2, syncC2, syncC2, tagIAM)
	markers = append(markers, Marker{Kind: IAM, CellOffset: iamOffset * bitstream.CellsPerDecodedByte})
	appendN(GapByte, gap1)

	for _, s := range chsns {
		appendN(SyncByte, syncLen)
		idamOffset := len(buf)
		buf = append(buf, syncA1, syncA1, syncA1, tagIDAM)
		markers = append(markers, Marker{Kind: IDAM, CellOffset: idamOffset * bitstream.CellsPerDecodedByte})
		hdr := [4]byte{byte(s.Cylinder), s.Head, s.Sector, s.N}
		buf = append(buf, hdr[:]...)
		crc := ComputeAddressCRC(hdr)
		buf = append(buf, byte(crc>>8), byte(crc))
		appendN(GapByte, gap2)

		appendN(SyncByte, syncLen)
		damOffset := len(buf)
		buf = append(buf, syncA1, syncA1, syncA1, tagDAM)
		markers = append(markers, Marker{Kind: DAM, CellOffset: damOffset * bitstream.CellsPerDecodedByte})
		payload := make([]byte, chs.NToBytes(s.N))
		for i := range payload {
			payload[i] = fillByte
		}
		buf = append(buf, payload...)
		crc = ComputeDataCRC(false, payload)
		buf = append(buf, byte(crc>>8), byte(crc))
		appendN(GapByte, gap3)
	}

	capacityBytes := bitcellCapacity / bitstream.CellsPerDecodedByte
	if len(buf) < capacityBytes {
		appendN(GapByte, capacityBytes-len(buf))
	}
	return buf, markers
}
