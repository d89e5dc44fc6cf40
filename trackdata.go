package floppyimg

import (
	"crypto/sha1"

	"github.com/rs/zerolog/log"

	"github.com/sergev/floppyimg/bitstream"
	"github.com/sergev/floppyimg/chs"
	"github.com/sergev/floppyimg/system34"
)

// RwSectorScope selects how much of a sector's on-track encoding a read
// or write carries: just the payload, or the marker+payload+CRC block
// around it.
type RwSectorScope int

const (
	// DataOnly reads or writes exactly the 128<<N payload bytes.
	DataOnly RwSectorScope = iota
	// DataBlock reads or writes marker(4) + payload + CRC(2). Only
	// meaningful for BitStream tracks; ByteStream tracks fail with
	// ParameterError.
	DataBlock
)

// ReadSectorResult is the value type every ReadSector call returns.
// CRC failures are flags here, never errors.
type ReadSectorResult struct {
	DataIdx         int // offset of the payload within ReadBuf (nonzero only for DataBlock)
	DataLen         int
	ReadBuf         []byte
	DeletedMark     bool
	AddressCRCError bool
	DataCRCError    bool
	WrongCylinder   bool
	WrongHead       bool
}

// WriteSectorResult is the value type every WriteSector call returns.
// NotFound is a flag, not an error: a write to a sector id the track
// does not carry is a no-op, not a failure of the call itself.
type WriteSectorResult struct {
	NotFound        bool
	AddressCRCError bool
	WrongCylinder   bool
	WrongHead       bool
}

// ReadTrackResult is the value type ReadTrack and ReadAllSectors
// return. ReadAllSectors aggregates the CRC/deleted flags across every
// sector folded into ReadBuf: true if any one of them was set. ReadTrack
// returns the raw track storage and leaves these flags false.
type ReadTrackResult struct {
	NotFound        bool
	SectorsRead     int
	ReadBuf         []byte
	DeletedMark     bool
	AddressCRCError bool
	DataCRCError    bool
}

// SectorMapEntry summarises one sector's identity and validity for
// DiskImage.GetSectorMap and the dump presenters.
type SectorMapEntry struct {
	CHSN            chs.CHSN
	Len             int
	AddressCRCError bool
	DataCRCError    bool
	DeletedMark     bool
}

// TrackSectorIndex is a ByteStream track's per-sector record: the
// sector's claimed identity (which may lie, for copy-protected
// images — hence the separate CylinderID/HeadID from the track's own
// physical Cylinder/Head), its offset and length within the track's
// concatenated Data buffer, and its CRC/deleted flags.
type TrackSectorIndex struct {
	SectorID        uint8
	CylinderID      uint16
	HeadID          uint8
	N               uint8
	TIdx            int
	Len             int
	AddressCRCError bool
	DataCRCError    bool
	DeletedMark     bool
}

// SectorDescriptor is the construction-time input to
// TrackData.MasterSector: a fully formed sector record to append to a
// ByteStream track.
type SectorDescriptor struct {
	ID                 uint8
	CylinderIDOverride *uint16
	HeadIDOverride     *uint8
	N                  uint8
	Data               []byte
	WeakMask           []byte
	AddressCRCError    bool
	DataCRCError       bool
	DeletedMark        bool
}

type trackKind int

const (
	trackBitStream trackKind = iota
	trackByteStream
)

// TrackData is a tagged union: a BitStream track carries a decoded or
// pass-through cell stream plus the System 34 metadata timeline derived
// from it; a ByteStream track carries already-decoded sector records.
// Every operation branches on kind at entry rather than hiding the
// distinction behind an interface, which keeps the read/write paths
// flat and makes the active semantics obvious at each call site.
type TrackData struct {
	kind     trackKind
	encoding Encoding
	dataRate DataRate
	cylinder uint16
	head     uint8

	// BitStream fields. mfm is set iff encoding == EncodingMFM; raw
	// carries every other encoding (pass-through, no structural scan).
	mfm       *bitstream.MfmCodec
	raw       *bitstream.RawCodec
	dataClock int
	markers   []system34.Marker
	metadata  []system34.MetadataItem
	sectorIDs []chs.CHSN

	// ByteStream fields.
	sectors  []TrackSectorIndex
	data     []byte
	weakMask []byte
}

// NewBitStreamTrack wraps an already-encoded cell buffer as a
// BitStream track and, if encoding is MFM, runs the System 34 scanner
// over it to derive markers, clock map, and metadata. Non-MFM
// encodings are carried opaquely: no metadata, no sectors readable.
func NewBitStreamTrack(encoding Encoding, rate DataRate, ch chs.CH, clockHz int, data, weak []byte) *TrackData {
	t := &TrackData{
		kind:      trackBitStream,
		encoding:  encoding,
		dataRate:  rate,
		cylinder:  ch.Cylinder,
		head:      ch.Head,
		dataClock: clockHz,
	}
	if encoding == EncodingMFM {
		t.mfm = bitstream.NewMfmCodec(data, weak)
		t.rescanBitStream()
	} else {
		t.raw = bitstream.NewRawCodec(data)
	}
	return t
}

// rescanBitStream re-derives markers, clock map, metadata, and
// sector_ids from the current cell buffer. Metadata is derived state:
// it must never be persisted independently, and must be regenerated
// after any mutation of the underlying bits.
func (t *TrackData) rescanBitStream() {
	if t.mfm == nil {
		return
	}
	t.markers = system34.ScanTrackMarkers(t.mfm)
	system34.CreateClockMap(t.mfm, t.markers)
	t.metadata = system34.ScanTrackMetadata(t.mfm, t.markers)
	t.sectorIDs = t.sectorIDs[:0]
	for _, item := range t.metadata {
		if item.Kind == system34.ElemIdam && item.CHSN != nil {
			t.sectorIDs = append(t.sectorIDs, *item.CHSN)
		}
	}
}

// NewByteStreamTrack constructs an empty ByteStream track; sectors are
// populated afterward with MasterSector.
func NewByteStreamTrack(encoding Encoding, rate DataRate, ch chs.CH) *TrackData {
	return &TrackData{
		kind:     trackByteStream,
		encoding: encoding,
		dataRate: rate,
		cylinder: ch.Cylinder,
		head:     ch.Head,
	}
}

// MasterSector appends a sector record and its payload bytes to a
// ByteStream track. Fails with UnsupportedFormat on a BitStream track.
func (t *TrackData) MasterSector(desc SectorDescriptor) error {
	if t.kind != trackByteStream {
		return newError(UnsupportedFormat, "MasterSector is only valid on a ByteStream track")
	}
	cyl := t.cylinder
	if desc.CylinderIDOverride != nil {
		cyl = *desc.CylinderIDOverride
	}
	head := t.head
	if desc.HeadIDOverride != nil {
		head = *desc.HeadIDOverride
	}
	idx := TrackSectorIndex{
		SectorID:        desc.ID,
		CylinderID:      cyl,
		HeadID:          head,
		N:               desc.N,
		TIdx:            len(t.data),
		Len:             len(desc.Data),
		AddressCRCError: desc.AddressCRCError,
		DataCRCError:    desc.DataCRCError,
		DeletedMark:     desc.DeletedMark,
	}
	t.data = append(t.data, desc.Data...)
	if desc.WeakMask != nil {
		if len(desc.WeakMask) != len(desc.Data) {
			return newError(ParameterError, "weak mask length %d does not match data length %d", len(desc.WeakMask), len(desc.Data))
		}
		t.weakMask = append(t.weakMask, desc.WeakMask...)
	} else {
		t.weakMask = append(t.weakMask, make([]byte, len(desc.Data))...)
	}
	t.sectors = append(t.sectors, idx)
	return nil
}

// findDataItem walks the BitStream metadata timeline in ascending
// order and returns the first Data/DeletedData item whose governing
// IDAM claims physical sector id sector. Matching is by sector id
// alone — not full CHS — so that an IDAM whose C/H fields lie about
// the track's physical location can still be located by the caller's
// physical request and its mismatch reported separately through the
// WrongCylinder/WrongHead result flags.
func (t *TrackData) findDataItem(sector uint8) (system34.MetadataItem, bool) {
	for _, item := range t.metadata {
		if (item.Kind == system34.ElemData || item.Kind == system34.ElemDeletedData) &&
			item.CHSN != nil && item.CHSN.Sector == sector {
			return item, true
		}
	}
	return system34.MetadataItem{}, false
}

func (t *TrackData) findSectorIndex(sector uint8) (int, bool) {
	for i, s := range t.sectors {
		if s.SectorID == sector {
			return i, true
		}
	}
	return 0, false
}

// ReadSector reads one sector by physical sector id, branching on
// track variant.
func (t *TrackData) ReadSector(target chs.CHS, nOverride *uint8, scope RwSectorScope, debug bool) (ReadSectorResult, error) {
	if nOverride != nil && *nOverride > chs.MaxN {
		return ReadSectorResult{}, newError(ParameterError, "size code N=%d out of range", *nOverride)
	}
	if t.kind == trackBitStream {
		return t.readSectorBitStream(target, nOverride, scope, debug)
	}
	return t.readSectorByteStream(target, nOverride, scope, debug)
}

func (t *TrackData) readSectorBitStream(target chs.CHS, nOverride *uint8, scope RwSectorScope, debug bool) (ReadSectorResult, error) {
	if t.mfm == nil {
		return ReadSectorResult{}, newError(DataError, "no structural metadata on a non-MFM BitStream track")
	}
	item, found := t.findDataItem(target.Sector)
	if !found {
		return ReadSectorResult{}, newError(DataError, "sector %d not found on track", target.Sector)
	}
	result := ReadSectorResult{
		DeletedMark:     item.Deleted,
		AddressCRCError: !item.AddressCRCValid,
		DataCRCError:    !item.DataCRCValid,
		WrongCylinder:   item.CHSN.Cylinder != target.Cylinder,
		WrongHead:       item.CHSN.Head != target.Head,
	}

	if !item.AddressCRCValid && !debug {
		return result, nil
	}

	idamN := item.CHSN.N
	if nOverride != nil && *nOverride != idamN && !debug {
		return ReadSectorResult{}, newError(DataError, "sector %d: requested N=%d does not match IDAM N=%d", target.Sector, *nOverride, idamN)
	}
	n := idamN
	if nOverride != nil {
		n = *nOverride
	}
	payloadLen := chs.NToBytes(n)

	switch scope {
	case DataOnly:
		// Half-bit cursor: past the 4 marker bytes (32 half-bits) to
		// the first payload byte.
		t.mfm.Seek(bitstream.CellsToHalfBits(item.Start) + 32)
		buf := make([]byte, payloadLen)
		if _, err := t.mfm.ReadExact(buf); err != nil {
			return ReadSectorResult{}, newError(IoError, "%v", err)
		}
		result.ReadBuf = buf
		result.DataLen = payloadLen
		result.DataIdx = 0
	case DataBlock:
		buf := make([]byte, 4+payloadLen+2)
		t.mfm.SeekCells(item.Start)
		if _, err := t.mfm.ReadExact(buf); err != nil {
			return ReadSectorResult{}, newError(IoError, "%v", err)
		}
		result.ReadBuf = buf
		result.DataLen = len(buf)
		result.DataIdx = 4
	}
	return result, nil
}

func (t *TrackData) readSectorByteStream(target chs.CHS, nOverride *uint8, scope RwSectorScope, debug bool) (ReadSectorResult, error) {
	if scope == DataBlock {
		return ReadSectorResult{}, newError(ParameterError, "DataBlock scope is not supported on a ByteStream track")
	}
	idx, found := t.findSectorIndex(target.Sector)
	if !found {
		return ReadSectorResult{}, newError(DataError, "sector %d not found on track", target.Sector)
	}
	sec := t.sectors[idx]
	result := ReadSectorResult{
		DeletedMark:     sec.DeletedMark,
		AddressCRCError: sec.AddressCRCError,
		DataCRCError:    sec.DataCRCError,
		WrongCylinder:   sec.CylinderID != target.Cylinder,
		WrongHead:       sec.HeadID != target.Head,
	}
	if sec.AddressCRCError && !debug {
		return result, nil
	}
	if nOverride != nil && *nOverride != sec.N && !debug {
		return ReadSectorResult{}, newError(DataError, "sector %d: requested N=%d does not match recorded N=%d", target.Sector, *nOverride, sec.N)
	}
	n := sec.N
	if nOverride != nil {
		n = *nOverride
	}
	payloadLen := chs.NToBytes(n)
	if sec.TIdx+payloadLen > len(t.data) {
		return ReadSectorResult{}, newError(DataError, "sector %d: requested length %d runs past end of track data", target.Sector, payloadLen)
	}
	result.ReadBuf = append([]byte(nil), t.data[sec.TIdx:sec.TIdx+payloadLen]...)
	result.DataLen = payloadLen
	return result, nil
}

// WriteSector writes one sector's payload by physical sector id,
// branching on track variant.
func (t *TrackData) WriteSector(target chs.CHS, nOverride *uint8, data []byte, scope RwSectorScope, writeDeleted, debug bool) (WriteSectorResult, error) {
	if nOverride != nil && *nOverride > chs.MaxN {
		return WriteSectorResult{}, newError(ParameterError, "size code N=%d out of range", *nOverride)
	}
	if t.kind == trackBitStream {
		return t.writeSectorBitStream(target, nOverride, data, scope, writeDeleted, debug)
	}
	return t.writeSectorByteStream(target, nOverride, data, scope, writeDeleted, debug)
}

func (t *TrackData) writeSectorBitStream(target chs.CHS, nOverride *uint8, data []byte, scope RwSectorScope, writeDeleted, debug bool) (WriteSectorResult, error) {
	if t.mfm == nil {
		return WriteSectorResult{}, newError(UnsupportedFormat, "WriteSector is not supported on a non-MFM BitStream track")
	}
	idx := -1
	for i, item := range t.metadata {
		if (item.Kind == system34.ElemData || item.Kind == system34.ElemDeletedData) &&
			item.CHSN != nil && item.CHSN.Sector == target.Sector {
			idx = i
			break
		}
	}
	if idx < 0 {
		return WriteSectorResult{NotFound: true}, nil
	}
	item := t.metadata[idx]
	result := WriteSectorResult{
		AddressCRCError: !item.AddressCRCValid,
		WrongCylinder:   item.CHSN.Cylinder != target.Cylinder,
		WrongHead:       item.CHSN.Head != target.Head,
	}
	if !item.AddressCRCValid && !debug {
		return result, nil
	}

	if item.Deleted != writeDeleted {
		log.Warn().
			Uint8("sector", target.Sector).
			Bool("existing_deleted", item.Deleted).
			Bool("requested_deleted", writeDeleted).
			Msg("write_sector: deleted-mark polarity mismatch; marker left unchanged")
	}

	if nOverride == nil && len(data) != chs.NToBytes(item.CHSN.N) {
		return WriteSectorResult{}, newError(ParameterError, "data length %d does not match sector N=%d (%d bytes)", len(data), item.CHSN.N, chs.NToBytes(item.CHSN.N))
	}

	switch scope {
	case DataOnly:
		// Cell offset, not half-bits: WriteBuf addresses raw cells, and
		// the payload starts 4 marker bytes past the element start.
		cellOffset := item.Start + 4*bitstream.CellsPerDecodedByte
		if err := t.mfm.WriteBuf(data, cellOffset); err != nil {
			return WriteSectorResult{}, newError(IoError, "%v", err)
		}
		crc := system34.ComputeDataCRC(item.Deleted, data)
		if err := t.mfm.WriteBuf([]byte{byte(crc >> 8), byte(crc)}, cellOffset+len(data)*bitstream.CellsPerDecodedByte); err != nil {
			return WriteSectorResult{}, newError(IoError, "%v", err)
		}
	case DataBlock:
		if err := t.mfm.WriteBuf(data, item.Start); err != nil {
			return WriteSectorResult{}, newError(IoError, "%v", err)
		}
	}
	t.rescanBitStream()
	return result, nil
}

func (t *TrackData) writeSectorByteStream(target chs.CHS, nOverride *uint8, data []byte, scope RwSectorScope, writeDeleted, debug bool) (WriteSectorResult, error) {
	if scope == DataBlock {
		return WriteSectorResult{}, newError(ParameterError, "DataBlock scope is not supported on a ByteStream track")
	}
	idx, found := t.findSectorIndex(target.Sector)
	if !found {
		return WriteSectorResult{NotFound: true}, nil
	}
	sec := t.sectors[idx]
	result := WriteSectorResult{
		AddressCRCError: sec.AddressCRCError,
		WrongCylinder:   sec.CylinderID != target.Cylinder,
		WrongHead:       sec.HeadID != target.Head,
	}
	if sec.AddressCRCError && !debug {
		return result, nil
	}
	if sec.DeletedMark != writeDeleted {
		log.Warn().
			Uint8("sector", target.Sector).
			Bool("existing_deleted", sec.DeletedMark).
			Bool("requested_deleted", writeDeleted).
			Msg("write_sector: deleted-mark polarity mismatch; marker left unchanged")
	}
	if nOverride == nil && len(data) != chs.NToBytes(sec.N) {
		return WriteSectorResult{}, newError(ParameterError, "data length %d does not match sector N=%d (%d bytes)", len(data), sec.N, chs.NToBytes(sec.N))
	}
	if sec.TIdx+len(data) > len(t.data) {
		return WriteSectorResult{}, newError(ParameterError, "write of %d bytes runs past end of track data", len(data))
	}
	copy(t.data[sec.TIdx:sec.TIdx+len(data)], data)
	for i := sec.TIdx; i < sec.TIdx+len(data) && i < len(t.weakMask); i++ {
		t.weakMask[i] = 0
	}
	sec.DataCRCError = false
	t.sectors[idx] = sec
	return result, nil
}

// ReadTrack returns a raw dump of the track's underlying storage: the
// full cell/bit buffer for a BitStream track, or the concatenated
// sector payload for a ByteStream track.
func (t *TrackData) ReadTrack() ReadTrackResult {
	if t.kind == trackBitStream {
		var buf []byte
		if t.mfm != nil {
			buf = append([]byte(nil), t.mfm.Data()...)
		} else {
			buf = append([]byte(nil), t.raw.Data()...)
		}
		return ReadTrackResult{ReadBuf: buf, SectorsRead: len(t.sectorIDs)}
	}
	return ReadTrackResult{ReadBuf: append([]byte(nil), t.data...), SectorsRead: len(t.sectors)}
}

// ReadAllSectors implements floppy-controller Read-Track semantics:
// read sequentially until eot, using a single caller-supplied N for
// every sector regardless of what each IDAM claims, matching real
// FDC Read-Track behaviour. BitStream and ByteStream use distinct EOT
// comparisons: BitStream stops when the scanned sector's physical id
// equals eot; ByteStream stops after a 0-based count of sectors read
// reaches eot.
func (t *TrackData) ReadAllSectors(n, eot uint8) ReadTrackResult {
	if t.kind == trackBitStream {
		return t.readAllSectorsBitStream(n, eot)
	}
	return t.readAllSectorsByteStream(n, eot)
}

func (t *TrackData) readAllSectorsBitStream(n, eot uint8) ReadTrackResult {
	var result ReadTrackResult
	if t.mfm == nil {
		return result
	}
	payloadLen := chs.NToBytes(n)
	for _, item := range t.metadata {
		if item.Kind != system34.ElemData && item.Kind != system34.ElemDeletedData {
			continue
		}
		// Direct cell offset, not the half-bit conversion DataOnly
		// reads use: SeekCells addresses raw cells.
		cellOffset := item.Start + 4*bitstream.CellsPerDecodedByte
		t.mfm.SeekCells(cellOffset)
		buf := make([]byte, payloadLen)
		if _, err := t.mfm.ReadExact(buf); err != nil {
			break
		}
		result.ReadBuf = append(result.ReadBuf, buf...)
		result.SectorsRead++
		result.DeletedMark = result.DeletedMark || item.Deleted
		result.AddressCRCError = result.AddressCRCError || !item.AddressCRCValid
		result.DataCRCError = result.DataCRCError || !item.DataCRCValid
		if item.CHSN != nil && item.CHSN.Sector == eot {
			break
		}
	}
	return result
}

func (t *TrackData) readAllSectorsByteStream(n, eot uint8) ReadTrackResult {
	var result ReadTrackResult
	payloadLen := chs.NToBytes(n)
	for i, sec := range t.sectors {
		if i == int(eot) {
			break
		}
		end := sec.TIdx + payloadLen
		if end > len(t.data) {
			end = len(t.data)
		}
		result.ReadBuf = append(result.ReadBuf, t.data[sec.TIdx:end]...)
		result.SectorsRead++
		result.DeletedMark = result.DeletedMark || sec.DeletedMark
		result.AddressCRCError = result.AddressCRCError || sec.AddressCRCError
		result.DataCRCError = result.DataCRCError || sec.DataCRCError
	}
	return result
}

// GetNextId performs the physical-interleave walk: it finds the
// sector that follows target.Sector in the order sectors actually
// appear on the track (not by numeric increment), wrapping to the
// first sector id once the last is passed.
func (t *TrackData) GetNextId(target chs.CHS) (chs.CHSN, bool) {
	ids := t.sectorIDs
	if t.kind == trackByteStream {
		ids = make([]chs.CHSN, len(t.sectors))
		for i, s := range t.sectors {
			ids[i] = chs.CHSN{Cylinder: s.CylinderID, Head: s.HeadID, Sector: s.SectorID, N: s.N}
		}
	}
	if len(ids) == 0 {
		return chs.CHSN{}, false
	}
	for i, id := range ids {
		if id.Sector == target.Sector {
			return ids[(i+1)%len(ids)], true
		}
	}
	return chs.CHSN{}, false
}

// HasSectorId reports whether any sector on the track claims the
// given physical sector id.
func (t *TrackData) HasSectorId(id uint8) bool {
	if t.kind == trackBitStream {
		for _, s := range t.sectorIDs {
			if s.Sector == id {
				return true
			}
		}
		return false
	}
	_, found := t.findSectorIndex(id)
	return found
}

// GetSectorCount returns the number of sector headers on the track
// (IDAMs for BitStream, sector records for ByteStream), counting a
// repeated sector id once per occurrence. DiskImage.NextSectorOnTrack
// uses it as the modulus for end-of-track detection.
func (t *TrackData) GetSectorCount() int {
	if t.kind == trackBitStream {
		return len(t.sectorIDs)
	}
	return len(t.sectors)
}

// GetSectorList returns a summary entry for every sector on the track,
// in the order sectors appear.
func (t *TrackData) GetSectorList() []SectorMapEntry {
	if t.kind == trackBitStream {
		entries := make([]SectorMapEntry, 0, len(t.metadata))
		for _, item := range t.metadata {
			if item.Kind != system34.ElemData && item.Kind != system34.ElemDeletedData {
				continue
			}
			entries = append(entries, SectorMapEntry{
				CHSN:            *item.CHSN,
				Len:             chs.NToBytes(item.CHSN.N),
				AddressCRCError: !item.AddressCRCValid,
				DataCRCError:    !item.DataCRCValid,
				DeletedMark:     item.Deleted,
			})
		}
		return entries
	}
	entries := make([]SectorMapEntry, 0, len(t.sectors))
	for _, s := range t.sectors {
		entries = append(entries, SectorMapEntry{
			CHSN:            chs.CHSN{Cylinder: s.CylinderID, Head: s.HeadID, Sector: s.SectorID, N: s.N},
			Len:             s.Len,
			AddressCRCError: s.AddressCRCError,
			DataCRCError:    s.DataCRCError,
			DeletedMark:     s.DeletedMark,
		})
	}
	return entries
}

// Format synthesises a fresh track layout over the existing cell
// buffer, preserving its physical bit length, then re-derives
// markers/metadata/sector_ids from the rewritten buffer.
// BitStream-only; fails with UnsupportedFormat on a ByteStream track.
func (t *TrackData) Format(sectors []chs.CHSN, fillByte byte, gap3 int) error {
	if t.kind != trackBitStream || t.mfm == nil {
		return newError(UnsupportedFormat, "Format is only valid on an MFM BitStream track")
	}
	capacityCells := t.mfm.Len()
	trackBytes, markers := system34.FormatTrackAsBytes(sectors, capacityCells, fillByte, gap3)
	if err := t.mfm.WriteBuf(trackBytes, 0); err != nil {
		return newError(ParameterError, "%v", err)
	}
	if err := system34.SetTrackMarkers(t.mfm, markers); err != nil {
		return newError(IoError, "%v", err)
	}
	t.rescanBitStream()
	return nil
}

// HasWeakBits reports whether the track's cell stream carries any
// weak bit. A ByteStream track reports true if any byte of its
// sector-level weak mask is set.
func (t *TrackData) HasWeakBits() bool {
	if t.kind == trackBitStream {
		if t.mfm != nil {
			return t.mfm.HasWeakBits()
		}
		return t.raw.HasWeakBits()
	}
	for _, b := range t.weakMask {
		if b != 0 {
			return true
		}
	}
	return false
}

// GetHash returns a SHA-1 digest of the track's underlying bytes: the
// raw cell buffer for BitStream, the concatenated sector payload for
// ByteStream. Used by consumers for
// change detection, not for any cryptographic purpose.
func (t *TrackData) GetHash() [sha1.Size]byte {
	if t.kind == trackBitStream {
		if t.mfm != nil {
			return sha1.Sum(t.mfm.Data())
		}
		return sha1.Sum(t.raw.Data())
	}
	return sha1.Sum(t.data)
}

// Cylinder and Head report the track's physical location in the pool.
func (t *TrackData) Cylinder() uint16 { return t.cylinder }

func (t *TrackData) Head() uint8 { return t.head }

// Encoding and DataRate report the representational tags the track was
// constructed with; DataClock is the nominal cell rate in Hz (zero for
// ByteStream tracks, which carry no cell stream).
func (t *TrackData) Encoding() Encoding { return t.encoding }

func (t *TrackData) DataRate() DataRate { return t.dataRate }

func (t *TrackData) DataClock() int { return t.dataClock }
