package floppyimg

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/sergev/floppyimg/chs"
)

// DiskDescriptor is the declarative summary of a disk's nominal
// geometry and encoding; per-track values may diverge.
type DiskDescriptor struct {
	Geometry          chs.CH
	DefaultSectorSize int
	DataEncoding      Encoding
	DataRate          DataRate
	Rpm               *Rpm
}

// DiskConsistency is a cached summary recomputed after load and after
// any mutation that could affect it.
type DiskConsistency struct {
	Weak                  bool
	Deleted               bool
	ConsistentSectorSize  *int
	ConsistentTrackLength *int
}

// DiskTrack wraps one pool entry. It delegates sector-count,
// membership, listing, and metadata queries straight to its TrackData.
type DiskTrack struct {
	Data *TrackData
}

func (d *DiskTrack) GetSectorCount() int { return d.Data.GetSectorCount() }

func (d *DiskTrack) HasSectorId(id uint8) bool { return d.Data.HasSectorId(id) }

func (d *DiskTrack) GetSectorList() []SectorMapEntry { return d.Data.GetSectorList() }

const trackMapEmpty = -1

// DiskImage owns the track pool and the (head, cylinder) → pool-index
// map, and routes sector-accurate operations to the matching track.
type DiskImage struct {
	DiskFormat  FloppyFormat
	ImageFormat DiskDescriptor
	Consistency DiskConsistency
	SectorSize  int
	VolumeName  string
	Comment     string

	trackPool []*DiskTrack
	trackMap  [2][]int
}

// New constructs a blank disk conforming to format's declared geometry,
// with no tracks yet populated; callers add tracks with
// AddTrackBitstream/AddTrackBytestream before reading from it.
func New(format FloppyFormat) *DiskImage {
	cylinders, heads := format.CH()
	d := &DiskImage{
		DiskFormat:  format,
		ImageFormat: format.Descriptor(),
		SectorSize:  format.DefaultSectorSize(),
	}
	for h := uint8(0); h < heads; h++ {
		d.trackMap[h] = make([]int, cylinders)
		for c := range d.trackMap[h] {
			d.trackMap[h][c] = trackMapEmpty
		}
	}
	return d
}

func (d *DiskImage) growTrackMap(head uint8, cylinder uint16) {
	for len(d.trackMap[head]) <= int(cylinder) {
		d.trackMap[head] = append(d.trackMap[head], trackMapEmpty)
	}
}

func (d *DiskImage) appendTrack(head uint8, cylinder uint16, t *TrackData) {
	d.growTrackMap(head, cylinder)
	d.trackPool = append(d.trackPool, &DiskTrack{Data: t})
	d.trackMap[head][cylinder] = len(d.trackPool) - 1
}

// AddTrackBitstream wraps data (and, for MFM, its weak mask) into a
// BitStream track, runs the structural parser, and indexes it under
// (head, cylinder). The weak bytes are threaded into the track's bit
// buffer so weak-bit queries reflect them.
func (d *DiskImage) AddTrackBitstream(encoding Encoding, rate DataRate, ch chs.CH, clockHz int, data, weak []byte) error {
	if ch.Head >= 2 {
		return newError(SeekError, "head %d out of range", ch.Head)
	}
	if weak != nil && len(weak) != len(data) {
		return newError(ParameterError, "weak mask length %d does not match data length %d", len(weak), len(data))
	}
	if encoding != EncodingMFM && weak != nil {
		return newError(ParameterError, "weak-bit tracking is only meaningful on an MFM track")
	}
	t := NewBitStreamTrack(encoding, rate, ch, clockHz, data, weak)
	d.appendTrack(ch.Head, ch.Cylinder, t)
	d.recomputeConsistency()
	return nil
}

// AddTrackBytestream pushes an empty ByteStream track and indexes it;
// subsequent MasterSector calls populate it.
func (d *DiskImage) AddTrackBytestream(encoding Encoding, rate DataRate, ch chs.CH) error {
	if ch.Head >= 2 {
		return newError(SeekError, "head %d out of range", ch.Head)
	}
	t := NewByteStreamTrack(encoding, rate, ch)
	d.appendTrack(ch.Head, ch.Cylinder, t)
	d.recomputeConsistency()
	return nil
}

// MasterSector appends a sector record to the ByteStream track at ch.
func (d *DiskImage) MasterSector(target chs.CHS, desc SectorDescriptor) error {
	track, err := d.lookupTrack(target.CH())
	if err != nil {
		return err
	}
	if err := track.Data.MasterSector(desc); err != nil {
		return err
	}
	d.recomputeConsistency()
	return nil
}

func (d *DiskImage) lookupTrack(ch chs.CH) (*DiskTrack, error) {
	if ch.Head >= 2 {
		return nil, newError(SeekError, "head %d out of range", ch.Head)
	}
	if int(ch.Cylinder) >= len(d.trackMap[ch.Head]) {
		return nil, newError(SeekError, "cylinder %d out of range for head %d", ch.Cylinder, ch.Head)
	}
	idx := d.trackMap[ch.Head][ch.Cylinder]
	if idx == trackMapEmpty {
		return nil, newError(SeekError, "no track at cylinder %d head %d", ch.Cylinder, ch.Head)
	}
	return d.trackPool[idx], nil
}

// IsIdValid reports whether a (head, cylinder) address resolves to a
// live track entry.
func (d *DiskImage) IsIdValid(ch chs.CH) bool {
	_, err := d.lookupTrack(ch)
	return err == nil
}

// ReadSector bounds-checks target and delegates to the addressed
// track.
func (d *DiskImage) ReadSector(target chs.CHS, nOverride *uint8, scope RwSectorScope, debug bool) (ReadSectorResult, error) {
	track, err := d.lookupTrack(target.CH())
	if err != nil {
		return ReadSectorResult{}, err
	}
	return track.Data.ReadSector(target, nOverride, scope, debug)
}

// WriteSector bounds-checks target and delegates to the addressed
// track.
func (d *DiskImage) WriteSector(target chs.CHS, nOverride *uint8, data []byte, scope RwSectorScope, writeDeleted, debug bool) (WriteSectorResult, error) {
	track, err := d.lookupTrack(target.CH())
	if err != nil {
		return WriteSectorResult{}, err
	}
	result, err := track.Data.WriteSector(target, nOverride, data, scope, writeDeleted, debug)
	if err != nil {
		return result, err
	}
	d.recomputeConsistency()
	return result, nil
}

// ReadTrack returns a raw dump of the track at ch.
func (d *DiskImage) ReadTrack(ch chs.CH) (ReadTrackResult, error) {
	track, err := d.lookupTrack(ch)
	if err != nil {
		return ReadTrackResult{NotFound: true}, nil
	}
	return track.Data.ReadTrack(), nil
}

// ReadAllSectors reads sectors sequentially from ch until eot,
// with Read-Track FDC semantics.
func (d *DiskImage) ReadAllSectors(ch chs.CH, n, eot uint8) (ReadTrackResult, error) {
	track, err := d.lookupTrack(ch)
	if err != nil {
		return ReadTrackResult{NotFound: true}, nil
	}
	return track.Data.ReadAllSectors(n, eot), nil
}

// FormatTrack writes a fresh IBM System 34 layout onto the BitStream
// track at ch, re-deriving its markers, clock map, metadata, and
// sector_ids from the rewritten buffer. It fails with
// UnsupportedFormat on a ByteStream track.
func (d *DiskImage) FormatTrack(ch chs.CH, sectors []chs.CHSN, fillByte byte, gap3 int) error {
	track, err := d.lookupTrack(ch)
	if err != nil {
		return err
	}
	if err := track.Data.Format(sectors, fillByte, gap3); err != nil {
		return err
	}
	d.recomputeConsistency()
	return nil
}

// NextSectorOnTrack returns the next physical sector id after target
// on the same cylinder, using the track's physical sector count as
// the modulus; it does not wrap, unlike TrackData.GetNextId.
func (d *DiskImage) NextSectorOnTrack(target chs.CHS) (chs.CHS, bool) {
	track, err := d.lookupTrack(target.CH())
	if err != nil {
		return chs.CHS{}, false
	}
	if int(target.Sector) >= track.Data.GetSectorCount() {
		return chs.CHS{}, false
	}
	return target.GetNextSector(), true
}

// PostLoadProcess runs post-load normalisation. It never fails;
// anomalies it corrects are logged at warn level.
func (d *DiskImage) PostLoadProcess() {
	d.normalize()
	d.recomputeConsistency()
}

// normalize detects the "wide track image stored as narrow tracks"
// artifact — a disk physically formatted at half the cylinder count of
// its image, dumped with the intervening cylinders blank — and
// compacts it away. The common case is a 40-track disk dumped as 80,
// where every odd cylinder is empty.
func (d *DiskImage) normalize() {
	total, empty := 0, 0
	for head := range d.trackMap {
		for _, idx := range d.trackMap[head] {
			if idx == trackMapEmpty {
				continue
			}
			total++
			if d.trackPool[idx].GetSectorCount() == 0 {
				empty++
			}
		}
	}
	if total == 0 || empty*2 < total {
		return
	}
	log.Warn().Int("empty_tracks", empty).Int("total_tracks", total).
		Msg("post_load_process: disk looks like a wide-track image stored as narrow tracks; removing empty track entries")
	d.removeEmptyTracks()
}

// removeEmptyTracks compacts each head's track_map down to its
// non-empty entries, in order. Pool entries are left in place; only
// the map is rebuilt. Tombstoned pool slots are reclaimed on export.
func (d *DiskImage) removeEmptyTracks() {
	for head := range d.trackMap {
		compacted := d.trackMap[head][:0]
		for _, idx := range d.trackMap[head] {
			if idx == trackMapEmpty {
				continue
			}
			if d.trackPool[idx].GetSectorCount() == 0 {
				continue
			}
			compacted = append(compacted, idx)
		}
		d.trackMap[head] = compacted
	}
}

// recomputeConsistency rebuilds the Consistency summary from the
// current track pool and map. Called at the end of every mutating
// operation (AddTrackBitstream, AddTrackBytestream, MasterSector,
// WriteSector, FormatTrack, PostLoadProcess) rather than lazily.
func (d *DiskImage) recomputeConsistency() {
	c := DiskConsistency{}
	sizes := map[int]bool{}
	lengths := map[int]bool{}
	for head := range d.trackMap {
		for _, idx := range d.trackMap[head] {
			if idx == trackMapEmpty {
				continue
			}
			track := d.trackPool[idx]
			if track.Data.HasWeakBits() {
				c.Weak = true
			}
			entries := track.Data.GetSectorList()
			lengths[len(entries)] = true
			for _, e := range entries {
				if e.DeletedMark {
					c.Deleted = true
				}
				sizes[e.Len] = true
			}
		}
	}
	if len(sizes) == 1 {
		for n := range sizes {
			c.ConsistentSectorSize = &n
		}
	}
	if len(lengths) == 1 {
		for n := range lengths {
			c.ConsistentTrackLength = &n
		}
	}
	d.Consistency = c
}

// GetSectorMap returns every sector on every track, indexed by
// [head][cylinder].
func (d *DiskImage) GetSectorMap() [2][][]SectorMapEntry {
	var out [2][][]SectorMapEntry
	for head := range d.trackMap {
		out[head] = make([][]SectorMapEntry, len(d.trackMap[head]))
		for cyl, idx := range d.trackMap[head] {
			if idx == trackMapEmpty {
				continue
			}
			out[head][cyl] = d.trackPool[idx].GetSectorList()
		}
	}
	return out
}

// FormatDriver is the interface external container-format drivers
// implement so the core can detect and load a disk without knowing
// the on-disk framing.
type FormatDriver interface {
	// Detect reports whether r holds an image of this driver's
	// format. It must restore r's read position before returning,
	// destructive or not.
	Detect(r io.ReadSeeker) (bool, error)
	// Load parses r fully into a DiskImage.
	Load(r io.ReadSeeker) (*DiskImage, error)
}

var (
	formatDrivers = map[DiskImageFormat]FormatDriver{}
	formatOrder   []DiskImageFormat
)

// RegisterFormat installs driver under tag, so DetectFormat and Load
// can dispatch to it. Driver packages call this from an init func.
// formatOrder records registration order separately because Go map
// iteration order is randomized and DetectFormat's result must not
// depend on it.
func RegisterFormat(tag DiskImageFormat, driver FormatDriver) {
	if _, exists := formatDrivers[tag]; !exists {
		formatOrder = append(formatOrder, tag)
	}
	formatDrivers[tag] = driver
}

// DetectFormat probes every registered driver, in registration order,
// and returns the first that claims r. r's position is restored by
// each driver's own Detect before the next is tried.
func DetectFormat(r io.ReadSeeker) (DiskImageFormat, error) {
	for _, tag := range formatOrder {
		ok, err := formatDrivers[tag].Detect(r)
		if err != nil {
			return ImageFormatUnknown, errors.Wrap(err, "detect")
		}
		if ok {
			return tag, nil
		}
	}
	return ImageFormatUnknown, newError(UnknownFormat, "no registered driver claimed this stream")
}

// Load detects r's container format and loads it via the matching
// driver.
func Load(r io.ReadSeeker) (*DiskImage, error) {
	tag, err := DetectFormat(r)
	if err != nil {
		return nil, err
	}
	img, err := formatDrivers[tag].Load(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s image", tag)
	}
	img.PostLoadProcess()
	return img, nil
}
