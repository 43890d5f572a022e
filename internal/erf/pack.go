package erf

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jchantrell/kotka/internal/binio"
	"github.com/jchantrell/kotka/internal/restype"
)

// Pack is an ERF resource pack held in memory. Keys and localized strings
// are decoded when the pack is opened; resource metadata and bytes are read
// from the backing file as needed. A Pack is not safe for concurrent use.
type Pack struct {
	header    Header
	strings   []LocalizedString
	resources []*resource

	// resource list offset of the backing file, kept apart from the header
	// which Recompute rewrites
	sourceResourceList uint32
	open               func() (io.ReadSeekCloser, error)
	path               string

	catalog  *restype.Catalog
	strategy Strategy
	clock    func() time.Time
}

// Option configures a Pack
type Option func(*Pack)

// WithStrategy selects how resource bytes are read from the backing file
func WithStrategy(s Strategy) Option {
	return func(p *Pack) {
		p.strategy = s
	}
}

// WithCatalog sets the catalog used to resolve extensions
func WithCatalog(c *restype.Catalog) Option {
	return func(p *Pack) {
		p.catalog = c
	}
}

// WithClock replaces time.Now for build stamps
func WithClock(now func() time.Time) Option {
	return func(p *Pack) {
		p.clock = now
	}
}

func newPack(options []Option) *Pack {
	p := &Pack{
		catalog:  restype.Default(),
		strategy: FetchOnDemand,
		clock:    time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// New creates an empty pack of the given file type ("ERF", "MOD", ...) and
// version ("V1.0" or "V1.1").
func New(fileType, version string, options ...Option) (*Pack, error) {
	p := newPack(options)

	ft := fmt.Sprintf("%-4s", fileType)
	if !validFileType(ft) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrMissingHeader, fileType)
	}
	if len(version) != 4 {
		return nil, fmt.Errorf("version %q must be 4 bytes", version)
	}
	copy(p.header.FileType[:], ft)
	copy(p.header.Version[:], version)
	p.header.OffsetToLocalizedString = HeaderSize
	p.header.OffsetToKeyList = HeaderSize
	p.header.OffsetToResourceList = HeaderSize
	p.header.DescriptionStrRef = 0xFFFFFFFF
	return p, nil
}

// Open parses the pack at path. The file is closed again before Open
// returns; lazy reads reopen it.
func Open(path string, options ...Option) (*Pack, error) {
	p := newPack(options)
	p.path = path
	p.open = func() (io.ReadSeekCloser, error) {
		return os.Open(path)
	}
	if err := p.load(); err != nil {
		return nil, fmt.Errorf("opening pack %s: %w", path, err)
	}
	return p, nil
}

type bytesSource struct {
	*bytes.Reader
}

func (bytesSource) Close() error { return nil }

// OpenBytes parses a pack held in memory
func OpenBytes(data []byte, options ...Option) (*Pack, error) {
	p := newPack(options)
	p.open = func() (io.ReadSeekCloser, error) {
		return bytesSource{bytes.NewReader(data)}, nil
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

func validFileType(ft string) bool {
	for _, t := range fileTypes {
		if ft == t {
			return true
		}
	}
	return false
}

func (p *Pack) load() error {
	src, err := p.open()
	if err != nil {
		return err
	}
	defer src.Close()

	magic, err := binio.ReadBytes(src, 0, 4)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingHeader, err)
	}
	if !validFileType(string(magic)) {
		return fmt.Errorf("%w: unexpected file type %q", ErrMissingHeader, magic)
	}

	if err := binio.ReadStruct(src, 0, &p.header); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingHeader, err)
	}
	p.sourceResourceList = p.header.OffsetToResourceList

	if err := p.readLocalizedStrings(src); err != nil {
		return err
	}
	if err := p.readKeys(src); err != nil {
		return err
	}

	slog.Debug("Pack opened",
		"path", p.path,
		"type", p.header.FileTypeString(),
		"version", string(p.header.Version[:]),
		"resources", len(p.resources),
		"localized_strings", len(p.strings))

	if p.strategy == HydrateAll {
		return p.hydrate(src)
	}
	return nil
}

func (p *Pack) readLocalizedStrings(src io.ReadSeeker) error {
	off := int64(p.header.OffsetToLocalizedString)
	count := int64(p.header.LocalizedStringCount)
	if err := binio.CheckSpan(src, off, count*localizedStringFraming); err != nil {
		return fmt.Errorf("localized string block of %d entries: %w", count, err)
	}
	p.strings = make([]LocalizedString, 0, count)

	for i := uint32(0); i < p.header.LocalizedStringCount; i++ {
		var framing struct {
			LanguageID uint32
			Size       uint32
		}
		if err := binio.ReadStruct(src, off, &framing); err != nil {
			return fmt.Errorf("reading localized string %d: %w", i, err)
		}
		text, err := binio.ReadBytes(src, off+localizedStringFraming, int(framing.Size))
		if err != nil {
			return fmt.Errorf("reading localized string %d text: %w", i, err)
		}
		p.strings = append(p.strings, LocalizedString{LanguageID: framing.LanguageID, Text: text})
		off += localizedStringFraming + int64(framing.Size)
	}
	return nil
}

func (p *Pack) readKeys(src io.ReadSeeker) error {
	width := p.header.KeyNameWidth()
	recordSize := p.header.KeyRecordSize()
	count := int64(p.header.EntryCount)
	if err := binio.CheckSpan(src, int64(p.header.OffsetToKeyList), count*int64(recordSize)); err != nil {
		return fmt.Errorf("key list of %d entries: %w", count, err)
	}
	p.resources = make([]*resource, 0, count)

	for i := uint32(0); i < p.header.EntryCount; i++ {
		off := int64(p.header.OffsetToKeyList) + int64(i)*int64(recordSize)
		record, err := binio.ReadBytes(src, off, recordSize)
		if err != nil {
			return fmt.Errorf("reading key %d: %w", i, err)
		}

		key := Key{
			ResRef: binio.FixedString(record[:width]),
			ID:     binio.Endian.Uint32(record[width:]),
			TypeID: binio.Endian.Uint32(record[width+4:]),
		}
		p.resources = append(p.resources, &resource{
			key:      key,
			sourceID: key.ID,
			backed:   true,
		})
	}
	return nil
}

// loadEntry reads the resource list record of r if it is not known yet
func (p *Pack) loadEntry(src io.ReadSeeker, r *resource) error {
	if r.entryLoaded || !r.backed {
		return nil
	}
	off := int64(p.sourceResourceList) + int64(r.sourceID)*resourceEntrySize
	if err := binio.ReadStruct(src, off, &r.entry); err != nil {
		return fmt.Errorf("reading resource list entry %d: %w", r.sourceID, err)
	}
	r.entryLoaded = true
	return nil
}

// fetch reads the bytes of r from the backing file and caches them
func (p *Pack) fetch(src io.ReadSeeker, r *resource) error {
	if r.data != nil || !r.backed {
		return nil
	}
	if err := p.loadEntry(src, r); err != nil {
		return err
	}
	data, err := binio.ReadBytes(src, int64(r.entry.Offset), int(r.entry.Size))
	if err != nil {
		return fmt.Errorf("reading %s (offset=%d, size=%d): %w", p.Filename(r.key), r.entry.Offset, r.entry.Size, err)
	}
	r.data = data
	return nil
}

// withSource runs fn against a freshly opened backing file
func (p *Pack) withSource(fn func(io.ReadSeeker) error) error {
	if p.open == nil {
		return fmt.Errorf("pack has no backing file")
	}
	src, err := p.open()
	if err != nil {
		return fmt.Errorf("opening backing file: %w", err)
	}
	defer src.Close()
	return fn(src)
}

func (p *Pack) needsSource() bool {
	for _, r := range p.resources {
		if r.backed && !r.replaced && (r.data == nil || !r.entryLoaded) {
			return true
		}
	}
	return false
}

func (p *Pack) hydrate(src io.ReadSeeker) error {
	for _, r := range p.resources {
		if r.replaced {
			continue
		}
		if err := p.fetch(src, r); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads the bytes of every resource into memory
func (p *Pack) LoadFile() error {
	if !p.needsSource() {
		return nil
	}
	return p.withSource(p.hydrate)
}

// Header returns the pack header. After Recompute or Write it reflects the
// new layout.
func (p *Pack) Header() Header {
	return p.header
}

// Strategy returns the byte access strategy
func (p *Pack) Strategy() Strategy {
	return p.strategy
}

// Path returns the backing file path, empty for in-memory and new packs
func (p *Pack) Path() string {
	return p.path
}

// LocalizedStrings returns the pack's localized strings
func (p *Pack) LocalizedStrings() []LocalizedString {
	out := make([]LocalizedString, len(p.strings))
	copy(out, p.strings)
	return out
}

// Len returns the number of resources
func (p *Pack) Len() int {
	return len(p.resources)
}

func (p *Pack) find(id uint32) (*resource, error) {
	for _, r := range p.resources {
		if r.key.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrResourceNotFound, id)
}

// Entry returns the resource list record of id as stored in the backing
// file, reading it on first use
func (p *Pack) Entry(id uint32) (ResourceEntry, error) {
	r, err := p.find(id)
	if err != nil {
		return ResourceEntry{}, err
	}
	if r.replaced {
		return ResourceEntry{Size: r.size()}, nil
	}
	if !r.entryLoaded {
		if err := p.withSource(func(src io.ReadSeeker) error { return p.loadEntry(src, r) }); err != nil {
			return ResourceEntry{}, err
		}
	}
	return r.entry, nil
}

// Entries returns the resource list record of every resource in pack
// order, matching Resources. Missing records are read with a single open
// of the backing file.
func (p *Pack) Entries() ([]ResourceEntry, error) {
	if err := p.loadEntries(); err != nil {
		return nil, err
	}
	entries := make([]ResourceEntry, len(p.resources))
	for i, r := range p.resources {
		if r.replaced {
			entries[i] = ResourceEntry{Size: r.size()}
			continue
		}
		entries[i] = r.entry
	}
	return entries, nil
}

// Bytes returns the contents of resource id: pending replacement bytes when
// set, otherwise the resource as stored in the backing file. Fetched bytes
// are cached; the backing file is never modified.
func (p *Pack) Bytes(id uint32) ([]byte, error) {
	r, err := p.find(id)
	if err != nil {
		return nil, err
	}
	if !r.replaced && r.data == nil {
		if err := p.withSource(func(src io.ReadSeeker) error { return p.fetch(src, r) }); err != nil {
			return nil, err
		}
	}
	payload := r.payload()
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Export writes the bytes of resource id to path
func (p *Pack) Export(id uint32, path string) error {
	data, err := p.Bytes(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("exporting resource %d: %w", id, err)
	}
	slog.Debug("Exported pack resource", "id", id, "path", path, "size", len(data))
	return nil
}
