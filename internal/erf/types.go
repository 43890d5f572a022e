// Package erf reads, mutates and rewrites ERF resource packs. The same
// layout is used by MOD, SAV and HAK files: a 160-byte header, a block of
// localized strings, a key list naming every resource, a resource list of
// (offset, size) pairs indexed by resource id, and the resource bytes.
package erf

import (
	"errors"
	"strings"
)

var (
	// ErrMissingHeader is returned when a pack does not start with a known file type
	ErrMissingHeader = errors.New("erf: missing file format header")

	// ErrResourceNotFound is returned when no resource matches an id or name
	ErrResourceNotFound = errors.New("erf: resource not found")

	// ErrPackTooLarge is returned when a layout needs offsets beyond 32 bits
	ErrPackTooLarge = errors.New("erf: pack exceeds 4 GiB")
)

const (
	// HeaderSize is the on-disk size of Header
	HeaderSize = 160

	// localizedStringFraming is the language id and size fields preceding each string
	localizedStringFraming = 8

	resourceEntrySize = 8
)

// fileTypes lists the accepted magics; all of them share the ERF layout
var fileTypes = []string{"ERF ", "MOD ", "SAV ", "HAK "}

// Metadata is the block of nine counts and offsets following the version tag
type Metadata struct {
	LocalizedStringCount    uint32
	LocalizedStringSize     uint32
	EntryCount              uint32
	OffsetToLocalizedString uint32
	OffsetToKeyList         uint32
	OffsetToResourceList    uint32
	BuildYear               uint32 // years since 1900
	BuildDay                uint32 // days since January 1st
	DescriptionStrRef       uint32
}

// Header is the fixed 160-byte pack header. Reserved is carried through a
// rewrite untouched.
type Header struct {
	FileType [4]byte
	Version  [4]byte
	Metadata
	Reserved [116]byte
}

// KeyNameWidth returns the width of the resref field of every key record:
// 16 bytes for "V1.0" packs, 32 bytes for any other version.
func (h Header) KeyNameWidth() int {
	if h.Version[3] == '0' {
		return 16
	}
	return 32
}

// KeyRecordSize returns the size of one key list record
func (h Header) KeyRecordSize() int {
	return h.KeyNameWidth() + 8
}

// FileTypeString returns the magic without its padding
func (h Header) FileTypeString() string {
	return strings.TrimSpace(string(h.FileType[:]))
}

// Key names one resource of the pack
type Key struct {
	ResRef string
	ID     uint32
	TypeID uint32
}

// ResourceEntry is one record of the resource list
type ResourceEntry struct {
	Offset uint32
	Size   uint32
}

// End returns the offset one past the resource's last byte
func (e ResourceEntry) End() uint32 {
	return e.Offset + e.Size
}

// Strategy selects when resource bytes are read from the backing file
type Strategy int

const (
	// FetchOnDemand reads a resource the first time its bytes are requested
	FetchOnDemand Strategy = iota

	// HydrateAll reads every resource while the pack is opened
	HydrateAll
)

func (s Strategy) String() string {
	switch s {
	case FetchOnDemand:
		return "fetch-on-demand"
	case HydrateAll:
		return "hydrate-all"
	default:
		return "unknown"
	}
}

// resource is the runtime state of one pack entry
type resource struct {
	key Key

	// sourceID addresses the entry in the backing file's resource list; it
	// stays fixed when Remove renumbers key ids
	sourceID uint32
	backed   bool

	entry       ResourceEntry
	entryLoaded bool

	data        []byte
	replacement []byte
	replaced    bool

	// layout computed by the last Recompute
	newOffset uint32
	newSize   uint32
}

// size returns the size the resource will occupy when written
func (r *resource) size() uint32 {
	if r.replaced {
		return uint32(len(r.replacement))
	}
	return r.entry.Size
}

func (r *resource) payload() []byte {
	if r.replaced {
		return r.replacement
	}
	return r.data
}
