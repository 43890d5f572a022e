package keybif

import (
	"errors"

	"github.com/jchantrell/kotka/internal/restype"
)

var (
	// ErrMissingHeader is returned when a KEY or BIF file does not start with its magic
	ErrMissingHeader = errors.New("keybif: missing file format header")

	// ErrResourceNotFound is returned when the index holds no matching entry
	ErrResourceNotFound = errors.New("keybif: resource not found")
)

// Header is the fixed KEY header found at byte 8, after magic and version
type Header struct {
	BifCount        uint32
	KeyCount        uint32
	OffsetFileTable uint32
	OffsetKeyTable  uint32
}

// KeyEntry is one 22-byte record of the KEY key table
type KeyEntry struct {
	ResRef [16]byte
	TypeID uint16
	ID     ResourceID
}

// FileEntry is one 10-byte record of the KEY file table
type FileEntry struct {
	Size       uint32
	NameOffset uint32
	NameSize   uint16
}

// ResourceLocation is the (offset, size) pair read from a data archive's
// resource table.
type ResourceLocation struct {
	Offset uint32
	Size   uint32
}

// Location describes where a named resource lives
type Location struct {
	Archive   string // archive filename relative to the install root, forward slashes
	Name      string // resref.ext
	ResRef    string
	Extension string
	TypeID    uint16
	ID        ResourceID
}

// Position returns the resource's slot in its data archive
func (l Location) Position() uint32 {
	return l.ID.Position()
}

// Diagnostic records a KEY entry that was skipped while building the index
type Diagnostic struct {
	ResRef string
	TypeID uint16
	ID     ResourceID
	Err    error
}

// IndexOptions controls which entries end up in an Index
type IndexOptions struct {
	// Catalog resolves type ids; nil means restype.Default()
	Catalog *restype.Catalog

	// ArchiveFilter keeps only entries of this archive index when non-nil
	ArchiveFilter *uint32

	// TypeFilter keeps only entries whose resolved extension matches when non-empty
	TypeFilter string
}
