package keybif

import (
	"fmt"
	"io"
	"os"

	"github.com/jchantrell/kotka/internal/binio"
)

const (
	archiveMagic = "BIFF"

	// resourceTableBase addresses the offset field of the first variable
	// resource entry: a 20-byte header followed by a 4-byte resource id.
	resourceTableBase = 24
	resourceEntrySize = 16
)

// ArchiveHeader is the 20-byte header of a data archive
type ArchiveHeader struct {
	Magic         [4]byte
	Version       [4]byte
	VariableCount uint32
	FixedCount    uint32
	TableOffset   uint32
}

// ArchiveEntry is one 16-byte record of a data archive's variable resource table
type ArchiveEntry struct {
	ID     uint32
	Offset uint32
	Size   uint32
	TypeID uint32
}

// readResourceLocation reads the (offset, size) pair of the resource at position
func readResourceLocation(r io.ReadSeeker, position uint32) (ResourceLocation, error) {
	var loc ResourceLocation
	off := resourceTableBase + int64(position)*resourceEntrySize
	if err := binio.ReadStruct(r, off, &loc); err != nil {
		return ResourceLocation{}, fmt.Errorf("reading resource table entry %d: %w", position, err)
	}
	return loc, nil
}

// readResource returns exactly the bytes declared for the resource at position
func readResource(r io.ReadSeeker, position uint32) ([]byte, error) {
	loc, err := readResourceLocation(r, position)
	if err != nil {
		return nil, err
	}

	data, err := binio.ReadBytes(r, int64(loc.Offset), int(loc.Size))
	if err != nil {
		return nil, fmt.Errorf("reading resource data (offset=%d, size=%d): %w", loc.Offset, loc.Size, err)
	}
	return data, nil
}

// ReadArchiveTable reads the header and the full variable resource table of
// the data archive at path.
func ReadArchiveTable(path string) (ArchiveHeader, []ArchiveEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return ArchiveHeader{}, nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	var header ArchiveHeader
	if err := binio.ReadStruct(f, 0, &header); err != nil {
		return ArchiveHeader{}, nil, fmt.Errorf("%w: %w", ErrMissingHeader, err)
	}
	if string(header.Magic[:]) != archiveMagic {
		return ArchiveHeader{}, nil, fmt.Errorf("%w: expected %q, got %q", ErrMissingHeader, archiveMagic, header.Magic[:])
	}

	if header.VariableCount >= MaxPosition {
		return ArchiveHeader{}, nil, fmt.Errorf("archive declares %d resources, limit is %d", header.VariableCount, MaxPosition-1)
	}

	entries := make([]ArchiveEntry, header.VariableCount)
	if header.VariableCount > 0 {
		if err := binio.ReadStruct(f, int64(header.TableOffset), entries); err != nil {
			return ArchiveHeader{}, nil, fmt.Errorf("reading resource table: %w", err)
		}
	}
	return header, entries, nil
}
