// Package keybif reads the chitin.key index of an install and extracts
// resources from the BIF data archives it points into.
package keybif

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jchantrell/kotka/internal/binio"
	"github.com/jchantrell/kotka/internal/restype"
)

const (
	// KeyFileName is the index file at the root of an install
	KeyFileName = "chitin.key"

	keyMagic       = "KEY "
	headerOffset   = 8
	keyRecordSize  = 22
	fileRecordSize = 12
	maxArchiveName = 1024
)

// Index maps archive filenames to the resources they hold. It is built once
// and never modified afterwards, so any number of goroutines may read it.
type Index struct {
	header      Header
	archives    map[string]map[string]Location
	byType      map[string][]string
	diagnostics []Diagnostic
}

// BuildIndex opens <installRoot>/chitin.key and parses it
func BuildIndex(installRoot string, opts IndexOptions) (*Index, error) {
	keyPath := filepath.Join(installRoot, KeyFileName)

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer keyFile.Close()

	idx, err := LoadIndex(keyFile, opts)
	if err != nil {
		return nil, fmt.Errorf("loading index %s: %w", keyPath, err)
	}
	return idx, nil
}

// LoadIndex parses a KEY file from r
func LoadIndex(r io.ReadSeeker, opts IndexOptions) (*Index, error) {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = restype.Default()
	}
	typeFilter := strings.ToLower(strings.TrimPrefix(opts.TypeFilter, "."))

	magic, err := binio.ReadBytes(r, 0, len(keyMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingHeader, err)
	}
	if string(magic) != keyMagic {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrMissingHeader, keyMagic, magic)
	}

	var header Header
	if err := binio.ReadStruct(r, headerOffset, &header); err != nil {
		return nil, fmt.Errorf("reading index header: %w", err)
	}

	idx := &Index{
		header:   header,
		archives: make(map[string]map[string]Location),
		byType:   make(map[string][]string),
	}

	// several thousand keys share a handful of archives
	archiveNames := make(map[uint32]string)

	for i := uint32(0); i < header.KeyCount; i++ {
		var entry KeyEntry
		off := int64(header.OffsetKeyTable) + int64(i)*keyRecordSize
		if err := binio.ReadStruct(r, off, &entry); err != nil {
			return nil, fmt.Errorf("reading key %d: %w", i, err)
		}

		resref := binio.FixedString(entry.ResRef[:])
		archive := entry.ID.Archive()

		ext, ok := catalog.Extension(entry.TypeID)
		if !ok {
			d := Diagnostic{
				ResRef: resref,
				TypeID: entry.TypeID,
				ID:     entry.ID,
				Err:    fmt.Errorf("%w: 0x%04X", restype.ErrUnknownResourceType, entry.TypeID),
			}
			idx.diagnostics = append(idx.diagnostics, d)
			slog.Debug("Skipping key with unknown type", "resref", resref, "type_id", entry.TypeID, "archive", archive)
			continue
		}

		if opts.ArchiveFilter != nil && archive != *opts.ArchiveFilter {
			continue
		}
		if typeFilter != "" && ext != typeFilter {
			continue
		}

		archiveName, ok := archiveNames[archive]
		if !ok {
			archiveName, err = readArchiveName(r, header, archive)
			if err != nil {
				return nil, fmt.Errorf("resolving archive %d for %s: %w", archive, resref, err)
			}
			archiveNames[archive] = archiveName
		}

		name := resref + "." + ext
		resources, ok := idx.archives[archiveName]
		if !ok {
			resources = make(map[string]Location)
			idx.archives[archiveName] = resources
		}
		if prev, dup := resources[strings.ToLower(name)]; dup {
			slog.Debug("Duplicate key replaces earlier entry", "archive", archiveName, "name", name, "previous", prev.ID, "id", entry.ID)
		} else {
			idx.byType[ext] = append(idx.byType[ext], name)
		}

		resources[strings.ToLower(name)] = Location{
			Archive:   archiveName,
			Name:      name,
			ResRef:    resref,
			Extension: ext,
			TypeID:    entry.TypeID,
			ID:        entry.ID,
		}
	}

	for ext := range idx.byType {
		sort.Strings(idx.byType[ext])
	}

	slog.Debug("Archive index loaded",
		"archives", len(idx.archives),
		"resources", idx.Len(),
		"skipped", len(idx.diagnostics))

	return idx, nil
}

// readArchiveName resolves an archive index to its on-disk filename. The
// file table entry gives name_offset and name_size; the filename itself is
// the NUL-terminated string stored right after that span.
func readArchiveName(r io.ReadSeeker, header Header, archive uint32) (string, error) {
	if archive >= header.BifCount {
		return "", fmt.Errorf("archive index %d exceeds archive count %d", archive, header.BifCount)
	}

	var entry FileEntry
	off := int64(header.OffsetFileTable) + int64(archive)*fileRecordSize
	if err := binio.ReadStruct(r, off, &entry); err != nil {
		return "", fmt.Errorf("reading file table entry: %w", err)
	}

	name, err := binio.ReadCString(r, int64(entry.NameOffset)+int64(entry.NameSize), maxArchiveName)
	if err != nil {
		return "", fmt.Errorf("reading archive filename: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("archive %d has an empty filename", archive)
	}
	return normalizeArchiveName(name), nil
}

// normalizeArchiveName converts the Windows separators stored in KEY files
func normalizeArchiveName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// Header returns the KEY header the index was built from
func (idx *Index) Header() Header {
	return idx.header
}

// Lookup returns the location of name inside archive. Both lookups are
// case-insensitive and archive may use either path separator.
func (idx *Index) Lookup(archive, name string) (Location, error) {
	resources, ok := idx.archives[normalizeArchiveName(archive)]
	if !ok {
		return Location{}, fmt.Errorf("%w: archive %s", ErrResourceNotFound, archive)
	}
	loc, ok := resources[strings.ToLower(name)]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s in %s", ErrResourceNotFound, name, archive)
	}
	return loc, nil
}

// Find searches every archive for name. Archives are visited in sorted
// order so the result is deterministic when a name appears more than once.
func (idx *Index) Find(name string) (Location, error) {
	key := strings.ToLower(name)
	for _, archive := range idx.Archives() {
		if loc, ok := idx.archives[archive][key]; ok {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
}

// Archives returns all archive filenames in the index, sorted
func (idx *Index) Archives() []string {
	names := make([]string, 0, len(idx.archives))
	for name := range idx.archives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resources returns the locations held by one archive ordered by position
func (idx *Index) Resources(archive string) []Location {
	resources := idx.archives[normalizeArchiveName(archive)]
	locs := make([]Location, 0, len(resources))
	for _, loc := range resources {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool {
		return locs[i].Position() < locs[j].Position()
	})
	return locs
}

// ResourcesByType returns the names (resref.ext) of every resource of the
// given extension, sorted
func (idx *Index) ResourcesByType(ext string) []string {
	names := idx.byType[strings.ToLower(strings.TrimPrefix(ext, "."))]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Len returns the number of indexed resources
func (idx *Index) Len() int {
	n := 0
	for _, resources := range idx.archives {
		n += len(resources)
	}
	return n
}

// Diagnostics returns the entries skipped while building the index
func (idx *Index) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(idx.diagnostics))
	copy(out, idx.diagnostics)
	return out
}
