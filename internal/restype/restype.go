// Package restype maps the numeric resource type identifiers used by KEY, BIF
// and ERF files to their canonical file extensions.
package restype

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownResourceType is returned when a type id has no catalog entry.
var ErrUnknownResourceType = errors.New("restype: unknown resource type")

// Catalog is an immutable type id -> extension table
type Catalog struct {
	extensions map[uint16]string
	ids        map[string]uint16
}

// New builds a catalog from the given table. The map is copied, so later
// changes by the caller are not observed.
func New(table map[uint16]string) *Catalog {
	c := &Catalog{
		extensions: make(map[uint16]string, len(table)),
		ids:        make(map[string]uint16, len(table)),
	}
	for id, ext := range table {
		ext = strings.ToLower(ext)
		c.extensions[id] = ext
		c.ids[ext] = id
	}
	return c
}

var defaultCatalog = New(kotorTypes)

// Default returns the built-in catalog shared by the whole process
func Default() *Catalog {
	return defaultCatalog
}

// Extension returns the extension registered for id
func (c *Catalog) Extension(id uint16) (string, bool) {
	ext, ok := c.extensions[id]
	return ext, ok
}

// TypeID performs the reverse lookup, extension -> type id. A leading dot
// is ignored and the comparison is case-insensitive.
func (c *Catalog) TypeID(ext string) (uint16, bool) {
	id, ok := c.ids[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return id, ok
}

// Has reports whether ext is a known extension
func (c *Catalog) Has(ext string) bool {
	_, ok := c.TypeID(ext)
	return ok
}

// Len returns the number of registered types
func (c *Catalog) Len() int {
	return len(c.extensions)
}

// IDs returns every registered type id in ascending order
func (c *Catalog) IDs() []uint16 {
	ids := make([]uint16, 0, len(c.extensions))
	for id := range c.extensions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
