package erf

import (
	"fmt"
	"strings"

	"github.com/jchantrell/kotka/internal/restype"
)

// Replace sets new contents for resource id. The change is applied by the
// next Write or Save.
func (p *Pack) Replace(id uint32, data []byte) error {
	r, err := p.find(id)
	if err != nil {
		return err
	}
	r.replacement = append([]byte{}, data...)
	r.replaced = true
	return nil
}

// Add appends a new resource and returns its id
func (p *Pack) Add(resref, ext string, data []byte) (uint32, error) {
	typeID, ok := p.catalog.TypeID(ext)
	if !ok {
		return 0, fmt.Errorf("%w: %q", restype.ErrUnknownResourceType, ext)
	}
	if resref == "" || strings.ContainsRune(resref, 0) {
		return 0, fmt.Errorf("invalid resref %q", resref)
	}
	if width := p.header.KeyNameWidth(); len(resref) > width {
		return 0, fmt.Errorf("resref %q exceeds %d bytes", resref, width)
	}
	if id, exists := p.ResourceIDByName(resref + "." + strings.TrimPrefix(ext, ".")); exists {
		return 0, fmt.Errorf("resource %s.%s already exists with id %d", resref, ext, id)
	}

	var id uint32
	for _, r := range p.resources {
		if r.key.ID >= id {
			id = r.key.ID + 1
		}
	}

	p.resources = append(p.resources, &resource{
		key:         Key{ResRef: resref, ID: id, TypeID: uint32(typeID)},
		replacement: append([]byte{}, data...),
		replaced:    true,
	})
	return id, nil
}

// Remove deletes resource id. Remaining resources are renumbered in pack
// order so ids stay dense.
func (p *Pack) Remove(id uint32) error {
	for i, r := range p.resources {
		if r.key.ID != id {
			continue
		}
		p.resources = append(p.resources[:i], p.resources[i+1:]...)
		for n, rest := range p.resources {
			rest.key.ID = uint32(n)
		}
		return nil
	}
	return fmt.Errorf("%w: id %d", ErrResourceNotFound, id)
}

// AddLocalizedString appends a description in lang
func (p *Pack) AddLocalizedString(lang Language, text string) error {
	s, err := NewLocalizedString(lang, text)
	if err != nil {
		return err
	}
	p.strings = append(p.strings, s)
	return nil
}

// SetDescriptionStrRef sets the talk table reference of the pack description
func (p *Pack) SetDescriptionStrRef(ref uint32) {
	p.header.DescriptionStrRef = ref
}
