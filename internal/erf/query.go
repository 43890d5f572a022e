package erf

import (
	"fmt"
	"strings"
)

// Extension returns the extension of a key's type, or the hex type id when
// the catalog does not know it
func (p *Pack) Extension(k Key) string {
	if k.TypeID <= 0xFFFF {
		if ext, ok := p.catalog.Extension(uint16(k.TypeID)); ok {
			return ext
		}
	}
	return fmt.Sprintf("0x%04x", k.TypeID)
}

// Filename returns resref.ext for k
func (p *Pack) Filename(k Key) string {
	return k.ResRef + "." + p.Extension(k)
}

// Resources returns every key in pack order
func (p *Pack) Resources() []Key {
	keys := make([]Key, len(p.resources))
	for i, r := range p.resources {
		keys[i] = r.key
	}
	return keys
}

// Resource returns the key of resource id
func (p *Pack) Resource(id uint32) (Key, error) {
	r, err := p.find(id)
	if err != nil {
		return Key{}, err
	}
	return r.key, nil
}

// ResourceIDByName returns the id of the first resource whose resref or
// resref.ext matches name, ignoring case
func (p *Pack) ResourceIDByName(name string) (uint32, bool) {
	for _, r := range p.resources {
		if strings.EqualFold(r.key.ResRef, name) || strings.EqualFold(p.Filename(r.key), name) {
			return r.key.ID, true
		}
	}
	return 0, false
}

// ResourceIDByType returns the id of the first resource with extension ext
func (p *Pack) ResourceIDByType(ext string) (uint32, bool) {
	typeID, ok := p.catalog.TypeID(ext)
	if !ok {
		return 0, false
	}
	for _, r := range p.resources {
		if r.key.TypeID == uint32(typeID) {
			return r.key.ID, true
		}
	}
	return 0, false
}

// ResourcesByType returns every key with extension ext, in pack order
func (p *Pack) ResourcesByType(ext string) []Key {
	typeID, ok := p.catalog.TypeID(ext)
	if !ok {
		return nil
	}
	var keys []Key
	for _, r := range p.resources {
		if r.key.TypeID == uint32(typeID) {
			keys = append(keys, r.key)
		}
	}
	return keys
}

// GetFile returns the bytes of the resource named name (resref or
// resref.ext)
func (p *Pack) GetFile(name string) ([]byte, error) {
	id, ok := p.ResourceIDByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	return p.Bytes(id)
}
