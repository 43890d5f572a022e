package cache

import (
	"fmt"

	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// Payloads is a bounded in-memory cache of extracted resource bytes, keyed
// by archive and resource name. It is safe for concurrent use.
type Payloads struct {
	entries *arc.ARCCache[string, []byte]
}

// NewPayloads creates a cache holding at most size resources
func NewPayloads(size int) (*Payloads, error) {
	if size <= 0 {
		return nil, fmt.Errorf("payload cache size must be positive, got %d", size)
	}
	entries, err := arc.NewARC[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating payload cache: %w", err)
	}
	return &Payloads{entries: entries}, nil
}

func payloadKey(archive, name string) string {
	return archive + "\x00" + name
}

// Get returns a copy of the cached bytes for name in archive
func (p *Payloads) Get(archive, name string) ([]byte, bool) {
	data, ok := p.entries.Get(payloadKey(archive, name))
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Add stores a copy of data
func (p *Payloads) Add(archive, name string, data []byte) {
	stored := make([]byte, len(data))
	copy(stored, data)
	p.entries.Add(payloadKey(archive, name), stored)
}

// Len returns the number of cached resources
func (p *Payloads) Len() int {
	return p.entries.Len()
}

// Purge drops every cached resource
func (p *Payloads) Purge() {
	p.entries.Purge()
}
