package erf

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jchantrell/kotka/internal/binio"
)

// BuildStamp converts t to the year and day fields of the header
func BuildStamp(t time.Time) (year, day uint32) {
	return uint32(t.Year() - 1900), uint32(t.YearDay() - 1)
}

func (p *Pack) loadEntries() error {
	missing := false
	for _, r := range p.resources {
		if r.backed && !r.replaced && !r.entryLoaded {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}
	return p.withSource(func(src io.ReadSeeker) error {
		for _, r := range p.resources {
			if r.replaced {
				continue
			}
			if err := p.loadEntry(src, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recompute derives every count, offset and size of the header and the
// resource list from the pack's current contents. Resources keep their
// order; each starts where the previous one ends, using replacement sizes
// where set. With updateStamp the build year and day are taken from now.
func (p *Pack) Recompute(now time.Time, updateStamp bool) (Metadata, error) {
	if err := p.loadEntries(); err != nil {
		return Metadata{}, err
	}

	m := p.header.Metadata
	if m.OffsetToLocalizedString < HeaderSize {
		m.OffsetToLocalizedString = HeaderSize
	}

	// sums are taken in 64 bits; every on-disk offset must fit in 32
	var locSize uint64
	for _, s := range p.strings {
		locSize += uint64(s.diskSize())
	}
	keyList := uint64(m.OffsetToLocalizedString) + locSize
	resourceList := keyList + uint64(len(p.resources))*uint64(p.header.KeyRecordSize())

	offsets := make([]uint64, len(p.resources))
	next := resourceList + uint64(len(p.resources))*resourceEntrySize
	for i, r := range p.resources {
		offsets[i] = next
		next += uint64(r.size())
	}
	if next > math.MaxUint32 {
		return Metadata{}, fmt.Errorf("%w: pack would be %d bytes", ErrPackTooLarge, next)
	}

	m.LocalizedStringCount = uint32(len(p.strings))
	m.LocalizedStringSize = uint32(locSize)
	m.OffsetToKeyList = uint32(keyList)
	m.EntryCount = uint32(len(p.resources))
	m.OffsetToResourceList = uint32(resourceList)
	for i, r := range p.resources {
		r.newOffset = uint32(offsets[i])
		r.newSize = r.size()
	}

	if updateStamp {
		m.BuildYear, m.BuildDay = BuildStamp(now)
	}

	p.header.Metadata = m
	return m, nil
}

// Layout returns the (offset, size) pairs computed by the last Recompute,
// in pack order
func (p *Pack) Layout() []ResourceEntry {
	out := make([]ResourceEntry, len(p.resources))
	for i, r := range p.resources {
		out[i] = ResourceEntry{Offset: r.newOffset, Size: r.newSize}
	}
	return out
}

// checkIDs verifies the ids are exactly 0..n-1, which the resource list
// indexing requires
func (p *Pack) checkIDs() error {
	seen := make([]bool, len(p.resources))
	for _, r := range p.resources {
		if int(r.key.ID) >= len(seen) || seen[r.key.ID] {
			return fmt.Errorf("resource ids are not dense: %s has id %d of %d resources", p.Filename(r.key), r.key.ID, len(p.resources))
		}
		seen[r.key.ID] = true
	}
	return nil
}

// Write recomputes the layout and serializes the whole pack to w. Resource
// bytes not yet in memory are read from the backing file first.
func (p *Pack) Write(w io.Writer, updateStamp bool) error {
	if err := p.LoadFile(); err != nil {
		return fmt.Errorf("loading resources: %w", err)
	}
	if err := p.checkIDs(); err != nil {
		return err
	}
	m, err := p.Recompute(p.clock(), updateStamp)
	if err != nil {
		return err
	}

	out := binio.NewWriter(w)
	out.Struct(p.header)
	out.PadTo(int64(m.OffsetToLocalizedString))

	for _, s := range p.strings {
		out.Struct(s.LanguageID)
		out.Struct(uint32(len(s.Text)))
		out.Bytes(s.Text)
	}

	out.PadTo(int64(m.OffsetToKeyList))
	width := p.header.KeyNameWidth()
	for _, r := range p.resources {
		out.FixedString(r.key.ResRef, width)
		out.Struct(r.key.ID)
		out.Struct(r.key.TypeID)
	}

	out.PadTo(int64(m.OffsetToResourceList))
	list := make([]ResourceEntry, len(p.resources))
	for _, r := range p.resources {
		list[r.key.ID] = ResourceEntry{Offset: r.newOffset, Size: r.newSize}
	}
	out.Struct(list)

	for _, r := range p.resources {
		out.PadTo(int64(r.newOffset))
		out.Bytes(r.payload())
	}

	if err := out.Err(); err != nil {
		return fmt.Errorf("writing pack: %w", err)
	}
	return nil
}

// Save writes the pack to path through a temporary file in the same
// directory, renamed into place once complete. On failure the file at path
// is left as it was. Afterwards the pack is backed by the new file.
func (p *Pack) Save(path string, updateStamp bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temporary pack: %w", err)
	}
	tmpPath := tmp.Name()

	buf := bufio.NewWriter(tmp)
	if err := p.Write(buf, updateStamp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing temporary pack: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temporary pack: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temporary pack: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	p.commit(path)

	slog.Info("Pack saved", "path", path, "resources", len(p.resources), "size", p.endOffset())
	return nil
}

// commit makes the layout just written the pack's backing state
func (p *Pack) commit(path string) {
	for _, r := range p.resources {
		r.data = r.payload()
		r.replacement = nil
		r.replaced = false
		r.entry = ResourceEntry{Offset: r.newOffset, Size: r.newSize}
		r.entryLoaded = true
		r.sourceID = r.key.ID
		r.backed = true
	}
	p.sourceResourceList = p.header.OffsetToResourceList
	p.path = path
	p.open = func() (io.ReadSeekCloser, error) {
		return os.Open(path)
	}
}

func (p *Pack) endOffset() uint32 {
	end := p.header.OffsetToResourceList + p.header.EntryCount*resourceEntrySize
	for _, r := range p.resources {
		if e := r.newOffset + r.newSize; e > end {
			end = e
		}
	}
	return end
}
