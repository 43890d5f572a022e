package keybif

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jchantrell/kotka/internal/cache"
)

// Manager provides a high-level API for extracting resources from the data
// archives of one install. Every extraction opens the archive, reads and
// closes it again; no file handles are held between calls.
type Manager struct {
	root     string
	index    *Index
	payloads *cache.Payloads
}

// Option configures a Manager
type Option func(*Manager)

// WithPayloadCache keeps recently extracted resources in p so repeated
// requests skip the archive read
func WithPayloadCache(p *cache.Payloads) Option {
	return func(m *Manager) {
		m.payloads = p
	}
}

// NewManager builds the index of the install at root and returns a manager over it
func NewManager(root string, opts IndexOptions, options ...Option) (*Manager, error) {
	index, err := BuildIndex(root, opts)
	if err != nil {
		return nil, fmt.Errorf("building archive index: %w", err)
	}

	manager := NewManagerWithIndex(root, index, options...)

	slog.Debug("Archive index built", "root", root, "archives", len(index.archives), "resources", index.Len())

	return manager, nil
}

// NewManagerWithIndex wraps an already built index
func NewManagerWithIndex(root string, index *Index, options ...Option) *Manager {
	m := &Manager{
		root:  root,
		index: index,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Index returns the archive index
func (m *Manager) Index() *Index {
	return m.index
}

// Root returns the install root
func (m *Manager) Root() string {
	return m.root
}

// ArchivePath returns the on-disk path of an archive
func (m *Manager) ArchivePath(archive string) string {
	return filepath.Join(m.root, filepath.FromSlash(normalizeArchiveName(archive)))
}

// FileExists checks if the index holds name inside archive
func (m *Manager) FileExists(archive, name string) bool {
	_, err := m.index.Lookup(archive, name)
	return err == nil
}

// GetResource returns the bytes of name from archive, exactly as many as
// the archive's resource table declares.
func (m *Manager) GetResource(archive, name string) ([]byte, error) {
	loc, err := m.index.Lookup(archive, name)
	if err != nil {
		return nil, err
	}
	return m.readLocation(loc)
}

// GetFile finds name in any archive and returns its bytes
func (m *Manager) GetFile(name string) ([]byte, error) {
	loc, err := m.index.Find(name)
	if err != nil {
		return nil, err
	}
	return m.readLocation(loc)
}

func (m *Manager) readLocation(loc Location) ([]byte, error) {
	if m.payloads != nil {
		if data, ok := m.payloads.Get(loc.Archive, loc.Name); ok {
			slog.Debug("Payload cache hit", "archive", loc.Archive, "name", loc.Name)
			return data, nil
		}
	}

	data, err := m.readFromArchive(loc)
	if err != nil {
		return nil, err
	}

	if m.payloads != nil {
		m.payloads.Add(loc.Archive, loc.Name, data)
	}
	return data, nil
}

// readFromArchive opens the archive holding loc and reads the resource
func (m *Manager) readFromArchive(loc Location) ([]byte, error) {
	archivePath := m.ArchivePath(loc.Archive)

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", loc.Archive, err)
	}
	defer archiveFile.Close()

	slog.Debug("Reading resource", "archive", loc.Archive, "name", loc.Name, "position", loc.Position())

	data, err := readResource(archiveFile, loc.Position())
	if err != nil {
		return nil, fmt.Errorf("extracting %s from %s: %w", loc.Name, loc.Archive, err)
	}
	return data, nil
}

// TempResource is an extracted resource staged in a temporary file. Closing
// it removes the file.
type TempResource struct {
	*os.File
}

// Close closes and removes the temporary file
func (t *TempResource) Close() error {
	closeErr := t.File.Close()
	if err := os.Remove(t.File.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing temporary resource: %w", err)
	}
	return closeErr
}

// ExtractResource performs the same decode as GetResource but hands the
// bytes off through a temporary file positioned at its start.
func (m *Manager) ExtractResource(archive, name string) (*TempResource, error) {
	data, err := m.GetResource(archive, name)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "kotka_*_"+filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	resource := &TempResource{File: tmp}

	if _, err := tmp.Write(data); err != nil {
		resource.Close()
		return nil, fmt.Errorf("writing temporary resource: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		resource.Close()
		return nil, fmt.Errorf("rewinding temporary resource: %w", err)
	}
	return resource, nil
}

// Close releases the manager. Nothing is held open between calls, but the
// payload cache is dropped.
func (m *Manager) Close() error {
	if m.payloads != nil {
		m.payloads.Purge()
	}
	return nil
}
