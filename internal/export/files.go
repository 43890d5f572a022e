package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
)

// FileLoader defines the interface for loading resources by name. Both the
// archive extractor and resource packs implement it.
type FileLoader interface {
	GetFile(name string) ([]byte, error)
}

// Exporter handles exporting resources to disk
type Exporter struct {
	loader    FileLoader
	outputDir string

	// textEncoding converts plain text resources to UTF-8 when set
	textEncoding encoding.Encoding
	textTypes    map[string]bool
}

// Option configures an Exporter
type Option func(*Exporter)

// WithTextEncoding decodes resources with the given extensions from enc to
// UTF-8 while exporting
func WithTextEncoding(enc encoding.Encoding, extensions ...string) Option {
	return func(e *Exporter) {
		e.textEncoding = enc
		for _, ext := range extensions {
			e.textTypes[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
		}
	}
}

// NewExporter creates a new resource exporter
func NewExporter(loader FileLoader, outputDir string, options ...Option) *Exporter {
	e := &Exporter{
		loader:    loader,
		outputDir: outputDir,
		textTypes: make(map[string]bool),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// ExportFiles exports the named resources to the output directory. The
// first failure stops the export.
func (e *Exporter) ExportFiles(files []string, progressCallback ProgressCallback) error {
	if len(files) == 0 {
		return nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for i, name := range files {
		if _, err := e.exportFile(name); err != nil {
			return err
		}

		if progressCallback != nil {
			progressCallback(i+1, len(files), sanitizePath(name))
		}
	}

	return nil
}

// ExportFile exports a single resource and returns the path written
func (e *Exporter) ExportFile(name string) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return e.exportFile(name)
}

func (e *Exporter) exportFile(name string) (string, error) {
	fileData, err := e.loader.GetFile(name)
	if err != nil {
		return "", fmt.Errorf("loading file %s: %w", name, err)
	}

	outputPath := filepath.Join(e.outputDir, sanitizePath(name))

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if e.textEncoding != nil && e.textTypes[ext] {
		decoded, err := e.textEncoding.NewDecoder().Bytes(fileData)
		if err != nil {
			return "", fmt.Errorf("decoding text file %s: %w", name, err)
		}
		fileData = decoded
		slog.Debug("Decoded text file to UTF-8", "name", name, "output", outputPath)
	}

	if err := os.WriteFile(outputPath, fileData, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", outputPath, err)
	}

	slog.Debug("Exported file", "name", name, "output", outputPath, "size", len(fileData))
	return outputPath, nil
}

// sanitizePath sanitizes a resource name for use as a filename
// Replaces path separators with @ symbols
func sanitizePath(path string) string {
	return strings.NewReplacer("/", "@", "\\", "@").Replace(path)
}
