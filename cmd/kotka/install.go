package main

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/jchantrell/kotka/internal/cache"
	"github.com/jchantrell/kotka/internal/config"
	"github.com/jchantrell/kotka/internal/export"
	"github.com/jchantrell/kotka/internal/keybif"
)

// textTypes are the resource types exported as plain text
var textTypes = []string{"txt", "nss", "ini", "lyt", "vis", "txi"}

func indexOptions(c *config.Config) keybif.IndexOptions {
	opts := keybif.IndexOptions{TypeFilter: c.TypeFilter}
	if c.HasArchiveFilter() {
		archive := uint32(c.ArchiveFilter)
		opts.ArchiveFilter = &archive
	}
	return opts
}

// openInstall builds the archive index of the configured install
func openInstall(c *config.Config) (*keybif.Manager, error) {
	var options []keybif.Option
	if c.CacheSize > 0 {
		payloads, err := cache.NewPayloads(c.CacheSize)
		if err != nil {
			return nil, err
		}
		options = append(options, keybif.WithPayloadCache(payloads))
	}

	manager, err := keybif.NewManager(c.InstallPath, indexOptions(c), options...)
	if err != nil {
		return nil, err
	}

	if skipped := manager.Index().Diagnostics(); len(skipped) > 0 {
		slog.Warn("Index entries skipped", "count", len(skipped))
	}
	return manager, nil
}

// textEncoding returns the code page of the first configured language
func textEncoding(c *config.Config) (encoding.Encoding, error) {
	langs, err := c.ParsedLanguages()
	if err != nil {
		return nil, err
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("no language configured")
	}
	return langs[0].Encoding(), nil
}

func newExporter(c *config.Config, loader export.FileLoader, decodeText bool) (*export.Exporter, error) {
	if !decodeText {
		return export.NewExporter(loader, c.OutputDir), nil
	}
	enc, err := textEncoding(c)
	if err != nil {
		return nil, err
	}
	return export.NewExporter(loader, c.OutputDir, export.WithTextEncoding(enc, textTypes...)), nil
}
