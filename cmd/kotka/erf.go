package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jchantrell/kotka/internal/cache"
	"github.com/jchantrell/kotka/internal/erf"
	"github.com/jchantrell/kotka/internal/utils"
)

var (
	erfOutPath     string
	erfStamp       bool
	erfHydrate     bool
	erfExportAll   bool
	erfDecodeText  bool
	erfFileType    string
	erfVersion     string
	erfDescription []string
)

var erfCmd = &cobra.Command{
	Use:   "erf",
	Short: "Inspect and rewrite ERF, MOD, SAV and HAK resource packs",
}

func openPack(path string) (*erf.Pack, error) {
	strategy := erf.FetchOnDemand
	if erfHydrate {
		strategy = erf.HydrateAll
	}
	return erf.Open(path, erf.WithStrategy(strategy))
}

// lookupPackResource accepts a resource id, resref or resref.ext
func lookupPackResource(pack *erf.Pack, name string) (uint32, error) {
	if id, ok := pack.ResourceIDByName(name); ok {
		return id, nil
	}
	var id uint32
	if _, err := fmt.Sscanf(name, "#%d", &id); err == nil {
		if _, err := pack.Resource(id); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", erf.ErrResourceNotFound, name)
}

// savePath is where a mutated pack is written: --out, or in place
func savePath(source string) string {
	if erfOutPath != "" {
		return erfOutPath
	}
	return source
}

var erfInfoCmd = &cobra.Command{
	Use:   "info <pack>",
	Short: "Print a pack's header and localized descriptions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pack, err := openPack(args[0])
		if err != nil {
			return err
		}

		h := pack.Header()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "File type\t%s %s\n", h.FileTypeString(), h.Version[:])
		fmt.Fprintf(w, "File size\t%s\n", utils.Bytes(cache.CacheManager().GetFileSize(args[0])))
		fmt.Fprintf(w, "Resources\t%d\n", h.EntryCount)
		fmt.Fprintf(w, "Key name width\t%d\n", h.KeyNameWidth())
		fmt.Fprintf(w, "Localized strings\t%d (%d bytes at %d)\n", h.LocalizedStringCount, h.LocalizedStringSize, h.OffsetToLocalizedString)
		fmt.Fprintf(w, "Key list\t%d\n", h.OffsetToKeyList)
		fmt.Fprintf(w, "Resource list\t%d\n", h.OffsetToResourceList)
		fmt.Fprintf(w, "Build date\t%d, day %d\n", 1900+h.BuildYear, h.BuildDay+1)
		fmt.Fprintf(w, "Description strref\t%d\n", int32(h.DescriptionStrRef))
		for _, s := range pack.LocalizedStrings() {
			text, err := s.Decode()
			if err != nil {
				slog.Warn("Undecodable localized string", "language", s.Language(), "error", err)
				continue
			}
			fmt.Fprintf(w, "Description (%s)\t%s\n", s.Language(), text)
		}
		return w.Flush()
	},
}

var erfListCmd = &cobra.Command{
	Use:   "list <pack>",
	Short: "List the resources of a pack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pack, err := openPack(args[0])
		if err != nil {
			return err
		}

		entries, err := pack.Entries()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tOFFSET\tSIZE")
		for i, key := range pack.Resources() {
			if cfg.TypeFilter != "" && pack.Extension(key) != cfg.TypeFilter {
				continue
			}
			entry := entries[i]
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", key.ID, pack.Filename(key), entry.Offset, entry.Size)
		}
		return w.Flush()
	},
}

var erfExportCmd = &cobra.Command{
	Use:   "export <pack> [resource...]",
	Short: "Write resources of a pack to the output directory",
	Long: `Export writes the named resources (resref, resref.ext or #id) of a pack
to the output directory, or every resource with --all. The pack itself is
never modified.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pack, err := openPack(args[0])
		if err != nil {
			return err
		}

		var names []string
		if erfExportAll {
			if err := pack.LoadFile(); err != nil {
				return err
			}
			for _, key := range pack.Resources() {
				names = append(names, pack.Filename(key))
			}
		} else {
			if len(args) < 2 {
				return fmt.Errorf("name at least one resource, or pass --all")
			}
			for _, name := range args[1:] {
				id, err := lookupPackResource(pack, name)
				if err != nil {
					return err
				}
				key, err := pack.Resource(id)
				if err != nil {
					return err
				}
				names = append(names, pack.Filename(key))
			}
		}

		exporter, err := newExporter(cfg, pack, erfDecodeText)
		if err != nil {
			return err
		}

		progress := utils.NewProgress(len(names), showProgress() && len(names) > 1)
		err = exporter.ExportFiles(names, func(current, total int, description string) {
			progress.Update(current, description)
		})
		progress.Finish()
		if err != nil {
			return err
		}

		fmt.Printf("Exported %s resources to %s\n", utils.Number(int64(len(names))), cfg.OutputDir)
		return nil
	},
}

var erfReplaceCmd = &cobra.Command{
	Use:   "replace <pack> <resource> <file>",
	Short: "Replace the contents of one resource and rewrite the pack",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pack, err := openPack(args[0])
		if err != nil {
			return err
		}

		id, err := lookupPackResource(pack, args[1])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("reading replacement: %w", err)
		}
		if err := pack.Replace(id, data); err != nil {
			return err
		}
		return pack.Save(savePath(args[0]), erfStamp)
	},
}

var erfAddCmd = &cobra.Command{
	Use:   "add <pack> <file...>",
	Short: "Add files to a pack, named after their basename",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pack, err := openPack(args[0])
		if err != nil {
			return err
		}
		if err := addFiles(pack, args[1:]); err != nil {
			return err
		}
		return pack.Save(savePath(args[0]), erfStamp)
	},
}

var erfRemoveCmd = &cobra.Command{
	Use:   "remove <pack> <resource...>",
	Short: "Remove resources from a pack",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pack, err := openPack(args[0])
		if err != nil {
			return err
		}

		// ids are renumbered after each removal, so resolve one name at a time
		for _, name := range args[1:] {
			id, err := lookupPackResource(pack, name)
			if err != nil {
				return err
			}
			if err := pack.Remove(id); err != nil {
				return err
			}
			slog.Debug("Removed resource", "name", name, "id", id)
		}
		return pack.Save(savePath(args[0]), erfStamp)
	},
}

var erfCreateCmd = &cobra.Command{
	Use:   "create <pack> [file...]",
	Short: "Create a new pack from files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cache.CacheManager().FileExists(args[0]) {
			return fmt.Errorf("%s already exists", args[0])
		}

		pack, err := erf.New(strings.ToUpper(erfFileType), erfVersion)
		if err != nil {
			return err
		}
		for _, desc := range erfDescription {
			name, text, ok := strings.Cut(desc, "=")
			if !ok {
				return fmt.Errorf("description %q must be language=text", desc)
			}
			lang, err := erf.ParseLanguage(name)
			if err != nil {
				return err
			}
			if err := pack.AddLocalizedString(lang, text); err != nil {
				return err
			}
		}
		if err := addFiles(pack, args[1:]); err != nil {
			return err
		}
		return pack.Save(args[0], true)
	},
}

func addFiles(pack *erf.Pack, files []string) error {
	for _, file := range files {
		base := filepath.Base(file)
		ext := filepath.Ext(base)
		resref := strings.ToLower(strings.TrimSuffix(base, ext))

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		id, err := pack.Add(resref, ext, data)
		if err != nil {
			return fmt.Errorf("adding %s: %w", file, err)
		}
		slog.Debug("Added resource", "file", file, "id", id, "size", len(data))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(erfCmd)
	erfCmd.AddCommand(erfInfoCmd, erfListCmd, erfExportCmd, erfReplaceCmd, erfAddCmd, erfRemoveCmd, erfCreateCmd)

	erfCmd.PersistentFlags().BoolVar(&erfHydrate, "hydrate", false, "read every resource when the pack is opened")

	for _, c := range []*cobra.Command{erfReplaceCmd, erfAddCmd, erfRemoveCmd} {
		c.Flags().StringVar(&erfOutPath, "out", "", "write the rewritten pack here instead of in place")
		c.Flags().BoolVar(&erfStamp, "stamp", false, "set the build date to today")
	}

	erfExportCmd.Flags().BoolVar(&erfExportAll, "all", false, "export every resource")
	erfExportCmd.Flags().BoolVar(&erfDecodeText, "decode-text", false, "convert text resources to UTF-8 using the first configured language")

	erfCreateCmd.Flags().StringVar(&erfFileType, "file-type", "MOD", "pack file type (ERF, MOD, SAV, HAK)")
	erfCreateCmd.Flags().StringVar(&erfVersion, "version", "V1.0", "pack version (V1.0 has 16-byte resrefs, V1.1 32-byte)")
	erfCreateCmd.Flags().StringArrayVar(&erfDescription, "description", nil, "localized description as language=text, repeatable")
}
