package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/kotka/internal/export"
	"github.com/jchantrell/kotka/internal/keybif"
	"github.com/jchantrell/kotka/internal/utils"
)

var (
	extractAll    bool
	extractSearch bool
	extractText   bool
)

// archiveLoader serves resources of one archive to the exporter
type archiveLoader struct {
	manager *keybif.Manager
	archive string
}

func (l archiveLoader) GetFile(name string) ([]byte, error) {
	return l.manager.GetResource(l.archive, name)
}

var extractCmd = &cobra.Command{
	Use:   "extract <archive> [resource...]",
	Short: "Extract resources from a data archive",
	Long: `Extract writes resources of one BIF archive to the output directory.

  kotka extract data/2da.bif feat.2da spells.2da
  kotka extract data/scripts.bif --all
  kotka extract --search k_inc_generic.nss

With --search every argument is a resource name looked up across all archives.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		manager, err := openInstall(cfg)
		if err != nil {
			return err
		}
		defer manager.Close()

		var (
			loader export.FileLoader
			names  []string
		)

		switch {
		case extractSearch:
			loader = manager
			names = args
		case extractAll:
			if len(args) > 1 {
				return fmt.Errorf("--all takes only the archive name")
			}
			loader = archiveLoader{manager: manager, archive: args[0]}
			for _, loc := range manager.Index().Resources(args[0]) {
				names = append(names, loc.Name)
			}
			if len(names) == 0 {
				return fmt.Errorf("%w: archive %s holds no indexed resources", keybif.ErrResourceNotFound, args[0])
			}
		default:
			if len(args) < 2 {
				return fmt.Errorf("name at least one resource, or pass --all")
			}
			loader = archiveLoader{manager: manager, archive: args[0]}
			names = args[1:]
		}

		exporter, err := newExporter(cfg, loader, extractText)
		if err != nil {
			return err
		}

		slog.Info("Extracting resources", "count", len(names), "output", cfg.OutputDir)

		progress := utils.NewProgress(len(names), showProgress() && len(names) > 1)
		err = exporter.ExportFiles(names, func(current, total int, description string) {
			progress.Update(current, description)
		})
		progress.Finish()
		if err != nil {
			return err
		}

		elapsed := time.Since(start)
		var rate float64
		if elapsed.Seconds() > 0 {
			rate = float64(len(names)) / elapsed.Seconds()
		}
		fmt.Printf("Extracted %s resources to %s in %s (%s/sec)\n",
			utils.Number(int64(len(names))), cfg.OutputDir, utils.Duration(elapsed), utils.Rate(rate))
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <archive> <resource>",
	Short: "Write one resource to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := openInstall(cfg)
		if err != nil {
			return err
		}
		defer manager.Close()

		resource, err := manager.ExtractResource(args[0], args[1])
		if err != nil {
			return err
		}
		defer resource.Close()

		if _, err := io.Copy(os.Stdout, resource); err != nil {
			return fmt.Errorf("writing %s: %w", args[1], err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractAll, "all", false, "extract every resource of the archive")
	extractCmd.Flags().BoolVar(&extractSearch, "search", false, "look up each name in every archive")
	extractCmd.Flags().BoolVar(&extractText, "decode-text", false, "convert text resources to UTF-8 using the first configured language")
}
