package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/kotka/internal/database"
	"github.com/jchantrell/kotka/internal/erf"
	"github.com/jchantrell/kotka/internal/keybif"
	"github.com/jchantrell/kotka/internal/utils"
)

// packDirs are the install subdirectories scanned for resource packs
var packDirs = []string{"modules", "lips", "texturepacks"}

var packExtensions = map[string]bool{".erf": true, ".mod": true, ".sav": true, ".hak": true}

var (
	indexForce   bool
	indexNoPacks bool
)

type IndexStats struct {
	StartTime     time.Time
	EndTime       time.Time
	Archives      int
	Resources     int64
	SkippedKeys   int
	Packs         int
	PackResources int64
	PackErrors    int
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Write the archive index to a SQLite manifest",
	Long: `Index builds the chitin.key index of the install and writes every archive,
resource and skipped key to the manifest database, together with the
contents of the resource packs found under modules/, lips/ and
texturepacks/. Use "kotka query" to search the result.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stats := &IndexStats{StartTime: time.Now()}

		index, err := keybif.BuildIndex(cfg.InstallPath, indexOptions(cfg))
		if err != nil {
			return err
		}

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		defer db.Close()

		existing, err := db.Tables(ctx)
		if err != nil {
			return fmt.Errorf("checking database tables: %w", err)
		}
		ddlManager := database.NewDDLManager(db)
		if len(existing) > 0 {
			if !indexForce {
				return fmt.Errorf("database %s already contains tables, pass --force to rebuild it", db.Path())
			}
			slog.Info("Dropping existing manifest", "tables", len(existing))
			if err := ddlManager.DropSchema(ctx); err != nil {
				return err
			}
		}

		if err := ddlManager.CreateSchema(ctx, func(current, total int, description string) {
			slog.Debug("Creating schema", "step", current, "of", total, "description", description)
		}); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}

		inserter := database.NewBulkInserter(db, database.DefaultBulkInsertOptions())
		processingStart := time.Now()

		archives, resources := indexRows(index)
		stats.Archives = len(archives)
		if err := inserter.InsertArchives(ctx, archives); err != nil {
			return err
		}

		progress := utils.NewProgress(len(resources), showProgress())
		err = inserter.InsertResources(ctx, resources, func(inserted int) {
			progress.Update(inserted, "resources")
		})
		progress.Finish()
		if err != nil {
			return err
		}
		stats.Resources = int64(len(resources))

		skipped := make([]database.SkippedKeyRow, 0, len(index.Diagnostics()))
		for _, d := range index.Diagnostics() {
			skipped = append(skipped, database.SkippedKeyRow{
				ResRef:     d.ResRef,
				TypeID:     d.TypeID,
				ResourceID: uint32(d.ID),
				Reason:     d.Err.Error(),
			})
		}
		if err := inserter.InsertSkippedKeys(ctx, skipped); err != nil {
			return err
		}
		stats.SkippedKeys = len(skipped)

		if !indexNoPacks {
			if err := indexPacks(ctx, inserter, stats); err != nil {
				return err
			}
		}

		meta := [][2]string{
			{"install_path", cfg.InstallPath},
			{"indexed_at", time.Now().UTC().Format(time.RFC3339)},
			{"archive_count", fmt.Sprint(index.Header().BifCount)},
			{"key_count", fmt.Sprint(index.Header().KeyCount)},
			{"archive_filter", fmt.Sprint(cfg.ArchiveFilter)},
			{"type_filter", cfg.TypeFilter},
		}
		for _, kv := range meta {
			if err := inserter.SetMeta(ctx, kv[0], kv[1]); err != nil {
				return err
			}
		}

		stats.EndTime = time.Now()
		printIndexStats(stats, stats.EndTime.Sub(processingStart))
		return nil
	},
}

// indexRows flattens the index into database rows, archives in index order
func indexRows(index *keybif.Index) ([]database.ArchiveRow, []database.ResourceRow) {
	var (
		archives  []database.ArchiveRow
		resources []database.ResourceRow
	)
	for _, name := range index.Archives() {
		locs := index.Resources(name)
		if len(locs) == 0 {
			continue
		}
		archiveIndex := locs[0].ID.Archive()
		archives = append(archives, database.ArchiveRow{
			Index:         archiveIndex,
			Name:          name,
			ResourceCount: len(locs),
		})
		for _, loc := range locs {
			resources = append(resources, database.ResourceRow{
				ArchiveIndex: archiveIndex,
				Name:         loc.Name,
				ResRef:       loc.ResRef,
				Extension:    loc.Extension,
				TypeID:       loc.TypeID,
				Position:     loc.Position(),
				ResourceID:   uint32(loc.ID),
			})
		}
	}
	return archives, resources
}

// findPacks returns the resource packs below the install's pack directories
func findPacks(root string) ([]string, error) {
	var packs []string
	for _, dir := range packDirs {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !packExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			packs = append(packs, dir+"/"+entry.Name())
		}
	}
	return packs, nil
}

func indexPacks(ctx context.Context, inserter *database.BulkInserter, stats *IndexStats) error {
	packs, err := findPacks(cfg.InstallPath)
	if err != nil {
		return err
	}

	progress := utils.NewProgress(len(packs), showProgress())
	defer progress.Finish()

	for i, name := range packs {
		progress.Update(i+1, name)

		pack, err := erf.Open(filepath.Join(cfg.InstallPath, filepath.FromSlash(name)))
		if err != nil {
			slog.Warn("Skipping resource pack", "pack", name, "error", err)
			stats.PackErrors++
			continue
		}

		rows, err := packRows(name, pack)
		if err != nil {
			slog.Warn("Skipping resource pack", "pack", name, "error", err)
			stats.PackErrors++
			continue
		}
		if err := inserter.InsertPackResources(ctx, rows, nil); err != nil {
			return err
		}
		stats.Packs++
		stats.PackResources += int64(len(rows))
	}
	return nil
}

func packRows(name string, pack *erf.Pack) ([]database.PackResourceRow, error) {
	keys := pack.Resources()
	entries, err := pack.Entries()
	if err != nil {
		return nil, err
	}
	rows := make([]database.PackResourceRow, 0, len(keys))
	for i, key := range keys {
		entry := entries[i]
		rows = append(rows, database.PackResourceRow{
			Pack:       name,
			Name:       pack.Filename(key),
			ResRef:     key.ResRef,
			Extension:  pack.Extension(key),
			TypeID:     key.TypeID,
			ResourceID: key.ID,
			Offset:     entry.Offset,
			Size:       entry.Size,
		})
	}
	return rows, nil
}

func printIndexStats(stats *IndexStats, processing time.Duration) {
	var rate float64
	if processing.Seconds() > 0 {
		rate = float64(stats.Resources+stats.PackResources) / processing.Seconds()
	}

	fmt.Printf("Archives indexed: %s\n", utils.Number(int64(stats.Archives)))
	fmt.Printf("Resources indexed: %s\n", utils.Number(stats.Resources))
	fmt.Printf("Keys skipped: %d\n", stats.SkippedKeys)
	fmt.Printf("Packs indexed: %d (%d errors)\n", stats.Packs, stats.PackErrors)
	fmt.Printf("Pack resources indexed: %s\n", utils.Number(stats.PackResources))
	fmt.Printf("Total duration: %s\n", utils.Duration(stats.EndTime.Sub(stats.StartTime)))
	fmt.Printf("Insertion rate: %s rows/sec\n", utils.Rate(rate))
	fmt.Println("Try running: kotka query --tables")
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "drop and rebuild an existing manifest")
	indexCmd.Flags().BoolVar(&indexNoPacks, "no-packs", false, "skip resource packs")
}
