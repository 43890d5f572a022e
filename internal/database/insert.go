package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// BulkInserter handles batch insertion of manifest rows
type BulkInserter struct {
	db        *Database
	batchSize int
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many rows to insert per transaction
	BatchSize int
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize: 1000,
	}
}

// NewBulkInserter creates a new bulk inserter with the given database and options
func NewBulkInserter(db *Database, options *BulkInsertOptions) *BulkInserter {
	if options == nil {
		options = DefaultBulkInsertOptions()
	}
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBulkInsertOptions().BatchSize
	}

	return &BulkInserter{
		db:        db,
		batchSize: options.BatchSize,
	}
}

// ArchiveRow is one data archive of the index
type ArchiveRow struct {
	Index         uint32
	Name          string
	ResourceCount int
}

// ResourceRow is one resource of the index
type ResourceRow struct {
	ArchiveIndex uint32
	Name         string
	ResRef       string
	Extension    string
	TypeID       uint16
	Position     uint32
	ResourceID   uint32

	// Archive is the archive filename, filled in by lookups only
	Archive string
}

// SkippedKeyRow is a key left out of the index
type SkippedKeyRow struct {
	ResRef     string
	TypeID     uint16
	ResourceID uint32
	Reason     string
}

// PackResourceRow is one resource of a resource pack
type PackResourceRow struct {
	Pack       string
	Name       string
	ResRef     string
	Extension  string
	TypeID     uint32
	ResourceID uint32
	Offset     uint32
	Size       uint32
}

// BatchCallback is called after each committed batch with the running row count
type BatchCallback func(inserted int)

const (
	insertArchiveSQL      = `INSERT INTO "archives" (archive_index, name, resource_count) VALUES (?, ?, ?)`
	insertResourceSQL     = `INSERT INTO "resources" (archive_index, name, resref, extension, type_id, position, resource_id) VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertSkippedSQL      = `INSERT INTO "skipped_keys" (resref, type_id, resource_id, reason) VALUES (?, ?, ?, ?)`
	insertPackResourceSQL = `INSERT INTO "pack_resources" (pack, name, resref, extension, type_id, resource_id, data_offset, data_size) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	upsertMetaSQL         = `INSERT INTO "_meta" (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value`
)

// InsertArchives inserts archive rows
func (bi *BulkInserter) InsertArchives(ctx context.Context, rows []ArchiveRow) error {
	return insertRows(ctx, bi, "archives", insertArchiveSQL, rows, nil, func(r ArchiveRow) []any {
		return []any{r.Index, r.Name, r.ResourceCount}
	})
}

// InsertResources inserts resource rows, batchSize per transaction
func (bi *BulkInserter) InsertResources(ctx context.Context, rows []ResourceRow, callback BatchCallback) error {
	return insertRows(ctx, bi, "resources", insertResourceSQL, rows, callback, func(r ResourceRow) []any {
		return []any{r.ArchiveIndex, r.Name, r.ResRef, r.Extension, r.TypeID, r.Position, r.ResourceID}
	})
}

// InsertSkippedKeys inserts the keys dropped while building the index
func (bi *BulkInserter) InsertSkippedKeys(ctx context.Context, rows []SkippedKeyRow) error {
	return insertRows(ctx, bi, "skipped_keys", insertSkippedSQL, rows, nil, func(r SkippedKeyRow) []any {
		return []any{r.ResRef, r.TypeID, r.ResourceID, r.Reason}
	})
}

// InsertPackResources inserts the contents of resource packs
func (bi *BulkInserter) InsertPackResources(ctx context.Context, rows []PackResourceRow, callback BatchCallback) error {
	return insertRows(ctx, bi, "pack_resources", insertPackResourceSQL, rows, callback, func(r PackResourceRow) []any {
		return []any{r.Pack, r.Name, r.ResRef, r.Extension, r.TypeID, r.ResourceID, r.Offset, r.Size}
	})
}

// SetMeta records a manifest metadata value
func (bi *BulkInserter) SetMeta(ctx context.Context, name, value string) error {
	if _, err := bi.db.Exec(ctx, upsertMetaSQL, name, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}

func insertRows[T any](ctx context.Context, bi *BulkInserter, table, insertSQL string, rows []T, callback BatchCallback, values func(T) []any) error {
	if len(rows) == 0 {
		slog.Debug("No rows to insert", "table", table)
		return nil
	}

	for i := 0; i < len(rows); i += bi.batchSize {
		end := min(i+bi.batchSize, len(rows))

		if err := insertBatch(ctx, bi.db, insertSQL, rows[i:end], values); err != nil {
			return fmt.Errorf("inserting batch %d-%d for table %s: %w", i, end-1, table, err)
		}

		if callback != nil {
			callback(end)
		}
	}

	slog.Debug("Inserted rows", "table", table, "rows", len(rows))
	return nil
}

// insertBatch inserts a single batch of rows within a transaction
func insertBatch[T any](ctx context.Context, db *Database, insertSQL string, batch []T, values func(T) []any) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("preparing insert statement: %w", err)
		}
		defer stmt.Close()

		for i, row := range batch {
			if _, err := stmt.ExecContext(ctx, values(row)...); err != nil {
				return fmt.Errorf("inserting row %d: %w", i, err)
			}
		}
		return nil
	})
}
