package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SchemaProgressCallback is called during schema creation to report progress
type SchemaProgressCallback func(current int, total int, description string)

// DDLManager creates the manifest tables
type DDLManager struct {
	db *Database
}

// NewDDLManager creates a new DDL manager
func NewDDLManager(db *Database) *DDLManager {
	return &DDLManager{db: db}
}

// DDLRequest represents a single DDL statement and what it creates
type DDLRequest struct {
	TableName   string
	DDL         string
	Description string
}

// manifestTables lists the manifest schema in creation order; resources
// references archives, so archives comes first
var manifestTables = []DDLRequest{
	{
		TableName:   "_meta",
		Description: "manifest metadata",
		DDL: `CREATE TABLE IF NOT EXISTS "_meta" (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	},
	{
		TableName:   "archives",
		Description: "data archives",
		DDL: `CREATE TABLE IF NOT EXISTS "archives" (
    archive_index INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    resource_count INTEGER NOT NULL
)`,
	},
	{
		TableName:   "resources",
		Description: "indexed resources",
		DDL: `CREATE TABLE IF NOT EXISTS "resources" (
    archive_index INTEGER NOT NULL REFERENCES "archives"(archive_index),
    name TEXT NOT NULL,
    resref TEXT NOT NULL,
    extension TEXT NOT NULL,
    type_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    resource_id INTEGER NOT NULL,
    UNIQUE(archive_index, name)
)`,
	},
	{
		TableName:   "skipped_keys",
		Description: "keys with unknown types",
		DDL: `CREATE TABLE IF NOT EXISTS "skipped_keys" (
    resref TEXT NOT NULL,
    type_id INTEGER NOT NULL,
    resource_id INTEGER NOT NULL,
    reason TEXT NOT NULL
)`,
	},
	{
		TableName:   "pack_resources",
		Description: "resource pack contents",
		DDL: `CREATE TABLE IF NOT EXISTS "pack_resources" (
    pack TEXT NOT NULL,
    name TEXT NOT NULL,
    resref TEXT NOT NULL,
    extension TEXT NOT NULL,
    type_id INTEGER NOT NULL,
    resource_id INTEGER NOT NULL,
    data_offset INTEGER NOT NULL,
    data_size INTEGER NOT NULL,
    UNIQUE(pack, resource_id)
)`,
	},
	{
		TableName:   "resources",
		Description: "resource name index",
		DDL:         `CREATE INDEX IF NOT EXISTS "resources_name" ON "resources"(name)`,
	},
	{
		TableName:   "pack_resources",
		Description: "pack resource name index",
		DDL:         `CREATE INDEX IF NOT EXISTS "pack_resources_name" ON "pack_resources"(name)`,
	},
}

// ManifestTables returns the names of the user-visible manifest tables
func ManifestTables() []string {
	return []string{"archives", "pack_resources", "resources", "skipped_keys"}
}

// CreateSchema creates every manifest table in one transaction
func (dm *DDLManager) CreateSchema(ctx context.Context, progressCallback SchemaProgressCallback) error {
	if dm.db == nil {
		return fmt.Errorf("database cannot be nil")
	}

	if err := dm.executeDDLTransaction(ctx, manifestTables, "manifest tables", progressCallback); err != nil {
		return err
	}

	slog.Debug("Created manifest schema", "statements", len(manifestTables))
	return nil
}

// DropSchema removes the manifest tables so an index run starts clean
func (dm *DDLManager) DropSchema(ctx context.Context) error {
	var requests []DDLRequest
	for _, table := range []string{"resources", "archives", "skipped_keys", "pack_resources", "_meta"} {
		requests = append(requests, DDLRequest{
			TableName:   table,
			DDL:         fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteSQLIdentifier(table)),
			Description: "drop " + table,
		})
	}
	return dm.executeDDLTransaction(ctx, requests, "dropping manifest tables", nil)
}

// executeDDLTransaction executes DDL statements in a single transaction with progress reporting
func (dm *DDLManager) executeDDLTransaction(ctx context.Context, ddlRequests []DDLRequest, description string, progressCallback SchemaProgressCallback) error {
	if len(ddlRequests) == 0 {
		return nil
	}

	err := dm.db.withTx(ctx, func(tx *sql.Tx) error {
		for i, req := range ddlRequests {
			if _, err := tx.ExecContext(ctx, req.DDL); err != nil {
				return fmt.Errorf("executing DDL for %s: %w", req.TableName, err)
			}

			if progressCallback != nil {
				progressCallback(i+1, len(ddlRequests), req.Description)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	return nil
}

// quoteSQLIdentifier quotes SQL identifiers to prevent conflicts with reserved words
func quoteSQLIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, identifier)
}
