package database

import (
	"context"
	"fmt"
	"strings"
)

// Result holds the rows of an ad-hoc query rendered as text
type Result struct {
	Columns []string
	Rows    [][]string
}

// QueryText runs query and renders every value with fmt, NULL for nil
func (d *Database) QueryText(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := d.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("getting column names: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make([]string, len(values))
		for i, val := range values {
			switch v := val.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// FindResources returns every indexed resource named name, ignoring case
func (d *Database) FindResources(ctx context.Context, name string) ([]ResourceRow, error) {
	rows, err := d.Query(ctx, `SELECT r.archive_index, a.name, r.name, r.resref, r.extension, r.type_id, r.position, r.resource_id
		FROM "resources" r JOIN "archives" a ON a.archive_index = r.archive_index
		WHERE lower(r.name) = ? ORDER BY a.name`, strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []ResourceRow
	for rows.Next() {
		var r ResourceRow
		var archive string
		if err := rows.Scan(&r.ArchiveIndex, &archive, &r.Name, &r.ResRef, &r.Extension, &r.TypeID, &r.Position, &r.ResourceID); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		r.Archive = archive
		found = append(found, r)
	}
	return found, rows.Err()
}

// TableInfo describes one column of a table
type TableInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// Schema returns the columns of table
func (d *Database) Schema(ctx context.Context, table string) ([]TableInfo, error) {
	rows, err := d.Query(ctx, `PRAGMA table_info(`+quoteSQLIdentifier(table)+`)`)
	if err != nil {
		return nil, fmt.Errorf("getting schema for table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []TableInfo
	for rows.Next() {
		var cid, notNull, primaryKey int
		var name, dataType string
		var defaultValue any

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &primaryKey); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		columns = append(columns, TableInfo{
			Name:       name,
			Type:       dataType,
			NotNull:    notNull == 1,
			PrimaryKey: primaryKey != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}
