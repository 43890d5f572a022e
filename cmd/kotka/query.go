package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jchantrell/kotka/internal/database"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the manifest database directly from command line",
	Long: `Query allows you to execute SQL queries against the manifest written by
"kotka index", list available tables, show table schemas or find the
archives holding a resource.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}
		findName, err := cmd.Flags().GetString("find")
		if err != nil {
			return fmt.Errorf("failed to get find flag: %w", err)
		}

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"list-tables", listTables,
			"schema", schemaTable,
			"find", findName)

		db, err := database.NewDatabase(database.ReadOnlyOptions(cfg.Database))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w (run \"kotka index\" first)", err)
			}
			return err
		}
		defer db.Close()

		// Handle --tables flag
		if listTables {
			tables, err := db.Tables(ctx)
			if err != nil {
				return fmt.Errorf("listing tables: %w", err)
			}
			fmt.Println("Available tables:")
			for _, table := range tables {
				fmt.Printf("  %s\n", table)
			}
			return nil
		}

		// Handle --schema flag
		if schemaTable != "" {
			columns, err := db.Schema(ctx, schemaTable)
			if err != nil {
				return err
			}

			fmt.Printf("Schema for table '%s':\n", schemaTable)
			fmt.Printf("%-20s %-15s %-10s %-10s\n", "Column", "Type", "NotNull", "Primary")
			fmt.Println(strings.Repeat("-", 58))
			for _, column := range columns {
				fmt.Printf("%-20s %-15s %-10s %-10s\n", column.Name, column.Type, yesNo(column.NotNull), yesNo(column.PrimaryKey))
			}
			return nil
		}

		// Handle --find flag
		if findName != "" {
			found, err := db.FindResources(ctx, findName)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return fmt.Errorf("no archive holds %s", findName)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ARCHIVE\tPOSITION\tNAME")
			for _, row := range found {
				fmt.Fprintf(w, "%s\t%d\t%s\n", row.Archive, row.Position, row.Name)
			}
			return w.Flush()
		}

		// Handle SQL query execution
		if len(args) > 0 {
			slog.Debug("Executing SQL query", "query", args[0])

			result, err := db.QueryText(ctx, args[0])
			if err != nil {
				return fmt.Errorf("executing query: %w", err)
			}
			printResult(result)
			return nil
		}

		return fmt.Errorf("no query provided, use --tables to list tables or --schema <table> to show schema")
	},
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func printResult(result *database.Result) {
	fmt.Println(strings.Join(result.Columns, "\t"))

	separators := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		separators[i] = strings.Repeat("-", len(col))
	}
	fmt.Println(strings.Join(separators, "\t"))

	for _, row := range result.Rows {
		fmt.Println(strings.Join(row, "\t"))
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
	queryCmd.Flags().String("find", "", "List the archives holding a resource name")
}
