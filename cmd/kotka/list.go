package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jchantrell/kotka/internal/keybif"
	"github.com/jchantrell/kotka/internal/restype"
)

var (
	listArchiveTable string
	listSkipped      bool
)

var listCmd = &cobra.Command{
	Use:   "list [archive]",
	Short: "List the resources held by the install's archives",
	Long: `List prints every resource of the chitin.key index, or only those of the
named archive. The --archive and --type flags narrow the index while it is
built. With --archive-table the resource table of a single BIF file is read
directly, without the index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if listArchiveTable != "" {
			return printArchiveTable(listArchiveTable)
		}

		index, err := keybif.BuildIndex(cfg.InstallPath, indexOptions(cfg))
		if err != nil {
			return err
		}

		if listSkipped {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RESREF\tTYPE\tID\tREASON")
			for _, d := range index.Diagnostics() {
				fmt.Fprintf(w, "%s\t0x%04x\t%s\t%v\n", d.ResRef, d.TypeID, d.ID, d.Err)
			}
			return w.Flush()
		}

		archives := index.Archives()
		if len(args) > 0 {
			archives = []string{args[0]}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARCHIVE\tPOSITION\tID\tNAME")
		for _, archive := range archives {
			for _, loc := range index.Resources(archive) {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", loc.Archive, loc.Position(), loc.ID, loc.Name)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "%d resources in %d archives\n", index.Len(), len(index.Archives()))
		return nil
	},
}

func printArchiveTable(path string) error {
	header, entries, err := keybif.ReadArchiveTable(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	fmt.Printf("%s %s, %d resources, table at %d\n", header.Magic[:], header.Version[:], header.VariableCount, header.TableOffset)

	catalog := restype.Default()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POSITION\tID\tTYPE\tOFFSET\tSIZE")
	for i, e := range entries {
		ext := fmt.Sprintf("0x%04x", e.TypeID)
		if e.TypeID <= 0xFFFF {
			if known, ok := catalog.Extension(uint16(e.TypeID)); ok {
				ext = known
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n", i, keybif.ResourceID(e.ID), ext, e.Offset, e.Size)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listArchiveTable, "archive-table", "", "print the resource table of this BIF file")
	listCmd.Flags().BoolVar(&listSkipped, "skipped", false, "print the index entries skipped while loading")
}
