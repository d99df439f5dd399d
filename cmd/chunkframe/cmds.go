package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chunkframe/columnar"
	"chunkframe/engine"
	"chunkframe/frame"
	"chunkframe/frameio"
)

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "query sql",
		Short: "Run a SELECT statement over registered parquet tables",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery}
	cmd.Flags().StringArray("table", nil, "table to register, as name=path (parquet file, snapshot, or http(s) URL)")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "head file",
		Short: "Print the first rows of a parquet file or snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runHead}
	cmd.Flags().IntP("rows", "n", 10, "number of rows to print")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "schema file",
		Short: "Print the column names and types of a parquet file or snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchema}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "snapshot input output",
		Short: "Convert a parquet file into a compressed snapshot",
		Args:  cobra.ExactArgs(2),
		RunE:  runSnapshot}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "export input output.parquet",
		Short: "Convert a snapshot back into a parquet file",
		Args:  cobra.ExactArgs(2),
		RunE:  runExport}
	root.AddCommand(cmd)
}

func applyGlobalFlags(cmd *cobra.Command) {
	if threads, _ := cmd.Flags().GetInt("threads"); threads > 0 {
		columnar.SetMaxThreads(threads)
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}
}

// load reads a frame from a local parquet file, a snapshot, or an
// http(s) URL pointing at a parquet file.
func load(path string) (*frame.Frame, error) {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return frameio.ReadURL(path)
	case strings.HasSuffix(path, ".snap"):
		return frameio.ReadSnapshot(path)
	default:
		return frameio.ReadFile(path)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)

	tables, err := cmd.Flags().GetStringArray("table")
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("no tables registered, use --table name=path")
	}

	eng := engine.New()
	for _, spec := range tables {
		name, path, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("invalid table spec %q, expected name=path", spec)
		}
		f, err := load(path)
		if err != nil {
			return fmt.Errorf("failed to load table %q: %w", name, err)
		}
		eng.Register(name, f)
	}

	result, err := eng.Execute(args[0])
	if err != nil {
		return err
	}
	printFrame(result, result.Height())
	return nil
}

func runHead(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)
	rows, _ := cmd.Flags().GetInt("rows")

	f, err := load(args[0])
	if err != nil {
		return err
	}
	printFrame(f, rows)
	fmt.Printf("%d rows x %d columns\n", f.Height(), f.Width())
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)

	f, err := load(args[0])
	if err != nil {
		return err
	}
	bold := color.New(color.Bold)
	for _, c := range f.Columns() {
		bold.Print(c.Name())
		fmt.Printf("  %s", c.DataType())
		if n := c.NullCount(); n > 0 {
			fmt.Printf("  (%d nulls)", n)
		}
		fmt.Println()
	}
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)

	f, err := load(args[0])
	if err != nil {
		return err
	}
	if err := frameio.WriteSnapshot(args[1], f); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", f.Height(), args[1])
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)

	f, err := frameio.ReadSnapshot(args[0])
	if err != nil {
		return err
	}
	if err := frameio.WriteFile(args[1], f); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", f.Height(), args[1])
	return nil
}

func printFrame(f *frame.Frame, rows int) {
	if rows > f.Height() {
		rows = f.Height()
	}
	header := color.New(color.FgCyan, color.Bold)
	nullText := color.New(color.Faint).Sprint("null")

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	names := f.Names()
	for i, name := range names {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, header.Sprint(name))
	}
	fmt.Fprintln(w)

	cols := f.Columns()
	for i := 0; i < rows; i++ {
		for j, c := range cols {
			if j > 0 {
				fmt.Fprint(w, "\t")
			}
			if v, ok := c.Value(i); ok {
				fmt.Fprintf(w, "%v", v)
			} else {
				fmt.Fprint(w, nullText)
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
