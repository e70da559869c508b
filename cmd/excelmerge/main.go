// Command excelmerge merges runs of equal neighbouring cells in an xlsx sheet.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/locvowork/excelmerge/internal/logger"
	"github.com/locvowork/excelmerge/pkg/sheetmerge"
	"github.com/locvowork/excelmerge/pkg/simpleexcel"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

type mergeFlags struct {
	sheet    string
	axis     string
	output   string
	startRow int
	endRow   int
	startCol int
	endCol   int
	asJSON   bool
	dryRun   bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &mergeFlags{}

	cmd := &cobra.Command{
		Use:   "excelmerge [input.xlsx]",
		Short: "Merge adjacent cells holding equal values",
		Long: `excelmerge scans one sheet along columns (vertical runs) or rows
(horizontal runs) and merges every run of two or more equal, present cells.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.sheet, "sheet", "", "Sheet to merge (default: first sheet)")
	cmd.Flags().StringVar(&flags.axis, "axis", sheetmerge.AxisColumns, "Merge axis: columns or rows")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file path (default: overwrite input)")
	cmd.Flags().IntVar(&flags.startRow, "start-row", -1, "First row to scan, 0-based (default: sheet start)")
	cmd.Flags().IntVar(&flags.endRow, "end-row", -1, "Last row to scan, inclusive (default: sheet end)")
	cmd.Flags().IntVar(&flags.startCol, "start-col", -1, "First column to scan, 0-based (default: sheet start)")
	cmd.Flags().IntVar(&flags.endCol, "end-col", -1, "Last column to scan, inclusive (default: sheet end)")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the regions as JSON")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the regions without writing a file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "warn", "Log level")
	return cmd
}

func (f *mergeFlags) options() []sheetmerge.Option {
	var opts []sheetmerge.Option
	if f.startRow >= 0 {
		opts = append(opts, sheetmerge.WithStartRow(f.startRow))
	}
	if f.endRow >= 0 {
		opts = append(opts, sheetmerge.WithEndRow(f.endRow))
	}
	if f.startCol >= 0 {
		opts = append(opts, sheetmerge.WithStartCol(f.startCol))
	}
	if f.endCol >= 0 {
		opts = append(opts, sheetmerge.WithEndCol(f.endCol))
	}
	return opts
}

func run(ctx context.Context, out io.Writer, inputPath string, flags *mergeFlags) error {
	logger.SetLogger(logger.NewConsoleLogger(os.Stderr, flags.logLevel))

	axis := strings.ToLower(flags.axis)
	if axis != sheetmerge.AxisColumns && axis != sheetmerge.AxisRows {
		return fmt.Errorf("%w: %q (must be columns or rows)", sheetmerge.ErrInvalidAxis, flags.axis)
	}

	f, err := excelize.OpenFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", inputPath, err)
	}
	defer f.Close()

	sheet := flags.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return fmt.Errorf("sheet %q not found in %s", sheet, inputPath)
	}

	var regions []sheetmerge.Region
	if flags.dryRun {
		xs, _, err := sheetmerge.OpenExcelSheet(f, sheet)
		if err != nil {
			return err
		}
		if axis == sheetmerge.AxisColumns {
			regions = sheetmerge.FindColumnRuns(xs, flags.options()...)
		} else {
			regions = sheetmerge.FindRowRuns(xs, flags.options()...)
		}
	} else {
		exporter := simpleexcel.NewExporterFromFile(f)
		regions, err = exporter.Merge(sheet, axis, flags.options()...)
		if err != nil {
			return err
		}
		outputPath := flags.output
		if outputPath == "" {
			outputPath = inputPath
		}
		if err := exporter.SaveAs(ctx, outputPath); err != nil {
			return err
		}
	}

	return printRegions(out, regions, flags.asJSON)
}

func printRegions(out io.Writer, regions []sheetmerge.Region, asJSON bool) error {
	if asJSON {
		if regions == nil {
			regions = []sheetmerge.Region{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(regions)
	}
	for _, r := range regions {
		fmt.Fprintln(out, r.String())
	}
	fmt.Fprintf(out, "%d regions\n", len(regions))
	return nil
}
