package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tosih/ms42-map-tool/pkg/compare"
	"github.com/tosih/ms42-map-tool/pkg/export"
	"github.com/tosih/ms42-map-tool/pkg/models"
	"github.com/tosih/ms42-map-tool/pkg/reader"
	"github.com/tosih/ms42-map-tool/pkg/renderer"
	"github.com/tosih/ms42-map-tool/pkg/scanner"
	"github.com/tosih/ms42-map-tool/pkg/templates"
)

// set by ldflags
var buildVersion = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ms42scan",
		Short:         "MS42 firmware map scanner",
		Long:          "ms42scan locates two-dimensional calibration tables in MS42 engine management ROMs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(exportXDFCmd())
	rootCmd.AddCommand(exportCSVCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps boundary failures to the documented exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, reader.ErrRead):
		return 2
	case errors.Is(err, reader.ErrDecode):
		return 3
	case errors.Is(err, export.ErrWrite):
		return 4
	}
	return 1
}

func scanCmd() *cobra.Command {
	var (
		templatesPath string
		hintsPath     string
		outPath       string
		minRows       int
		maxCols       int
		workers       int
		searchRange   int
		stride        int
		baseAddress   uint32
	)

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Scan a firmware image for calibration tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := reader.LoadImage(args[0], baseAddress)
			if err != nil {
				return err
			}
			pterm.Success.Printf("File loaded: %d bytes (0x%X)\n", img.Size(), img.Size())

			var hints *models.DisassemblerHints
			if hintsPath != "" {
				if hints, err = reader.LoadHints(hintsPath); err != nil {
					return err
				}
			}
			var catalog []models.Template
			if templatesPath != "" {
				if catalog, err = reader.LoadTemplates(templatesPath); err != nil {
					return err
				}
			}

			limit := img.Size() - scanner.ElementSize*minRows
			var pb *pterm.ProgressbarPrinter
			var progress func(scanned, limit int)
			if limit > 0 {
				pb, _ = pterm.DefaultProgressbar.WithTotal(limit).WithTitle("Scanning").Start()
				var mu sync.Mutex
				last := 0
				progress = func(scanned, _ int) {
					mu.Lock()
					pb.Add(scanned - last)
					last = scanned
					mu.Unlock()
				}
			}

			maps, err := scanner.New(img, scanner.Options{
				MinRows:  minRows,
				MaxCols:  maxCols,
				Workers:  workers,
				Hints:    hints,
				Progress: progress,
			}).Scan(cmd.Context())
			if pb != nil {
				pb.Stop()
			}
			if err != nil {
				return err
			}

			if len(catalog) > 0 {
				rescanner := templates.NewRescanner(img, searchRange, stride)
				relocated := rescanner.RescanAll(catalog, nil)
				maps = templates.Enrich(img, maps, relocated)
				pterm.Info.Printf("Templates relocated: %d\n", len(relocated))
			}

			models.SortDetected(maps)
			renderer.SummaryTable(maps)

			if err := export.WriteMapsJSON(outPath, maps); err != nil {
				return err
			}
			pterm.Success.Printf("Results written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&templatesPath, "templates", "", "JSON catalog of known-map templates")
	cmd.Flags().StringVar(&hintsPath, "hints", "", "disassembler symbol/xref export (JSON)")
	cmd.Flags().StringVar(&outPath, "out", "maps.json", "output file for detected maps")
	cmd.Flags().IntVar(&minRows, "min-rows", 3, "minimum row count of emitted tables")
	cmd.Flags().IntVar(&maxCols, "max-cols", 128, "largest column count tried per offset")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = CPU count)")
	cmd.Flags().IntVar(&searchRange, "search-range", templates.DefaultSearchRange, "template rescan window, bytes each side")
	cmd.Flags().IntVar(&stride, "stride", templates.DefaultStride, "template rescan step in bytes")
	cmd.Flags().Uint32Var(&baseAddress, "base", 0, "informational load address of the image")

	return cmd
}

func exportXDFCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export-xdf <maps.json>",
		Short: "Export detected maps as an XDF document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			maps, err := reader.LoadMaps(args[0])
			if err != nil {
				return err
			}
			models.SortDetected(maps)
			if err := export.WriteXDF(outPath, maps, "ms42scan "+buildVersion, time.Now().UTC()); err != nil {
				return err
			}
			pterm.Success.Printf("Wrote %d map(s) to %s\n", len(maps), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "out.xdf", "output XDF file")
	return cmd
}

func exportCSVCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export-csv <maps.json>",
		Short: "Export each detected map to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			maps, err := reader.LoadMaps(args[0])
			if err != nil {
				return err
			}
			if err := export.ExportCSV(outDir, maps); err != nil {
				return err
			}
			pterm.Success.Printf("Maps exported to %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "csv", "output directory")
	return cmd
}

func showCmd() *cobra.Command {
	var (
		index       int
		displayMode string
	)

	cmd := &cobra.Command{
		Use:   "show <maps.json>",
		Short: "Render detected maps in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			maps, err := reader.LoadMaps(args[0])
			if err != nil {
				return err
			}
			if len(maps) == 0 {
				pterm.Info.Println("No maps to show")
				return nil
			}
			models.SortDetected(maps)

			if index >= 0 {
				if index >= len(maps) {
					return fmt.Errorf("index %d out of range, have %d map(s)", index, len(maps))
				}
				renderer.RenderMap(maps[index], displayMode)
				return nil
			}
			for i, m := range maps {
				if i > 0 {
					pterm.Println()
				}
				pterm.Info.Println("Map " + strconv.Itoa(i))
				renderer.RenderMap(m, displayMode)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&index, "index", -1, "render only the map at this index")
	cmd.Flags().StringVar(&displayMode, "display", "values", "display mode: values, symbols or heatmap")
	return cmd
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <maps.json> <maps.json>",
		Short: "Compare two scan results by detection key",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			first, err := reader.LoadMaps(args[0])
			if err != nil {
				return err
			}
			second, err := reader.LoadMaps(args[1])
			if err != nil {
				return err
			}
			compare.Render(compare.Scans(first, second))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("ms42scan " + buildVersion)
		},
	}
}
