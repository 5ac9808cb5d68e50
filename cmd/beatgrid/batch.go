package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/james-see/beatgrid/pkg/batch"
	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/converter"
	"github.com/james-see/beatgrid/pkg/grid"
	"github.com/james-see/beatgrid/pkg/manifest"
)

var (
	outDir       string
	workers      int
	manifestPath string
	verbose      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir|file.osu>...",
	Short: "Encode many charts concurrently",
	Long: `Encodes every .osu file found under the given directories (and any
.osu files named directly). A chart that fails is reported and skipped;
it never stops the run and never leaves output behind.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <input.osu|input.osg>",
	Short: "Show what a chart or encoded unit contains",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	batchCmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for .osg files (default: next to each input)")
	batchCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent encoders (default: from config, else CPU count)")
	batchCmd.Flags().StringVar(&manifestPath, "manifest", "", "sqlite manifest recording every outcome")
	batchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every chart, not only failures")
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		f.Batch.Workers = workers
	}
	if cmd.Flags().Changed("out-dir") {
		f.Batch.OutputDir = outDir
	}
	if cmd.Flags().Changed("manifest") {
		f.Batch.Manifest = manifestPath
	}

	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		found, err := batch.Discover(arg)
		if err != nil {
			return err
		}
		inputs = append(inputs, found...)
	}
	if len(inputs) == 0 {
		fmt.Println("No .osu files found")
		return nil
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	opts := batch.Options{
		Workers:   f.Batch.Workers,
		OutputDir: f.Batch.OutputDir,
		Converter: converter.New(f.Codec),
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
	if f.Batch.Manifest != "" {
		if dir := filepath.Dir(f.Batch.Manifest); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		store, err := manifest.Open(f.Batch.Manifest)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Manifest = store
	}

	fmt.Printf("Encoding %s charts with %d workers...\n", humanize.Comma(int64(len(inputs))), max(opts.Workers, 1))
	s, err := batch.Run(cmd.Context(), inputs, opts)
	if s == nil {
		return err
	}

	fmt.Printf("Encoded %s of %s charts (%s written) in %s\n",
		humanize.Comma(int64(s.OK)), humanize.Comma(int64(len(inputs))),
		humanize.Bytes(uint64(s.Bytes)), s.Duration.Round(time.Millisecond))
	if s.Failed > 0 {
		fmt.Printf("%s failed:\n", humanize.Comma(int64(s.Failed)))
		for _, r := range s.Failures() {
			fmt.Printf("  %s [%s] %v\n", r.Source, beatmap.ErrorKind(r.Err), r.Err)
		}
	}
	return err
}

func runInspect(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}

	var e *converter.EncodedBeatmap
	switch converter.DetectFormat(input) {
	case converter.FormatOsu:
		e, err = conv.EncodeFile(input)
	case converter.FormatOsg:
		e, err = converter.ReadEncodedFile(input)
	default:
		return fmt.Errorf("inspect needs an .osu or .osg input")
	}
	if err != nil {
		return describe(input, err)
	}

	g, err := e.Dense()
	if err != nil {
		return err
	}
	pm, err := e.Points()
	if err != nil {
		return err
	}

	keys := conv.Config().DifficultyKeys
	fmt.Printf("Name:       %s\n", e.Name)
	fmt.Printf("Step:       %dms\n", e.Step)
	fmt.Println("Difficulty:")
	for i, k := range keys {
		fmt.Printf("  %-18s %g\n", k, e.Difficulty[i])
	}
	fmt.Printf("Timing:     %d points\n", len(e.TimingPoints))
	fmt.Printf("Grid:       %s rows x %d, %d occupied, %s stored values\n",
		humanize.Comma(int64(g.Len())), grid.Width, g.Present(), humanize.Comma(int64(e.Grid.NNZ())))
	fmt.Printf("Events:     %d (%d placed, %d dropped)\n", e.Stats.Events, e.Stats.Placed, e.Stats.Dropped)
	fmt.Printf("Sliders:    %d, point matrix %v\n", pm.Sliders, pm.Shape())
	if g.Len() > 0 {
		fmt.Printf("Duration:   %s\n", humanize.FormatFloat("#,###.##", float64(g.Len()*e.Step)/1000)+"s")
	}
	return nil
}
