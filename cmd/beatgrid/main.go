// Package main is the entry point for the beatgrid CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/james-see/beatgrid/pkg/api"
	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/config"
	"github.com/james-see/beatgrid/pkg/converter"
	"github.com/james-see/beatgrid/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath     string
	step           int
	difficultyFlag string
	outputFile     string
	serverPort     int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "beatgrid",
	Short: "Encode osu! charts into sparse training grids and back",
	Long: `beatgrid turns osu! beatmaps into fixed-step grids for rhythm models.

Each chart becomes an encoded unit (.osg): difficulty values, a sparse
time grid with one row per slot, and a padded slider point matrix.
Activation sequences (.act) and MIDI note starts can be turned back
into minimal playable charts.

Examples:
  beatgrid encode song.osu -o song.osg
  beatgrid decode song.osg -o rebuilt.osu
  beatgrid preview song.osu -o song.mid
  beatgrid reconstruct model-output.act --difficulty 5,4,8,9,1.4,1
  beatgrid batch ./Songs --out-dir ./dataset --workers 8
  beatgrid tui
  beatgrid serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var encodeCmd = &cobra.Command{
	Use:   "encode <input.osu>",
	Short: "Encode a chart into an .osg unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <input.osg>",
	Short: "Rebuild a minimal chart from an .osg unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var previewCmd = &cobra.Command{
	Use:   "preview <input.osu|input.osg>",
	Short: "Render a chart as a percussion MIDI rhythm preview",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var midi2osuCmd = &cobra.Command{
	Use:   "midi2osu <input.mid>",
	Short: "Quantize MIDI note starts into a chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDIToOsu,
}

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <activations.act>",
	Short: "Build a chart from an activation sequence",
	Long: `Reads one activation per slot (newline, comma or space separated) and
writes a chart with one circle per non-zero slot.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconstruct,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML or TOML settings file")
	rootCmd.PersistentFlags().IntVarP(&step, "step", "s", beatmap.DefaultStep, "Slot length in milliseconds")

	encodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .osg file path")
	decodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .osu file path")
	previewCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	midi2osuCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .osu file path")
	midi2osuCmd.Flags().StringVar(&difficultyFlag, "difficulty", "", "HP,CS,OD,AR,SliderMultiplier,SliderTickRate")

	reconstructCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .osu file path")
	reconstructCmd.Flags().StringVar(&difficultyFlag, "difficulty", "", "HP,CS,OD,AR,SliderMultiplier,SliderTickRate")

	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(midi2osuCmd)
	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadSettings reads --config and applies an explicit --step on top
func loadSettings(cmd *cobra.Command) (config.File, error) {
	f, err := config.Load(configPath)
	if err != nil {
		return f, err
	}
	if cmd.Flags().Changed("step") {
		f.Codec.Step = step
	}
	return f, f.Validate()
}

func getConverter(cmd *cobra.Command) (*converter.Converter, error) {
	f, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	conv := converter.New(f.Codec)
	if difficultyFlag != "" {
		d, err := parseDifficulty(difficultyFlag)
		if err != nil {
			return nil, err
		}
		conv.SetDifficulty(d)
	}
	return conv, nil
}

// parseDifficulty reads six comma separated numbers in canonical key order
func parseDifficulty(s string) (beatmap.Difficulty, error) {
	var d beatmap.Difficulty
	parts := strings.Split(s, ",")
	if len(parts) != len(d) {
		return d, fmt.Errorf("%w: --difficulty wants %d values, got %d", beatmap.ErrInvalidDifficulty, len(d), len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return d, fmt.Errorf("%w: --difficulty value %q", beatmap.ErrInvalidDifficulty, p)
		}
		d[i] = v
	}
	return d, nil
}

func getOutputPath(input string, to converter.Format) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + to.Ext()
}

// convertTo runs one conversion with an explicit source format
func convertTo(cmd *cobra.Command, input string, from, to converter.Format) error {
	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}
	output := getOutputPath(input, to)

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	result, err := conv.Convert(converter.UnitName(input), data, from, to)
	if err != nil {
		return describe(input, err)
	}
	if err := converter.WriteFile(output, result); err != nil {
		return err
	}

	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

// describe prefixes chart errors with their kind
func describe(input string, err error) error {
	if kind := beatmap.ErrorKind(err); kind != "IO" {
		return fmt.Errorf("%s: %s: %w", input, kind, err)
	}
	return fmt.Errorf("%s: %w", input, err)
}

func runEncode(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, converter.FormatOsg)

	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}
	e, err := conv.EncodeFile(input)
	if err != nil {
		return describe(input, err)
	}
	if err := converter.WriteEncodedFile(e, output); err != nil {
		return err
	}

	fmt.Printf("Encoded %s -> %s\n", input, output)
	fmt.Printf("  %d rows of %dms, %d events (%d placed, %d dropped), %d sliders\n",
		e.Grid.Shape[0], e.Step, e.Stats.Events, e.Stats.Placed, e.Stats.Dropped, e.Stats.Sliders)
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	return convertTo(cmd, args[0], converter.FormatOsg, converter.FormatOsu)
}

func runPreview(cmd *cobra.Command, args []string) error {
	input := args[0]
	from := converter.DetectFormat(input)
	if from != converter.FormatOsu && from != converter.FormatOsg {
		return errors.New("preview needs an .osu or .osg input")
	}
	return convertTo(cmd, input, from, converter.FormatMIDI)
}

func runMIDIToOsu(cmd *cobra.Command, args []string) error {
	return convertTo(cmd, args[0], converter.FormatMIDI, converter.FormatOsu)
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	return convertTo(cmd, args[0], converter.FormatActivation, converter.FormatOsu)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if err := conv.ConvertFile(input, outputFile); err != nil {
		return describe(input, err)
	}
	fmt.Println("Conversion complete!")
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("tui needs an interactive terminal")
	}
	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}
	return tui.Run(conv)
}

func runServe(cmd *cobra.Command, args []string) error {
	f, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort, f.Codec)
}
