package beatmap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// FormatVersion is the chart format version written by Reconstruct
const FormatVersion = 14

// ReconstructOptions controls the fixed content of a reconstructed chart
type ReconstructOptions struct {
	AudioFilename string
	// TimingPoints replaces the single default timing point when non-empty
	TimingPoints []TimingPoint
}

// Reconstruct writes a minimal chart with one circle per non-zero activation.
// Slot i is placed at time i*cfg.Step at the configured placeholder position.
func Reconstruct(w io.Writer, activations []float64, d Difficulty, opts ReconstructOptions, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	audio := opts.AudioFilename
	if audio == "" {
		audio = "audio.mp3"
	}
	fmt.Fprintf(bw, "osu file format v%d\n\n", FormatVersion)
	fmt.Fprintf(bw, "[General]\nAudioFilename: %s\nAudioLeadIn: 0\nPreviewTime: -1\nMode: 0\n\n", audio)

	fmt.Fprintf(bw, "%s\n", cfg.DifficultyMarker)
	for i, key := range cfg.DifficultyKeys {
		fmt.Fprintf(bw, "%s:%s\n", key, formatFloat(d[i]))
	}
	bw.WriteString("\n")

	fmt.Fprintf(bw, "%s\n", cfg.TimingPointsMarker)
	tps := opts.TimingPoints
	if len(tps) == 0 {
		tps = []TimingPoint{DefaultTimingPoint}
	}
	for _, tp := range tps {
		bw.WriteString(FormatTimingPoint(tp))
		bw.WriteString("\n")
	}
	bw.WriteString("\n")

	fmt.Fprintf(bw, "%s\n", cfg.HitObjectsMarker)
	for i, a := range activations {
		if a == 0 {
			continue
		}
		fmt.Fprintf(bw, "%d,%d,%d,%d,0,0:0:0:0:\n", cfg.Placeholder.X, cfg.Placeholder.Y, i*cfg.Step, TypeCircle)
	}
	return bw.Flush()
}

// FormatTimingPoint renders tp as a [TimingPoints] line
func FormatTimingPoint(tp TimingPoint) string {
	uninherited := 0
	if tp.Uninherited {
		uninherited = 1
	}
	return fmt.Sprintf("%d,%s,%d,%d,%d,%d,%d,%d",
		tp.Time, formatFloat(tp.BeatLength), tp.Meter, tp.SampleSet,
		tp.SampleIndex, tp.Volume, uninherited, tp.Effects)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
