package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/grid"
)

// Format represents a file format
type Format string

const (
	FormatOsu        Format = "osu"
	FormatOsg        Format = "osg"
	FormatMIDI       Format = "midi"
	FormatActivation Format = "act"
	FormatUnknown    Format = "unknown"
)

// Ext returns the default file extension for f
func (f Format) Ext() string {
	switch f {
	case FormatOsu:
		return ".osu"
	case FormatOsg:
		return ".osg"
	case FormatMIDI:
		return ".mid"
	case FormatActivation:
		return ".act"
	}
	return ""
}

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".osu":
		return FormatOsu
	case ".osg":
		return FormatOsg
	case ".mid", ".midi":
		return FormatMIDI
	case ".act", ".txt":
		return FormatActivation
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) < 1 {
		return FormatUnknown
	}

	// MIDI file signature "MThd"
	if bytes.HasPrefix(trimmed, []byte("MThd")) {
		return FormatMIDI
	}

	if trimmed[0] == '{' && bytes.Contains(trimmed, []byte(ContainerFormat)) {
		return FormatOsg
	}

	if bytes.HasPrefix(trimmed, []byte("osu file format")) || bytes.Contains(trimmed, []byte("[HitObjects]")) {
		return FormatOsu
	}

	if ValidateActivation(trimmed) == nil {
		return FormatActivation
	}
	return FormatUnknown
}

// Encode runs the whole pipeline over one chart: sections, events, grid,
// slider points and their sparse forms. Any stage failing abandons the chart.
func (c *Converter) Encode(name string, data []byte) (*EncodedBeatmap, error) {
	sections, err := beatmap.ParseSections(bytes.NewReader(data), c.cfg)
	if err != nil {
		return nil, err
	}
	events, err := beatmap.DecodeEvents(sections.EventLines, c.cfg)
	if err != nil {
		return nil, err
	}
	res, err := grid.Build(events, c.cfg.Step)
	if err != nil {
		return nil, err
	}
	points := grid.Pack(beatmap.SliderPoints(events))

	return &EncodedBeatmap{
		Format:       ContainerFormat,
		Name:         name,
		Step:         c.cfg.Step,
		Difficulty:   sections.Difficulty,
		TimingPoints: sections.TimingPoints,
		Grid:         grid.EncodeGrid(res.Grid),
		SliderPoints: grid.EncodePoints(points),
		Stats: Stats{
			Events:  len(events),
			Placed:  res.Placed,
			Dropped: res.Dropped,
			Sliders: points.Sliders,
		},
	}, nil
}

// EncodeFile encodes the chart at path, naming the unit after the file
func (c *Converter) EncodeFile(path string) (*EncodedBeatmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return c.Encode(UnitName(path), data)
}

// UnitName derives an encoded unit name from a chart path
func UnitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	inputFormat := DetectFormat(inputPath)
	outputFormat := DetectFormat(outputPath)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if inputFormat == FormatUnknown {
		inputFormat = DetectFormatFromContent(data)
	}
	if inputFormat == FormatUnknown {
		return errors.New("cannot determine input format")
	}
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	outputData, err := c.Convert(UnitName(inputPath), data, inputFormat, outputFormat)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := WriteFile(outputPath, outputData); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// Convert converts in-memory data between two formats
func (c *Converter) Convert(name string, data []byte, from, to Format) ([]byte, error) {
	switch {
	case from == FormatOsu && to == FormatOsg:
		return c.OsuToOsg(name, data)
	case from == FormatOsu && to == FormatMIDI:
		return c.OsuToMIDI(data)
	case from == FormatOsu && to == FormatActivation:
		return c.OsuToActivation(data)
	case from == FormatOsg && to == FormatOsu:
		return c.OsgToOsu(data)
	case from == FormatOsg && to == FormatMIDI:
		return c.OsgToMIDI(data)
	case from == FormatOsg && to == FormatActivation:
		return c.OsgToActivation(data)
	case from == FormatMIDI && to == FormatOsu:
		return c.MIDIToOsu(data)
	case from == FormatMIDI && to == FormatActivation:
		return c.MIDIToActivation(data)
	case from == FormatActivation && to == FormatOsu:
		return c.ActivationToOsu(data)
	case from == FormatActivation && to == FormatMIDI:
		return c.ActivationToMIDI(data)
	}
	return nil, fmt.Errorf("unsupported conversion: %s to %s", from, to)
}

// OsuToOsg encodes a chart and serializes the unit
func (c *Converter) OsuToOsg(name string, osuData []byte) ([]byte, error) {
	e, err := c.Encode(name, osuData)
	if err != nil {
		return nil, err
	}
	return Marshal(e)
}

// OsuToMIDI renders a chart's grid as a click track
func (c *Converter) OsuToMIDI(osuData []byte) ([]byte, error) {
	e, err := c.Encode("", osuData)
	if err != nil {
		return nil, err
	}
	return c.encodedToMIDI(e)
}

// OsuToActivation extracts a chart's activation sequence
func (c *Converter) OsuToActivation(osuData []byte) ([]byte, error) {
	e, err := c.Encode("", osuData)
	if err != nil {
		return nil, err
	}
	g, err := e.Dense()
	if err != nil {
		return nil, err
	}
	return GenerateActivation(g.Activations()), nil
}

// OsgToOsu rebuilds a minimal chart from an encoded unit. Only timing
// survives: every occupied slot becomes a circle.
func (c *Converter) OsgToOsu(osgData []byte) ([]byte, error) {
	e, err := Unmarshal(osgData)
	if err != nil {
		return nil, err
	}
	g, err := e.Dense()
	if err != nil {
		return nil, err
	}
	cfg := c.cfg
	cfg.Step = e.Step
	var buf bytes.Buffer
	opts := beatmap.ReconstructOptions{TimingPoints: e.TimingPoints}
	if err := beatmap.Reconstruct(&buf, g.Activations(), e.Difficulty, opts, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OsgToMIDI renders an encoded unit as a click track
func (c *Converter) OsgToMIDI(osgData []byte) ([]byte, error) {
	e, err := Unmarshal(osgData)
	if err != nil {
		return nil, err
	}
	return c.encodedToMIDI(e)
}

// OsgToActivation extracts the activation sequence of an encoded unit
func (c *Converter) OsgToActivation(osgData []byte) ([]byte, error) {
	e, err := Unmarshal(osgData)
	if err != nil {
		return nil, err
	}
	g, err := e.Dense()
	if err != nil {
		return nil, err
	}
	return GenerateActivation(g.Activations()), nil
}

// MIDIToOsu rebuilds a chart from the note starts of a MIDI file
func (c *Converter) MIDIToOsu(midiData []byte) ([]byte, error) {
	acts, err := NewMIDIConverter().ParseMIDI(midiData, c.cfg.Step)
	if err != nil {
		return nil, err
	}
	return c.reconstruct(acts)
}

// MIDIToActivation quantizes the note starts of a MIDI file
func (c *Converter) MIDIToActivation(midiData []byte) ([]byte, error) {
	acts, err := NewMIDIConverter().ParseMIDI(midiData, c.cfg.Step)
	if err != nil {
		return nil, err
	}
	return GenerateActivation(acts), nil
}

// ActivationToOsu rebuilds a chart from an activation sequence
func (c *Converter) ActivationToOsu(actData []byte) ([]byte, error) {
	acts, err := ParseActivation(actData)
	if err != nil {
		return nil, err
	}
	return c.reconstruct(acts)
}

// ActivationToMIDI renders an activation sequence as a click track
func (c *Converter) ActivationToMIDI(actData []byte) ([]byte, error) {
	acts, err := ParseActivation(actData)
	if err != nil {
		return nil, err
	}
	return NewMIDIConverter().GenerateActivationMIDI(acts, c.cfg.Step)
}

// Reconstruct writes a chart for activations using the converter's
// difficulty and step
func (c *Converter) Reconstruct(activations []float64) ([]byte, error) {
	return c.reconstruct(activations)
}

func (c *Converter) reconstruct(activations []float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := beatmap.Reconstruct(&buf, activations, c.difficulty, beatmap.ReconstructOptions{}, c.cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Converter) encodedToMIDI(e *EncodedBeatmap) ([]byte, error) {
	g, err := e.Dense()
	if err != nil {
		return nil, err
	}
	return NewMIDIConverter().GenerateMIDI(g)
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"osu -> osg",
		"osu -> midi",
		"osu -> act",
		"osg -> osu",
		"osg -> midi",
		"osg -> act",
		"midi -> osu",
		"midi -> act",
		"act -> osu",
		"act -> midi",
	}
}
