package converter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/james-see/beatgrid/pkg/beatmap"
)

const testChart = `osu file format v14

[General]
AudioFilename: song.mp3

[Difficulty]
HPDrainRate:6
CircleSize:4
OverallDifficulty:7
ApproachRate:9
SliderMultiplier:1.4
SliderTickRate:1

[TimingPoints]
0,500,4,2,0,80,1,0

[HitObjects]
100,100,0,5,0,0:0:0:0:
200,150,30,2,0,B|250:160|300:200,1,120.5
256,192,60,12,0,90,0:0:0:0:
`

func newTestConverter() *Converter {
	return New(beatmap.DefaultConfig())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"test.osu", FormatOsu},
		{"TEST.OSU", FormatOsu},
		{"test.osg", FormatOsg},
		{"test.mid", FormatMIDI},
		{"test.midi", FormatMIDI},
		{"test.act", FormatActivation},
		{"test.txt", FormatActivation},
		{"test.seq", FormatUnknown},
		{"test", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result := DetectFormat(tt.filename)
			if result != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, result, tt.expected)
			}
		})
	}
}

func TestDetectFormatFromContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"MIDI file", []byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{"Encoded unit", []byte(`{"format":"beatgrid/v1","step":10}`), FormatOsg},
		{"Chart header", []byte("osu file format v14\n"), FormatOsu},
		{"Headerless chart", []byte("[HitObjects]\n1,2,3,1,0\n"), FormatOsu},
		{"Activations", []byte("0\n1\n0.5\n"), FormatActivation},
		{"Other JSON", []byte(`{"a":1}`), FormatUnknown},
		{"Text", []byte("hello"), FormatUnknown},
		{"Empty", []byte("  \n"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormatFromContent(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormatFromContent() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestConverterNew(t *testing.T) {
	conv := newTestConverter()

	if conv == nil {
		t.Fatal("New() returned nil")
	}
	if conv.Config().Step != beatmap.DefaultStep {
		t.Errorf("Config().Step = %d, want %d", conv.Config().Step, beatmap.DefaultStep)
	}
	if conv.Difficulty() != DefaultDifficulty {
		t.Errorf("Difficulty() = %v, want %v", conv.Difficulty(), DefaultDifficulty)
	}

	d := beatmap.Difficulty{1, 2, 3, 4, 1.5, 2}
	conv.SetDifficulty(d)
	if conv.Difficulty() != d {
		t.Errorf("Difficulty() after SetDifficulty = %v, want %v", conv.Difficulty(), d)
	}
}

func TestEncode(t *testing.T) {
	e, err := newTestConverter().Encode("chart", []byte(testChart))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if e.Format != ContainerFormat {
		t.Errorf("Format = %q, want %q", e.Format, ContainerFormat)
	}
	if e.Name != "chart" || e.Step != 10 {
		t.Errorf("Name, Step = %q, %d", e.Name, e.Step)
	}
	want := beatmap.Difficulty{6, 4, 7, 9, 1.4, 1}
	if e.Difficulty != want {
		t.Errorf("Difficulty = %v, want %v", e.Difficulty, want)
	}
	if len(e.TimingPoints) != 1 || e.TimingPoints[0].BeatLength != 500 {
		t.Errorf("TimingPoints = %+v", e.TimingPoints)
	}
	if e.Stats != (Stats{Events: 3, Placed: 3, Sliders: 1}) {
		t.Errorf("Stats = %+v", e.Stats)
	}

	g, err := e.Dense()
	if err != nil {
		t.Fatalf("Dense() error = %v", err)
	}
	wantActs := []float64{1, 0, 0, 1, 0, 0, 1}
	acts := g.Activations()
	if len(acts) != len(wantActs) {
		t.Fatalf("activations = %v, want %v", acts, wantActs)
	}
	for i := range acts {
		if acts[i] != wantActs[i] {
			t.Errorf("activations[%d] = %v, want %v", i, acts[i], wantActs[i])
		}
	}

	pm, err := e.Points()
	if err != nil {
		t.Fatalf("Points() error = %v", err)
	}
	shape := pm.Shape()
	if len(shape) != 3 || shape[0] != 1 || shape[1] != 2 || shape[2] != 2 {
		t.Errorf("Points().Shape() = %v, want [1 2 2]", shape)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		chart string
		want  error
	}{
		{
			name:  "no hit objects",
			chart: strings.Split(testChart, "[HitObjects]")[0],
			want:  beatmap.ErrMissingHitObjectSection,
		},
		{
			name:  "bad curve",
			chart: strings.Replace(testChart, "B|250", "Q|250", 1),
			want:  beatmap.ErrUnknownCurveType,
		},
		{
			name:  "missing difficulty key",
			chart: strings.Replace(testChart, "ApproachRate:9\n", "", 1),
			want:  beatmap.ErrInvalidDifficulty,
		},
		{
			name:  "nan difficulty",
			chart: strings.Replace(testChart, "ApproachRate:9", "ApproachRate:NaN", 1),
			want:  beatmap.ErrInvalidDifficulty,
		},
		{
			name:  "grid too large",
			chart: testChart + "256,192,4611686018427387900,1,0,0:0:0:0:\n",
			want:  beatmap.ErrGridTooLarge,
		},
		{
			name:  "empty hit objects",
			chart: strings.Split(testChart, "[HitObjects]")[0] + "[HitObjects]\n",
			want:  beatmap.ErrEmptyEventStream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestConverter().Encode("x", []byte(tt.chart))
			if !errors.Is(err, tt.want) {
				t.Errorf("Encode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	conv := newTestConverter()
	a, err := conv.OsuToOsg("chart", []byte(testChart))
	if err != nil {
		t.Fatalf("OsuToOsg() error = %v", err)
	}
	b, err := conv.OsuToOsg("chart", []byte(testChart))
	if err != nil {
		t.Fatalf("OsuToOsg() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("OsuToOsg() output differs between runs")
	}
}

func TestOsgRoundTrip(t *testing.T) {
	conv := newTestConverter()
	osg, err := conv.OsuToOsg("chart", []byte(testChart))
	if err != nil {
		t.Fatalf("OsuToOsg() error = %v", err)
	}
	osu, err := conv.OsgToOsu(osg)
	if err != nil {
		t.Fatalf("OsgToOsu() error = %v", err)
	}

	orig, err := conv.Encode("a", []byte(testChart))
	if err != nil {
		t.Fatal(err)
	}
	rebuilt, err := conv.Encode("b", osu)
	if err != nil {
		t.Fatalf("Encode(rebuilt) error = %v", err)
	}

	if rebuilt.Difficulty != orig.Difficulty {
		t.Errorf("Difficulty = %v, want %v", rebuilt.Difficulty, orig.Difficulty)
	}
	if len(rebuilt.TimingPoints) != 1 || rebuilt.TimingPoints[0] != orig.TimingPoints[0] {
		t.Errorf("TimingPoints = %+v, want %+v", rebuilt.TimingPoints, orig.TimingPoints)
	}
	g1, _ := orig.Dense()
	g2, _ := rebuilt.Dense()
	a1, a2 := g1.Activations(), g2.Activations()
	if len(a1) != len(a2) {
		t.Fatalf("activations len = %d, want %d", len(a2), len(a1))
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Errorf("activations[%d] = %v, want %v", i, a2[i], a1[i])
		}
	}
	if rebuilt.Stats.Sliders != 0 {
		t.Errorf("rebuilt chart has %d sliders, want 0", rebuilt.Stats.Sliders)
	}
}

func TestMIDIRoundTrip(t *testing.T) {
	conv := newTestConverter()
	mid, err := conv.OsuToMIDI([]byte(testChart))
	if err != nil {
		t.Fatalf("OsuToMIDI() error = %v", err)
	}
	if !bytes.HasPrefix(mid, []byte("MThd")) {
		t.Fatal("OsuToMIDI() output is not a MIDI file")
	}

	act, err := conv.MIDIToActivation(mid)
	if err != nil {
		t.Fatalf("MIDIToActivation() error = %v", err)
	}
	if got, want := string(act), "1\n0\n0\n1\n0\n0\n1\n"; got != want {
		t.Errorf("MIDIToActivation() = %q, want %q", got, want)
	}

	osu, err := conv.MIDIToOsu(mid)
	if err != nil {
		t.Fatalf("MIDIToOsu() error = %v", err)
	}
	if !strings.Contains(string(osu), "256,192,60,1,0,0:0:0:0:") {
		t.Errorf("MIDIToOsu() output missing last circle:\n%s", osu)
	}
	if !strings.Contains(string(osu), "ApproachRate:5\n") {
		t.Errorf("MIDIToOsu() should use the default difficulty:\n%s", osu)
	}
}

func TestActivationToOsu(t *testing.T) {
	conv := newTestConverter()
	conv.SetDifficulty(beatmap.Difficulty{6, 4, 4, 9, 1.4, 1})

	osu, err := conv.ActivationToOsu([]byte("1\n0\n0\n0.7\n"))
	if err != nil {
		t.Fatalf("ActivationToOsu() error = %v", err)
	}
	out := string(osu)
	for _, want := range []string{
		"ApproachRate:9\n",
		"0,600,4,1,0,100,1,0\n",
		"256,192,0,1,0,0:0:0:0:\n256,192,30,1,0,0:0:0:0:\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ActivationToOsu() output missing %q", want)
		}
	}

	if _, err := conv.ActivationToOsu([]byte("\n# nothing\n")); !errors.Is(err, beatmap.ErrEmptyActivation) {
		t.Errorf("ActivationToOsu(empty) error = %v, want ErrEmptyActivation", err)
	}
}

func TestConvertUnsupported(t *testing.T) {
	_, err := newTestConverter().Convert("x", []byte(testChart), FormatOsu, FormatOsu)
	if err == nil {
		t.Error("Convert(osu -> osu) should fail")
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "song.osu")
	if err := os.WriteFile(in, []byte(testChart), 0644); err != nil {
		t.Fatal(err)
	}

	conv := newTestConverter()
	out := filepath.Join(dir, "song.osg")
	if err := conv.ConvertFile(in, out); err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	e, err := ReadEncodedFile(out)
	if err != nil {
		t.Fatalf("ReadEncodedFile() error = %v", err)
	}
	if e.Name != "song" {
		t.Errorf("Name = %q, want %q", e.Name, "song")
	}

	bad := filepath.Join(dir, "bad.osu")
	if err := os.WriteFile(bad, []byte("[Difficulty]\nHPDrainRate:1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	failed := filepath.Join(dir, "bad.osg")
	if err := conv.ConvertFile(bad, failed); err == nil {
		t.Fatal("ConvertFile() on a broken chart should fail")
	}
	if _, err := os.Stat(failed); !os.IsNotExist(err) {
		t.Error("ConvertFile() left output behind after a failure")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("dir has %d entries, want 3 (no temp files)", len(entries))
	}
}

func TestGetSupportedConversions(t *testing.T) {
	conversions := GetSupportedConversions()

	if len(conversions) != 10 {
		t.Errorf("GetSupportedConversions() returned %d conversions, want 10", len(conversions))
	}

	conv := newTestConverter()
	for _, c := range conversions {
		parts := strings.Split(c, " -> ")
		from, to := Format(parts[0]), Format(parts[1])
		_, err := conv.Convert("x", nil, from, to)
		if err != nil && strings.HasPrefix(err.Error(), "unsupported conversion") {
			t.Errorf("%s is listed but Convert rejects it", c)
		}
	}
}

func TestUnitName(t *testing.T) {
	if got := UnitName("/a/b/Artist - Song [Hard].osu"); got != "Artist - Song [Hard]" {
		t.Errorf("UnitName() = %q", got)
	}
}
