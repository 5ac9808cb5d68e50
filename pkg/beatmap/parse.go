package beatmap

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const maxLine = 1024 * 1024

// ParseFile reads the chart at path and returns its sections
func ParseFile(path string, cfg Config) (*Sections, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSections(f, cfg)
}

// ParseSectionsString is ParseSections over an in-memory chart
func ParseSectionsString(text string, cfg Config) (*Sections, error) {
	return ParseSections(strings.NewReader(text), cfg)
}

// ParseSections scans a chart for its difficulty values, timing points and raw
// hit object lines. It fails with ErrInvalidDifficulty when any of the six
// difficulty keys is absent and with ErrMissingHitObjectSection when the input
// ends before the hit object marker.
func ParseSections(r io.Reader, cfg Config) (*Sections, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	diff, err := parseDifficulty(lines, cfg)
	if err != nil {
		return nil, err
	}

	start := -1
	for i, line := range lines {
		if strings.Contains(line, cfg.HitObjectsMarker) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, ErrMissingHitObjectSection
	}

	s := &Sections{
		Difficulty:   diff,
		TimingPoints: parseTimingPoints(lines[:start], cfg),
	}
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.EventLines = append(s.EventLines, line)
	}
	return s, nil
}

func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// parseDifficulty extracts the six keys following the difficulty marker. The
// first line that is neither a recognized key nor the marker ends the section.
func parseDifficulty(lines []string, cfg Config) (Difficulty, error) {
	var d Difficulty
	var seen [6]bool

	marker := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == cfg.DifficultyMarker {
			marker = i
			break
		}
	}

	if marker >= 0 {
	scan:
		for _, line := range lines[marker+1:] {
			trimmed := strings.TrimSpace(line)
			if trimmed == cfg.DifficultyMarker {
				continue
			}
			k, v := splitKeyVal(trimmed)
			idx := keyIndex(cfg.DifficultyKeys, k)
			if idx < 0 {
				break scan
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return d, fmt.Errorf("%w: %s value %q is not a finite number", ErrInvalidDifficulty, k, v)
			}
			d[idx] = f
			seen[idx] = true
		}
	}

	var missing []string
	for i, ok := range seen {
		if !ok {
			missing = append(missing, cfg.DifficultyKeys[i])
		}
	}
	if len(missing) > 0 {
		return d, fmt.Errorf("%w: missing %s", ErrInvalidDifficulty, strings.Join(missing, ", "))
	}
	return d, nil
}

// parseTimingPoints reads the timing section leniently; lines that do not
// carry at least a time and a beat length are skipped.
func parseTimingPoints(lines []string, cfg Config) []TimingPoint {
	var out []TimingPoint
	in := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			in = trimmed == cfg.TimingPointsMarker
			continue
		}
		if !in {
			continue
		}
		parts := strings.Split(trimmed, ",")
		if len(parts) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			continue
		}
		beat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		tp := TimingPoint{
			Time:        int(t),
			BeatLength:  beat,
			Meter:       4,
			SampleSet:   1,
			Volume:      100,
			Uninherited: true,
		}
		if len(parts) > 2 {
			tp.Meter = parseInt(parts[2], 4)
		}
		if len(parts) > 3 {
			tp.SampleSet = parseInt(parts[3], 1)
		}
		if len(parts) > 4 {
			tp.SampleIndex = parseInt(parts[4], 0)
		}
		if len(parts) > 5 {
			tp.Volume = parseInt(parts[5], 100)
		}
		if len(parts) > 6 {
			tp.Uninherited = strings.TrimSpace(parts[6]) == "1"
		}
		if len(parts) > 7 {
			tp.Effects = parseInt(parts[7], 0)
		}
		out = append(out, tp)
	}
	return out
}

func keyIndex(keys [6]string, k string) int {
	for i, key := range keys {
		if key == k {
			return i
		}
	}
	return -1
}

func splitKeyVal(line string) (key, val string) {
	i := strings.Index(line, ":")
	if i < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
}

func parseInt(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
