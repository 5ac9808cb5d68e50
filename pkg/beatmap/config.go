package beatmap

import (
	"fmt"
	"strings"
)

// DefaultStep is the grid quantization interval in milliseconds
const DefaultStep = 10

// Position is a playfield coordinate
type Position struct {
	X int `json:"x" yaml:"x" toml:"x"`
	Y int `json:"y" yaml:"y" toml:"y"`
}

// Config carries every tunable the codec uses. It is passed explicitly to
// each entry point; the package keeps no mutable globals.
type Config struct {
	Step               int       `json:"step" yaml:"step" toml:"step"`
	DifficultyMarker   string    `json:"difficulty_marker" yaml:"difficulty_marker" toml:"difficulty_marker"`
	TimingPointsMarker string    `json:"timing_points_marker" yaml:"timing_points_marker" toml:"timing_points_marker"`
	HitObjectsMarker   string    `json:"hit_objects_marker" yaml:"hit_objects_marker" toml:"hit_objects_marker"`
	DifficultyKeys     [6]string `json:"difficulty_keys" yaml:"difficulty_keys" toml:"difficulty_keys"`
	// CurveLetters[code] is the path letter for CurveType(code)
	CurveLetters [4]string `json:"curve_letters" yaml:"curve_letters" toml:"curve_letters"`
	Placeholder  Position  `json:"placeholder" yaml:"placeholder" toml:"placeholder"`
}

// DefaultConfig returns the stock codec settings: 10ms slots, the standard
// section markers and difficulty keys, curve letters B C L P.
func DefaultConfig() Config {
	return Config{
		Step:               DefaultStep,
		DifficultyMarker:   "[Difficulty]",
		TimingPointsMarker: "[TimingPoints]",
		HitObjectsMarker:   "[HitObjects]",
		DifficultyKeys: [6]string{
			"HPDrainRate",
			"CircleSize",
			"OverallDifficulty",
			"ApproachRate",
			"SliderMultiplier",
			"SliderTickRate",
		},
		CurveLetters: [4]string{"B", "C", "L", "P"},
		Placeholder:  Position{X: 256, Y: 192},
	}
}

// Validate checks that the config describes a usable codec
func (c Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %d", ErrInvalidConfig, c.Step)
	}
	if strings.TrimSpace(c.DifficultyMarker) == "" || strings.TrimSpace(c.HitObjectsMarker) == "" {
		return fmt.Errorf("%w: section markers must not be empty", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.DifficultyKeys))
	for _, k := range c.DifficultyKeys {
		if k == "" || seen[k] {
			return fmt.Errorf("%w: difficulty key %q empty or repeated", ErrInvalidConfig, k)
		}
		seen[k] = true
	}
	letters := make(map[string]bool, len(c.CurveLetters))
	for _, l := range c.CurveLetters {
		if len(l) != 1 || letters[l] {
			return fmt.Errorf("%w: curve letter %q must be a single unique character", ErrInvalidConfig, l)
		}
		letters[l] = true
	}
	return nil
}

// CurveCode maps a path letter to its code
func (c Config) CurveCode(letter string) (CurveType, error) {
	for i, l := range c.CurveLetters {
		if l == letter {
			return CurveType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCurveType, letter)
}

// CurveLetter maps a code back to its path letter
func (c Config) CurveLetter(code CurveType) (string, error) {
	if int(code) >= len(c.CurveLetters) {
		return "", fmt.Errorf("%w: code %d", ErrUnknownCurveType, code)
	}
	return c.CurveLetters[code], nil
}
