// Package converter turns .osu charts into encoded training units and back,
// and bridges both to activation text files and MIDI rhythm previews.
package converter

import (
	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/grid"
)

// ContainerFormat tags every encoded unit written by this package
const ContainerFormat = "beatgrid/v1"

// DefaultDifficulty is used when a chart is rebuilt from a source that
// carries no difficulty of its own (MIDI, activation text).
var DefaultDifficulty = beatmap.Difficulty{5, 5, 5, 5, 1.4, 1}

// Stats summarizes how a chart landed on the grid
type Stats struct {
	Events  int `json:"events"`
	Placed  int `json:"placed"`
	Dropped int `json:"dropped"`
	Sliders int `json:"sliders"`
}

// EncodedBeatmap is the persisted, trainable form of one chart
type EncodedBeatmap struct {
	Format       string                `json:"format"`
	Name         string                `json:"name"`
	Step         int                   `json:"step"`
	Difficulty   beatmap.Difficulty    `json:"difficulty"`
	TimingPoints []beatmap.TimingPoint `json:"timing_points,omitempty"`
	Grid         grid.Sparse[float64]  `json:"grid"`
	SliderPoints grid.Sparse[int]      `json:"slider_points"`
	Stats        Stats                 `json:"stats"`
}

// Dense expands the stored grid
func (e *EncodedBeatmap) Dense() (*grid.Grid, error) {
	return grid.DecodeGrid(e.Grid, e.Step)
}

// Points expands the stored slider point matrix
func (e *EncodedBeatmap) Points() (grid.PointMatrix, error) {
	return grid.DecodePoints(e.SliderPoints)
}

// Converter handles format conversions
type Converter struct {
	cfg        beatmap.Config
	difficulty beatmap.Difficulty
}

// New creates a new Converter with the specified codec config
func New(cfg beatmap.Config) *Converter {
	return &Converter{cfg: cfg, difficulty: DefaultDifficulty}
}

// Config returns the codec config
func (c *Converter) Config() beatmap.Config {
	return c.cfg
}

// SetDifficulty sets the difficulty written for MIDI and activation inputs
func (c *Converter) SetDifficulty(d beatmap.Difficulty) {
	c.difficulty = d
}

// Difficulty returns the difficulty written for MIDI and activation inputs
func (c *Converter) Difficulty() beatmap.Difficulty {
	return c.difficulty
}
