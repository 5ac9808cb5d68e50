// Package beatmap reads and writes the subset of the .osu chart format used by
// the temporal encoder: the Difficulty, TimingPoints and HitObjects sections.
package beatmap

import (
	"fmt"
	"math"
)

// Difficulty holds the six difficulty values in canonical order:
// HPDrainRate, CircleSize, OverallDifficulty, ApproachRate, SliderMultiplier, SliderTickRate.
type Difficulty [6]float64

// Indices into Difficulty
const (
	HPDrainRate = iota
	CircleSize
	OverallDifficulty
	ApproachRate
	SliderMultiplier
	SliderTickRate
)

func (d Difficulty) HP() float64         { return d[HPDrainRate] }
func (d Difficulty) CS() float64         { return d[CircleSize] }
func (d Difficulty) OD() float64         { return d[OverallDifficulty] }
func (d Difficulty) AR() float64         { return d[ApproachRate] }
func (d Difficulty) Multiplier() float64 { return d[SliderMultiplier] }
func (d Difficulty) TickRate() float64   { return d[SliderTickRate] }

// Validate rejects NaN and infinite values
func (d Difficulty) Validate() error {
	for i, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %d (%v) is not finite", ErrInvalidDifficulty, i, v)
		}
	}
	return nil
}

// TimingPoint is one line of the [TimingPoints] section
type TimingPoint struct {
	Time        int     `json:"time"`
	BeatLength  float64 `json:"beat_length"`
	Meter       int     `json:"meter"`
	SampleSet   int     `json:"sample_set"`
	SampleIndex int     `json:"sample_index"`
	Volume      int     `json:"volume"`
	Uninherited bool    `json:"uninherited"`
	Effects     int     `json:"effects"`
}

// DefaultTimingPoint is written when a reconstructed chart has no timing of its own
var DefaultTimingPoint = TimingPoint{
	Time:        0,
	BeatLength:  600,
	Meter:       4,
	SampleSet:   1,
	SampleIndex: 0,
	Volume:      100,
	Uninherited: true,
}

// Sections is the raw result of scanning a chart file
type Sections struct {
	Difficulty   Difficulty
	TimingPoints []TimingPoint
	EventLines   []string
}

// EventKind discriminates the hit event variants
type EventKind uint8

const (
	KindCircle EventKind = iota
	KindSlider
	KindSpinner
)

func (k EventKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	}
	return "unknown"
}

// TypeFlags is the raw type bitfield of a hit object line
type TypeFlags int

const (
	TypeCircle   TypeFlags = 1 << 0
	TypeSlider   TypeFlags = 1 << 1
	TypeNewCombo TypeFlags = 1 << 2
	TypeSpinner  TypeFlags = 1 << 3
)

// Point is one slider control point
type Point struct{ X, Y int }

// Base carries the fields shared by every hit event
type Base struct {
	X, Y     int
	Time     int
	Type     TypeFlags
	HitSound int
}

// HitEvent is a Circle, Slider or Spinner
type HitEvent interface {
	Kind() EventKind
	Start() int
	Fields() Base
}

func (b Base) Start() int   { return b.Time }
func (b Base) Fields() Base { return b }

type Circle struct{ Base }

func (Circle) Kind() EventKind { return KindCircle }

type Slider struct {
	Base
	Curve  CurveType
	Points []Point
	Slides int
	Length float64
}

func (Slider) Kind() EventKind { return KindSlider }

type Spinner struct {
	Base
	EndTime int
}

func (Spinner) Kind() EventKind { return KindSpinner }

// SliderPoints returns the control point lists of every slider in events, in order.
// The returned lists share no memory with the events.
func SliderPoints(events []HitEvent) [][]Point {
	var out [][]Point
	for _, ev := range events {
		s, ok := ev.(Slider)
		if !ok {
			continue
		}
		pts := make([]Point, len(s.Points))
		copy(pts, s.Points)
		out = append(out, pts)
	}
	return out
}
