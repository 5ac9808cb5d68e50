// Package grid lays hit events onto a fixed timestep matrix and packs the
// matrix and slider control points into a sparse storage form.
package grid

import (
	"fmt"

	"github.com/james-see/beatgrid/pkg/beatmap"
)

// Width is the number of features in a grid row
const Width = 8

// MaxRows bounds the slots of one grid, a little under six hours at the
// default 10ms step. It also caps the cells of a decoded point matrix at
// MaxRows*Width.
const MaxRows = 1 << 21

// Column indices of a grid row
const (
	ColX = iota
	ColY
	ColPresent
	ColKind
	ColCurve
	ColSlides
	ColLength
	ColEndTime
)

// Row is one grid slot
type Row [Width]float64

// Grid is the dense temporal matrix. Row i covers time i*Step.
type Grid struct {
	Step int
	Rows []Row
}

// Result is a built grid plus placement counts
type Result struct {
	Grid    *Grid
	Placed  int
	Dropped int
}

// Build merges the ordered events onto a grid with the given step.
//
// The grid spans slot 0 up to the slot of the last event. A cursor walks the
// events while the slots advance; an event lands only in the slot whose time
// equals its own. Events off the step boundary, and any event sharing a slot
// with an earlier one, are dropped, never snapped.
func Build(events []beatmap.HitEvent, step int) (*Result, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %d", beatmap.ErrInvalidConfig, step)
	}
	if len(events) == 0 {
		return nil, beatmap.ErrEmptyEventStream
	}
	for i, ev := range events {
		if _, ok := layout(ev); !ok {
			return nil, fmt.Errorf("%w: event %d (%T) has no %d-field layout", beatmap.ErrIncompleteHitObjectSection, i+1, ev, Width)
		}
	}

	last := events[len(events)-1].Start()
	n := 0
	if last >= 0 {
		if last/step >= MaxRows {
			return nil, fmt.Errorf("%w: last event at %dms needs %d slots of %dms, limit %d",
				beatmap.ErrGridTooLarge, last, last/step, step, MaxRows)
		}
		n = last/step + 1
	}

	g := &Grid{Step: step, Rows: make([]Row, n)}
	res := &Result{Grid: g}
	pos := 0
	for slot := range g.Rows {
		t := slot * step
		for pos < len(events) && events[pos].Start() < t {
			pos++
			res.Dropped++
		}
		if pos < len(events) && events[pos].Start() == t {
			g.Rows[slot], _ = layout(events[pos])
			pos++
			res.Placed++
		}
	}
	res.Dropped += len(events) - pos
	return res, nil
}

func layout(ev beatmap.HitEvent) (Row, bool) {
	var r Row
	var b beatmap.Base
	switch e := ev.(type) {
	case beatmap.Circle:
		b = e.Base
		r[ColCurve] = float64(beatmap.DefaultCurve)
	case beatmap.Slider:
		b = e.Base
		r[ColCurve] = float64(e.Curve)
		r[ColSlides] = float64(e.Slides)
		r[ColLength] = e.Length
	case beatmap.Spinner:
		b = e.Base
		r[ColCurve] = float64(beatmap.DefaultCurve)
		r[ColEndTime] = float64(e.EndTime)
	default:
		return r, false
	}
	r[ColX] = float64(b.X)
	r[ColY] = float64(b.Y)
	r[ColPresent] = 1
	r[ColKind] = float64(b.Type)
	return r, true
}

// Len returns the number of slots
func (g *Grid) Len() int { return len(g.Rows) }

// Activations returns the present column, one value per slot
func (g *Grid) Activations() []float64 {
	out := make([]float64, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = r[ColPresent]
	}
	return out
}

// Present counts occupied slots
func (g *Grid) Present() int {
	n := 0
	for _, r := range g.Rows {
		if r[ColPresent] != 0 {
			n++
		}
	}
	return n
}

// Equal reports whether two grids hold the same step and cells
func (g *Grid) Equal(o *Grid) bool {
	if g.Step != o.Step || len(g.Rows) != len(o.Rows) {
		return false
	}
	for i := range g.Rows {
		if g.Rows[i] != o.Rows[i] {
			return false
		}
	}
	return true
}
