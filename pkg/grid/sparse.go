package grid

import (
	"fmt"
	"math"

	"github.com/james-see/beatgrid/pkg/beatmap"
)

// Number is the element type a Sparse tensor can hold
type Number interface {
	~int | ~float64
}

// Sparse is a coordinate-list tensor. Only cells that differ from the zero
// value are stored, in row-major order, so encoding the same dense input
// always yields the same entries.
type Sparse[T Number] struct {
	Shape   []int   `json:"shape"`
	Indices [][]int `json:"indices"`
	Values  []T     `json:"values"`
}

// NNZ returns the number of stored entries
func (s Sparse[T]) NNZ() int { return len(s.Values) }

func isDefault[T Number](v T) bool {
	if v != 0 {
		return false
	}
	// -0.0 compares equal to zero but must survive a round trip
	return !math.Signbit(float64(v))
}

// EncodeGrid stores the non-zero cells of g
func EncodeGrid(g *Grid) Sparse[float64] {
	s := Sparse[float64]{
		Shape:   []int{len(g.Rows), Width},
		Indices: [][]int{},
		Values:  []float64{},
	}
	for i, row := range g.Rows {
		for j, v := range row {
			if isDefault(v) {
				continue
			}
			s.Indices = append(s.Indices, []int{i, j})
			s.Values = append(s.Values, v)
		}
	}
	return s
}

// DecodeGrid rebuilds the dense grid, restoring every default row
func DecodeGrid(s Sparse[float64], step int) (*Grid, error) {
	if len(s.Shape) != 2 || s.Shape[0] < 0 || s.Shape[0] > MaxRows || s.Shape[1] != Width {
		return nil, fmt.Errorf("%w: grid shape %v", beatmap.ErrCorruptEncoding, s.Shape)
	}
	if err := checkEntries(s); err != nil {
		return nil, err
	}
	g := &Grid{Step: step, Rows: make([]Row, s.Shape[0])}
	for k, idx := range s.Indices {
		g.Rows[idx[0]][idx[1]] = s.Values[k]
	}
	return g, nil
}

// EncodePoints stores the non-(0,0) coordinates of m
func EncodePoints(m PointMatrix) Sparse[int] {
	s := Sparse[int]{
		Shape:   m.Shape(),
		Indices: [][]int{},
		Values:  []int{},
	}
	for i, row := range m.Data {
		for j, p := range row {
			for k, v := range [2]int{p.X, p.Y} {
				if v == 0 {
					continue
				}
				s.Indices = append(s.Indices, []int{i, j, k})
				s.Values = append(s.Values, v)
			}
		}
	}
	return s
}

// DecodePoints rebuilds the padded point matrix
func DecodePoints(s Sparse[int]) (PointMatrix, error) {
	if len(s.Shape) == 1 && s.Shape[0] == 0 {
		if len(s.Values) != 0 || len(s.Indices) != 0 {
			return PointMatrix{}, fmt.Errorf("%w: entries in an empty point matrix", beatmap.ErrCorruptEncoding)
		}
		return PointMatrix{}, nil
	}
	if len(s.Shape) != 3 || s.Shape[0] <= 0 || s.Shape[1] < 0 || s.Shape[2] != 2 {
		return PointMatrix{}, fmt.Errorf("%w: point shape %v", beatmap.ErrCorruptEncoding, s.Shape)
	}
	// sliders*width <= MaxRows*Width
	if s.Shape[0] > MaxRows || s.Shape[1] > MaxRows*Width/s.Shape[0] {
		return PointMatrix{}, fmt.Errorf("%w: point shape %v exceeds %d cells", beatmap.ErrCorruptEncoding, s.Shape, MaxRows*Width)
	}
	if err := checkEntries(s); err != nil {
		return PointMatrix{}, err
	}

	m := PointMatrix{Sliders: s.Shape[0], Width: s.Shape[1], Data: make([][]beatmap.Point, s.Shape[0])}
	for i := range m.Data {
		m.Data[i] = make([]beatmap.Point, m.Width)
	}
	for k, idx := range s.Indices {
		p := &m.Data[idx[0]][idx[1]]
		if idx[2] == 0 {
			p.X = s.Values[k]
		} else {
			p.Y = s.Values[k]
		}
	}
	return m, nil
}

// checkEntries verifies every index lies inside the shape, in strictly
// increasing row-major order.
func checkEntries[T Number](s Sparse[T]) error {
	if len(s.Indices) != len(s.Values) {
		return fmt.Errorf("%w: %d indices for %d values", beatmap.ErrCorruptEncoding, len(s.Indices), len(s.Values))
	}
	var prev []int
	for k, idx := range s.Indices {
		if len(idx) != len(s.Shape) {
			return fmt.Errorf("%w: entry %d has rank %d, want %d", beatmap.ErrCorruptEncoding, k, len(idx), len(s.Shape))
		}
		for d, v := range idx {
			if v < 0 || v >= s.Shape[d] {
				return fmt.Errorf("%w: entry %d index %v outside shape %v", beatmap.ErrCorruptEncoding, k, idx, s.Shape)
			}
		}
		if prev != nil && !less(prev, idx) {
			return fmt.Errorf("%w: entry %d index %v out of order", beatmap.ErrCorruptEncoding, k, idx)
		}
		prev = idx
	}
	return nil
}

func less(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
