package grid

import "github.com/james-see/beatgrid/pkg/beatmap"

// PointMatrix is the rectangular stack of slider control point lists, each
// right-padded with (0,0) to Width points.
type PointMatrix struct {
	Sliders int
	Width   int
	Data    [][]beatmap.Point
}

// Pack pads every list to the longest list length. The input is not modified.
func Pack(lists [][]beatmap.Point) PointMatrix {
	width := 0
	for _, l := range lists {
		width = max(width, len(l))
	}

	m := PointMatrix{Sliders: len(lists), Width: width}
	if len(lists) == 0 {
		return m
	}
	m.Data = make([][]beatmap.Point, len(lists))
	for i, l := range lists {
		row := make([]beatmap.Point, width)
		copy(row, l)
		m.Data[i] = row
	}
	return m
}

// Empty reports whether the matrix describes a chart with no sliders
func (m PointMatrix) Empty() bool { return m.Sliders == 0 }

// Shape is [0] when there are no sliders and [sliders, width, 2] otherwise
func (m PointMatrix) Shape() []int {
	if m.Empty() {
		return []int{0}
	}
	return []int{m.Sliders, m.Width, 2}
}

// Equal reports whether two matrices hold the same shape and points
func (m PointMatrix) Equal(o PointMatrix) bool {
	if m.Sliders != o.Sliders || m.Width != o.Width || len(m.Data) != len(o.Data) {
		return false
	}
	for i := range m.Data {
		if len(m.Data[i]) != len(o.Data[i]) {
			return false
		}
		for j := range m.Data[i] {
			if m.Data[i][j] != o.Data[i][j] {
				return false
			}
		}
	}
	return true
}
