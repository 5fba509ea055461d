package grid

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Labels is an integer label grid stored in row-major order.
// Label 0 is background; every positive value identifies one region.
type Labels struct {
	Rows, Cols int
	data       []int
}

// NewLabels returns an all-background label grid.
func NewLabels(rows, cols int) *Labels {
	rows, cols = max(rows, 0), max(cols, 0)
	return &Labels{Rows: rows, Cols: cols, data: make([]int, rows*cols)}
}

// At returns the label at (row, col), zero when out of range.
func (l *Labels) At(row, col int) int {
	if row < 0 || col < 0 || row >= l.Rows || col >= l.Cols {
		return 0
	}
	return l.data[row*l.Cols+col]
}

// Set assigns the label at (row, col). Out-of-range coordinates are ignored.
func (l *Labels) Set(row, col, v int) {
	if row < 0 || col < 0 || row >= l.Rows || col >= l.Cols {
		return
	}
	l.data[row*l.Cols+col] = v
}

// Fill assigns v to every pixel of r that lies inside the grid.
func (l *Labels) Fill(r Rect, v int) {
	r = r.Intersect(Rect{Row1: l.Rows, Col1: l.Cols})
	for i := r.Row0; i < r.Row1; i++ {
		for j := r.Col0; j < r.Col1; j++ {
			l.data[i*l.Cols+j] = v
		}
	}
}

// Unique returns the distinct positive labels in ascending order.
func (l *Labels) Unique() []int {
	seen := make(map[int]struct{})
	for _, v := range l.data {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Under returns the distinct positive labels at pixels set in m, ascending.
func (l *Labels) Under(m *Mask) []int {
	seen := make(map[int]struct{})
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			if v := l.data[r*l.Cols+c]; v > 0 && m.At(r, c) {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Equal returns the mask of pixels carrying the given label.
func (l *Labels) Equal(label int) *Mask {
	m := NewMask(l.Rows, l.Cols)
	for i, v := range l.data {
		m.data[i] = v == label
	}
	return m
}

// Foreground returns the mask of all labeled pixels.
func (l *Labels) Foreground() *Mask {
	m := NewMask(l.Rows, l.Cols)
	for i, v := range l.data {
		m.data[i] = v > 0
	}
	return m
}

// Centroid returns the mean row and column of the pixels carrying label,
// truncated toward zero. ok is false when the label is absent.
func (l *Labels) Centroid(label int) (row, col int, ok bool) {
	var rows, cols []float64
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			if l.data[r*l.Cols+c] == label {
				rows = append(rows, float64(r))
				cols = append(cols, float64(c))
			}
		}
	}
	if len(rows) == 0 {
		return 0, 0, false
	}
	return int(stat.Mean(rows, nil)), int(stat.Mean(cols, nil)), true
}

// Clone returns an independent copy of l.
func (l *Labels) Clone() *Labels {
	return &Labels{Rows: l.Rows, Cols: l.Cols, data: slices.Clone(l.data)}
}
