package grid

import "slices"

// Mask is a boolean validity grid stored in row-major order.
type Mask struct {
	Rows, Cols int
	data       []bool
}

// NewMask returns an all-false mask of the given extent.
// Negative dimensions are treated as zero.
func NewMask(rows, cols int) *Mask {
	rows, cols = max(rows, 0), max(cols, 0)
	return &Mask{Rows: rows, Cols: cols, data: make([]bool, rows*cols)}
}

// Full returns a mask with every pixel set.
func Full(rows, cols int) *Mask {
	m := NewMask(rows, cols)
	for i := range m.data {
		m.data[i] = true
	}
	return m
}

// MaskFromRows builds a mask from a slice of equal-length rows.
// A nonzero byte other than '.', ' ' or '0' marks a set pixel, which keeps
// small fixtures readable:
//
//	grid.MaskFromRows([]string{
//	    "..##",
//	    ".###",
//	})
func MaskFromRows(rows []string) *Mask {
	if len(rows) == 0 {
		return NewMask(0, 0)
	}
	m := NewMask(len(rows), len(rows[0]))
	for r, line := range rows {
		for c := 0; c < m.Cols && c < len(line); c++ {
			switch line[c] {
			case '.', ' ', '0':
			default:
				m.Set(r, c, true)
			}
		}
	}
	return m
}

// At reports whether pixel (row, col) is set.
// Out-of-range coordinates read as false.
func (m *Mask) At(row, col int) bool {
	if row < 0 || col < 0 || row >= m.Rows || col >= m.Cols {
		return false
	}
	return m.data[row*m.Cols+col]
}

// Set assigns pixel (row, col). Out-of-range coordinates are ignored.
func (m *Mask) Set(row, col int, v bool) {
	if row < 0 || col < 0 || row >= m.Rows || col >= m.Cols {
		return
	}
	m.data[row*m.Cols+col] = v
}

// Fill assigns v to every pixel of r that lies inside the mask.
func (m *Mask) Fill(r Rect, v bool) {
	r = r.Intersect(Rect{Row1: m.Rows, Col1: m.Cols})
	for i := r.Row0; i < r.Row1; i++ {
		for j := r.Col0; j < r.Col1; j++ {
			m.data[i*m.Cols+j] = v
		}
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// Any reports whether at least one pixel is set.
func (m *Mask) Any() bool {
	return slices.Contains(m.data, true)
}

// Clone returns an independent copy of m.
func (m *Mask) Clone() *Mask {
	return &Mask{Rows: m.Rows, Cols: m.Cols, data: slices.Clone(m.data)}
}

// Not returns the complement of m.
func (m *Mask) Not() *Mask {
	out := NewMask(m.Rows, m.Cols)
	for i, v := range m.data {
		out.data[i] = !v
	}
	return out
}

// And returns the pixelwise conjunction of m and o.
// Pixels outside o's extent read as false.
func (m *Mask) And(o *Mask) *Mask {
	out := NewMask(m.Rows, m.Cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			out.data[r*m.Cols+c] = m.data[r*m.Cols+c] && o.At(r, c)
		}
	}
	return out
}

// FlipUD returns m mirrored along the horizontal axis.
func (m *Mask) FlipUD() *Mask {
	out := NewMask(m.Rows, m.Cols)
	for r := 0; r < m.Rows; r++ {
		copy(out.data[r*m.Cols:(r+1)*m.Cols], m.data[(m.Rows-1-r)*m.Cols:(m.Rows-r)*m.Cols])
	}
	return out
}

// Bounds returns the bounding box of the set pixels.
// ok is false when the mask is empty.
func (m *Mask) Bounds() (r Rect, ok bool) {
	r = Rect{Row0: m.Rows, Col0: m.Cols}
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if !m.data[i*m.Cols+j] {
				continue
			}
			ok = true
			r.Row0, r.Row1 = min(r.Row0, i), max(r.Row1, i+1)
			r.Col0, r.Col1 = min(r.Col0, j), max(r.Col1, j+1)
		}
	}
	if !ok {
		return Rect{}, false
	}
	return r, true
}

// Integral builds a summed-area table over the set pixels.
func (m *Mask) Integral() *Integral {
	return newIntegral(m.Rows, m.Cols, func(i int) bool { return m.data[i] })
}
