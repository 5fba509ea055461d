package grid

import "slices"

// Counter is a per-pixel claim counter.
//
// Samplers use it as their seen/overlap state: invalid pixels start at one,
// and every accepted tile increments its footprint. A Counter caches the
// summed-area table of its nonzero pixels and rebuilds it lazily after a
// mutation.
type Counter struct {
	Rows, Cols int
	data       []uint32
	integral   *Integral
}

// SkipCounter returns a counter holding one for every pixel that is not
// valid in m and zero elsewhere.
func SkipCounter(m *Mask) *Counter {
	c := &Counter{Rows: m.Rows, Cols: m.Cols, data: make([]uint32, len(m.data))}
	for i, v := range m.data {
		if !v {
			c.data[i] = 1
		}
	}
	return c
}

// At returns the count at (row, col), zero when out of range.
func (c *Counter) At(row, col int) uint32 {
	if row < 0 || col < 0 || row >= c.Rows || col >= c.Cols {
		return 0
	}
	return c.data[row*c.Cols+col]
}

// Add increments every pixel of r that lies inside the counter.
func (c *Counter) Add(r Rect, n uint32) {
	r = r.Intersect(Rect{Row1: c.Rows, Col1: c.Cols})
	if r.Empty() || n == 0 {
		return
	}
	for i := r.Row0; i < r.Row1; i++ {
		row := c.data[i*c.Cols : (i+1)*c.Cols]
		for j := r.Col0; j < r.Col1; j++ {
			row[j] += n
		}
	}
	c.integral = nil
}

// Reset overwrites c with the contents of src, which must share c's extent.
func (c *Counter) Reset(src *Counter) {
	copy(c.data, src.data)
	c.integral = nil
}

// Clone returns an independent copy of c.
func (c *Counter) Clone() *Counter {
	return &Counter{Rows: c.Rows, Cols: c.Cols, data: slices.Clone(c.data), integral: c.integral}
}

// Peak returns the largest count inside r.
func (c *Counter) Peak(r Rect) uint32 {
	r = r.Intersect(Rect{Row1: c.Rows, Col1: c.Cols})
	var peak uint32
	for i := r.Row0; i < r.Row1; i++ {
		for j := r.Col0; j < r.Col1; j++ {
			peak = max(peak, c.data[i*c.Cols+j])
		}
	}
	return peak
}

// Nonzero returns the number of pixels in r with a positive count.
func (c *Counter) Nonzero(r Rect) int {
	return c.Integral().Sum(r)
}

// Integral returns the summed-area table of the nonzero pixels.
// The table is shared until the next mutation and must not be modified.
func (c *Counter) Integral() *Integral {
	if c.integral == nil {
		c.integral = newIntegral(c.Rows, c.Cols, func(i int) bool { return c.data[i] != 0 })
	}
	return c.integral
}
