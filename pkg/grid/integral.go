package grid

// Integral is a summed-area table over a boolean indicator.
// Sum answers rectangle counts in constant time.
type Integral struct {
	rows, cols int
	sum        []int // (rows+1) x (cols+1), first row and column are zero
}

func newIntegral(rows, cols int, set func(i int) bool) *Integral {
	w := cols + 1
	t := &Integral{rows: rows, cols: cols, sum: make([]int, (rows+1)*w)}
	for r := 0; r < rows; r++ {
		acc := 0
		for c := 0; c < cols; c++ {
			if set(r*cols + c) {
				acc++
			}
			t.sum[(r+1)*w+c+1] = t.sum[r*w+c+1] + acc
		}
	}
	return t
}

// Sum returns the number of set pixels inside r, clipped to the grid.
func (t *Integral) Sum(r Rect) int {
	r = r.Intersect(Rect{Row1: t.rows, Col1: t.cols})
	if r.Empty() {
		return 0
	}
	w := t.cols + 1
	return t.sum[r.Row1*w+r.Col1] - t.sum[r.Row0*w+r.Col1] - t.sum[r.Row1*w+r.Col0] + t.sum[r.Row0*w+r.Col0]
}

// Total returns the number of set pixels in the whole grid.
func (t *Integral) Total() int {
	return t.sum[len(t.sum)-1]
}
