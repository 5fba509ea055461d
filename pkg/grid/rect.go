package grid

import "fmt"

// Rect is an axis-aligned rectangle with inclusive start and exclusive stop.
type Rect struct {
	Row0, Col0 int
	Row1, Col1 int
}

// Square returns the rectangle covered by a dim x dim tile at (row, col).
func Square(row, col, dim int) Rect {
	return Rect{Row0: row, Col0: col, Row1: row + dim, Col1: col + dim}
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Row1 <= r.Row0 || r.Col1 <= r.Col0
}

// Area returns the number of pixels covered by r.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return (r.Row1 - r.Row0) * (r.Col1 - r.Col0)
}

// Intersect returns the overlap of r and o, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Row0: max(r.Row0, o.Row0),
		Col0: max(r.Col0, o.Col0),
		Row1: min(r.Row1, o.Row1),
		Col1: min(r.Col1, o.Col1),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Within reports whether r lies entirely inside a rows x cols grid.
func (r Rect) Within(rows, cols int) bool {
	return r.Row0 >= 0 && r.Col0 >= 0 && r.Row1 <= rows && r.Col1 <= cols
}

// String formats r as "row0:row1,col0:col1".
func (r Rect) String() string {
	return fmt.Sprintf("%d:%d,%d:%d", r.Row0, r.Row1, r.Col0, r.Col1)
}
