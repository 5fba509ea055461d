package grid

// Connectivity selects the pixel neighbourhood used by [Label].
type Connectivity int

const (
	// Conn4 joins pixels that share an edge.
	Conn4 Connectivity = 4
	// Conn8 joins pixels that share an edge or a corner.
	Conn8 Connectivity = 8
)

var (
	offsets4 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	offsets8 = [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

// Label assigns a distinct positive label to every connected component of m.
// Labels are numbered from 1 in raster order of each component's first pixel.
// Any connectivity other than Conn4 is treated as Conn8.
func Label(m *Mask, conn Connectivity) *Labels {
	offsets := offsets8
	if conn == Conn4 {
		offsets = offsets4
	}

	out := NewLabels(m.Rows, m.Cols)
	next := 0
	var stack []int

	for start, v := range m.data {
		if !v || out.data[start] != 0 {
			continue
		}
		next++
		out.data[start] = next
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			r, c := i/m.Cols, i%m.Cols
			for _, d := range offsets {
				nr, nc := r+d[0], c+d[1]
				if nr < 0 || nc < 0 || nr >= m.Rows || nc >= m.Cols {
					continue
				}
				j := nr*m.Cols + nc
				if m.data[j] && out.data[j] == 0 {
					out.data[j] = next
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}
