package tiler

import "math/rand/v2"

// shuffler draws indices in [0, n) uniformly without replacement.
//
// The permutation is materialised lazily, Fisher-Yates style: only swapped
// positions are stored, so a draw costs O(1) regardless of n.
type shuffler struct {
	n     int
	drawn int
	swaps map[int]int
	rng   *rand.Rand
}

func newShuffler(n int, rng *rand.Rand) *shuffler {
	return &shuffler{n: n, swaps: make(map[int]int), rng: rng}
}

func (s *shuffler) at(i int) int {
	if v, ok := s.swaps[i]; ok {
		return v
	}
	return i
}

// next returns the next index of the permutation, or false once all n
// indices have been drawn.
func (s *shuffler) next() (int, bool) {
	if s.drawn >= s.n {
		return 0, false
	}
	j := s.drawn + s.rng.IntN(s.n-s.drawn)
	v := s.at(j)
	s.swaps[j] = s.at(s.drawn)
	delete(s.swaps, s.drawn)
	s.drawn++
	return v, true
}

// reset starts a fresh permutation.
func (s *shuffler) reset() {
	s.drawn = 0
	clear(s.swaps)
}

func (s *shuffler) remaining() int { return s.n - s.drawn }

// stridedRange returns 0, step, 2*step, ... below n.
func stridedRange(n, step int) []int {
	out := make([]int, 0, (n+step-1)/step)
	for v := 0; v < n; v += step {
		out = append(out, v)
	}
	return out
}

// blockPermute shuffles vals in place within consecutive blocks of
// min(len/2, block) values, keeping the block order, and returns vals.
// Offsets near each other in the result stay near each other in value.
func blockPermute(vals []int, block int, rng *rand.Rand) []int {
	b := max(min(len(vals)/2, block), 1)
	for start := 0; start < len(vals); start += b {
		part := vals[start:min(start+b, len(vals))]
		rng.Shuffle(len(part), func(i, j int) { part[i], part[j] = part[j], part[i] })
	}
	return vals
}

// axisStrides returns the offset strides along rows and columns: 1 on the
// shorter axis and ceil(long/short) on the longer one.
func axisStrides(rows, cols int) (rowStep, colStep int) {
	rowStep, colStep = 1, 1
	switch {
	case rows > cols:
		rowStep = (rows + cols - 1) / cols
	case cols > rows:
		colStep = (cols + rows - 1) / rows
	}
	return rowStep, colStep
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
