package calibration

import (
	"fmt"
	"sort"
)

// isotonicMap is a per-class monotonic non-parametric fit produced by the
// pool-adjacent-violators algorithm, applied by stepwise interpolation
type isotonicMap struct {
	xs []float64
	ys []float64
}

func (m *isotonicMap) fit(raw []float64, hit []float64) error {
	if len(raw) == 0 || len(raw) != len(hit) {
		return fmt.Errorf("invalid training batch: %d raw, %d hit", len(raw), len(hit))
	}

	type pair struct{ x, y float64 }
	pairs := make([]pair, len(raw))
	for i := range raw {
		pairs[i] = pair{raw[i], hit[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

	// Pool adjacent violators: merge blocks until means are non-decreasing
	type block struct {
		sumX, sumY float64
		n          int
	}
	blocks := make([]block, 0, len(pairs))
	for _, p := range pairs {
		blocks = append(blocks, block{sumX: p.x, sumY: p.y, n: 1})
		for len(blocks) > 1 {
			last := len(blocks) - 1
			prev := last - 1
			if blocks[prev].sumY/float64(blocks[prev].n) <= blocks[last].sumY/float64(blocks[last].n) {
				break
			}
			blocks[prev] = block{
				sumX: blocks[prev].sumX + blocks[last].sumX,
				sumY: blocks[prev].sumY + blocks[last].sumY,
				n:    blocks[prev].n + blocks[last].n,
			}
			blocks = blocks[:last]
		}
	}

	m.xs = make([]float64, len(blocks))
	m.ys = make([]float64, len(blocks))
	for i, b := range blocks {
		m.xs[i] = b.sumX / float64(b.n)
		m.ys[i] = b.sumY / float64(b.n)
	}
	return nil
}

// apply performs linear interpolation between the fitted block means,
// extending flat beyond the training range
func (m *isotonicMap) apply(p float64) float64 {
	if len(m.xs) == 0 {
		return p
	}
	if p <= m.xs[0] {
		return m.ys[0]
	}
	last := len(m.xs) - 1
	if p >= m.xs[last] {
		return m.ys[last]
	}
	idx := sort.SearchFloat64s(m.xs, p)
	x0, x1 := m.xs[idx-1], m.xs[idx]
	y0, y1 := m.ys[idx-1], m.ys[idx]
	if x1 == x0 {
		return y1
	}
	t := (p - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
