package evo

import (
	"annlab/internal/population"
)

// Culling trims the current population before it is merged with next. It
// returns the number of agents discarded.
type Culling interface {
	Name() string
	Cull(current, next *population.Population) int
}

// LowerBoundsCulling caps the merged generation at Count by keeping only as
// much of the remainder as next leaves room for. This is not a plain
// truncation of the remainder to Count: configurations naming the
// CullingFunction class get that behaviour from KeepTopCulling.
type LowerBoundsCulling struct {
	Count int
}

func (LowerBoundsCulling) Name() string {
	return "lower_bounds"
}

func (c LowerBoundsCulling) Cull(current, next *population.Population) int {
	return truncate(current, max(0, c.Count-next.Len()))
}

// KeepTopCulling keeps the first Count agents of the remainder regardless of
// the size of next.
type KeepTopCulling struct {
	Count int
}

func (KeepTopCulling) Name() string {
	return "keep_top"
}

func (c KeepTopCulling) Cull(current, _ *population.Population) int {
	return truncate(current, c.Count)
}

func truncate(p *population.Population, k int) int {
	before := p.Len()
	p.TruncateTo(k)
	return before - p.Len()
}

func readCullCount(strategy string, c Criteria) (int, error) {
	r := readCriteria(strategy, c)
	count := r.count("count", 50, 1, false)
	return count, r.err
}

func newLowerBoundsCulling(c Criteria) (Culling, error) {
	count, err := readCullCount("culling/lower_bounds", c)
	if err != nil {
		return nil, err
	}
	return LowerBoundsCulling{Count: count}, nil
}

func newKeepTopCulling(c Criteria) (Culling, error) {
	count, err := readCullCount("culling/keep_top", c)
	if err != nil {
		return nil, err
	}
	return KeepTopCulling{Count: count}, nil
}
