package evo

import (
	"annlab/internal/agent"
	"annlab/internal/population"
)

// Pair is two parents bred together.
type Pair [2]*agent.Agent

type Bedding interface {
	Name() string
	Bed(p *population.Population) []Pair
}

// PairsBedding pairs consecutive selected agents in population order. An odd
// agent left at the end is not bred.
type PairsBedding struct{}

func (PairsBedding) Name() string {
	return "pairs"
}

func newPairsBedding(c Criteria) (Bedding, error) {
	r := readCriteria("bedding/pairs", c)
	if size := r.count("size", 2, 2, false); r.err == nil && size != 2 {
		r.fail("size", "only pairs of 2 are supported")
	}
	if r.err != nil {
		return nil, r.err
	}
	return PairsBedding{}, nil
}

func (PairsBedding) Bed(p *population.Population) []Pair {
	var (
		pairs   []Pair
		pending *agent.Agent
	)
	for a := range p.Values() {
		if !a.IsSelected {
			continue
		}
		if pending == nil {
			pending = a
			continue
		}
		pairs = append(pairs, Pair{pending, a})
		pending = nil
	}
	return pairs
}
