package evo

import (
	"cmp"

	"annlab/internal/agent"
	"annlab/internal/population"
)

type Sorting interface {
	Name() string
	Sort(p *population.Population)
}

// NoSorting leaves the population in its current order.
type NoSorting struct{}

func (NoSorting) Name() string { return "none" }
func (NoSorting) Sort(*population.Population) {}

// AscendingSorting orders agents best first. Ties keep their relative order.
type AscendingSorting struct{}

func (AscendingSorting) Name() string {
	return "ascending"
}

func (AscendingSorting) Sort(p *population.Population) {
	p.Sort(compareScores)
}

func compareScores(a, b *agent.Agent) int {
	return cmp.Compare(a.LastScore, b.LastScore)
}

func newNoSorting(Criteria) (Sorting, error) {
	return NoSorting{}, nil
}

func newAscendingSorting(Criteria) (Sorting, error) {
	return AscendingSorting{}, nil
}
