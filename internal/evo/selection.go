package evo

import (
	"math"

	"annlab/internal/population"
)

// Selection flags the agents allowed to breed and returns how many it marked.
// Agents it does not mark have IsSelected cleared.
type Selection interface {
	Name() string
	Select(p *population.Population) int
}

// AllSelection marks every agent.
type AllSelection struct{}

func (AllSelection) Name() string {
	return "all"
}

func (AllSelection) Select(p *population.Population) int {
	for a := range p.Values() {
		a.IsSelected = true
	}
	return p.Len()
}

// TopPercentileSelection marks positions i <= round(len × Percentage) of a
// population already sorted best first.
type TopPercentileSelection struct {
	Percentage float64
}

func (TopPercentileSelection) Name() string {
	return "top_percentile"
}

func newTopPercentileSelection(c Criteria) (Selection, error) {
	r := readCriteria("selection/top_percentile", c)
	if !c.Has("percentage") {
		return nil, &CriteriaError{Strategy: r.strategy, Field: "percentage", Reason: "is required"}
	}
	pct := r.probability("percentage", 1)
	if r.err == nil && pct == 0 {
		r.fail("percentage", "must be > 0")
	}
	if r.err != nil {
		return nil, r.err
	}
	return TopPercentileSelection{Percentage: pct}, nil
}

func (s TopPercentileSelection) Select(p *population.Population) int {
	cutoff := int(math.Round(float64(p.Len()) * s.Percentage))
	marked := 0
	for i, a := range p.All() {
		a.IsSelected = i <= cutoff
		if a.IsSelected {
			marked++
		}
	}
	return marked
}

func newAllSelection(Criteria) (Selection, error) {
	return AllSelection{}, nil
}
