package evo

import (
	"fmt"
	"math"
	"math/rand"

	"annlab/internal/agent"
	"annlab/internal/population"
)

// Elitism decides which agents survive into the next generation untouched.
type Elitism interface {
	Name() string
	// Promote flags elites on a sorted population and returns how many.
	Promote(p *population.Population) int
	// Replicate appends a clone of every elite to next.
	Replicate(p, next *population.Population, rng *rand.Rand) (int, error)
	// Salvate moves every elite from p to next.
	Salvate(p, next *population.Population) int
}

// StandardElitism promotes position i when i < MinCount, or when the agent
// scores at most LteScore and i < MaxCount. TopPercent, when set, caps
// MaxCount at round(len × TopPercent).
type StandardElitism struct {
	MinCount   int
	MaxCount   int
	TopPercent float64
	HasTop     bool
	LteScore   float64
}

func (StandardElitism) Name() string {
	return "standard"
}

func newStandardElitism(c Criteria) (Elitism, error) {
	r := readCriteria("elitism/standard", c)
	e := StandardElitism{
		MinCount: r.count("promotion.minCount", 0, 0, false),
		MaxCount: r.count("promotion.maxCount", math.MaxInt, 0, true),
		LteScore: r.number("promotion.lteScore", math.Inf(1)),
	}
	if c.Has("count") {
		e.MaxCount = r.count("count", 0, 0, false)
	}
	if c.Has("promotion.topPercent") {
		e.TopPercent = r.probability("promotion.topPercent", 1)
		e.HasTop = true
	}
	if r.err != nil {
		return nil, r.err
	}
	return e, nil
}

func (e StandardElitism) maxCount(n int) int {
	limit := e.MaxCount
	if e.HasTop {
		limit = min(limit, int(math.Round(float64(n)*e.TopPercent)))
	}
	return limit
}

func (e StandardElitism) Promote(p *population.Population) int {
	limit := e.maxCount(p.Len())
	promoted := 0
	for i, a := range p.All() {
		a.IsElite = i < e.MinCount || (a.LastScore <= e.LteScore && i < limit)
		if a.IsElite {
			promoted++
		}
	}
	return promoted
}

func (StandardElitism) Replicate(p, next *population.Population, rng *rand.Rand) (int, error) {
	cloned := 0
	for a := range p.Values() {
		if !a.IsElite {
			continue
		}
		replica, err := a.Replicate(a.ID, rng)
		if err != nil {
			return cloned, fmt.Errorf("replicate elite %s: %w", a.ID, err)
		}
		next.Append(replica)
		cloned++
	}
	return cloned, nil
}

func (StandardElitism) Salvate(p, next *population.Population) int {
	var elites []*agent.Agent
	for a := range p.Values() {
		if a.IsElite {
			elites = append(elites, a)
		}
	}
	for _, a := range elites {
		p.RemoveValue(a)
		next.Append(a)
	}
	return len(elites)
}
