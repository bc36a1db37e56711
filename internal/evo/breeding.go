package evo

import (
	"fmt"
	"math/rand"

	"annlab/internal/population"
)

// Breeding crosses a pair and appends the offspring to next. It returns the
// number of mutations applied.
type Breeding interface {
	Name() string
	Breed(pair Pair, next *population.Population, x Crossover, m Mutation, rng *rand.Rand) (int, error)
}

// GenericBreeding crosses the parents' genomes group by group and writes the
// results into clones of the parents. Children keep their parent's id.
type GenericBreeding struct {
	Offspring int
}

func (GenericBreeding) Name() string {
	return "generic"
}

func newGenericBreeding(c Criteria) (Breeding, error) {
	r := readCriteria("breeding/generic", c)
	count := r.count("count", 2, 1, false)
	if r.err == nil && count > 2 {
		r.fail("count", "must be 1 or 2")
	}
	if r.err != nil {
		return nil, r.err
	}
	return GenericBreeding{Offspring: count}, nil
}

func (b GenericBreeding) Breed(pair Pair, next *population.Population, x Crossover, m Mutation, rng *rand.Rand) (int, error) {
	mother, father := pair[0], pair[1]
	if mother == nil || father == nil {
		return 0, fmt.Errorf("breeding pair is incomplete")
	}
	genomeA, err := mother.Genome()
	if err != nil {
		return 0, fmt.Errorf("read genome %s: %w", mother.ID, err)
	}
	genomeB, err := father.Genome()
	if err != nil {
		return 0, fmt.Errorf("read genome %s: %w", father.ID, err)
	}
	if len(genomeA) != len(genomeB) {
		return 0, fmt.Errorf("parents %s and %s have different genome lengths: %d vs %d",
			mother.ID, father.ID, len(genomeA), len(genomeB))
	}

	mutations := 0
	for i := range genomeA {
		mutations += x.Crossover(genomeA[i], genomeB[i], m, rng)
	}

	for i, parent := range pair[:b.Offspring] {
		child, err := parent.Replicate(parent.ID, rng)
		if err != nil {
			return mutations, fmt.Errorf("replicate parent %s: %w", parent.ID, err)
		}
		genome := genomeA
		if i == 1 {
			genome = genomeB
		}
		if err := child.SetGenome(genome); err != nil {
			return mutations, fmt.Errorf("write child genome %s: %w", parent.ID, err)
		}
		next.Append(child)
	}
	return mutations, nil
}
