package evo

import (
	"math"
	"math/rand"

	"annlab/internal/genotype"
)

// Crossover exchanges digits between two digit groups in place, running the
// mutation after every attempted swap. It returns the number of mutations.
type Crossover interface {
	Name() string
	Crossover(a, b genotype.DigitGroup, m Mutation, rng *rand.Rand) int
}

// locusCriteria is shared by every crossover variant. Indices at or past the
// real group length are skipped.
type locusCriteria struct {
	DNALength int
	Chance    float64
	Count     int
}

func readLocusCriteria(r *criteriaReader) locusCriteria {
	lc := locusCriteria{
		DNALength: r.count("dnaLength", genotype.GroupWidth, 1, false),
		Chance:    r.probability("chance", 0.9),
	}
	pct := r.probability("percentage", 0.5)
	lc.Count = int(math.Round(float64(lc.DNALength) * pct))
	if r.c.Has("count") {
		lc.Count = r.count("count", lc.Count, 0, false)
	}
	if lc.Count > lc.DNALength {
		r.fail("count", "must not exceed dnaLength")
	}
	return lc
}

func (lc locusCriteria) swap(i int, a, b genotype.DigitGroup, m Mutation, rng *rand.Rand) int {
	if i >= len(a) || i >= len(b) {
		return 0
	}
	if rng.Float64() <= lc.Chance {
		a[i], b[i] = b[i], a[i]
	}
	if m == nil {
		return 0
	}
	return m.Mutate(i, a, b, rng)
}

// UniformCrossover visits Count distinct random indices.
type UniformCrossover struct {
	locusCriteria
}

func (UniformCrossover) Name() string {
	return "uniform"
}

func newUniformCrossover(c Criteria) (Crossover, error) {
	r := readCriteria("crossover/uniform", c)
	lc := readLocusCriteria(r)
	if r.err != nil {
		return nil, r.err
	}
	return UniformCrossover{lc}, nil
}

func (x UniformCrossover) Crossover(a, b genotype.DigitGroup, m Mutation, rng *rand.Rand) int {
	seen := make(map[int]struct{}, x.Count)
	mutations := 0
	for len(seen) < x.Count {
		i := rng.Intn(x.DNALength)
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		mutations += x.swap(i, a, b, m, rng)
	}
	return mutations
}

// KPointCrossover runs K passes, each over the suffix starting at a random
// point below DNALength and running to the end of the group.
type KPointCrossover struct {
	locusCriteria
	K int
}

func (KPointCrossover) Name() string {
	return "k_point"
}

func newKPointCrossover(c Criteria) (Crossover, error) {
	r := readCriteria("crossover/k_point", c)
	lc := readLocusCriteria(r)
	k := r.count("k", 1, 1, false)
	if r.err != nil {
		return nil, r.err
	}
	return KPointCrossover{locusCriteria: lc, K: k}, nil
}

func (x KPointCrossover) Crossover(a, b genotype.DigitGroup, m Mutation, rng *rand.Rand) int {
	mutations := 0
	for pass := 0; pass < x.K; pass++ {
		point := rng.Intn(x.DNALength)
		for i := point; i < len(a); i++ {
			mutations += x.swap(i, a, b, m, rng)
		}
	}
	return mutations
}
