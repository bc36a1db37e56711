package evo

import (
	"math"
	"math/rand"

	"annlab/internal/genotype"
)

// Mutation may rewrite digit i of one of two crossed digit groups. It returns
// 1 when a digit was replaced and 0 otherwise.
type Mutation interface {
	Name() string
	Mutate(i int, a, b genotype.DigitGroup, rng *rand.Rand) int
}

type digitMutation struct {
	chance float64
	digit  func(old byte, rng *rand.Rand) byte
}

func (m digitMutation) mutate(i int, a, b genotype.DigitGroup, rng *rand.Rand) int {
	if m.chance <= 0 || rng.Float64() > m.chance {
		return 0
	}
	target := a
	if rng.Float64() >= 0.5 {
		target = b
	}
	if i < 0 || i >= len(target) {
		return 0
	}
	target[i] = m.digit(target[i], rng)
	return 1
}

func newDigitMutation(strategy string, c Criteria, digit func(byte, *rand.Rand) byte) (digitMutation, error) {
	r := readCriteria(strategy, c)
	chance := r.probability("chance", 0)
	if r.err != nil {
		return digitMutation{}, r.err
	}
	return digitMutation{chance: chance, digit: digit}, nil
}

// SubtleMutation scales the old digit by a uniform draw and rounds.
type SubtleMutation struct {
	digitMutation
}

func (SubtleMutation) Name() string {
	return "subtle"
}

func (m SubtleMutation) Mutate(i int, a, b genotype.DigitGroup, rng *rand.Rand) int {
	return m.mutate(i, a, b, rng)
}

func newSubtleMutation(c Criteria) (Mutation, error) {
	m, err := newDigitMutation("mutation/subtle", c, func(old byte, rng *rand.Rand) byte {
		return byte(math.Round(float64(old) * rng.Float64()))
	})
	if err != nil {
		return nil, err
	}
	return SubtleMutation{m}, nil
}

// AggressiveMutation replaces the digit with a uniform draw from 0..9.
type AggressiveMutation struct {
	digitMutation
}

func (AggressiveMutation) Name() string {
	return "aggressive"
}

func (m AggressiveMutation) Mutate(i int, a, b genotype.DigitGroup, rng *rand.Rand) int {
	return m.mutate(i, a, b, rng)
}

func newAggressiveMutation(c Criteria) (Mutation, error) {
	m, err := newDigitMutation("mutation/aggressive", c, func(_ byte, rng *rand.Rand) byte {
		return byte(int(math.Floor(rng.Float64()*10)) % 10)
	})
	if err != nil {
		return nil, err
	}
	return AggressiveMutation{m}, nil
}
