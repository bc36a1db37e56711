package genotype

import (
	"errors"
	"fmt"
)

var ErrGenomeLength = errors.New("genome length mismatch")

// Genome is the linear view over every non-input neuron of an agent: one digit
// group for the bias followed by one per incoming weight, in layer order.
type Genome []DigitGroup

// EncodeValues encodes each value at Precision.
func EncodeValues(values []float64) (Genome, error) {
	out := make(Genome, 0, len(values))
	for i, value := range values {
		group, err := Encode(value, Precision)
		if err != nil {
			return nil, fmt.Errorf("locus group %d: %w", i, err)
		}
		out = append(out, group)
	}
	return out, nil
}

// Values decodes every group of the genome.
func (g Genome) Values() ([]float64, error) {
	out := make([]float64, 0, len(g))
	for i, group := range g {
		value, err := Decode(group)
		if err != nil {
			return nil, fmt.Errorf("locus group %d: %w", i, err)
		}
		out = append(out, value)
	}
	return out, nil
}

func (g Genome) Clone() Genome {
	if g == nil {
		return nil
	}
	out := make(Genome, len(g))
	for i, group := range g {
		out[i] = group.Clone()
	}
	return out
}

// Loci returns the total number of digits across all groups.
func (g Genome) Loci() int {
	total := 0
	for _, group := range g {
		total += len(group)
	}
	return total
}

// Equal reports whether both genomes carry identical digits.
func (g Genome) Equal(other Genome) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(other[i]) {
			return false
		}
		for j := range g[i] {
			if g[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}
