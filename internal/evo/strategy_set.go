package evo

import (
	"fmt"
	"sort"
)

// Strategy slots, in pipeline order.
const (
	SlotFitness   = "fitness"
	SlotSorting   = "sorting"
	SlotElitism   = "elitism"
	SlotSelection = "selection"
	SlotBedding   = "bedding"
	SlotCrossover = "crossover"
	SlotMutation  = "mutation"
	SlotBreeding  = "breeding"
	SlotCulling   = "culling"
)

var (
	FitnessVariants   = NewRegistry[Fitness](SlotFitness, "target_delta")
	SortingVariants   = NewRegistry[Sorting](SlotSorting, "none")
	ElitismVariants   = NewRegistry[Elitism](SlotElitism, "standard")
	SelectionVariants = NewRegistry[Selection](SlotSelection, "all")
	BeddingVariants   = NewRegistry[Bedding](SlotBedding, "pairs")
	CrossoverVariants = NewRegistry[Crossover](SlotCrossover, "uniform")
	MutationVariants  = NewRegistry[Mutation](SlotMutation, "subtle")
	BreedingVariants  = NewRegistry[Breeding](SlotBreeding, "generic")
	CullingVariants   = NewRegistry[Culling](SlotCulling, "lower_bounds")
)

func init() {
	FitnessVariants.mustRegister(VariantSpec[Fitness]{
		Name: "target_delta", DisplayName: "Target Delta",
		Aliases: []string{"FitnessFunction", "TargetDeltaFitnessFunction"},
		New:     newTargetDeltaFitness,
	})

	SortingVariants.mustRegister(VariantSpec[Sorting]{
		Name: "none", DisplayName: "Doesn't",
		Aliases: []string{"SortingFunction"},
		New:     newNoSorting,
	})
	SortingVariants.mustRegister(VariantSpec[Sorting]{
		Name: "ascending", DisplayName: "Ascending Score",
		Aliases: []string{"AscendingScoreSortingFunction"},
		New:     newAscendingSorting,
	})

	ElitismVariants.mustRegister(VariantSpec[Elitism]{
		Name: "standard", DisplayName: "Elitism",
		Aliases: []string{"ElitismFunction"},
		New:     newStandardElitism,
	})

	SelectionVariants.mustRegister(VariantSpec[Selection]{
		Name: "all", DisplayName: "All",
		Aliases: []string{"SelectionFunction"},
		New:     newAllSelection,
	})
	SelectionVariants.mustRegister(VariantSpec[Selection]{
		Name: "top_percentile", DisplayName: "Top Percentile",
		Aliases: []string{"TopPercentileSelectionFunction"},
		New:     newTopPercentileSelection,
	})

	BeddingVariants.mustRegister(VariantSpec[Bedding]{
		Name: "pairs", DisplayName: "Pairs",
		Aliases: []string{"BeddingFunction"},
		New:     newPairsBedding,
	})

	CrossoverVariants.mustRegister(VariantSpec[Crossover]{
		Name: "uniform", DisplayName: "Uniform",
		Aliases: []string{"CrossoverFunction", "UniformCrossoverFunction"},
		New:     newUniformCrossover,
	})
	CrossoverVariants.mustRegister(VariantSpec[Crossover]{
		Name: "k_point", DisplayName: "k-Point",
		Aliases: []string{"KPointCrossoverFunction"},
		New:     newKPointCrossover,
	})

	MutationVariants.mustRegister(VariantSpec[Mutation]{
		Name: "subtle", DisplayName: "Subtle",
		Aliases: []string{"MutationFunction", "SubtleMutationFunction"},
		New:     newSubtleMutation,
	})
	MutationVariants.mustRegister(VariantSpec[Mutation]{
		Name: "aggressive", DisplayName: "Aggressive",
		Aliases: []string{"AggressiveMutationFunction"},
		New:     newAggressiveMutation,
	})

	BreedingVariants.mustRegister(VariantSpec[Breeding]{
		Name: "generic", DisplayName: "Generic",
		Aliases: []string{"BreedingFunction"},
		New:     newGenericBreeding,
	})

	CullingVariants.mustRegister(VariantSpec[Culling]{
		Name: "lower_bounds", DisplayName: "Lower bounds",
		Aliases: []string{"LowerBoundsCullingFunction"},
		New:     newLowerBoundsCulling,
	})
	CullingVariants.mustRegister(VariantSpec[Culling]{
		Name: "keep_top", DisplayName: "Keep top",
		Aliases: []string{"CullingFunction", "KeepTopCullingFunction"},
		New:     newKeepTopCulling,
	})
}

// Families lists the strategy slots in pipeline order.
func Families() []string {
	return []string{
		SlotFitness, SlotSorting, SlotElitism, SlotSelection, SlotBedding,
		SlotCrossover, SlotMutation, SlotBreeding, SlotCulling,
	}
}

// Variants lists the registered variants of a slot.
func Variants(slot string) ([]VariantInfo, error) {
	switch slot {
	case SlotFitness:
		return FitnessVariants.Variants(), nil
	case SlotSorting:
		return SortingVariants.Variants(), nil
	case SlotElitism:
		return ElitismVariants.Variants(), nil
	case SlotSelection:
		return SelectionVariants.Variants(), nil
	case SlotBedding:
		return BeddingVariants.Variants(), nil
	case SlotCrossover:
		return CrossoverVariants.Variants(), nil
	case SlotMutation:
		return MutationVariants.Variants(), nil
	case SlotBreeding:
		return BreedingVariants.Variants(), nil
	case SlotCulling:
		return CullingVariants.Variants(), nil
	default:
		return nil, fmt.Errorf("unknown strategy slot: %q", slot)
	}
}

// StrategySpec names a variant and its criteria.
type StrategySpec struct {
	Variant  string
	Criteria Criteria
}

// StrategySet holds one instantiated strategy per slot.
type StrategySet struct {
	Fitness   Fitness
	Sorting   Sorting
	Elitism   Elitism
	Selection Selection
	Bedding   Bedding
	Crossover Crossover
	Mutation  Mutation
	Breeding  Breeding
	Culling   Culling
}

// NewStrategySet instantiates every slot. Missing slots use the family
// default with empty criteria.
func NewStrategySet(specs map[string]StrategySpec) (StrategySet, error) {
	known := make(map[string]bool, 9)
	for _, slot := range Families() {
		known[slot] = true
	}
	unknown := make([]string, 0)
	for slot := range specs {
		if !known[slot] {
			unknown = append(unknown, slot)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return StrategySet{}, fmt.Errorf("unknown strategy slots: %v", unknown)
	}

	var (
		set StrategySet
		err error
	)
	build := func(slot string, fn func(StrategySpec) error) {
		if err != nil {
			return
		}
		if e := fn(specs[slot]); e != nil {
			err = fmt.Errorf("%s strategy: %w", slot, e)
		}
	}
	build(SlotFitness, func(s StrategySpec) (e error) {
		set.Fitness, e = FitnessVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotSorting, func(s StrategySpec) (e error) {
		set.Sorting, e = SortingVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotElitism, func(s StrategySpec) (e error) {
		set.Elitism, e = ElitismVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotSelection, func(s StrategySpec) (e error) {
		set.Selection, e = SelectionVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotBedding, func(s StrategySpec) (e error) {
		set.Bedding, e = BeddingVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotCrossover, func(s StrategySpec) (e error) {
		set.Crossover, e = CrossoverVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotMutation, func(s StrategySpec) (e error) {
		set.Mutation, e = MutationVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotBreeding, func(s StrategySpec) (e error) {
		set.Breeding, e = BreedingVariants.Build(s.Variant, s.Criteria)
		return
	})
	build(SlotCulling, func(s StrategySpec) (e error) {
		set.Culling, e = CullingVariants.Build(s.Variant, s.Criteria)
		return
	})
	if err != nil {
		return StrategySet{}, err
	}
	return set, nil
}

func (s StrategySet) validate() error {
	switch {
	case s.Fitness == nil:
		return fmt.Errorf("%s strategy is required", SlotFitness)
	case s.Sorting == nil:
		return fmt.Errorf("%s strategy is required", SlotSorting)
	case s.Elitism == nil:
		return fmt.Errorf("%s strategy is required", SlotElitism)
	case s.Selection == nil:
		return fmt.Errorf("%s strategy is required", SlotSelection)
	case s.Bedding == nil:
		return fmt.Errorf("%s strategy is required", SlotBedding)
	case s.Crossover == nil:
		return fmt.Errorf("%s strategy is required", SlotCrossover)
	case s.Mutation == nil:
		return fmt.Errorf("%s strategy is required", SlotMutation)
	case s.Breeding == nil:
		return fmt.Errorf("%s strategy is required", SlotBreeding)
	case s.Culling == nil:
		return fmt.Errorf("%s strategy is required", SlotCulling)
	}
	return nil
}

// Names maps each slot to the canonical name of its strategy.
func (s StrategySet) Names() map[string]string {
	return map[string]string{
		SlotFitness:   s.Fitness.Name(),
		SlotSorting:   s.Sorting.Name(),
		SlotElitism:   s.Elitism.Name(),
		SlotSelection: s.Selection.Name(),
		SlotBedding:   s.Bedding.Name(),
		SlotCrossover: s.Crossover.Name(),
		SlotMutation:  s.Mutation.Name(),
		SlotBreeding:  s.Breeding.Name(),
		SlotCulling:   s.Culling.Name(),
	}
}
