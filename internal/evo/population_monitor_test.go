package evo

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"annlab/internal/agent"
	"annlab/internal/model"
	"annlab/internal/nn"
	"annlab/internal/population"
)

func referencePrototype(t *testing.T, seed int64) *agent.Agent {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	proto := agent.NewPrototype(nil)
	layers := []agent.LayerSpec{
		{Count: 2, Activator: nn.Identity, Biases: []float64{0.2, 0.5}, Uplink: agent.UplinkCrisscross},
		{Count: 4, Activator: nn.Sigmoid, Uplink: agent.UplinkFilter},
		{Count: 3, Activator: nn.Sigmoid, Uplink: agent.UplinkCrisscross},
		{Count: 1, Activator: nn.Sigmoid, Biases: []float64{0.7}},
	}
	for i, l := range layers {
		if err := proto.AddLayer(rng, l.Count, l.Activator, l.Biases, l.Uplink); err != nil {
			t.Fatalf("layer %d: %v", i, err)
		}
	}
	return proto
}

func referenceStrategies(t *testing.T) StrategySet {
	t.Helper()
	set, err := NewStrategySet(map[string]StrategySpec{
		SlotFitness:   {Variant: "target_delta"},
		SlotSorting:   {Variant: "ascending"},
		SlotElitism:   {Variant: "standard", Criteria: Criteria{"count": 2}},
		SlotSelection: {Variant: "top_percentile", Criteria: Criteria{"percentage": 0.75}},
		SlotBedding:   {Variant: "pairs", Criteria: Criteria{"size": 2}},
		SlotCrossover: {Variant: "k_point", Criteria: Criteria{"k": 2}},
		SlotMutation:  {Variant: "aggressive", Criteria: Criteria{"chance": 0.0001}},
		SlotBreeding:  {Variant: "generic"},
		SlotCulling:   {Variant: "lower_bounds", Criteria: Criteria{"count": 20}},
	})
	if err != nil {
		t.Fatalf("strategy set: %v", err)
	}
	return set
}

func newReferenceMonitor(t *testing.T, seed int64, control <-chan MonitorCommand) *PopulationMonitor {
	t.Helper()
	m, err := NewPopulationMonitor(MonitorConfig{
		Prototype:  referencePrototype(t, seed),
		AgentCount: 20,
		Strategies: referenceStrategies(t),
		Seed:       seed,
		Control:    control,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	return m
}

func TestRunBatchReferenceScenario(t *testing.T) {
	m := newReferenceMonitor(t, 42, nil)
	if len(m.Population()) != 20 {
		t.Fatalf("expected 20 seeded agents, got %d", len(m.Population()))
	}

	summary, err := m.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if summary.PopulationSize != 20 || len(m.Population()) != 20 {
		t.Fatalf("expected population 20, summary=%d actual=%d", summary.PopulationSize, len(m.Population()))
	}
	if summary.BestScore < 0 || summary.BestScore > summary.WorstScore {
		t.Fatalf("unexpected scores: %+v", summary)
	}
	if summary.EliteCount != 2 {
		t.Fatalf("expected 2 elites, got %d", summary.EliteCount)
	}
	elites := 0
	for _, a := range m.Population() {
		if a.IsElite {
			elites++
		}
	}
	if elites != 2 {
		t.Fatalf("expected the 2 salvaged elites to keep their flag, got %d", elites)
	}
	if summary.PairCount != 8 || summary.OffspringCount != 16 {
		t.Fatalf("unexpected breeding counts: pairs=%d offspring=%d", summary.PairCount, summary.OffspringCount)
	}
	if summary.GenerationIndex != 1 || m.Generation() != 1 {
		t.Fatalf("unexpected generation: %d", summary.GenerationIndex)
	}
	if summary.SchemaVersion != SupportedSchemaVersion {
		t.Fatalf("unexpected schema version: %d", summary.SchemaVersion)
	}
	best, score := m.Best()
	if best == nil || score != summary.BestScore {
		t.Fatalf("unexpected best: %v %v", best, score)
	}
}

func TestRunBatchIsReproducible(t *testing.T) {
	run := func() []model.GenerationSummary {
		m := newReferenceMonitor(t, 7, nil)
		var out []model.GenerationSummary
		if err := m.Run(context.Background(), 5, func(s model.GenerationSummary) error {
			s.ElapsedMillis = 0
			out = append(out, s)
			return nil
		}); err != nil {
			t.Fatalf("run: %v", err)
		}
		return out
	}
	a, b := run(), run()
	if len(a) != 5 {
		t.Fatalf("expected 5 summaries, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("generation %d differs: %+v vs %+v", i+1, a[i], b[i])
		}
		if a[i].PopulationSize != 20 {
			t.Fatalf("generation %d: population %d", i+1, a[i].PopulationSize)
		}
	}
}

func TestRunBestScoreDoesNotRegress(t *testing.T) {
	m := newReferenceMonitor(t, 3, nil)
	prev := -1.0
	err := m.Run(context.Background(), 30, func(s model.GenerationSummary) error {
		// Salvaged elites are rescored unchanged, so the best can only improve.
		if prev >= 0 && s.BestScore > prev {
			t.Fatalf("generation %d: best regressed from %v to %v", s.GenerationIndex, prev, s.BestScore)
		}
		prev = s.BestScore
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunStopsOnCommandAndContext(t *testing.T) {
	control := make(chan MonitorCommand, 4)
	m := newReferenceMonitor(t, 1, control)

	calls := 0
	err := m.Run(context.Background(), 0, func(model.GenerationSummary) error {
		calls++
		if calls == 3 {
			control <- CommandPause
			control <- CommandContinue
			control <- CommandStop
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 3 || m.Generation() != 3 {
		t.Fatalf("expected stop after 3 batches, calls=%d generation=%d", calls, m.Generation())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Run(ctx, 5, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if _, err := m.RunBatch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from RunBatch, got: %v", err)
	}
}

func TestRunPausedWaitsForContext(t *testing.T) {
	control := make(chan MonitorCommand, 1)
	m := newReferenceMonitor(t, 1, control)
	control <- CommandPause

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, 5, nil)
	}()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if m.Generation() != 0 {
		t.Fatalf("paused monitor ran %d batches", m.Generation())
	}
}

func TestRunPropagatesCallbackError(t *testing.T) {
	m := newReferenceMonitor(t, 1, nil)
	sentinel := errors.New("display closed")
	if err := m.Run(context.Background(), 3, func(model.GenerationSummary) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error, got: %v", err)
	}
	if m.Generation() != 1 {
		t.Fatalf("expected 1 batch before abort, got %d", m.Generation())
	}
}

func TestConcurrentRunBatchSerializes(t *testing.T) {
	m := newReferenceMonitor(t, 5, nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.RunBatch(context.Background()); err != nil {
				t.Errorf("run batch: %v", err)
			}
		}()
	}
	wg.Wait()
	if m.Generation() != 4 || len(m.Population()) != 20 {
		t.Fatalf("unexpected state: generation=%d size=%d", m.Generation(), len(m.Population()))
	}
}

func TestNewPopulationMonitorValidation(t *testing.T) {
	set := referenceStrategies(t)
	proto := referencePrototype(t, 1)
	rng := rand.New(rand.NewSource(1))
	plain, err := agent.Build("x", nil, rng, []agent.LayerSpec{{Count: 1}, {Count: 1}}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	shallow := agent.NewPrototype(nil)
	if err := shallow.AddLayer(rng, 1, "", nil, agent.UplinkCrisscross); err != nil {
		t.Fatalf("add layer: %v", err)
	}

	cases := []MonitorConfig{
		{AgentCount: 2, Strategies: set},
		{Prototype: plain, AgentCount: 2, Strategies: set},
		{Prototype: shallow, AgentCount: 2, Strategies: set},
		{Prototype: proto, AgentCount: 0, Strategies: set},
		{Prototype: proto, AgentCount: 2},
	}
	for i, cfg := range cases {
		if _, err := NewPopulationMonitor(cfg); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

// failingBreeding appends one child for the first pairs, then fails.
type failingBreeding struct {
	after    int
	calls    int
	appended []*agent.Agent
	err      error
}

func (*failingBreeding) Name() string { return "failing" }

func (b *failingBreeding) Breed(pair Pair, next *population.Population, _ Crossover, _ Mutation, rng *rand.Rand) (int, error) {
	b.calls++
	if b.calls > b.after {
		return 0, b.err
	}
	child, err := pair[0].Replicate("child", rng)
	if err != nil {
		return 0, err
	}
	next.Append(child)
	b.appended = append(b.appended, child)
	return 0, nil
}

func TestRunBatchFailureDiscardsNextGeneration(t *testing.T) {
	m := newReferenceMonitor(t, 9, nil)
	if _, err := m.RunBatch(context.Background()); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	before := m.Population()

	breeding := &failingBreeding{after: 2, err: errors.New("breeding failed")}
	m.cfg.Strategies.Breeding = breeding

	if _, err := m.RunBatch(context.Background()); !errors.Is(err, breeding.err) {
		t.Fatalf("expected breeding error, got: %v", err)
	}
	if len(breeding.appended) != 2 {
		t.Fatalf("expected 2 children before the failure, got %d", len(breeding.appended))
	}
	after := m.Population()
	if m.Generation() != 1 || len(after) != len(before) {
		t.Fatalf("failed batch changed state: generation=%d size=%d want size %d", m.Generation(), len(after), len(before))
	}
	for _, child := range breeding.appended {
		if slices.Contains(after, child) {
			t.Fatalf("child %s of a failed batch was merged", child.ID)
		}
	}
	for _, a := range before {
		if !slices.Contains(after, a) {
			t.Fatalf("agent %s lost by a failed batch", a.ID)
		}
	}
}
