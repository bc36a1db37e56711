package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"time"

	"annlab/internal/agent"
	"annlab/internal/logging"
	"annlab/internal/model"
	"annlab/internal/population"
	"annlab/internal/stats"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

// MonitorCommand steers a running monitor between batches.
type MonitorCommand string

const (
	CommandPause    MonitorCommand = "pause"
	CommandContinue MonitorCommand = "continue"
	CommandStop     MonitorCommand = "stop"
)

type MonitorConfig struct {
	// Prototype supplies the topology, the input vector (its input biases)
	// and the target vector (its output biases).
	Prototype  *agent.Agent
	AgentCount int
	Strategies StrategySet
	Seed       int64
	Logger     *slog.Logger
	// Control is optional. Commands are read between batches only.
	Control <-chan MonitorCommand
}

// PopulationMonitor owns a population and advances it one generation per
// batch.
type PopulationMonitor struct {
	cfg    MonitorConfig
	rng    *rand.Rand
	logger *slog.Logger

	mu         sync.Mutex
	population *population.Population
	generation int
	mutations  int
	best       *agent.Agent
	bestScore  float64
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Prototype == nil {
		return nil, fmt.Errorf("prototype agent is required")
	}
	if !cfg.Prototype.IsPrototype() {
		return nil, fmt.Errorf("agent %s is not a prototype", cfg.Prototype.ID)
	}
	if cfg.Prototype.LayerCount() < 2 {
		return nil, fmt.Errorf("prototype needs an input and an output layer, got %d layers", cfg.Prototype.LayerCount())
	}
	if cfg.AgentCount <= 0 {
		return nil, fmt.Errorf("agent count must be > 0")
	}
	if err := cfg.Strategies.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	m := &PopulationMonitor{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		logger:     cfg.Logger,
		population: population.New(),
	}
	for i := 0; i < cfg.AgentCount; i++ {
		replica, err := cfg.Prototype.Replicate(strconv.Itoa(i), m.rng)
		if err != nil {
			return nil, fmt.Errorf("seed agent %d: %w", i, err)
		}
		m.population.Append(replica)
	}
	m.logger.Debug("population seeded", "agents", cfg.AgentCount, "genome_len", cfg.Prototype.GenomeLen())
	return m, nil
}

// RunBatch advances the population by one generation. On error the next
// generation is discarded and the current population is not merged.
func (m *PopulationMonitor) RunBatch(ctx context.Context) (model.GenerationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.GenerationSummary{}, err
	}

	start := time.Now()
	s := m.cfg.Strategies
	current := m.population
	inputs := m.cfg.Prototype.InputBiases()
	targets := m.cfg.Prototype.OutputBiases()

	for a := range current.Values() {
		a.ResetFlags()
		a.PrepareRun(inputs)
	}
	scores := s.Fitness.ScorePopulation(current, targets)
	s.Sorting.Sort(current)
	elites := s.Elitism.Promote(current)

	next := population.New()
	if _, err := s.Elitism.Replicate(current, next, m.rng); err != nil {
		return model.GenerationSummary{}, fmt.Errorf("generation %d: %w", m.generation+1, err)
	}
	clones := next.Len()

	s.Selection.Select(current)
	pairs := s.Bedding.Bed(current)
	mutations := 0
	for _, pair := range pairs {
		n, err := s.Breeding.Breed(pair, next, s.Crossover, s.Mutation, m.rng)
		mutations += n
		if err != nil {
			return model.GenerationSummary{}, fmt.Errorf("generation %d: %w", m.generation+1, err)
		}
	}
	offspring := next.Len() - clones

	s.Elitism.Salvate(current, next)
	culled := s.Culling.Cull(current, next)
	current.AppendFrom(next)

	m.generation++
	m.mutations += mutations
	m.best = scores.Lowest
	m.bestScore = scores.Best

	st := stats.ScoreStats(scores.Scores)
	summary := model.GenerationSummary{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
		},
		GenerationIndex:    m.generation,
		BestScore:          scores.Best,
		WorstScore:         scores.Worst,
		MeanScore:          st.Mean,
		StdDevScore:        st.StdDev,
		PopulationSize:     current.Len(),
		ElapsedMillis:      time.Since(start).Milliseconds(),
		TotalMutationCount: mutations,
		EliteCount:         elites,
		PairCount:          len(pairs),
		OffspringCount:     offspring,
	}
	m.logger.Debug("generation complete", "summary", summary, "culled", culled)
	return summary, nil
}

// Run schedules n batches one after another, or runs until stopped when n <= 0.
// Cancellation and control commands take effect between batches.
func (m *PopulationMonitor) Run(ctx context.Context, n int, onSummary func(model.GenerationSummary) error) error {
	for i := 0; n <= 0 || i < n; i++ {
		stop, err := m.awaitTurn(ctx)
		if err != nil {
			return err
		}
		if stop {
			m.logger.Info("run stopped", "generation", m.Generation())
			return nil
		}

		summary, err := m.RunBatch(ctx)
		if err != nil {
			return err
		}
		if onSummary != nil {
			if err := onSummary(summary); err != nil {
				return err
			}
		}
		runtime.Gosched()
	}
	return nil
}

// awaitTurn drains pending control commands and blocks while paused.
func (m *PopulationMonitor) awaitTurn(ctx context.Context) (bool, error) {
	paused := false
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if !paused {
			select {
			case cmd, ok := <-m.cfg.Control:
				if !ok {
					return false, nil
				}
				switch cmd {
				case CommandStop:
					return true, nil
				case CommandPause:
					paused = true
					m.logger.Info("run paused", "generation", m.Generation())
				}
				continue
			default:
				return false, nil
			}
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case cmd, ok := <-m.cfg.Control:
			if !ok {
				return false, nil
			}
			switch cmd {
			case CommandStop:
				return true, nil
			case CommandContinue:
				paused = false
				m.logger.Info("run resumed", "generation", m.Generation())
			}
		}
	}
}

// Population returns a snapshot of the current agents in order.
func (m *PopulationMonitor) Population() []*agent.Agent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.population.Slice()
}

func (m *PopulationMonitor) Generation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Mutations returns the number of mutations applied over all batches.
func (m *PopulationMonitor) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations
}

// Best returns the best scored agent of the last batch and its score.
func (m *PopulationMonitor) Best() (*agent.Agent, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.best, m.bestScore
}
