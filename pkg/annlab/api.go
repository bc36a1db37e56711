package annlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"annlab/internal/agent"
	"annlab/internal/config"
	"annlab/internal/evo"
	"annlab/internal/logging"
	"annlab/internal/model"
	"annlab/internal/stats"
	"annlab/internal/storage"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "annlab.db"
	configExportFile  = "config.yaml"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store      storage.Store
	exportsDir string
	logger     *slog.Logger

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	// ConfigPath and Config are mutually exclusive. With neither the embedded
	// defaults are used.
	ConfigPath string
	Config     *config.Config
	// Generations and Seed override the configuration when non-zero.
	Generations int
	Seed        int64
	RunID       string
	// SummaryCSV, when set, receives one CSV row per generation as it completes.
	SummaryCSV   string
	Control      <-chan evo.MonitorCommand
	OnGeneration func(model.GenerationSummary) error
}

type RunSummary struct {
	RunID            string
	Seed             int64
	Generations      int
	BestByGeneration []float64
	FinalBestScore   float64
	BestAgentID      string
	BestOutputs      []float64
	Mutations        int
	Strategies       map[string]string
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Seed           int64
	AgentCount     int
	Generations    int
	FinalBestScore float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type StrategyFamily struct {
	Slot     string
	Variants []evo.VariantInfo
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
		logger:     logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Run evolves a population for the configured number of generations and
// records the run and its summaries in the store. When the run is cut short
// the record still reflects the generations that completed.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg, err := resolveConfig(req)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	seed := cfg.ResolveSeed()
	cfg.Seed = seed
	prototype, err := agent.Build(agent.PrototypeID, nil, rand.New(rand.NewSource(seed)), cfg.LayerSpecs(), true)
	if err != nil {
		return RunSummary{}, fmt.Errorf("build prototype: %w", err)
	}
	strategies, err := evo.NewStrategySet(cfg.StrategySpecs())
	if err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = storage.NewRunID()
	}
	logger := c.logger.With("run_id", runID)

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Prototype:  prototype,
		AgentCount: cfg.AgentCount,
		Strategies: strategies,
		Seed:       seed,
		Logger:     logger,
		Control:    req.Control,
	})
	if err != nil {
		return RunSummary{}, err
	}

	rawConfig, err := json.Marshal(cfg)
	if err != nil {
		return RunSummary{}, fmt.Errorf("encode config: %w", err)
	}
	record := model.RunRecord{
		ID:           runID,
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Seed:         seed,
		AgentCount:   cfg.AgentCount,
		Strategies:   strategies.Names(),
		Config:       rawConfig,
	}
	storage.Stamp(&record.VersionedRecord)
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	var summaryLog *stats.SummaryLog
	if req.SummaryCSV != "" {
		summaryLog, err = stats.CreateSummaryLog(req.SummaryCSV)
		if err != nil {
			return RunSummary{}, err
		}
		defer summaryLog.Close()
	}

	logger.Info("run started", "seed", seed, "agents", cfg.AgentCount, "generations", cfg.Generations)
	out := RunSummary{RunID: runID, Seed: seed, Strategies: record.Strategies}
	runErr := monitor.Run(ctx, cfg.Generations, func(s model.GenerationSummary) error {
		if err := c.store.AppendSummaries(ctx, runID, []model.GenerationSummary{s}); err != nil {
			return fmt.Errorf("save summary %d: %w", s.GenerationIndex, err)
		}
		if err := summaryLog.Write(s); err != nil {
			return err
		}
		out.BestByGeneration = append(out.BestByGeneration, s.BestScore)
		if req.OnGeneration != nil {
			return req.OnGeneration(s)
		}
		return nil
	})

	out.Generations = monitor.Generation()
	out.Mutations = monitor.Mutations()
	if best, score := monitor.Best(); best != nil {
		out.FinalBestScore = score
		out.BestAgentID = best.ID
		out.BestOutputs = best.Outputs()
	}

	record.Generations = out.Generations
	record.FinalBestScore = out.FinalBestScore
	// The context may already be done; the final record is saved regardless.
	if err := c.store.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		return out, errors.Join(runErr, fmt.Errorf("save run: %w", err))
	}
	if runErr != nil {
		logger.Warn("run ended early", "generation", out.Generations, "error", runErr)
		return out, runErr
	}
	logger.Info("run finished", "generation", out.Generations, "best", out.FinalBestScore)
	return out, nil
}

func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, RunItem{
			RunID:          run.ID,
			CreatedAtUTC:   run.CreatedAtUTC,
			Seed:           run.Seed,
			AgentCount:     run.AgentCount,
			Generations:    run.Generations,
			FinalBestScore: run.FinalBestScore,
		})
	}
	return items, nil
}

func (c *Client) Summaries(ctx context.Context, runID string) ([]model.GenerationSummary, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	summaries, ok, err := c.store.GetSummaries(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	return summaries, nil
}

func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	if err := c.store.DeleteRun(ctx, runID); err != nil {
		return fmt.Errorf("delete %s: %w", runID, err)
	}
	return nil
}

// Export writes run.json, summaries.csv and the replayable config.yaml of a
// stored run under OutDir/<run id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	if err := c.Init(ctx); err != nil {
		return ExportSummary{}, err
	}

	runID := req.RunID
	if req.Latest {
		runs, err := c.store.ListRuns(ctx, 1)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(runs) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = runs[0].ID
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	summaries, _, err := c.store.GetSummaries(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	dir, err := stats.ExportRun(req.OutDir, run, summaries)
	if err != nil {
		return ExportSummary{}, err
	}
	if len(run.Config) > 0 {
		var cfg config.Config
		if err := json.Unmarshal(run.Config, &cfg); err != nil {
			return ExportSummary{}, fmt.Errorf("decode stored config: %w", err)
		}
		if err := cfg.WriteYAML(filepath.Join(dir, configExportFile)); err != nil {
			return ExportSummary{}, err
		}
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir)}, nil
}

// Strategies lists every strategy slot with its registered variants.
func (c *Client) Strategies() ([]StrategyFamily, error) {
	families := evo.Families()
	out := make([]StrategyFamily, 0, len(families))
	for _, slot := range families {
		variants, err := evo.Variants(slot)
		if err != nil {
			return nil, err
		}
		out = append(out, StrategyFamily{Slot: slot, Variants: variants})
	}
	return out, nil
}

func resolveConfig(req RunRequest) (*config.Config, error) {
	if req.ConfigPath != "" && req.Config != nil {
		return nil, errors.New("use either a config path or a config value")
	}
	if req.Generations < 0 {
		return nil, errors.New("generations must be >= 0")
	}

	var cfg *config.Config
	if req.Config != nil {
		copied := *req.Config
		cfg = &copied
	} else {
		var err error
		cfg, err = config.Load(req.ConfigPath)
		if err != nil {
			return nil, err
		}
	}
	if req.Generations > 0 {
		cfg.Generations = req.Generations
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
