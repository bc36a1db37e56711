package storage

import (
	"context"
	"errors"

	"annlab/internal/model"
)

var (
	ErrRunNotFound    = errors.New("run not found")
	errNotInitialized = errors.New("store is not initialized")
)

// Store persists run metadata and the per-generation summaries of each run.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns the newest runs first. A limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	// AppendSummaries adds summaries to a saved run, replacing any already
	// stored for the same generation index.
	AppendSummaries(ctx context.Context, runID string, summaries []model.GenerationSummary) error
	GetSummaries(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error)
	DeleteRun(ctx context.Context, id string) error
}
