package storage

import (
	"context"
	"errors"
	"testing"

	"annlab/internal/model"
)

func testRun(id, created string) model.RunRecord {
	run := model.RunRecord{
		ID:           id,
		CreatedAtUTC: created,
		Seed:         7,
		AgentCount:   20,
		Generations:  3,
		Strategies:   map[string]string{"culling": "lower_bounds"},
		Config:       []byte(`{"agent_count":20}`),
	}
	Stamp(&run.VersionedRecord)
	return run
}

func testSummary(generation int, best float64) model.GenerationSummary {
	s := model.GenerationSummary{GenerationIndex: generation, BestScore: best, PopulationSize: 20}
	Stamp(&s.VersionedRecord)
	return s
}

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%v err=%v", ok, err)
	}
	if err := store.AppendSummaries(ctx, "missing", []model.GenerationSummary{testSummary(1, 0)}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got: %v", err)
	}

	older := testRun("run-a", "2026-01-01T00:00:00Z")
	newer := testRun("run-b", "2026-01-02T00:00:00Z")
	for _, run := range []model.RunRecord{older, newer} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	got, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got.Seed != 7 || got.Strategies["culling"] != "lower_bounds" || string(got.Config) != `{"agent_count":20}` {
		t.Fatalf("unexpected run: %+v", got)
	}

	older.FinalBestScore = 0.25
	if err := store.SaveRun(ctx, older); err != nil {
		t.Fatalf("update run: %v", err)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-b" || runs[1].FinalBestScore != 0.25 {
		t.Fatalf("unexpected run list: %+v", runs)
	}
	if runs, err := store.ListRuns(ctx, 1); err != nil || len(runs) != 1 || runs[0].ID != "run-b" {
		t.Fatalf("unexpected limited list: %+v err=%v", runs, err)
	}

	if err := store.AppendSummaries(ctx, "run-a", []model.GenerationSummary{testSummary(2, 0.4), testSummary(1, 0.5)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.AppendSummaries(ctx, "run-a", []model.GenerationSummary{testSummary(2, 0.3), testSummary(3, 0.2)}); err != nil {
		t.Fatalf("append again: %v", err)
	}
	summaries, ok, err := store.GetSummaries(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get summaries: ok=%v err=%v", ok, err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %+v", summaries)
	}
	for i, want := range []float64{0.5, 0.3, 0.2} {
		if summaries[i].GenerationIndex != i+1 || summaries[i].BestScore != want {
			t.Fatalf("summary %d: %+v", i, summaries[i])
		}
	}
	if summaries, ok, err := store.GetSummaries(ctx, "run-b"); err != nil || !ok || len(summaries) != 0 {
		t.Fatalf("expected empty summaries for run-b: %+v ok=%v err=%v", summaries, ok, err)
	}

	if err := store.DeleteRun(ctx, "run-a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteRun(ctx, "run-a"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound on second delete, got: %v", err)
	}
	if _, ok, err := store.GetSummaries(ctx, "run-a"); err != nil || ok {
		t.Fatalf("expected summaries gone, ok=%v err=%v", ok, err)
	}
}
