package storage

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"annlab/internal/model"
)

type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]memoryRun
	summaries map[string]map[int]model.GenerationSummary
	seq       int
}

type memoryRun struct {
	record model.RunRecord
	seq    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		s.runs = make(map[string]memoryRun)
	}
	if s.summaries == nil {
		s.summaries = make(map[string]map[int]model.GenerationSummary)
	}
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		return errNotInitialized
	}
	seq := s.seq
	if existing, ok := s.runs[run.ID]; ok {
		seq = existing.seq
	} else {
		s.seq++
	}
	s.runs[run.ID] = memoryRun{record: copyRun(run), seq: seq}
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return copyRun(run.record), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := slices.Collect(maps.Values(s.runs))
	slices.SortFunc(runs, func(a, b memoryRun) int {
		if c := cmp.Compare(b.record.CreatedAtUTC, a.record.CreatedAtUTC); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	out := make([]model.RunRecord, len(runs))
	for i, run := range runs {
		out[i] = copyRun(run.record)
	}
	return out, nil
}

func (s *MemoryStore) AppendSummaries(_ context.Context, runID string, summaries []model.GenerationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return ErrRunNotFound
	}
	stored := s.summaries[runID]
	if stored == nil {
		stored = make(map[int]model.GenerationSummary, len(summaries))
		s.summaries[runID] = stored
	}
	for _, summary := range summaries {
		stored[summary.GenerationIndex] = summary
	}
	return nil
}

func (s *MemoryStore) GetSummaries(_ context.Context, runID string) ([]model.GenerationSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, false, nil
	}
	out := slices.Collect(maps.Values(s.summaries[runID]))
	slices.SortFunc(out, func(a, b model.GenerationSummary) int {
		return cmp.Compare(a.GenerationIndex, b.GenerationIndex)
	})
	return out, true, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(s.runs, id)
	delete(s.summaries, id)
	return nil
}

func copyRun(run model.RunRecord) model.RunRecord {
	run.Strategies = maps.Clone(run.Strategies)
	run.Config = slices.Clone(run.Config)
	return run
}
