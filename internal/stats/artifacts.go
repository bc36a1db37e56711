package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"annlab/internal/model"
)

const (
	RunFile       = "run.json"
	SummariesFile = "summaries.csv"
)

// ExportRun writes a run's metadata and summaries under outDir/<run id> and
// returns that directory.
func ExportRun(outDir string, run model.RunRecord, summaries []model.GenerationSummary) (string, error) {
	if run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	dst := filepath.Join(outDir, run.ID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dst, RunFile), run); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dst, SummariesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteSummariesCSV(f, summaries); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", err
	}
	return dst, nil
}

// ReadExportedRun loads a directory written by ExportRun.
func ReadExportedRun(dir string) (model.RunRecord, []model.GenerationSummary, error) {
	data, err := os.ReadFile(filepath.Join(dir, RunFile))
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, nil, fmt.Errorf("decode %s: %w", RunFile, err)
	}

	f, err := os.Open(filepath.Join(dir, SummariesFile))
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	defer f.Close()
	summaries, err := ReadSummariesCSV(f)
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	return run, summaries, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
