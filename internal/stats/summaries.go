package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"annlab/internal/model"
)

// WriteSummariesCSV writes summaries with a header row.
func WriteSummariesCSV(w io.Writer, summaries []model.GenerationSummary) error {
	if summaries == nil {
		summaries = []model.GenerationSummary{}
	}
	if err := gocsv.Marshal(summaries, w); err != nil {
		return fmt.Errorf("writing summaries: %w", err)
	}
	return nil
}

func ReadSummariesCSV(r io.Reader) ([]model.GenerationSummary, error) {
	var out []model.GenerationSummary
	if err := gocsv.Unmarshal(r, &out); err != nil {
		return nil, fmt.Errorf("reading summaries: %w", err)
	}
	return out, nil
}

// SummaryLog appends summaries to a CSV file as they are produced. The header
// is written with the first row.
type SummaryLog struct {
	f             *os.File
	headerWritten bool
}

func CreateSummaryLog(path string) (*SummaryLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating summary dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &SummaryLog{f: f}, nil
}

func (l *SummaryLog) Write(summary model.GenerationSummary) error {
	if l == nil {
		return nil
	}
	records := []model.GenerationSummary{summary}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.f); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.f); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

func (l *SummaryLog) Close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}
