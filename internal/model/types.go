package model

import (
	"encoding/json"
	"log/slog"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version" csv:"-"`
	CodecVersion  int `json:"codec_version" csv:"-"`
}

// GenerationSummary is emitted once per completed batch.
type GenerationSummary struct {
	VersionedRecord
	GenerationIndex    int     `json:"generation_index" csv:"generation"`
	BestScore          float64 `json:"best_score" csv:"best_score"`
	WorstScore         float64 `json:"worst_score" csv:"worst_score"`
	MeanScore          float64 `json:"mean_score" csv:"mean_score"`
	StdDevScore        float64 `json:"stddev_score" csv:"stddev_score"`
	PopulationSize     int     `json:"population_size" csv:"population_size"`
	ElapsedMillis      int64   `json:"elapsed_ms" csv:"elapsed_ms"`
	TotalMutationCount int     `json:"total_mutation_count" csv:"mutations"`
	EliteCount         int     `json:"elite_count" csv:"elites"`
	PairCount          int     `json:"pair_count" csv:"pairs"`
	OffspringCount     int     `json:"offspring_count" csv:"offspring"`
}

func (s GenerationSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.GenerationIndex),
		slog.Float64("best", s.BestScore),
		slog.Float64("worst", s.WorstScore),
		slog.Float64("mean", s.MeanScore),
		slog.Int("population", s.PopulationSize),
		slog.Int64("elapsed_ms", s.ElapsedMillis),
		slog.Int("mutations", s.TotalMutationCount),
	)
}

// RunRecord is the stored metadata of one evolution run.
type RunRecord struct {
	VersionedRecord
	ID             string            `json:"id"`
	CreatedAtUTC   string            `json:"created_at_utc"`
	Seed           int64             `json:"seed"`
	AgentCount     int               `json:"agent_count"`
	Generations    int               `json:"generations"`
	Strategies     map[string]string `json:"strategies,omitempty"`
	Config         json.RawMessage   `json:"config,omitempty"`
	FinalBestScore float64           `json:"final_best_score"`
}
