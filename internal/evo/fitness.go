package evo

import (
	"math"
	"time"

	"annlab/internal/agent"
	"annlab/internal/population"
)

// Fitness scores agents against a target vector. Lower scores are better.
type Fitness interface {
	Name() string
	ScoreAgent(a *agent.Agent, targets []float64) float64
	ScorePopulation(p *population.Population, targets []float64) ScoreSummary
}

// ScoreSummary describes one scoring pass. Best and Worst are score values,
// Lowest and Highest the agents holding them.
type ScoreSummary struct {
	Count   int
	Best    float64
	Worst   float64
	Lowest  *agent.Agent
	Highest *agent.Agent
	Start   time.Time
	End     time.Time
	Scores  []float64
}

func (s ScoreSummary) Elapsed() time.Duration {
	return s.End.Sub(s.Start)
}

// TargetDeltaFitness sums the absolute difference between each target and the
// matching agent output.
type TargetDeltaFitness struct{}

func (TargetDeltaFitness) Name() string {
	return "target_delta"
}

func (TargetDeltaFitness) ScoreAgent(a *agent.Agent, targets []float64) float64 {
	outputs := a.Outputs()
	n := min(len(outputs), len(targets))
	score := 0.0
	for i := 0; i < n; i++ {
		score += math.Abs(targets[i] - outputs[i])
	}
	a.LastScore = score
	return score
}

func (f TargetDeltaFitness) ScorePopulation(p *population.Population, targets []float64) ScoreSummary {
	summary := ScoreSummary{
		Start:  time.Now(),
		Best:   math.Inf(1),
		Worst:  math.Inf(-1),
		Scores: make([]float64, 0, p.Len()),
	}
	for a := range p.Values() {
		score := f.ScoreAgent(a, targets)
		summary.Scores = append(summary.Scores, score)
		summary.Count++
		if score < summary.Best {
			summary.Best = score
			summary.Lowest = a
		}
		if score > summary.Worst {
			summary.Worst = score
			summary.Highest = a
		}
	}
	if summary.Count == 0 {
		summary.Best, summary.Worst = 0, 0
	}
	summary.End = time.Now()
	return summary
}

func newTargetDeltaFitness(Criteria) (Fitness, error) {
	return TargetDeltaFitness{}, nil
}
