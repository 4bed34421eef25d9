package metrics

import (
	"math"
	"time"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Common metric names
const (
	MetricRoundCount       = "round_count"
	MetricRoundDurationMs  = "round_duration_ms"
	MetricRoundLoss        = "round_loss"
	MetricRoundMinDistance = "round_min_distance"
)

// Campaign phases used as the "phase" label
const (
	PhaseInitial = "initial"
	PhaseGuided  = "guided"
)

// RoundLabels creates a labels map for one executed round
func RoundLabels(phase string, result models.ResultKind) map[string]string {
	return map[string]string{
		"phase":  phase,
		"result": string(result),
	}
}

// RecordRound records the metrics of one executor invocation. Infinite losses
// and distances are counted but not aggregated.
func RecordRound(collector *Collector, phase string, seed *models.Seed, took time.Duration) {
	labels := RoundLabels(phase, seed.Result())
	now := time.Now()
	collector.Record(MetricRoundCount, 1, now, labels)
	collector.Record(MetricRoundDurationMs, float64(took.Microseconds())/1000, now, labels)
	if seed.Outcome == nil {
		return
	}
	if v := seed.Outcome.Loss.Value(); !math.IsInf(v, 0) {
		collector.Record(MetricRoundLoss, v, now, labels)
	}
	if v := seed.Outcome.MinDistance.Value; !math.IsInf(v, 0) {
		collector.Record(MetricRoundMinDistance, v, now, labels)
	}
}

// CampaignStats summarises the rounds recorded so far
type CampaignStats struct {
	Executions    int64                       `json:"executions"`
	ByResult      map[models.ResultKind]int64 `json:"by_result"`
	ByPhase       map[string]int64            `json:"by_phase"`
	BestLoss      *float64                    `json:"best_loss,omitempty"`
	RoundMeanMs   float64                     `json:"round_mean_ms"`
	RoundP95Ms    float64                     `json:"round_p95_ms"`
	Elapsed       time.Duration               `json:"elapsed_ns"`
	RoundsPerHour float64                     `json:"rounds_per_hour"`
}

// ConvertToCampaignStats converts collector metrics to CampaignStats format
func ConvertToCampaignStats(collector *Collector) *CampaignStats {
	stats := &CampaignStats{
		ByResult: make(map[models.ResultKind]int64),
		ByPhase:  make(map[string]int64),
		Elapsed:  collector.Elapsed(),
	}

	for _, phase := range []string{PhaseInitial, PhaseGuided} {
		for _, result := range models.ResultKinds {
			n := int64(collector.Count(MetricRoundCount, RoundLabels(phase, result)))
			stats.ByResult[result] += n
			stats.ByPhase[phase] += n
			stats.Executions += n
		}
	}

	if agg := collector.GetAggregation(MetricRoundLoss); agg != nil {
		best := agg.Min
		stats.BestLoss = &best
	}
	if agg := collector.GetAggregation(MetricRoundDurationMs); agg != nil {
		stats.RoundMeanMs = agg.Mean
		stats.RoundP95Ms = agg.P95
	}
	if hours := stats.Elapsed.Hours(); hours > 0 {
		stats.RoundsPerHour = float64(stats.Executions) / hours
	}
	return stats
}
