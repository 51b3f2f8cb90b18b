// Package trend classifies the evolution of a patient's malignancy
// probability across two or more scans. Analysis is a pure function: no I/O,
// no side effects, and identical output for any permutation of the same
// records.
package trend

import (
	"fmt"
	"sort"

	"lungscreen/internal/screening/domain/model"
	sharederrors "lungscreen/internal/shared/errors"
)

// Trend is the direction of the malignancy-probability estimate.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
	TrendStable    Trend = "stable"
)

// RiskLevel is the coarse bucket derived from the latest malignancy
// probability and the trend direction.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Classification thresholds. Comparisons are strict: a change of exactly
// 0.10 is stable, a latest probability of exactly 0.7 is not high.
const (
	changeThreshold   = 0.10
	highRiskBound     = 0.7
	moderateRiskBound = 0.5
)

// millisPerMonth fixes a month at 30 days. The time span is an
// approximation, not calendar-accurate.
const millisPerMonth = 1000 * 60 * 60 * 24 * 30

// Analysis is the derived, ephemeral result. It is recomputed on demand and
// never persisted.
type Analysis struct {
	Trend          Trend     `json:"trend"`
	RiskLevel      RiskLevel `json:"risk_level"`
	TimeSpanMonths float64   `json:"time_span_months"`
	Details        string    `json:"details"`
}

// Analyze classifies the trend across a patient's scan history. At least two
// records are required; fewer is reported as ErrInsufficientData, never a
// panic. The input slice is not modified.
func Analyze(records []model.ScanRecord) (*Analysis, error) {
	if len(records) < 2 {
		return nil, sharederrors.ErrInsufficientData
	}

	sorted := make([]model.ScanRecord, len(records))
	copy(sorted, records)
	// Ties on timestamp are broken by record ID, then by malignancy
	// probability, so the outcome never depends on input order.
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Probabilities.Malignant < sorted[j].Probabilities.Malignant
	})

	first := sorted[0]
	last := sorted[len(sorted)-1]

	monthsDiff := float64(last.Timestamp.Sub(first.Timestamp).Milliseconds()) / millisPerMonth
	malignancyChange := last.Probabilities.Malignant - first.Probabilities.Malignant

	var analysis Analysis
	analysis.TimeSpanMonths = monthsDiff

	switch {
	case malignancyChange > changeThreshold:
		analysis.Trend = TrendWorsening
		if last.Probabilities.Malignant > highRiskBound {
			analysis.RiskLevel = RiskHigh
		} else {
			analysis.RiskLevel = RiskModerate
		}
		analysis.Details = fmt.Sprintf(
			"Malignancy probability increased by %.1f%% over %.1f months. Closer monitoring is advised.",
			malignancyChange*100, monthsDiff)

	case malignancyChange < -changeThreshold:
		analysis.Trend = TrendImproving
		// An improving patient who was recently above the moderate bound
		// still carries moderate risk.
		if first.Probabilities.Malignant > moderateRiskBound {
			analysis.RiskLevel = RiskModerate
		} else {
			analysis.RiskLevel = RiskLow
		}
		analysis.Details = fmt.Sprintf(
			"Malignancy probability decreased by %.1f%% over %.1f months. The condition appears to be improving.",
			-malignancyChange*100, monthsDiff)

	default:
		analysis.Trend = TrendStable
		if last.Probabilities.Malignant > moderateRiskBound {
			analysis.RiskLevel = RiskModerate
		} else {
			analysis.RiskLevel = RiskLow
		}
		analysis.Details = fmt.Sprintf(
			"Malignancy probability changed by %.1f%% over %.1f months. The condition appears stable.",
			malignancyChange*100, monthsDiff)
	}

	return &analysis, nil
}
