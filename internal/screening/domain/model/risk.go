package model

// RiskLevel is the coarse bucket derived from malignancy probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low Risk"
	RiskModerate RiskLevel = "Moderate Risk"
	RiskHigh     RiskLevel = "High Risk"
)

// Single-scan risk bucketing thresholds.
const (
	lowRiskUpperBound      = 0.3
	moderateRiskUpperBound = 0.7
)

// RiskLevelFromProbability buckets a malignancy probability into the risk
// level shown to clinicians.
func RiskLevelFromProbability(probability float64) RiskLevel {
	switch {
	case probability < lowRiskUpperBound:
		return RiskLow
	case probability < moderateRiskUpperBound:
		return RiskModerate
	default:
		return RiskHigh
	}
}
