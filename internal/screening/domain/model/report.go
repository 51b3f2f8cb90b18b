package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is a generated diagnostic report. Reports are derived from a scan's
// classification plus templated clinical guidance and are immutable once
// stored.
type Report struct {
	ObjectID primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ReportID string             `json:"report_id" bson:"report_id"`
	UserID   string             `json:"user_id" bson:"user_id"`

	PatientName string  `json:"patient_name" bson:"patient_name"`
	Age         string  `json:"age" bson:"age"`
	Gender      string  `json:"gender" bson:"gender"`
	ScanDate    string  `json:"scan_date" bson:"scan_date"`
	Prediction  string  `json:"prediction" bson:"prediction"`
	Probability float64 `json:"probability" bson:"probability"`

	RiskLevel       RiskLevel `json:"risk_level" bson:"risk_level"`
	ReportDate      string    `json:"report_date" bson:"report_date"`
	DoctorNotes     []string  `json:"doctor_notes" bson:"doctor_notes"`
	Recommendations []string  `json:"recommendations" bson:"recommendations"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// DoctorNotesFor returns the templated clinical notes for a risk level.
func DoctorNotesFor(riskLevel RiskLevel) []string {
	switch riskLevel {
	case RiskHigh:
		return []string{
			"High probability of lung cancer detected.",
			"Immediate consultation with an oncologist is recommended.",
			"Further diagnostic tests may be required.",
		}
	case RiskModerate:
		return []string{
			"Moderate probability of lung cancer detected.",
			"Regular follow-up and monitoring recommended.",
			"Consider lifestyle changes and regular check-ups.",
		}
	default:
		return []string{
			"Low probability of lung cancer detected.",
			"Regular screening recommended for early detection.",
			"Maintain healthy lifestyle habits.",
		}
	}
}

// RecommendationsFor returns the templated follow-up actions for a risk level.
func RecommendationsFor(riskLevel RiskLevel) []string {
	switch riskLevel {
	case RiskHigh:
		return []string{
			"Schedule an appointment with an oncologist immediately.",
			"Consider getting a biopsy for confirmation.",
			"Avoid smoking and exposure to secondhand smoke.",
			"Maintain a healthy diet and exercise routine.",
		}
	case RiskModerate:
		return []string{
			"Schedule a follow-up scan in 3-6 months.",
			"Consult with a pulmonologist for further evaluation.",
			"Quit smoking if applicable.",
			"Monitor for any respiratory symptoms.",
		}
	default:
		return []string{
			"Regular annual screening recommended.",
			"Maintain a healthy lifestyle.",
			"Avoid exposure to environmental pollutants.",
			"Stay vigilant for any respiratory symptoms.",
		}
	}
}
