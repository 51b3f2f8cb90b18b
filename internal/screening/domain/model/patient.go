package model

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PatientRecord is the summary row a doctor saves after reviewing a scan.
// Saving is an explicit action; prediction alone does not create one.
type PatientRecord struct {
	ID       string             `json:"id" bson:"id,omitempty"`
	ObjectID primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID   string             `json:"user_id" bson:"user_id"`

	PatientName string    `json:"patient_name" bson:"patient_name"`
	Age         string    `json:"age" bson:"age"`
	Gender      string    `json:"gender" bson:"gender"`
	ScanDate    string    `json:"scan_date" bson:"scan_date"`
	Prediction  string    `json:"prediction" bson:"prediction"`
	Probability float64   `json:"probability" bson:"probability"`
	RiskLevel   RiskLevel `json:"risk_level" bson:"risk_level"`
}

// ValidateFields checks the fields the record store requires.
func (p *PatientRecord) ValidateFields() error {
	switch {
	case strings.TrimSpace(p.PatientName) == "":
		return errors.New("patient_name is required")
	case strings.TrimSpace(p.Age) == "":
		return errors.New("age is required")
	case strings.TrimSpace(p.Gender) == "":
		return errors.New("gender is required")
	case strings.TrimSpace(p.ScanDate) == "":
		return errors.New("scan_date is required")
	case strings.TrimSpace(p.Prediction) == "":
		return errors.New("prediction is required")
	case p.RiskLevel == "":
		return errors.New("risk_level is required")
	}
	return nil
}
