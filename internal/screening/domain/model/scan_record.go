package model

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Diagnosis is the class predicted by the external classifier.
type Diagnosis string

const (
	DiagnosisNormal    Diagnosis = "Normal"
	DiagnosisBenign    Diagnosis = "Benign"
	DiagnosisMalignant Diagnosis = "Malignant"
)

// ParseDiagnosis normalizes a classifier label. Unknown labels are an error
// rather than a silent passthrough: the record store only holds the three
// known classes.
func ParseDiagnosis(label string) (Diagnosis, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "normal":
		return DiagnosisNormal, nil
	case "benign":
		return DiagnosisBenign, nil
	case "malignant":
		return DiagnosisMalignant, nil
	default:
		return "", errors.New("unknown diagnosis label: " + label)
	}
}

// Probabilities holds the classifier's per-class probabilities. They are
// produced by the external model and assumed, not enforced, to sum to 1.
type Probabilities struct {
	Normal    float64 `json:"normal" bson:"normal"`
	Benign    float64 `json:"benign" bson:"benign"`
	Malignant float64 `json:"malignant" bson:"malignant"`
}

// ScanRecord is one analyzed CT image. Records are immutable once created:
// the client only ever appends to a patient's history.
type ScanRecord struct {
	ID        string             `json:"id" bson:"id,omitempty"`
	ObjectID  primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	PatientID string             `json:"patient_id" bson:"patient_id"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`

	Diagnosis     Diagnosis     `json:"predicted_class" bson:"predicted_class"`
	Confidence    float64       `json:"confidence" bson:"confidence"`
	Probabilities Probabilities `json:"probabilities" bson:"probabilities"`

	ImageName string    `json:"image_name,omitempty" bson:"image_name,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ValidateFields checks structural invariants before persistence.
func (r *ScanRecord) ValidateFields() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("patient ID is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user ID is required")
	}
	if r.Diagnosis != DiagnosisNormal && r.Diagnosis != DiagnosisBenign && r.Diagnosis != DiagnosisMalignant {
		return errors.New("diagnosis must be Normal, Benign or Malignant")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errors.New("confidence must be within [0, 1]")
	}
	return nil
}
