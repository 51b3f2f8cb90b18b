package repository

import (
	"context"
	"io"

	"lungscreen/internal/screening/domain/model"
)

// Prediction is the classifier output for a single CT image.
type Prediction struct {
	PredictedClass model.Diagnosis     `json:"predicted_class"`
	Confidence     float64             `json:"confidence"`
	Probabilities  model.Probabilities `json:"probabilities"`
}

// InferenceClient calls the external CNN classifier. The usecase layer treats
// the model as an opaque service: one image in, one three-class prediction
// out.
type InferenceClient interface {
	Classify(ctx context.Context, filename string, image io.Reader) (*Prediction, error)
}
