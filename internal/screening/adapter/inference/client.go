// Package inference is the HTTP client for the external CNN classifier
// service. The classifier accepts a multipart-encoded CT image and returns a
// three-class prediction.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"lungscreen/internal/screening/domain/model"
	"lungscreen/internal/screening/domain/repository"
	sharederrors "lungscreen/internal/shared/errors"
)

const defaultTimeout = 60 * time.Second

// Client calls the classifier's /predict endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a classifier client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithHTTPClient creates a classifier client with a caller-supplied
// http.Client, used by tests.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type predictResponse struct {
	PredictedClass string  `json:"predicted_class"`
	Confidence     float64 `json:"confidence"`
	Probabilities  struct {
		Normal    float64 `json:"normal"`
		Benign    float64 `json:"benign"`
		Malignant float64 `json:"malignant"`
	} `json:"probabilities"`
	Message string `json:"message"`
}

// Classify uploads one image and returns the classifier's prediction.
func (c *Client) Classify(ctx context.Context, filename string, image io.Reader) (*repository.Prediction, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}

	var parsed predictResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("malformed classifier response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := parsed.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, sharederrors.NewServerError(message, resp.StatusCode)
	}

	diagnosis, err := model.ParseDiagnosis(parsed.PredictedClass)
	if err != nil {
		return nil, fmt.Errorf("malformed classifier response: %w", err)
	}

	return &repository.Prediction{
		PredictedClass: diagnosis,
		Confidence:     parsed.Confidence,
		Probabilities: model.Probabilities{
			Normal:    parsed.Probabilities.Normal,
			Benign:    parsed.Probabilities.Benign,
			Malignant: parsed.Probabilities.Malignant,
		},
	}, nil
}
