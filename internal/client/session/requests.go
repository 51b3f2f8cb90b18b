package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"lungscreen/internal/screening/domain/model"
	"lungscreen/internal/screening/trend"
	"lungscreen/internal/screening/usecase"
	sharederrors "lungscreen/internal/shared/errors"
)

// PredictUpload is one CT image upload with its patient metadata.
type PredictUpload struct {
	Filename    string
	Image       io.Reader
	PatientID   string
	PatientName string
	Age         string
	Gender      string
}

// Predict uploads a CT image for classification.
func (m *Manager) Predict(ctx context.Context, upload PredictUpload) (*usecase.PredictResponse, error) {
	if upload.Image == nil {
		return nil, sharederrors.NewValidationError("an image file is required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, sharederrors.NewRequestError("failed to build upload: " + err.Error())
	}
	if _, err := io.Copy(part, upload.Image); err != nil {
		return nil, sharederrors.NewRequestError("failed to read image: " + err.Error())
	}

	fields := map[string]string{
		"patient_id":   upload.PatientID,
		"patient_name": upload.PatientName,
		"age":          upload.Age,
		"gender":       upload.Gender,
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, sharederrors.NewRequestError("failed to build upload: " + err.Error())
		}
	}
	if err := writer.Close(); err != nil {
		return nil, sharederrors.NewRequestError("failed to build upload: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/predict", &body)
	if err != nil {
		return nil, sharederrors.NewRequestError("failed to build request: " + err.Error())
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	raw, err := m.doAuthenticated(req)
	if err != nil {
		return nil, err
	}

	var resp usecase.PredictResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, sharederrors.NewServerError("malformed prediction response", http.StatusOK)
	}
	return &resp, nil
}

// History fetches a patient's scan records ordered by timestamp.
func (m *Manager) History(ctx context.Context, patientID string) ([]model.ScanRecord, error) {
	if patientID == "" {
		return nil, sharederrors.NewValidationError("patient ID is required")
	}

	raw, err := m.Do(ctx, http.MethodGet, "/history/"+patientID, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Records []model.ScanRecord `json:"records"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, sharederrors.NewServerError("malformed history response", http.StatusOK)
	}
	return resp.Records, nil
}

// Trend fetches the server-side trend classification for a patient.
func (m *Manager) Trend(ctx context.Context, patientID string) (*trend.Analysis, error) {
	if patientID == "" {
		return nil, sharederrors.NewValidationError("patient ID is required")
	}

	raw, err := m.Do(ctx, http.MethodGet, "/history/"+patientID+"/trend", nil)
	if err != nil {
		return nil, err
	}

	var analysis trend.Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, sharederrors.NewServerError("malformed trend response", http.StatusOK)
	}
	return &analysis, nil
}

// AnalyzeTrendLocally runs the trend classification over records already
// fetched, without another round trip.
func (m *Manager) AnalyzeTrendLocally(records []model.ScanRecord) (*trend.Analysis, error) {
	return trend.Analyze(records)
}

// PatientRecords lists the saved records of the authenticated doctor.
func (m *Manager) PatientRecords(ctx context.Context) ([]model.PatientRecord, error) {
	raw, err := m.Do(ctx, http.MethodGet, "/api/patient-records", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Records []model.PatientRecord `json:"records"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, sharederrors.NewServerError("malformed patient records response", http.StatusOK)
	}
	return resp.Records, nil
}

// SaveRecord saves the summary row for a reviewed scan.
func (m *Manager) SaveRecord(ctx context.Context, record usecase.CreatePatientRecordRequest) (*model.PatientRecord, error) {
	raw, err := m.Do(ctx, http.MethodPost, "/api/patient-records", record)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Record *model.PatientRecord `json:"record"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Record == nil {
		return nil, sharederrors.NewServerError("malformed save response", http.StatusOK)
	}
	return resp.Record, nil
}

// GenerateReport asks the backend for a diagnostic report.
func (m *Manager) GenerateReport(ctx context.Context, req usecase.GenerateReportRequest) (*model.Report, error) {
	raw, err := m.Do(ctx, http.MethodPost, "/api/generate-report", req)
	if err != nil {
		return nil, err
	}

	var report model.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, sharederrors.NewServerError("malformed report response", http.StatusOK)
	}
	return &report, nil
}

// GetReport fetches one report by ID.
func (m *Manager) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	if reportID == "" {
		return nil, sharederrors.NewValidationError("report ID is required")
	}

	raw, err := m.Do(ctx, http.MethodGet, "/api/reports/"+reportID, nil)
	if err != nil {
		return nil, err
	}

	var report model.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, sharederrors.NewServerError("malformed report response", http.StatusOK)
	}
	return &report, nil
}

// Reports lists the reports generated by the authenticated doctor.
func (m *Manager) Reports(ctx context.Context) ([]model.Report, error) {
	raw, err := m.Do(ctx, http.MethodGet, "/api/reports", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Reports []model.Report `json:"reports"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, sharederrors.NewServerError("malformed reports response", http.StatusOK)
	}
	return resp.Reports, nil
}

// DownloadReportPDF fetches one report rendered as a PDF.
func (m *Manager) DownloadReportPDF(ctx context.Context, reportID string) ([]byte, error) {
	if reportID == "" {
		return nil, sharederrors.NewValidationError("report ID is required")
	}
	return m.Do(ctx, http.MethodGet, "/api/reports/"+reportID+"/pdf", nil)
}
