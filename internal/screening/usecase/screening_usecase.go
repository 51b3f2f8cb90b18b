package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"lungscreen/internal/screening/domain/model"
	"lungscreen/internal/screening/domain/repository"
	"lungscreen/internal/screening/trend"
	sharederrors "lungscreen/internal/shared/errors"
	"lungscreen/internal/shared/eventbus"
	"lungscreen/internal/shared/logger"
	"lungscreen/internal/shared/utils"

	"github.com/google/uuid"
)

// ScreeningUsecaseInterface defines the contract for the screening workflow:
// classification, history, trend analysis, saved records and reports.
type ScreeningUsecaseInterface interface {
	Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error)
	GetScanHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, error)
	AnalyzeTrend(ctx context.Context, userID, patientID string) (*trend.Analysis, error)
	CreatePatientRecord(ctx context.Context, userID string, req CreatePatientRecordRequest) (*model.PatientRecord, error)
	ListPatientRecords(ctx context.Context, userID string) ([]model.PatientRecord, error)
	GenerateReport(ctx context.Context, userID string, req GenerateReportRequest) (*model.Report, error)
	ListReports(ctx context.Context, userID string) ([]model.Report, error)
	GetReport(ctx context.Context, userID, reportID string) (*model.Report, error)
	RenderReportPDF(ctx context.Context, userID, reportID string) ([]byte, error)
}

// ReportRenderer turns a stored report into a downloadable document.
type ReportRenderer interface {
	RenderPDF(report *model.Report) ([]byte, error)
}

// PredictRequest carries one uploaded CT image. PatientID is optional: when
// present the resulting classification is appended to that patient's history.
type PredictRequest struct {
	Filename    string
	Image       io.Reader
	PatientID   string
	PatientName string
	Age         string
	Gender      string
}

// PredictResponse mirrors the classifier output plus the record ID when the
// result was appended to a history.
type PredictResponse struct {
	PredictedClass model.Diagnosis     `json:"predicted_class"`
	Confidence     float64             `json:"confidence"`
	Probabilities  model.Probabilities `json:"probabilities"`
	RecordID       string              `json:"record_id,omitempty"`
}

// CreatePatientRecordRequest is the explicit "save" action after a scan has
// been reviewed.
type CreatePatientRecordRequest struct {
	PatientName string  `json:"patient_name"`
	Age         string  `json:"age"`
	Gender      string  `json:"gender"`
	ScanDate    string  `json:"scan_date"`
	Prediction  string  `json:"prediction"`
	Probability float64 `json:"probability"`
}

// GenerateReportRequest asks for a diagnostic report from a reviewed scan.
type GenerateReportRequest struct {
	PatientName string  `json:"patient_name"`
	Age         string  `json:"age"`
	Gender      string  `json:"gender"`
	ScanDate    string  `json:"scan_date"`
	Prediction  string  `json:"prediction"`
	Probability float64 `json:"probability"`
}

// ScreeningUsecase implements the screening workflow on top of the
// persistence, cache and inference ports.
type ScreeningUsecase struct {
	scanRepo    repository.ScanRecordRepository
	patientRepo repository.PatientRecordRepository
	reportRepo  repository.ReportRepository
	inference   repository.InferenceClient
	cache       repository.HistoryCache
	renderer    ReportRenderer
	events      eventbus.EventBusInterface
	log         logger.Logger
}

// NewScreeningUsecase creates a new instance of ScreeningUsecase.
func NewScreeningUsecase(
	scanRepo repository.ScanRecordRepository,
	patientRepo repository.PatientRecordRepository,
	reportRepo repository.ReportRepository,
	inference repository.InferenceClient,
	cache repository.HistoryCache,
	renderer ReportRenderer,
	events eventbus.EventBusInterface,
	log logger.Logger,
) *ScreeningUsecase {
	return &ScreeningUsecase{
		scanRepo:    scanRepo,
		patientRepo: patientRepo,
		reportRepo:  reportRepo,
		inference:   inference,
		cache:       cache,
		renderer:    renderer,
		events:      events,
		log:         log.WithComponent("screening.usecase"),
	}
}

// Predict sends the image to the classifier and, when a patient ID is
// supplied, appends the result to that patient's scan history.
func (uc *ScreeningUsecase) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if req.Image == nil {
		return nil, sharederrors.ErrNoImageUploaded
	}

	prediction, err := uc.inference.Classify(ctx, req.Filename, req.Image)
	if err != nil {
		uc.log.WithFields(map[string]interface{}{"error": err}).Error("Classification failed")
		return nil, fmt.Errorf("failed to classify image: %w", err)
	}

	resp := &PredictResponse{
		PredictedClass: prediction.PredictedClass,
		Confidence:     prediction.Confidence,
		Probabilities:  prediction.Probabilities,
	}

	if req.PatientID == "" {
		return resp, nil
	}

	userID, err := utils.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, sharederrors.NewValidationError("authenticated user is required to record history")
	}

	record := &model.ScanRecord{
		ID:            uuid.New().String(),
		UserID:        userID,
		PatientID:     req.PatientID,
		Timestamp:     time.Now().UTC(),
		Diagnosis:     prediction.PredictedClass,
		Confidence:    prediction.Confidence,
		Probabilities: prediction.Probabilities,
		ImageName:     req.Filename,
		CreatedAt:     time.Now().UTC(),
	}
	if err := record.ValidateFields(); err != nil {
		return nil, sharederrors.NewValidationError(err.Error())
	}
	if err := uc.scanRepo.AppendScanRecord(ctx, record); err != nil {
		uc.log.WithFields(map[string]interface{}{
			"patient_id": req.PatientID,
			"error":      err,
		}).Error("Failed to append scan record")
		return nil, fmt.Errorf("failed to append scan record: %w", err)
	}

	resp.RecordID = record.ID
	uc.publish(ctx, eventbus.EventRecordAppended, map[string]interface{}{
		"record_id":  record.ID,
		"patient_id": record.PatientID,
		"user_id":    record.UserID,
	})

	uc.log.WithFields(map[string]interface{}{
		"patient_id": req.PatientID,
		"record_id":  record.ID,
		"diagnosis":  record.Diagnosis,
	}).Info("Scan record appended")

	return resp, nil
}

// GetScanHistory returns a patient's scan history, reading through the cache.
// Cache failures degrade to the repository instead of failing the request.
func (uc *ScreeningUsecase) GetScanHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, error) {
	if patientID == "" {
		return nil, sharederrors.NewValidationError("patient ID is required")
	}

	if uc.cache != nil {
		records, hit, err := uc.cache.GetHistory(ctx, userID, patientID)
		if err != nil {
			uc.log.WithFields(map[string]interface{}{"error": err}).Warn("History cache read failed")
		} else if hit {
			return records, nil
		}
	}

	records, err := uc.scanRepo.GetScanHistory(ctx, userID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.SetHistory(ctx, userID, patientID, records); err != nil {
			uc.log.WithFields(map[string]interface{}{"error": err}).Warn("History cache write failed")
		}
	}
	return records, nil
}

// AnalyzeTrend classifies the evolution of a patient's malignancy probability
// across their scan history.
func (uc *ScreeningUsecase) AnalyzeTrend(ctx context.Context, userID, patientID string) (*trend.Analysis, error) {
	records, err := uc.GetScanHistory(ctx, userID, patientID)
	if err != nil {
		return nil, err
	}
	return trend.Analyze(records)
}

// CreatePatientRecord saves the summary row for a reviewed scan.
func (uc *ScreeningUsecase) CreatePatientRecord(ctx context.Context, userID string, req CreatePatientRecordRequest) (*model.PatientRecord, error) {
	record := &model.PatientRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		PatientName: req.PatientName,
		Age:         req.Age,
		Gender:      req.Gender,
		ScanDate:    req.ScanDate,
		Prediction:  req.Prediction,
		Probability: req.Probability,
		RiskLevel:   model.RiskLevelFromProbability(req.Probability),
	}
	if err := record.ValidateFields(); err != nil {
		return nil, sharederrors.NewValidationError(err.Error())
	}

	if err := uc.patientRepo.CreatePatientRecord(ctx, record); err != nil {
		uc.log.WithFields(map[string]interface{}{"error": err}).Error("Failed to save patient record")
		return nil, fmt.Errorf("failed to save patient record: %w", err)
	}

	uc.log.WithFields(map[string]interface{}{
		"record_id":    record.ID,
		"patient_name": record.PatientName,
	}).Info("Patient record saved")
	return record, nil
}

// ListPatientRecords returns all saved records for the authenticated doctor.
func (uc *ScreeningUsecase) ListPatientRecords(ctx context.Context, userID string) ([]model.PatientRecord, error) {
	records, err := uc.patientRepo.ListPatientRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient records: %w", err)
	}
	return records, nil
}

// GenerateReport derives a diagnostic report from a reviewed scan: risk
// bucketing plus templated clinical notes and recommendations.
func (uc *ScreeningUsecase) GenerateReport(ctx context.Context, userID string, req GenerateReportRequest) (*model.Report, error) {
	if req.PatientName == "" || req.Prediction == "" {
		return nil, sharederrors.NewValidationError("patient_name and prediction are required")
	}

	riskLevel := model.RiskLevelFromProbability(req.Probability)
	now := time.Now().UTC()

	report := &model.Report{
		ReportID:        uuid.New().String(),
		UserID:          userID,
		PatientName:     req.PatientName,
		Age:             req.Age,
		Gender:          req.Gender,
		ScanDate:        req.ScanDate,
		Prediction:      req.Prediction,
		Probability:     req.Probability,
		RiskLevel:       riskLevel,
		ReportDate:      now.Format("2006-01-02 15:04:05"),
		DoctorNotes:     model.DoctorNotesFor(riskLevel),
		Recommendations: model.RecommendationsFor(riskLevel),
		CreatedAt:       now,
	}

	if err := uc.reportRepo.CreateReport(ctx, report); err != nil {
		uc.log.WithFields(map[string]interface{}{"error": err}).Error("Failed to store report")
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	uc.publish(ctx, eventbus.EventReportGenerated, map[string]interface{}{
		"report_id": report.ReportID,
		"user_id":   userID,
	})

	uc.log.WithFields(map[string]interface{}{
		"report_id":  report.ReportID,
		"risk_level": report.RiskLevel,
	}).Info("Report generated")
	return report, nil
}

// ListReports returns all reports generated by the authenticated doctor.
func (uc *ScreeningUsecase) ListReports(ctx context.Context, userID string) ([]model.Report, error) {
	reports, err := uc.reportRepo.ListReports(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// GetReport fetches a single report by ID.
func (uc *ScreeningUsecase) GetReport(ctx context.Context, userID, reportID string) (*model.Report, error) {
	report, err := uc.reportRepo.GetReport(ctx, userID, reportID)
	if err != nil {
		if errors.Is(err, sharederrors.ErrReportNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return report, nil
}

// RenderReportPDF renders a stored report as a PDF document.
func (uc *ScreeningUsecase) RenderReportPDF(ctx context.Context, userID, reportID string) ([]byte, error) {
	report, err := uc.GetReport(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}
	data, err := uc.renderer.RenderPDF(report)
	if err != nil {
		uc.log.WithFields(map[string]interface{}{"error": err}).Error("Failed to render report PDF")
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return data, nil
}

func (uc *ScreeningUsecase) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, eventbus.NewBasicEvent(eventType, payload)); err != nil {
		uc.log.WithFields(map[string]interface{}{
			"event": eventType,
			"error": err,
		}).Warn("Event publish failed")
	}
}
