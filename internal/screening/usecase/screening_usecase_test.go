package usecase_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"lungscreen/internal/screening/domain/model"
	"lungscreen/internal/screening/domain/repository"
	"lungscreen/internal/screening/trend"
	"lungscreen/internal/screening/usecase"
	sharederrors "lungscreen/internal/shared/errors"
	"lungscreen/internal/shared/logger"
	"lungscreen/internal/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockScanRepo struct {
	mock.Mock
}

func (m *mockScanRepo) AppendScanRecord(ctx context.Context, record *model.ScanRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockScanRepo) GetScanHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, error) {
	args := m.Called(ctx, userID, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScanRecord), args.Error(1)
}

type mockPatientRepo struct {
	mock.Mock
}

func (m *mockPatientRepo) CreatePatientRecord(ctx context.Context, record *model.PatientRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockPatientRepo) ListPatientRecords(ctx context.Context, userID string) ([]model.PatientRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PatientRecord), args.Error(1)
}

func (m *mockPatientRepo) GetPatientRecord(ctx context.Context, userID, recordID string) (*model.PatientRecord, error) {
	args := m.Called(ctx, userID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientRecord), args.Error(1)
}

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) CreateReport(ctx context.Context, report *model.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *mockReportRepo) ListReports(ctx context.Context, userID string) ([]model.Report, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

func (m *mockReportRepo) GetReport(ctx context.Context, userID, reportID string) (*model.Report, error) {
	args := m.Called(ctx, userID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

type mockInferenceClient struct {
	mock.Mock
}

func (m *mockInferenceClient) Classify(ctx context.Context, filename string, image io.Reader) (*repository.Prediction, error) {
	args := m.Called(ctx, filename, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Prediction), args.Error(1)
}

type mockHistoryCache struct {
	mock.Mock
}

func (m *mockHistoryCache) GetHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, bool, error) {
	args := m.Called(ctx, userID, patientID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.ScanRecord), args.Bool(1), args.Error(2)
}

func (m *mockHistoryCache) SetHistory(ctx context.Context, userID, patientID string, records []model.ScanRecord) error {
	args := m.Called(ctx, userID, patientID, records)
	return args.Error(0)
}

func (m *mockHistoryCache) InvalidateHistory(ctx context.Context, userID, patientID string) error {
	args := m.Called(ctx, userID, patientID)
	return args.Error(0)
}

type mockReportRenderer struct {
	mock.Mock
}

func (m *mockReportRenderer) RenderPDF(report *model.Report) ([]byte, error) {
	args := m.Called(report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type ScreeningUsecaseTestSuite struct {
	suite.Suite
	scanRepo    *mockScanRepo
	patientRepo *mockPatientRepo
	reportRepo  *mockReportRepo
	inference   *mockInferenceClient
	cache       *mockHistoryCache
	renderer    *mockReportRenderer
	usecase     *usecase.ScreeningUsecase
}

func (suite *ScreeningUsecaseTestSuite) SetupTest() {
	suite.scanRepo = &mockScanRepo{}
	suite.patientRepo = &mockPatientRepo{}
	suite.reportRepo = &mockReportRepo{}
	suite.inference = &mockInferenceClient{}
	suite.cache = &mockHistoryCache{}
	suite.renderer = &mockReportRenderer{}

	suite.usecase = usecase.NewScreeningUsecase(
		suite.scanRepo,
		suite.patientRepo,
		suite.reportRepo,
		suite.inference,
		suite.cache,
		suite.renderer,
		nil,
		logger.NewTestLogger(),
	)
}

func (suite *ScreeningUsecaseTestSuite) authedCtx() context.Context {
	return utils.WithUserID(context.Background(), "doctor-1")
}

func (suite *ScreeningUsecaseTestSuite) TestPredict_WithoutPatientID() {
	prediction := &repository.Prediction{
		PredictedClass: model.DiagnosisBenign,
		Confidence:     0.91,
		Probabilities:  model.Probabilities{Normal: 0.05, Benign: 0.91, Malignant: 0.04},
	}
	suite.inference.On("Classify", mock.Anything, "scan.png", mock.Anything).Return(prediction, nil)

	resp, err := suite.usecase.Predict(context.Background(), usecase.PredictRequest{
		Filename: "scan.png",
		Image:    strings.NewReader("fake-image-bytes"),
	})

	suite.Require().NoError(err)
	suite.Equal(model.DiagnosisBenign, resp.PredictedClass)
	suite.Equal(0.91, resp.Confidence)
	suite.Empty(resp.RecordID)
	suite.scanRepo.AssertNotCalled(suite.T(), "AppendScanRecord", mock.Anything, mock.Anything)
}

func (suite *ScreeningUsecaseTestSuite) TestPredict_AppendsHistoryForPatient() {
	prediction := &repository.Prediction{
		PredictedClass: model.DiagnosisMalignant,
		Confidence:     0.88,
		Probabilities:  model.Probabilities{Normal: 0.02, Benign: 0.10, Malignant: 0.88},
	}
	suite.inference.On("Classify", mock.Anything, "scan.png", mock.Anything).Return(prediction, nil)
	suite.scanRepo.On("AppendScanRecord", mock.Anything, mock.MatchedBy(func(r *model.ScanRecord) bool {
		return r.PatientID == "patient-7" && r.UserID == "doctor-1" && r.Diagnosis == model.DiagnosisMalignant
	})).Return(nil)

	resp, err := suite.usecase.Predict(suite.authedCtx(), usecase.PredictRequest{
		Filename:  "scan.png",
		Image:     strings.NewReader("fake-image-bytes"),
		PatientID: "patient-7",
	})

	suite.Require().NoError(err)
	suite.NotEmpty(resp.RecordID)
	suite.scanRepo.AssertExpectations(suite.T())
}

func (suite *ScreeningUsecaseTestSuite) TestPredict_MissingImage() {
	_, err := suite.usecase.Predict(context.Background(), usecase.PredictRequest{Filename: "scan.png"})
	suite.ErrorIs(err, sharederrors.ErrNoImageUploaded)
}

func (suite *ScreeningUsecaseTestSuite) TestPredict_InferenceFailure() {
	suite.inference.On("Classify", mock.Anything, "scan.png", mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := suite.usecase.Predict(context.Background(), usecase.PredictRequest{
		Filename: "scan.png",
		Image:    strings.NewReader("fake-image-bytes"),
	})
	suite.Error(err)
	suite.Contains(err.Error(), "failed to classify image")
}

func (suite *ScreeningUsecaseTestSuite) TestGetScanHistory_CacheHit() {
	cached := []model.ScanRecord{{ID: "rec-1", PatientID: "patient-7"}}
	suite.cache.On("GetHistory", mock.Anything, "doctor-1", "patient-7").Return(cached, true, nil)

	records, err := suite.usecase.GetScanHistory(suite.authedCtx(), "doctor-1", "patient-7")

	suite.Require().NoError(err)
	suite.Equal(cached, records)
	suite.scanRepo.AssertNotCalled(suite.T(), "GetScanHistory", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ScreeningUsecaseTestSuite) TestGetScanHistory_CacheMissFallsBack() {
	stored := []model.ScanRecord{{ID: "rec-1"}, {ID: "rec-2"}}
	suite.cache.On("GetHistory", mock.Anything, "doctor-1", "patient-7").Return(nil, false, nil)
	suite.scanRepo.On("GetScanHistory", mock.Anything, "doctor-1", "patient-7").Return(stored, nil)
	suite.cache.On("SetHistory", mock.Anything, "doctor-1", "patient-7", stored).Return(nil)

	records, err := suite.usecase.GetScanHistory(context.Background(), "doctor-1", "patient-7")

	suite.Require().NoError(err)
	suite.Equal(stored, records)
	suite.cache.AssertExpectations(suite.T())
}

func (suite *ScreeningUsecaseTestSuite) TestGetScanHistory_CacheFailureDegrades() {
	stored := []model.ScanRecord{{ID: "rec-1"}}
	suite.cache.On("GetHistory", mock.Anything, "doctor-1", "patient-7").
		Return(nil, false, errors.New("redis down"))
	suite.scanRepo.On("GetScanHistory", mock.Anything, "doctor-1", "patient-7").Return(stored, nil)
	suite.cache.On("SetHistory", mock.Anything, "doctor-1", "patient-7", stored).
		Return(errors.New("redis down"))

	records, err := suite.usecase.GetScanHistory(context.Background(), "doctor-1", "patient-7")

	suite.Require().NoError(err)
	suite.Equal(stored, records)
}

func (suite *ScreeningUsecaseTestSuite) TestAnalyzeTrend_Worsening() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := []model.ScanRecord{
		{ID: "rec-1", Timestamp: base, Probabilities: model.Probabilities{Malignant: 0.10}},
		{ID: "rec-2", Timestamp: base.AddDate(0, 0, 180), Probabilities: model.Probabilities{Malignant: 0.85}},
	}
	suite.cache.On("GetHistory", mock.Anything, "doctor-1", "patient-7").Return(stored, true, nil)

	analysis, err := suite.usecase.AnalyzeTrend(context.Background(), "doctor-1", "patient-7")

	suite.Require().NoError(err)
	suite.Equal(trend.TrendWorsening, analysis.Trend)
	suite.Equal(trend.RiskHigh, analysis.RiskLevel)
}

func (suite *ScreeningUsecaseTestSuite) TestAnalyzeTrend_SingleRecord() {
	stored := []model.ScanRecord{{ID: "rec-1"}}
	suite.cache.On("GetHistory", mock.Anything, "doctor-1", "patient-7").Return(stored, true, nil)

	_, err := suite.usecase.AnalyzeTrend(context.Background(), "doctor-1", "patient-7")
	suite.ErrorIs(err, sharederrors.ErrInsufficientData)
}

func (suite *ScreeningUsecaseTestSuite) TestCreatePatientRecord_Success() {
	suite.patientRepo.On("CreatePatientRecord", mock.Anything, mock.MatchedBy(func(r *model.PatientRecord) bool {
		return r.UserID == "doctor-1" && r.RiskLevel == model.RiskHigh
	})).Return(nil)

	record, err := suite.usecase.CreatePatientRecord(context.Background(), "doctor-1", usecase.CreatePatientRecordRequest{
		PatientName: "John Doe",
		Age:         "54",
		Gender:      "Male",
		ScanDate:    "2025-06-01",
		Prediction:  "Malignant",
		Probability: 0.82,
	})

	suite.Require().NoError(err)
	suite.NotEmpty(record.ID)
	suite.Equal(model.RiskHigh, record.RiskLevel)
}

func (suite *ScreeningUsecaseTestSuite) TestCreatePatientRecord_MissingFields() {
	_, err := suite.usecase.CreatePatientRecord(context.Background(), "doctor-1", usecase.CreatePatientRecordRequest{
		PatientName: "John Doe",
	})
	suite.Error(err)
	suite.True(sharederrors.IsValidation(err))
	suite.patientRepo.AssertNotCalled(suite.T(), "CreatePatientRecord", mock.Anything, mock.Anything)
}

func (suite *ScreeningUsecaseTestSuite) TestGenerateReport_HighRiskTemplates() {
	suite.reportRepo.On("CreateReport", mock.Anything, mock.Anything).Return(nil)

	report, err := suite.usecase.GenerateReport(context.Background(), "doctor-1", usecase.GenerateReportRequest{
		PatientName: "John Doe",
		Age:         "54",
		Gender:      "Male",
		ScanDate:    "2025-06-01",
		Prediction:  "Malignant",
		Probability: 0.82,
	})

	suite.Require().NoError(err)
	suite.NotEmpty(report.ReportID)
	suite.Equal(model.RiskHigh, report.RiskLevel)
	suite.Contains(report.DoctorNotes[0], "High probability")
	suite.Contains(report.Recommendations[0], "oncologist")
}

func (suite *ScreeningUsecaseTestSuite) TestGenerateReport_LowRiskTemplates() {
	suite.reportRepo.On("CreateReport", mock.Anything, mock.Anything).Return(nil)

	report, err := suite.usecase.GenerateReport(context.Background(), "doctor-1", usecase.GenerateReportRequest{
		PatientName: "Jane Doe",
		Prediction:  "Normal",
		Probability: 0.05,
	})

	suite.Require().NoError(err)
	suite.Equal(model.RiskLow, report.RiskLevel)
	suite.Contains(report.DoctorNotes[0], "Low probability")
}

func (suite *ScreeningUsecaseTestSuite) TestGetReport_NotFound() {
	suite.reportRepo.On("GetReport", mock.Anything, "doctor-1", "missing").
		Return(nil, sharederrors.ErrReportNotFound)

	_, err := suite.usecase.GetReport(context.Background(), "doctor-1", "missing")
	suite.ErrorIs(err, sharederrors.ErrReportNotFound)
}

func (suite *ScreeningUsecaseTestSuite) TestRenderReportPDF() {
	report := &model.Report{ReportID: "rep-1", UserID: "doctor-1", RiskLevel: model.RiskLow}
	suite.reportRepo.On("GetReport", mock.Anything, "doctor-1", "rep-1").Return(report, nil)
	suite.renderer.On("RenderPDF", report).Return([]byte("%PDF-1.4"), nil)

	data, err := suite.usecase.RenderReportPDF(context.Background(), "doctor-1", "rep-1")

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(string(data), "%PDF"))
}

func TestScreeningUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(ScreeningUsecaseTestSuite))
}

func TestRiskLevelFromProbability(t *testing.T) {
	assert.Equal(t, model.RiskLow, model.RiskLevelFromProbability(0.0))
	assert.Equal(t, model.RiskLow, model.RiskLevelFromProbability(0.29))
	assert.Equal(t, model.RiskModerate, model.RiskLevelFromProbability(0.3))
	assert.Equal(t, model.RiskModerate, model.RiskLevelFromProbability(0.69))
	assert.Equal(t, model.RiskHigh, model.RiskLevelFromProbability(0.7))
	assert.Equal(t, model.RiskHigh, model.RiskLevelFromProbability(0.95))
}
