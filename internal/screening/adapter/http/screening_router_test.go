package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	authhttp "lungscreen/internal/auth/adapter/http"
	authmodel "lungscreen/internal/auth/domain/model"
	authrepo "lungscreen/internal/auth/domain/repository"
	authusecase "lungscreen/internal/auth/usecase"
	screeninghttp "lungscreen/internal/screening/adapter/http"
	"lungscreen/internal/screening/domain/model"
	"lungscreen/internal/screening/trend"
	"lungscreen/internal/screening/usecase"
	sharederrors "lungscreen/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type mockScreeningUsecase struct {
	mock.Mock
}

func (m *mockScreeningUsecase) Predict(ctx context.Context, req usecase.PredictRequest) (*usecase.PredictResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PredictResponse), args.Error(1)
}

func (m *mockScreeningUsecase) GetScanHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, error) {
	args := m.Called(ctx, userID, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScanRecord), args.Error(1)
}

func (m *mockScreeningUsecase) AnalyzeTrend(ctx context.Context, userID, patientID string) (*trend.Analysis, error) {
	args := m.Called(ctx, userID, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trend.Analysis), args.Error(1)
}

func (m *mockScreeningUsecase) CreatePatientRecord(ctx context.Context, userID string, req usecase.CreatePatientRecordRequest) (*model.PatientRecord, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientRecord), args.Error(1)
}

func (m *mockScreeningUsecase) ListPatientRecords(ctx context.Context, userID string) ([]model.PatientRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PatientRecord), args.Error(1)
}

func (m *mockScreeningUsecase) GenerateReport(ctx context.Context, userID string, req usecase.GenerateReportRequest) (*model.Report, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *mockScreeningUsecase) ListReports(ctx context.Context, userID string) ([]model.Report, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

func (m *mockScreeningUsecase) GetReport(ctx context.Context, userID, reportID string) (*model.Report, error) {
	args := m.Called(ctx, userID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *mockScreeningUsecase) RenderReportPDF(ctx context.Context, userID, reportID string) ([]byte, error) {
	args := m.Called(ctx, userID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Auth usecase stub that accepts the fixed test token.
type stubAuthUsecase struct{}

func (s *stubAuthUsecase) Signup(ctx context.Context, req authusecase.SignupRequest) (*authmodel.Doctor, error) {
	return nil, authusecase.ErrMissingFields
}

func (s *stubAuthUsecase) Login(ctx context.Context, req authusecase.LoginRequest) (*authmodel.Doctor, string, error) {
	return nil, "", authusecase.ErrInvalidCredentials
}

func (s *stubAuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*authrepo.Claims, error) {
	if tokenString != "valid-token" {
		return nil, authusecase.ErrTokenInvalid
	}
	return &authrepo.Claims{UserID: "doctor-1", Email: "doc@hospital.org"}, nil
}

func (s *stubAuthUsecase) GetUserFromToken(ctx context.Context, tokenString string) (*authmodel.Doctor, error) {
	return nil, authusecase.ErrUserNotFound
}

type ScreeningHTTPTestSuite struct {
	suite.Suite
	app         *fiber.App
	mockUsecase *mockScreeningUsecase
}

func (suite *ScreeningHTTPTestSuite) SetupTest() {
	suite.mockUsecase = &mockScreeningUsecase{}
	suite.app = fiber.New()

	handler := screeninghttp.NewScreeningHTTPHandler(suite.mockUsecase)
	middleware := authhttp.NewAuthMiddleware(&stubAuthUsecase{})
	handler.SetupScreeningRoutesWithMiddleware(suite.app, middleware)
}

func (suite *ScreeningHTTPTestSuite) request(method, path string, body io.Reader, contentType string) *http.Response {
	req, err := http.NewRequest(method, path, body)
	require.NoError(suite.T(), err)
	req.Header.Set("Authorization", "Bearer valid-token")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := suite.app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(suite.T(), err)
	return resp
}

func (suite *ScreeningHTTPTestSuite) decodeBody(resp *http.Response) map[string]interface{} {
	raw, err := io.ReadAll(resp.Body)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(raw, &body))
	return body
}

func multipartImage(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-image-bytes"))
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func (suite *ScreeningHTTPTestSuite) TestPredict_Success() {
	suite.mockUsecase.On("Predict", mock.Anything, mock.MatchedBy(func(req usecase.PredictRequest) bool {
		return req.Filename == "scan.png" && req.PatientID == "patient-7"
	})).Return(&usecase.PredictResponse{
		PredictedClass: model.DiagnosisMalignant,
		Confidence:     0.88,
		Probabilities:  model.Probabilities{Normal: 0.02, Benign: 0.10, Malignant: 0.88},
	}, nil)

	body, contentType := multipartImage(suite.T(), map[string]string{
		"patient_id":   "patient-7",
		"patient_name": "John Doe",
		"age":          "54",
		"gender":       "Male",
	})
	resp := suite.request(http.MethodPost, "/predict", body, contentType)

	suite.Equal(http.StatusOK, resp.StatusCode)
	decoded := suite.decodeBody(resp)
	suite.Equal("Malignant", decoded["predicted_class"])
	suite.Equal(0.88, decoded["confidence"])
}

func (suite *ScreeningHTTPTestSuite) TestPredict_MissingFile() {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(suite.T(), writer.WriteField("patient_name", "John Doe"))
	require.NoError(suite.T(), writer.Close())

	resp := suite.request(http.MethodPost, "/predict", &buf, writer.FormDataContentType())

	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("No file uploaded", suite.decodeBody(resp)["message"])
}

func (suite *ScreeningHTTPTestSuite) TestPredict_MissingToken() {
	body, contentType := multipartImage(suite.T(), nil)

	req, err := http.NewRequest(http.MethodPost, "/predict", body)
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", contentType)

	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	suite.Equal("Token is missing!", suite.decodeBody(resp)["message"])
}

func (suite *ScreeningHTTPTestSuite) TestPredict_InvalidToken() {
	body, contentType := multipartImage(suite.T(), nil)

	req, err := http.NewRequest(http.MethodPost, "/predict", body)
	require.NoError(suite.T(), err)
	req.Header.Set("Authorization", "Bearer expired-token")
	req.Header.Set("Content-Type", contentType)

	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	suite.Equal("Token is invalid!", suite.decodeBody(resp)["message"])
}

func (suite *ScreeningHTTPTestSuite) TestHistory_Success() {
	records := []model.ScanRecord{{ID: "rec-1", PatientID: "patient-7"}}
	suite.mockUsecase.On("GetScanHistory", mock.Anything, "doctor-1", "patient-7").Return(records, nil)

	resp := suite.request(http.MethodGet, "/history/patient-7", nil, "")

	suite.Equal(http.StatusOK, resp.StatusCode)
	decoded := suite.decodeBody(resp)
	suite.Equal("patient-7", decoded["patient_id"])
	suite.Len(decoded["records"], 1)
}

func (suite *ScreeningHTTPTestSuite) TestTrend_InsufficientData() {
	suite.mockUsecase.On("AnalyzeTrend", mock.Anything, "doctor-1", "patient-7").
		Return(nil, sharederrors.ErrInsufficientData)

	resp := suite.request(http.MethodGet, "/history/patient-7/trend", nil, "")

	suite.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (suite *ScreeningHTTPTestSuite) TestTrend_Success() {
	suite.mockUsecase.On("AnalyzeTrend", mock.Anything, "doctor-1", "patient-7").
		Return(&trend.Analysis{
			Trend:          trend.TrendWorsening,
			RiskLevel:      trend.RiskHigh,
			TimeSpanMonths: 6.0,
			Details:        "Malignancy probability increased by 75.0% over 6.0 months. Closer monitoring is advised.",
		}, nil)

	resp := suite.request(http.MethodGet, "/history/patient-7/trend", nil, "")

	suite.Equal(http.StatusOK, resp.StatusCode)
	decoded := suite.decodeBody(resp)
	suite.Equal("worsening", decoded["trend"])
	suite.Equal("high", decoded["risk_level"])
}

func (suite *ScreeningHTTPTestSuite) TestCreatePatientRecord_Success() {
	record := &model.PatientRecord{ID: "rec-1", UserID: "doctor-1", PatientName: "John Doe"}
	suite.mockUsecase.On("CreatePatientRecord", mock.Anything, "doctor-1", mock.Anything).Return(record, nil)

	payload, err := json.Marshal(map[string]interface{}{
		"patient_name": "John Doe",
		"age":          "54",
		"gender":       "Male",
		"scan_date":    "2025-06-01",
		"prediction":   "Malignant",
		"probability":  0.82,
	})
	require.NoError(suite.T(), err)

	resp := suite.request(http.MethodPost, "/api/patient-records", bytes.NewReader(payload), fiber.MIMEApplicationJSON)

	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Equal("Patient record saved successfully", suite.decodeBody(resp)["message"])
}

func (suite *ScreeningHTTPTestSuite) TestGetReport_NotFound() {
	suite.mockUsecase.On("GetReport", mock.Anything, "doctor-1", "missing").
		Return(nil, sharederrors.ErrReportNotFound)

	resp := suite.request(http.MethodGet, "/api/reports/missing", nil, "")

	suite.Equal(http.StatusNotFound, resp.StatusCode)
	suite.Equal("Report not found", suite.decodeBody(resp)["message"])
}

func (suite *ScreeningHTTPTestSuite) TestGetReportPDF() {
	suite.mockUsecase.On("RenderReportPDF", mock.Anything, "doctor-1", "rep-1").
		Return([]byte("%PDF-1.4 fake"), nil)

	resp := suite.request(http.MethodGet, "/api/reports/rep-1/pdf", nil, "")

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("application/pdf", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(suite.T(), err)
	suite.Equal("%PDF-1.4 fake", string(raw))
}

func TestScreeningHTTPTestSuite(t *testing.T) {
	suite.Run(t, new(ScreeningHTTPTestSuite))
}
