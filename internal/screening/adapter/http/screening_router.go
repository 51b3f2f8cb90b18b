package http

import (
	"errors"
	"fmt"

	authhttp "lungscreen/internal/auth/adapter/http"
	"lungscreen/internal/screening/usecase"
	sharederrors "lungscreen/internal/shared/errors"
	"lungscreen/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// ScreeningHTTPHandler handles HTTP requests for the screening workflow
type ScreeningHTTPHandler struct {
	usecase usecase.ScreeningUsecaseInterface
}

// NewScreeningHTTPHandler creates a new screening HTTP handler
func NewScreeningHTTPHandler(uc usecase.ScreeningUsecaseInterface) *ScreeningHTTPHandler {
	return &ScreeningHTTPHandler{usecase: uc}
}

// SetupScreeningRoutesWithMiddleware sets up the screening routes. All routes
// require a valid bearer token.
func (h *ScreeningHTTPHandler) SetupScreeningRoutesWithMiddleware(router fiber.Router, middleware *authhttp.AuthMiddleware) {
	protected := router.Group("/", middleware.Protect())

	protected.Post("/predict", h.Predict)
	protected.Get("/history/:patientId", h.History)
	protected.Get("/history/:patientId/trend", h.Trend)

	protected.Get("/api/patient-records", h.ListPatientRecords)
	protected.Post("/api/patient-records", h.CreatePatientRecord)

	protected.Post("/api/generate-report", h.GenerateReport)
	protected.Get("/api/reports", h.ListReports)
	protected.Get("/api/reports/:reportId", h.GetReport)
	protected.Get("/api/reports/:reportId/pdf", h.GetReportPDF)
}

// Predict accepts a multipart CT image upload and returns the classifier's
// three-class prediction. When patient_id is supplied the result is also
// appended to that patient's history.
func (h *ScreeningHTTPHandler) Predict(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No file uploaded",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unable to read uploaded file",
		})
	}
	defer file.Close()

	resp, err := h.usecase.Predict(c.UserContext(), usecase.PredictRequest{
		Filename:    fileHeader.Filename,
		Image:       file,
		PatientID:   c.FormValue("patient_id"),
		PatientName: c.FormValue("patient_name"),
		Age:         c.FormValue("age"),
		Gender:      c.FormValue("gender"),
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(resp)
}

// History returns a patient's scan records ordered by timestamp.
func (h *ScreeningHTTPHandler) History(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	records, err := h.usecase.GetScanHistory(c.UserContext(), userID, c.Params("patientId"))
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{
		"patient_id": c.Params("patientId"),
		"records":    records,
	})
}

// Trend returns the trend classification across a patient's history.
func (h *ScreeningHTTPHandler) Trend(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	analysis, err := h.usecase.AnalyzeTrend(c.UserContext(), userID, c.Params("patientId"))
	if err != nil {
		if errors.Is(err, sharederrors.ErrInsufficientData) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "At least two scan records are required for trend analysis",
			})
		}
		return h.mapError(c, err)
	}

	return c.JSON(analysis)
}

// ListPatientRecords returns all saved records owned by the doctor.
func (h *ScreeningHTTPHandler) ListPatientRecords(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	records, err := h.usecase.ListPatientRecords(c.UserContext(), userID)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"records": records})
}

// CreatePatientRecord saves the summary row for a reviewed scan.
func (h *ScreeningHTTPHandler) CreatePatientRecord(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	var req usecase.CreatePatientRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	record, err := h.usecase.CreatePatientRecord(c.UserContext(), userID, req)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Patient record saved successfully",
		"record":  record,
	})
}

// GenerateReport creates a diagnostic report from a reviewed scan.
func (h *ScreeningHTTPHandler) GenerateReport(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	var req usecase.GenerateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	report, err := h.usecase.GenerateReport(c.UserContext(), userID, req)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// ListReports returns all reports generated by the doctor.
func (h *ScreeningHTTPHandler) ListReports(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	reports, err := h.usecase.ListReports(c.UserContext(), userID)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"reports": reports})
}

// GetReport returns one report by ID.
func (h *ScreeningHTTPHandler) GetReport(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	report, err := h.usecase.GetReport(c.UserContext(), userID, c.Params("reportId"))
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(report)
}

// GetReportPDF returns one report rendered as a PDF download.
func (h *ScreeningHTTPHandler) GetReportPDF(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthorized(c)
	}

	reportID := c.Params("reportId")
	data, err := h.usecase.RenderReportPDF(c.UserContext(), userID, reportID)
	if err != nil {
		return h.mapError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="report_%s.pdf"`, reportID))
	return c.Send(data)
}

func (h *ScreeningHTTPHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, sharederrors.ErrNoImageUploaded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No file uploaded",
		})
	case errors.Is(err, sharederrors.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Report not found",
		})
	case errors.Is(err, sharederrors.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Record not found",
		})
	case sharederrors.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	default:
		var appErr *sharederrors.AppError
		if errors.As(err, &appErr) && appErr.HTTPCode >= fiber.StatusInternalServerError {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Prediction service unavailable",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Token is invalid!",
	})
}
