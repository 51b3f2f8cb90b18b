// Package pdf renders diagnostic reports as downloadable PDF documents.
package pdf

import (
	"bytes"
	"fmt"

	"lungscreen/internal/screening/domain/model"

	"github.com/jung-kurt/gofpdf"
)

// ReportRenderer renders one report per page on A4 portrait.
type ReportRenderer struct{}

// NewReportRenderer creates a new PDF report renderer
func NewReportRenderer() *ReportRenderer {
	return &ReportRenderer{}
}

// RenderPDF renders the report into a PDF byte slice
func (r *ReportRenderer) RenderPDF(report *model.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Lung Cancer Screening Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Report ID: %s", report.ReportID))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Report Date: %s", report.ReportDate))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Patient Information")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Name: %s", report.PatientName))
	pdf.Ln(7)
	if report.Age != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Age: %s", report.Age))
		pdf.Ln(7)
	}
	if report.Gender != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Gender: %s", report.Gender))
		pdf.Ln(7)
	}
	if report.ScanDate != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Scan Date: %s", report.ScanDate))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Diagnosis")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Prediction: %s", report.Prediction))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Malignancy Probability: %.1f%%", report.Probability*100))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Risk Level: %s", report.RiskLevel))
	pdf.Ln(11)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Doctor's Notes")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	for _, note := range report.DoctorNotes {
		pdf.MultiCell(0, 7, "- "+note, "", "L", false)
		pdf.Ln(1)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Recommendations")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	for _, rec := range report.Recommendations {
		pdf.MultiCell(0, 7, "- "+rec, "", "L", false)
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
