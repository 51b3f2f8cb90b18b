package repository

import (
	"context"

	"lungscreen/internal/screening/domain/model"
)

// ScanRecordRepository persists the append-only scan history per patient.
type ScanRecordRepository interface {
	AppendScanRecord(ctx context.Context, record *model.ScanRecord) error
	GetScanHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, error)
}

// PatientRecordRepository stores the summary rows a doctor saves explicitly.
type PatientRecordRepository interface {
	CreatePatientRecord(ctx context.Context, record *model.PatientRecord) error
	ListPatientRecords(ctx context.Context, userID string) ([]model.PatientRecord, error)
	GetPatientRecord(ctx context.Context, userID, recordID string) (*model.PatientRecord, error)
}

// ReportRepository stores generated diagnostic reports.
type ReportRepository interface {
	CreateReport(ctx context.Context, report *model.Report) error
	ListReports(ctx context.Context, userID string) ([]model.Report, error)
	GetReport(ctx context.Context, userID, reportID string) (*model.Report, error)
}
