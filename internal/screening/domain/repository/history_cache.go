package repository

import (
	"context"

	"lungscreen/internal/screening/domain/model"
)

// HistoryCache caches per-patient scan histories. A miss returns
// (nil, false, nil); cache failures must never fail a read, callers fall back
// to the repository.
type HistoryCache interface {
	GetHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, bool, error)
	SetHistory(ctx context.Context, userID, patientID string, records []model.ScanRecord) error
	InvalidateHistory(ctx context.Context, userID, patientID string) error
}
