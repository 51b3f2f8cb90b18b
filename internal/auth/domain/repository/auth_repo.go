package repository

import (
	"context"

	"lungscreen/internal/auth/domain/model"
)

// AuthRepository defines the interface for doctor account persistence
type AuthRepository interface {
	CreateDoctor(ctx context.Context, doctor *model.Doctor) error
	GetDoctorByEmail(ctx context.Context, email string) (*model.Doctor, error)
	GetDoctorByID(ctx context.Context, id string) (*model.Doctor, error)
}
