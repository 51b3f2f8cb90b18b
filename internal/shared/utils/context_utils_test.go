package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "doc-123")
	got, err := GetUserIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "doc-123", got)
}

func TestUserIDMissing(t *testing.T) {
	_, err := GetUserIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrUserIDNotFound)
}

func TestUserEmailRoundTrip(t *testing.T) {
	ctx := WithUserEmail(context.Background(), "doctor@hospital.org")
	got, err := GetUserEmailFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "doctor@hospital.org", got)
}

func TestPatientIDRoundTrip(t *testing.T) {
	ctx := WithPatientID(context.Background(), "patient-42")
	got, err := GetPatientIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "patient-42", got)

	_, err = GetPatientIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrPatientIDNotFound)
}

func TestRequestIDMissing(t *testing.T) {
	_, err := GetRequestIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrRequestIDNotFound)
}
