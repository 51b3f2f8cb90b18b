package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "email").WithComponent("sessionmanager")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "sessionmanager", err.Component)
	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	cause := ErrNotFound
	err := NewNotFoundError("report").WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "report not found")
}

func TestErrorTypePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("scan record")))
	assert.True(t, IsNotFound(ErrRecordNotFound))
	assert.True(t, IsValidation(NewValidationError("password must contain a digit")))
	assert.True(t, IsSessionExpired(NewSessionExpiredError("token expired")))
	assert.True(t, IsRequestFailed(NewRequestError("connection refused")))
	assert.True(t, IsAuthentication(ErrInvalidToken))
	assert.True(t, IsConflict(NewConflictError("email already registered")))
}

func TestSessionExpired_DistinctFromServerError(t *testing.T) {
	expired := NewSessionExpiredError("session expired")
	server := NewServerError("boom", 500)

	assert.True(t, IsSessionExpired(expired))
	assert.False(t, IsSessionExpired(server))
	assert.Equal(t, 401, expired.HTTPCode)
}

func TestWrapError_PassesThroughAppError(t *testing.T) {
	orig := NewServerError("upstream failed", 502)
	wrapped := WrapError(orig, "ignored")
	assert.Equal(t, orig, wrapped)

	plain := WrapError(ErrBadRequest, "wrapped message")
	assert.Equal(t, ErrorTypeInternal, plain.Type)
	assert.Equal(t, ErrBadRequest, plain.Unwrap())
}
