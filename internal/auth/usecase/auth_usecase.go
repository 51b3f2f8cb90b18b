package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lungscreen/internal/auth/adapter/policy"
	"lungscreen/internal/auth/config"
	"lungscreen/internal/auth/domain/model"
	"lungscreen/internal/auth/domain/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrMissingFields      = errors.New("missing required fields")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Signup(ctx context.Context, req SignupRequest) (*model.Doctor, error)
	Login(ctx context.Context, req LoginRequest) (*model.Doctor, string, error)
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	GetUserFromToken(ctx context.Context, tokenString string) (*model.Doctor, error)
}

// SignupRequest represents the registration request
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	repo     repository.AuthRepository
	tokenSvc repository.TokenService
	policy   *policy.CredentialPolicy
	config   *config.Config
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	repo repository.AuthRepository,
	tokenSvc repository.TokenService,
	credentialPolicy *policy.CredentialPolicy,
	cfg *config.Config,
) *AuthUsecase {
	return &AuthUsecase{
		repo:     repo,
		tokenSvc: tokenSvc,
		policy:   credentialPolicy,
		config:   cfg,
	}
}

// validateEmail validates email format
func (uc *AuthUsecase) validateEmail(email string) error {
	if email == "" {
		return ErrMissingFields
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// Signup creates a new doctor account. It does not issue a token: the chosen
// contract is 201 + follow-up login, which keeps a single code path for
// session establishment.
func (uc *AuthUsecase) Signup(ctx context.Context, req SignupRequest) (*model.Doctor, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, ErrMissingFields
	}
	if err := uc.validateEmail(req.Email); err != nil {
		return nil, err
	}

	if uc.policy != nil {
		if err := uc.policy.Evaluate(req.Name, req.Email, req.Password); err != nil {
			return nil, err
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := uc.repo.GetDoctorByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	doctor := &model.Doctor{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := doctor.ValidateFields(); err != nil {
		return nil, err
	}

	if err := uc.repo.CreateDoctor(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	doctor.PasswordHash = ""
	return doctor, nil
}

// Login authenticates a doctor and issues a bearer token. Token and profile
// are produced together so clients never hold one without the other.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.Doctor, string, error) {
	if err := uc.validateEmail(req.Email); err != nil {
		return nil, "", err
	}
	if req.Password == "" {
		return nil, "", ErrMissingFields
	}

	doctor, err := uc.repo.GetDoctorByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(doctor.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, doctor.ID, doctor.Email, doctor.Name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	doctor.PasswordHash = ""
	return doctor, token, nil
}

// ValidateToken validates a JWT string
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GetUserFromToken validates a token and fetches the associated doctor
func (uc *AuthUsecase) GetUserFromToken(ctx context.Context, tokenString string) (*model.Doctor, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	doctor, err := uc.repo.GetDoctorByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	doctor.PasswordHash = ""
	return doctor, nil
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
