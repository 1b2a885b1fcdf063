package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crucial707/expense-tracker/internal/auth"
	"github.com/crucial707/expense-tracker/internal/metrics"
	"github.com/crucial707/expense-tracker/internal/models"
	"github.com/crucial707/expense-tracker/internal/repo"
	"github.com/go-playground/validator/v10"
)

// bcrypt ignores everything after 72 bytes.
const maxPasswordBytes = 72

// UserStore is the credential store used by AuthService.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService registers users, checks credentials and issues bearer tokens.
type AuthService struct {
	users    UserStore
	tokens   *auth.TokenIssuer
	validate *validator.Validate
}

func NewAuthService(users UserStore, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens, validate: newValidator()}
}

// Register creates a user with a bcrypt-hashed password. Emails are compared case-insensitively.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, invalidField("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, in.Name, in.Email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			metrics.RecordAuth("register", "conflict")
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	metrics.RecordAuth("register", "success")
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a token. An unknown email and a wrong
// password produce the same error and cost the same bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = normalizeEmail(in.Email)

	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if !auth.ComparePassword(hash, in.Password) {
		metrics.RecordAuth("login", "failure")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuth("login", "success")
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Verify resolves a bearer token to the caller's identity.
func (s *AuthService) Verify(token string) (auth.Identity, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
