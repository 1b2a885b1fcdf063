package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/expense-tracker/internal/models"
	"github.com/google/uuid"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// ==========================
// Create User
// ==========================

// Create inserts a user. Callers pass the email already lower-cased; the
// users_email_lower_key index also enforces uniqueness case-insensitively,
// and a violation is reported as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}

	err := r.DB.QueryRowContext(ctx, query, user.ID, name, email, passwordHash).
		Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// ==========================
// Get By Email
// ==========================
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) scanOne(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
