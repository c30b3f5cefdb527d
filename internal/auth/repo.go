package auth

import (
	"context"
	"fmt"

	"github.com/tourdesk/tourdesk/internal/platform/db"
	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	Create(ctx context.Context, input NewAccount) (*Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const accountColumns = `id, first_name, last_name, email, COALESCE(contact, ''), role, password_hash, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var (
		acc  Account
		role string
	)
	if err := row.Scan(&acc.ID, &acc.FirstName, &acc.LastName, &acc.Email, &acc.Contact, &role, &acc.PasswordHash, &acc.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := policy.ParseRole(role)
	if err != nil {
		return nil, err
	}
	acc.Role = parsed
	return &acc, nil
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	acc, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}
	return acc, nil
}

// FindByID fetches an account by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	acc, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find by id: %w", err)
	}
	return acc, nil
}

// Create inserts a new account.
func (r *PGRepository) Create(ctx context.Context, input NewAccount) (*Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (first_name, last_name, email, contact, role, password_hash)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
RETURNING `+accountColumns,
		input.FirstName, input.LastName, input.Email, input.Contact, string(input.Role), input.PasswordHash)
	acc, err := scanAccount(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, duplicateAccount(err)
		}
		return nil, fmt.Errorf("auth: create account: %w", err)
	}
	return acc, nil
}

const contactConstraint = "users_contact_key"

// duplicateAccount names the column behind a unique violation on users.
func duplicateAccount(err error) error {
	if db.ConstraintName(err) == contactConstraint {
		return ErrContactTaken
	}
	return ErrEmailTaken
}

var _ Repository = (*PGRepository)(nil)
