package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tourdesk/tourdesk/internal/platform/db"
	"github.com/tourdesk/tourdesk/internal/policy"
)

// Repository persists user records.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*User, error)
	GetForUpdate(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	Search(ctx context.Context, filter SearchFilter) ([]User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	ExistsByContact(ctx context.Context, contact string, excludeID int64) (bool, error)
	Create(ctx context.Context, u User) (*User, error)
	Update(ctx context.Context, u User) (*User, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   db.DBTX
	pool db.Beginner
}

// NewRepository constructs a repository on a pool.
func NewRepository(pool interface {
	db.DBTX
	db.Beginner
}) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// WithTx runs fn against a repository bound to one repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx})
	})
}

const columns = `id, first_name, last_name, email, COALESCE(contact, ''), role, COALESCE(biography, ''), languages, experience_years, password_hash, created_at, updated_at`

func scan(row pgx.Row) (*User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Contact, &role, &u.Biography, &u.Languages, &u.ExperienceYears, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := policy.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}

func (r *PGRepository) get(ctx context.Context, query string, id int64) (*User, error) {
	u, err := scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, AnyUser.notFound()
		}
		return nil, fmt.Errorf("user: get: %w", err)
	}
	return u, nil
}

// Get fetches one user.
func (r *PGRepository) Get(ctx context.Context, id int64) (*User, error) {
	return r.get(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id)
}

// GetForUpdate fetches and locks one user.
func (r *PGRepository) GetForUpdate(ctx context.Context, id int64) (*User, error) {
	return r.get(ctx, `SELECT `+columns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func collect(rows pgx.Rows) ([]User, error) {
	defer rows.Close()
	items := make([]User, 0)
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("user: scan: %w", err)
		}
		items = append(items, *u)
	}
	return items, rows.Err()
}

// List returns a page of users and the total count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	var (
		clause string
		args   []any
	)
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		clause = " WHERE role = $1"
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("user: count: %w", err)
	}
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM users%s ORDER BY id LIMIT $%d OFFSET $%d`, columns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("user: list: %w", err)
	}
	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search matches first or last name case-insensitively.
func (r *PGRepository) Search(ctx context.Context, filter SearchFilter) ([]User, error) {
	pattern := "%" + escapeLike(filter.Query) + "%"
	where := []string{`(first_name ILIKE $1 OR last_name ILIKE $1)`}
	args := []any{pattern}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM users WHERE `+strings.Join(where, " AND ")+` ORDER BY last_name, first_name, id LIMIT 100`, args...)
	if err != nil {
		return nil, fmt.Errorf("user: search: %w", err)
	}
	return collect(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PGRepository) exists(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM users WHERE lower(%s) = lower($1) AND id <> $2)`, column)
	if err := r.db.QueryRow(ctx, query, value, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("user: check %s: %w", column, err)
	}
	return exists, nil
}

// ExistsByEmail reports whether another user already has email.
func (r *PGRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

// ExistsByContact reports whether another user already has contact.
func (r *PGRepository) ExistsByContact(ctx context.Context, contact string, excludeID int64) (bool, error) {
	return r.exists(ctx, "contact", contact, excludeID)
}

const contactConstraint = "users_contact_key"

// duplicateUser maps a unique violation on users to the taken column.
func duplicateUser(err error) error {
	if db.ConstraintName(err) == contactConstraint {
		return ErrContactTaken
	}
	return ErrEmailTaken
}

// Create inserts a user.
func (r *PGRepository) Create(ctx context.Context, u User) (*User, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO users (first_name, last_name, email, contact, role, biography, languages, experience_years, password_hash)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), COALESCE($7::text[], '{}'), $8, $9)
RETURNING `+columns,
		u.FirstName, u.LastName, u.Email, u.Contact, string(u.Role), u.Biography, u.Languages, u.ExperienceYears, u.PasswordHash))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, duplicateUser(err)
		}
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return created, nil
}

// Update writes every mutable column of u.
func (r *PGRepository) Update(ctx context.Context, u User) (*User, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE users
SET first_name = $2, last_name = $3, email = $4, contact = NULLIF($5, ''), role = $6,
    biography = NULLIF($7, ''), languages = COALESCE($8::text[], '{}'), experience_years = $9, password_hash = $10, updated_at = NOW()
WHERE id = $1
RETURNING `+columns,
		u.ID, u.FirstName, u.LastName, u.Email, u.Contact, string(u.Role), u.Biography, u.Languages, u.ExperienceYears, u.PasswordHash))
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return nil, AnyUser.notFound()
		case db.IsUniqueViolation(err):
			return nil, duplicateUser(err)
		}
		return nil, fmt.Errorf("user: update: %w", err)
	}
	return updated, nil
}

// Delete removes a user.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("user: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return AnyUser.notFound()
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
