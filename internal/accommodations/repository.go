package accommodations

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tourdesk/tourdesk/internal/platform/db"
)

// Repository persists accommodations.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Accommodation, error)
	GetForUpdate(ctx context.Context, id int64) (*Accommodation, error)
	List(ctx context.Context, filter ListFilter) ([]Accommodation, int, error)
	ExistsByName(ctx context.Context, name string, userID, excludeID int64) (bool, error)
	Create(ctx context.Context, a Accommodation) (*Accommodation, error)
	Update(ctx context.Context, a Accommodation) (*Accommodation, error)
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

const columns = `id, name, location, price, description, image, start_date, end_date, company_id, user_id, created_at, updated_at`

func scan(row pgx.Row) (*Accommodation, error) {
	var a Accommodation
	if err := row.Scan(&a.ID, &a.Name, &a.Location, &a.Price, &a.Description, &a.Image,
		&a.StartDate.Time, &a.EndDate.Time, &a.CompanyID, &a.UserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) get(ctx context.Context, query string, id int64) (*Accommodation, error) {
	a, err := scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("accommodation: get: %w", err)
	}
	return a, nil
}

// Get fetches one accommodation.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Accommodation, error) {
	return r.get(ctx, `SELECT `+columns+` FROM accommodations WHERE id = $1`, id)
}

// GetForUpdate fetches and locks one accommodation for the current transaction.
func (r *PGRepository) GetForUpdate(ctx context.Context, id int64) (*Accommodation, error) {
	return r.get(ctx, `SELECT `+columns+` FROM accommodations WHERE id = $1 FOR UPDATE`, id)
}

// List returns a page of accommodations and the total count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Accommodation, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		where = append(where, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accommodations`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("accommodation: count: %w", err)
	}

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM accommodations%s ORDER BY id LIMIT $%d OFFSET $%d`, columns, clause, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("accommodation: list: %w", err)
	}
	defer rows.Close()

	items := make([]Accommodation, 0)
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("accommodation: scan: %w", err)
		}
		items = append(items, *a)
	}
	return items, total, rows.Err()
}

// ExistsByName reports whether userID already owns an accommodation named name.
func (r *PGRepository) ExistsByName(ctx context.Context, name string, userID, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accommodations WHERE lower(name) = lower($1) AND user_id = $2 AND id <> $3)`, name, userID, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("accommodation: exists by name: %w", err)
	}
	return exists, nil
}

// Create inserts a new accommodation.
func (r *PGRepository) Create(ctx context.Context, a Accommodation) (*Accommodation, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO accommodations (name, location, price, description, image, start_date, end_date, company_id, user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING `+columns,
		a.Name, a.Location, a.Price, a.Description, a.Image, a.StartDate.Time, a.EndDate.Time, a.CompanyID, a.UserID))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("accommodation: create: %w", err)
	}
	return created, nil
}

// Update writes every mutable column of a.
func (r *PGRepository) Update(ctx context.Context, a Accommodation) (*Accommodation, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE accommodations
SET name = $2, location = $3, price = $4, description = $5, image = $6, start_date = $7, end_date = $8, company_id = $9, updated_at = NOW()
WHERE id = $1
RETURNING `+columns,
		a.ID, a.Name, a.Location, a.Price, a.Description, a.Image, a.StartDate.Time, a.EndDate.Time, a.CompanyID))
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return nil, ErrNotFound
		case db.IsUniqueViolation(err):
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("accommodation: update: %w", err)
	}
	return updated, nil
}

// Delete removes an accommodation.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accommodations WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("accommodation: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
