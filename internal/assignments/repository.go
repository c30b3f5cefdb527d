package assignments

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tourdesk/tourdesk/internal/platform/db"
)

// Repository persists tour assignments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Assignment, error)
	GetForUpdate(ctx context.Context, id int64) (*Assignment, error)
	List(ctx context.Context, filter ListFilter) ([]Assignment, int, error)
	Create(ctx context.Context, a Assignment) (*Assignment, error)
	Update(ctx context.Context, a Assignment) (*Assignment, error)
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

const columns = `id, tour_id, guide_id, assignment_date, created_at, updated_at`

func scan(row pgx.Row) (*Assignment, error) {
	var a Assignment
	if err := row.Scan(&a.ID, &a.TourID, &a.GuideID, &a.AssignmentDate.Time, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) get(ctx context.Context, query string, id int64) (*Assignment, error) {
	a, err := scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("tour assignment: get: %w", err)
	}
	return a, nil
}

// Get fetches one assignment.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Assignment, error) {
	return r.get(ctx, `SELECT `+columns+` FROM tour_assignments WHERE id = $1`, id)
}

// GetForUpdate fetches and locks one assignment.
func (r *PGRepository) GetForUpdate(ctx context.Context, id int64) (*Assignment, error) {
	return r.get(ctx, `SELECT `+columns+` FROM tour_assignments WHERE id = $1 FOR UPDATE`, id)
}

// List returns a page of assignments and the total count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Assignment, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.TourID > 0 {
		args = append(args, filter.TourID)
		where = append(where, fmt.Sprintf("tour_id = $%d", len(args)))
	}
	if filter.GuideID > 0 {
		args = append(args, filter.GuideID)
		where = append(where, fmt.Sprintf("guide_id = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tour_assignments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tour assignment: count: %w", err)
	}
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM tour_assignments%s ORDER BY assignment_date, id LIMIT $%d OFFSET $%d`, columns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("tour assignment: list: %w", err)
	}
	defer rows.Close()

	items := make([]Assignment, 0)
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("tour assignment: scan: %w", err)
		}
		items = append(items, *a)
	}
	return items, total, rows.Err()
}

// Create inserts an assignment.
func (r *PGRepository) Create(ctx context.Context, a Assignment) (*Assignment, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO tour_assignments (tour_id, guide_id, assignment_date)
VALUES ($1, $2, $3)
RETURNING `+columns,
		a.TourID, a.GuideID, a.AssignmentDate.Time))
	if err != nil {
		return nil, r.writeError("create", err)
	}
	return created, nil
}

// Update writes the mutable columns of a.
func (r *PGRepository) Update(ctx context.Context, a Assignment) (*Assignment, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE tour_assignments
SET tour_id = $2, guide_id = $3, assignment_date = $4, updated_at = NOW()
WHERE id = $1
RETURNING `+columns,
		a.ID, a.TourID, a.GuideID, a.AssignmentDate.Time))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, r.writeError("update", err)
	}
	return updated, nil
}

func (r *PGRepository) writeError(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return ErrTourNotFound
	default:
		return fmt.Errorf("tour assignment: %s: %w", op, err)
	}
}

// Delete removes an assignment.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tour_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tour assignment: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
