package bookings

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tourdesk/tourdesk/internal/platform/db"
)

// Repository persists bookings.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Booking, error)
	GetForUpdate(ctx context.Context, id int64) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, int, error)
	Create(ctx context.Context, b Booking) (*Booking, error)
	Update(ctx context.Context, b Booking) (*Booking, error)
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

const columns = `id, accommodation_id, user_id, start_date, end_date, guests, status, created_at, updated_at`

func scan(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.AccommodationID, &b.UserID, &b.StartDate.Time, &b.EndDate.Time, &b.Guests, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) get(ctx context.Context, query string, id int64) (*Booking, error) {
	b, err := scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("booking: get: %w", err)
	}
	return b, nil
}

// Get fetches one booking.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Booking, error) {
	return r.get(ctx, `SELECT `+columns+` FROM bookings WHERE id = $1`, id)
}

// GetForUpdate fetches and locks one booking.
func (r *PGRepository) GetForUpdate(ctx context.Context, id int64) (*Booking, error) {
	return r.get(ctx, `SELECT `+columns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

// List returns a page of bookings and the total count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Booking, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.AccommodationID > 0 {
		args = append(args, filter.AccommodationID)
		where = append(where, fmt.Sprintf("accommodation_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("booking: count: %w", err)
	}
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY start_date DESC, id LIMIT $%d OFFSET $%d`, columns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("booking: list: %w", err)
	}
	defer rows.Close()

	items := make([]Booking, 0)
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("booking: scan: %w", err)
		}
		items = append(items, *b)
	}
	return items, total, rows.Err()
}

// Create inserts a booking.
func (r *PGRepository) Create(ctx context.Context, b Booking) (*Booking, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO bookings (accommodation_id, user_id, start_date, end_date, guests, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+columns,
		b.AccommodationID, b.UserID, b.StartDate.Time, b.EndDate.Time, b.Guests, string(b.Status)))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrAccommodationNotFound
		}
		return nil, fmt.Errorf("booking: create: %w", err)
	}
	return created, nil
}

// Update writes the mutable columns of b.
func (r *PGRepository) Update(ctx context.Context, b Booking) (*Booking, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE bookings
SET start_date = $2, end_date = $3, guests = $4, status = $5, updated_at = NOW()
WHERE id = $1
RETURNING `+columns,
		b.ID, b.StartDate.Time, b.EndDate.Time, b.Guests, string(b.Status)))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("booking: update: %w", err)
	}
	return updated, nil
}

// Delete removes a booking.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("booking: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
