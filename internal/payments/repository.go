package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tourdesk/tourdesk/internal/platform/db"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// Repository persists payments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Payment, error)
	GetForUpdate(ctx context.Context, id int64) (*Payment, error)
	List(ctx context.Context, filter ListFilter) ([]Payment, int, error)
	Create(ctx context.Context, p Payment) (*Payment, error)
	Update(ctx context.Context, p Payment) (*Payment, error)
	Delete(ctx context.Context, id int64) error
	// ClaimKey records a client idempotency key. Inside WithTx the claim is
	// released again when the transaction rolls back.
	ClaimKey(ctx context.Context, key, module string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   db.DBTX
	pool db.Beginner
	keys *shared.IdempotencyStore
}

// NewRepository constructs a repository on a pool.
func NewRepository(pool interface {
	db.DBTX
	db.Beginner
}) *PGRepository {
	return &PGRepository{db: pool, pool: pool, keys: shared.NewIdempotencyStore(pool)}
}

// WithTx runs fn against a repository bound to one repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, keys: r.keys.WithDB(tx)})
	})
}

// ClaimKey inserts key for module, failing with shared.ErrIdempotencyConflict on reuse.
func (r *PGRepository) ClaimKey(ctx context.Context, key, module string) error {
	return r.keys.CheckAndInsert(ctx, key, module)
}

const columns = `id, booking_id, user_id, amount, payment_method, status, created_at, updated_at`

func scan(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.UserID, &p.Amount, &p.PaymentMethod, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) get(ctx context.Context, query string, id int64) (*Payment, error) {
	p, err := scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payment: get: %w", err)
	}
	return p, nil
}

// Get fetches one payment.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Payment, error) {
	return r.get(ctx, `SELECT `+columns+` FROM payments WHERE id = $1`, id)
}

// GetForUpdate fetches and locks one payment.
func (r *PGRepository) GetForUpdate(ctx context.Context, id int64) (*Payment, error) {
	return r.get(ctx, `SELECT `+columns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

// List returns a page of payments and the total count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Payment, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.BookingID > 0 {
		args = append(args, filter.BookingID)
		where = append(where, fmt.Sprintf("booking_id = $%d", len(args)))
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
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("payment: count: %w", err)
	}
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM payments%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, columns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("payment: list: %w", err)
	}
	defer rows.Close()

	items := make([]Payment, 0)
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("payment: scan: %w", err)
		}
		items = append(items, *p)
	}
	return items, total, rows.Err()
}

// Create inserts a payment.
func (r *PGRepository) Create(ctx context.Context, p Payment) (*Payment, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO payments (booking_id, user_id, amount, payment_method, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+columns,
		p.BookingID, p.UserID, p.Amount, p.PaymentMethod, string(p.Status)))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("payment: create: %w", err)
	}
	return created, nil
}

// Update writes the mutable columns of p.
func (r *PGRepository) Update(ctx context.Context, p Payment) (*Payment, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE payments
SET amount = $2, payment_method = $3, status = $4, updated_at = NOW()
WHERE id = $1
RETURNING `+columns,
		p.ID, p.Amount, p.PaymentMethod, string(p.Status)))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payment: update: %w", err)
	}
	return updated, nil
}

// Delete removes a payment.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("payment: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
