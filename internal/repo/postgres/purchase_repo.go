package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
	purchasesvc "github.com/beastcodes27/movie-backend/internal/services/purchases"
)

// PurchaseRepo persists purchase records keyed by (user_id, movie_id) plus a
// per-user owned-movies index.
type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

func (r *PurchaseRepo) Get(ctx context.Context, userID int64, movieID string) (model.Purchase, error) {
	if r.pool == nil {
		return model.Purchase{}, fmt.Errorf("postgres pool is nil")
	}

	record, err := scanPurchase(r.pool.QueryRow(ctx, `
SELECT id, user_id, movie_id, price, status, payment_method, transaction_id, purchased_at
FROM purchases
WHERE user_id = $1
  AND movie_id = $2
`, userID, movieID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Purchase{}, purchasesvc.ErrPurchaseNotFound
		}
		return model.Purchase{}, fmt.Errorf("find purchase: %w", err)
	}

	return record, nil
}

// CreateIfAbsent inserts the record unless one exists for the key. The
// conflict target is the (user_id, movie_id) primary key, so two concurrent
// commits for the same pair race to a single row.
func (r *PurchaseRepo) CreateIfAbsent(ctx context.Context, purchase model.Purchase) (model.Purchase, bool, error) {
	if r.pool == nil {
		return model.Purchase{}, false, fmt.Errorf("postgres pool is nil")
	}

	record, err := scanPurchase(r.pool.QueryRow(ctx, `
INSERT INTO purchases (
	id,
	user_id,
	movie_id,
	price,
	status,
	payment_method,
	transaction_id,
	purchased_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, movie_id) DO NOTHING
RETURNING id, user_id, movie_id, price, status, payment_method, transaction_id, purchased_at
`,
		purchase.ID,
		purchase.UserID,
		purchase.MovieID,
		purchase.Price,
		purchase.Status,
		purchase.PaymentMethod,
		purchase.TransactionID,
		purchase.PurchasedAt,
	))
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Purchase{}, false, fmt.Errorf("insert purchase: %w", err)
	}

	// Conflict: the row already existed. Return it unchanged.
	existing, err := r.Get(ctx, purchase.UserID, purchase.MovieID)
	if err != nil {
		return model.Purchase{}, false, err
	}
	return existing, false, nil
}

// AppendOwned records ownership in the per-user index and touches the
// summary row in the same transaction.
func (r *PurchaseRepo) AppendOwned(ctx context.Context, userID int64, movieID string, now time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO user_purchases (user_id, created_at, updated_at)
VALUES ($1, $2, $2)
ON CONFLICT (user_id) DO UPDATE SET updated_at = $2
`, userID, now); err != nil {
			return fmt.Errorf("upsert user purchases summary: %w", err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO user_purchase_index (user_id, movie_id, purchased_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, movie_id) DO NOTHING
`, userID, movieID, now); err != nil {
			return fmt.Errorf("insert owned movie index: %w", err)
		}

		return nil
	})
}

func (r *PurchaseRepo) ListOwned(ctx context.Context, userID int64) ([]string, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT movie_id
FROM user_purchase_index
WHERE user_id = $1
ORDER BY purchased_at
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned movies: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owned movie id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned movies: %w", err)
	}

	return ids, nil
}

func (r *PurchaseRepo) ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, movie_id, price, status, payment_method, transaction_id, purchased_at
FROM purchases
WHERE user_id = $1
ORDER BY purchased_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases by user: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

func (r *PurchaseRepo) ListAll(ctx context.Context) ([]model.Purchase, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, movie_id, price, status, payment_method, transaction_id, purchased_at
FROM purchases
ORDER BY purchased_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list all purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

func scanPurchase(row pgx.Row) (model.Purchase, error) {
	var record model.Purchase
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.MovieID,
		&record.Price,
		&record.Status,
		&record.PaymentMethod,
		&record.TransactionID,
		&record.PurchasedAt,
	); err != nil {
		return model.Purchase{}, err
	}
	return record, nil
}

func collectPurchases(rows pgx.Rows) ([]model.Purchase, error) {
	records := make([]model.Purchase, 0)
	for rows.Next() {
		record, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase rows: %w", err)
	}
	return records, nil
}
