package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// DealRepository stores deals. Deals are inserted and deleted, never updated.
type DealRepository struct {
	db *sql.DB
}

func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{db: db}
}

const dealColumns = `id, user_id, currency_id, count, price, created_at`

// ListDeals returns the user's deals, most recent first.
func (r *DealRepository) ListDeals(ctx context.Context, userID int64) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deals: %w", err)
	}
	return deals, nil
}

// GetDeal returns one deal owned by userID.
func (r *DealRepository) GetDeal(ctx context.Context, userID, id int64) (models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE user_id = $1 AND id = $2`

	d, err := scanDeal(r.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Deal{}, fmt.Errorf("deal %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Deal{}, fmt.Errorf("failed to get deal: %w", err)
	}
	return d, nil
}

// CreateDeal inserts d and returns it with its assigned id.
func (r *DealRepository) CreateDeal(ctx context.Context, d models.Deal) (models.Deal, error) {
	query := `
		INSERT INTO deals (user_id, currency_id, count, price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, d.UserID, d.CurrencyID, d.Count, d.Price, d.CreatedAt).Scan(&d.ID); err != nil {
		return models.Deal{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return d, nil
}

// DeleteDeal removes a deal owned by userID. Deleting someone else's deal, or
// one that does not exist, reports ErrNotFound.
func (r *DealRepository) DeleteDeal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deal %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteUserDeals removes every deal of a user and returns how many went.
func (r *DealRepository) DeleteUserDeals(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user deals: %w", err)
	}
	return res.RowsAffected()
}

// ListUserIDs returns every user that has at least one deal.
func (r *DealRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM deals ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deal owners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deal owner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (models.Deal, error) {
	var d models.Deal
	if err := row.Scan(&d.ID, &d.UserID, &d.CurrencyID, &d.Count, &d.Price, &d.CreatedAt); err != nil {
		return models.Deal{}, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}
