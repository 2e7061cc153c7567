package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// SnapshotRepository keeps one valued portfolio row per user and day.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot records the report totals for the day containing at. Later
// calls on the same day overwrite the totals and widen the max/min range.
// Empty portfolios are not recorded.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, userID int64, at time.Time, report models.ValuationReport) (bool, error) {
	if report.TotalCurrentValue <= 0 || report.TotalInvested <= 0 {
		return false, nil
	}

	query := `
		INSERT INTO portfolio_snapshots
			(user_id, date, total_value, total_invested, profit, profit_percentage, max_value, min_value)
		VALUES ($1, $2, $3, $4, $5, $6, $3, $3)
		ON CONFLICT (user_id, date) DO UPDATE SET
			total_value = excluded.total_value,
			total_invested = excluded.total_invested,
			profit = excluded.profit,
			profit_percentage = excluded.profit_percentage,
			max_value = CASE WHEN excluded.total_value > portfolio_snapshots.max_value
				THEN excluded.total_value ELSE portfolio_snapshots.max_value END,
			min_value = CASE WHEN excluded.total_value < portfolio_snapshots.min_value
				THEN excluded.total_value ELSE portfolio_snapshots.min_value END`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		Day(at),
		report.TotalCurrentValue,
		report.TotalInvested,
		report.TotalProfitLoss,
		report.TotalProfitLossPercent,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return true, nil
}

// ListSnapshots returns the user's snapshots from since onwards, oldest first.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, userID int64, since time.Time) ([]models.PortfolioSnapshot, error) {
	query := `
		SELECT id, user_id, date, total_value, total_invested, profit, profit_percentage, max_value, min_value
		FROM portfolio_snapshots
		WHERE user_id = $1 AND date >= $2
		ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, userID, Day(since))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []models.PortfolioSnapshot{}
	for rows.Next() {
		var s models.PortfolioSnapshot
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.TotalValue, &s.TotalInvested,
			&s.Profit, &s.ProfitPercentage, &s.MaxValue, &s.MinValue); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Date = s.Date.UTC()
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ChartData shapes snapshots for a line chart.
func ChartData(snapshots []models.PortfolioSnapshot) models.PortfolioChartData {
	chart := models.PortfolioChartData{
		Labels: make([]string, 0, len(snapshots)),
		Values: make([]float64, 0, len(snapshots)),
	}
	for i, s := range snapshots {
		chart.Labels = append(chart.Labels, s.Date.Format("2006-01-02"))
		chart.Values = append(chart.Values, s.TotalValue)
		if i == 0 || s.MaxValue > chart.High {
			chart.High = s.MaxValue
		}
		if i == 0 || s.MinValue < chart.Low {
			chart.Low = s.MinValue
		}
	}
	return chart
}
