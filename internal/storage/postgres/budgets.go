package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
)

const budgetColumns = `id, user_id, category, amount, spent, period_start, period_end, created_at, updated_at`

func (q *queries) InsertBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	query := `
		INSERT INTO budgets (id, user_id, category, amount, spent, period_start, period_end)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
		RETURNING ` + budgetColumns
	row := q.db.QueryRow(ctx, query, uuid.NewString(), budget.UserID, budget.Category, budget.Amount, budget.PeriodStart, budget.PeriodEnd)
	return scanBudget(row)
}

func (q *queries) GetBudget(ctx context.Context, id, userID string) (models.Budget, error) {
	query := q.forUpdate(`SELECT ` + budgetColumns + ` FROM budgets WHERE id = $1 AND user_id = $2`)
	return scanBudget(q.db.QueryRow(ctx, query, id, userID))
}

func (q *queries) UpdateBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	query := `
		UPDATE budgets
		SET category = $3, amount = $4, period_start = $5, period_end = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + budgetColumns
	row := q.db.QueryRow(ctx, query, budget.ID, budget.UserID, budget.Category, budget.Amount, budget.PeriodStart, budget.PeriodEnd)
	return scanBudget(row)
}

func (q *queries) DeleteBudget(ctx context.Context, id, userID string) error {
	return requireRow(q.db.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID))
}

func (q *queries) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	out := []models.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindMatchingBudget picks the newest budget whose category and period cover the date.
func (q *queries) FindMatchingBudget(ctx context.Context, userID, category string, date time.Time) (models.Budget, error) {
	query := `SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = $1 AND category = $2 AND period_start <= $3 AND period_end >= $3
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return scanBudget(q.db.QueryRow(ctx, q.forUpdate(query), userID, category, date))
}

func (q *queries) AdjustBudgetSpent(ctx context.Context, budgetID string, delta decimal.Decimal) error {
	return requireRow(q.db.Exec(ctx, `UPDATE budgets SET spent = spent + $2, updated_at = NOW() WHERE id = $1`, budgetID, delta))
}

func (q *queries) RecomputeBudgetSpent(ctx context.Context, budgetID string) (models.Budget, error) {
	query := `
		UPDATE budgets
		SET spent = (SELECT COALESCE(SUM(t.amount), 0) FROM transactions t WHERE t.budget_id = budgets.id),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + budgetColumns
	return scanBudget(q.db.QueryRow(ctx, query, budgetID))
}

func scanBudget(row pgx.Row) (models.Budget, error) {
	var b models.Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &b.Spent, &b.PeriodStart, &b.PeriodEnd, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return models.Budget{}, mapError(err)
	}
	return b, nil
}
