package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
)

const billColumns = `id, user_id, name, amount, due_date, status, category, created_at, updated_at`

func (q *queries) InsertBill(ctx context.Context, bill models.RecurringBill) (models.RecurringBill, error) {
	query := `
		INSERT INTO recurring_bills (id, user_id, name, amount, due_date, status, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + billColumns
	row := q.db.QueryRow(ctx, query, uuid.NewString(), bill.UserID, bill.Name, bill.Amount, bill.DueDate, string(bill.Status), bill.Category)
	return scanBill(row)
}

func (q *queries) GetBill(ctx context.Context, id, userID string) (models.RecurringBill, error) {
	query := `SELECT ` + billColumns + ` FROM recurring_bills WHERE id = $1 AND user_id = $2`
	return scanBill(q.db.QueryRow(ctx, query, id, userID))
}

func (q *queries) UpdateBill(ctx context.Context, bill models.RecurringBill) (models.RecurringBill, error) {
	query := `
		UPDATE recurring_bills
		SET name = $3, amount = $4, due_date = $5, status = $6, category = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + billColumns
	row := q.db.QueryRow(ctx, query, bill.ID, bill.UserID, bill.Name, bill.Amount, bill.DueDate, string(bill.Status), bill.Category)
	return scanBill(row)
}

func (q *queries) DeleteBill(ctx context.Context, id, userID string) error {
	return requireRow(q.db.Exec(ctx, `DELETE FROM recurring_bills WHERE id = $1 AND user_id = $2`, id, userID))
}

func (q *queries) ListBills(ctx context.Context, userID string) ([]models.RecurringBill, error) {
	query := `SELECT ` + billColumns + ` FROM recurring_bills WHERE user_id = $1 ORDER BY due_date ASC, created_at ASC`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring bills: %w", err)
	}
	defer rows.Close()
	out := []models.RecurringBill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *queries) MarkOverdueBills(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE recurring_bills
		SET status = 'overdue', updated_at = NOW()
		WHERE status = 'pending' AND due_date < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("mark overdue bills: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanBill(row pgx.Row) (models.RecurringBill, error) {
	var b models.RecurringBill
	var status string
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Amount, &b.DueDate, &status, &b.Category, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return models.RecurringBill{}, mapError(err)
	}
	b.Status = models.BillStatus(status)
	return b, nil
}
