package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

const transactionColumns = `id, user_id, amount, category, description, date, budget_id, created_at, updated_at`

var transactionSortColumns = map[string]string{
	storage.SortByDate:        "date",
	storage.SortByAmount:      "amount",
	storage.SortByCategory:    "category",
	storage.SortByDescription: "description",
}

// InsertTransaction stores a transaction with whatever budget id the caller resolved.
func (q *queries) InsertTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, user_id, amount, category, description, date, budget_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transactionColumns
	row := q.db.QueryRow(ctx, query, uuid.NewString(), tx.UserID, tx.Amount, tx.Category, tx.Description, tx.Date, tx.BudgetID)
	return scanTransaction(row)
}

// GetTransaction fetches a transaction owned by userID, locking the row
// inside a transaction so the read-adjust-write of spent cannot interleave.
func (q *queries) GetTransaction(ctx context.Context, id, userID string) (models.Transaction, error) {
	query := q.forUpdate(`SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`)
	return scanTransaction(q.db.QueryRow(ctx, query, id, userID))
}

// UpdateTransaction overwrites the mutable fields, including budget_id.
func (q *queries) UpdateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	query := `
		UPDATE transactions
		SET amount = $3, category = $4, description = $5, date = $6, budget_id = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + transactionColumns
	row := q.db.QueryRow(ctx, query, tx.ID, tx.UserID, tx.Amount, tx.Category, tx.Description, tx.Date, tx.BudgetID)
	return scanTransaction(row)
}

// DeleteTransaction removes a transaction owned by userID.
func (q *queries) DeleteTransaction(ctx context.Context, id, userID string) error {
	return requireRow(q.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID))
}

// ListTransactions returns one page of matching transactions plus the total match count.
func (q *queries) ListTransactions(ctx context.Context, userID string, filter storage.TransactionFilter) ([]models.Transaction, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.From != nil {
		add("date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("date <= $%d", *filter.To)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		add("description ILIKE $%d", "%"+escapeLike(search)+"%")
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	column, ok := transactionSortColumns[filter.SortBy]
	if !ok {
		column = "date"
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY %s %s, created_at %s, id %s`,
		transactionColumns, clause, column, direction, direction, direction)
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	out, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListBudgetTransactions returns the transactions linked to a budget, newest first.
func (q *queries) ListBudgetTransactions(ctx context.Context, budgetID, userID string) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE budget_id = $1 AND user_id = $2
		ORDER BY date DESC, created_at DESC`
	rows, err := q.db.Query(ctx, query, budgetID, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget transactions: %w", err)
	}
	return collectTransactions(rows)
}

// LinkUnassignedTransactions attaches unlinked transactions covered by budget.
func (q *queries) LinkUnassignedTransactions(ctx context.Context, budget models.Budget) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE transactions
		SET budget_id = $1, updated_at = NOW()
		WHERE user_id = $2 AND category = $3 AND date >= $4 AND date <= $5 AND budget_id IS NULL`,
		budget.ID, budget.UserID, budget.Category, budget.PeriodStart, budget.PeriodEnd)
	if err != nil {
		return 0, fmt.Errorf("link transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReleaseBudgetTransactions detaches every transaction from budgetID.
func (q *queries) ReleaseBudgetTransactions(ctx context.Context, budgetID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE transactions SET budget_id = NULL, updated_at = NOW() WHERE budget_id = $1`, budgetID)
	if err != nil {
		return 0, fmt.Errorf("release transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Category, &t.Description, &t.Date, &t.BudgetID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Transaction{}, mapError(err)
	}
	return t, nil
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	out := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
