package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
)

const potColumns = `id, user_id, name, target_amount, current_amount, created_at, updated_at`

func (q *queries) InsertPot(ctx context.Context, pot models.Pot) (models.Pot, error) {
	query := `
		INSERT INTO pots (id, user_id, name, target_amount, current_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + potColumns
	row := q.db.QueryRow(ctx, query, uuid.NewString(), pot.UserID, pot.Name, pot.TargetAmount, pot.CurrentAmount)
	return scanPot(row)
}

// GetPot fetches a pot owned by userID. Inside a transaction the row is
// locked so concurrent deposits and withdrawals on one pot serialize.
func (q *queries) GetPot(ctx context.Context, id, userID string) (models.Pot, error) {
	query := q.forUpdate(`SELECT ` + potColumns + ` FROM pots WHERE id = $1 AND user_id = $2`)
	return scanPot(q.db.QueryRow(ctx, query, id, userID))
}

func (q *queries) UpdatePot(ctx context.Context, pot models.Pot) (models.Pot, error) {
	query := `
		UPDATE pots
		SET name = $3, target_amount = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + potColumns
	row := q.db.QueryRow(ctx, query, pot.ID, pot.UserID, pot.Name, pot.TargetAmount)
	return scanPot(row)
}

func (q *queries) DeletePot(ctx context.Context, id, userID string) error {
	return requireRow(q.db.Exec(ctx, `DELETE FROM pots WHERE id = $1 AND user_id = $2`, id, userID))
}

func (q *queries) ListPots(ctx context.Context, userID string) ([]models.Pot, error) {
	query := `SELECT ` + potColumns + ` FROM pots WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pots: %w", err)
	}
	defer rows.Close()
	out := []models.Pot{}
	for rows.Next() {
		p, err := scanPot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *queries) AdjustPotAmount(ctx context.Context, potID string, delta decimal.Decimal) (models.Pot, error) {
	query := `
		UPDATE pots
		SET current_amount = current_amount + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + potColumns
	return scanPot(q.db.QueryRow(ctx, query, potID, delta))
}

func (q *queries) InsertPotTransaction(ctx context.Context, entry models.PotTransaction) (models.PotTransaction, error) {
	query := `
		INSERT INTO pot_transactions (id, pot_id, amount, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, pot_id, amount, type, created_at`
	row := q.db.QueryRow(ctx, query, uuid.NewString(), entry.PotID, entry.Amount, string(entry.Type))
	return scanPotTransaction(row)
}

func (q *queries) ListPotTransactions(ctx context.Context, potID string) ([]models.PotTransaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, pot_id, amount, type, created_at
		FROM pot_transactions
		WHERE pot_id = $1
		ORDER BY created_at DESC, id DESC`, potID)
	if err != nil {
		return nil, fmt.Errorf("list pot transactions: %w", err)
	}
	defer rows.Close()
	out := []models.PotTransaction{}
	for rows.Next() {
		entry, err := scanPotTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanPot(row pgx.Row) (models.Pot, error) {
	var p models.Pot
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.TargetAmount, &p.CurrentAmount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Pot{}, mapError(err)
	}
	return p, nil
}

func scanPotTransaction(row pgx.Row) (models.PotTransaction, error) {
	var entry models.PotTransaction
	var kind string
	if err := row.Scan(&entry.ID, &entry.PotID, &entry.Amount, &kind, &entry.CreatedAt); err != nil {
		return models.PotTransaction{}, mapError(err)
	}
	entry.Type = models.PotMovement(kind)
	return entry, nil
}
