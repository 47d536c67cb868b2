package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single spending record. BudgetID is derived at write time
// from the budget whose category and period cover the transaction.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	BudgetID    *string         `json:"budgetId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// InBudget reports whether the transaction currently points at budgetID.
func (t Transaction) InBudget(budgetID string) bool {
	return t.BudgetID != nil && *t.BudgetID == budgetID
}
