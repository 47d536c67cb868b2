package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending for one category over [PeriodStart, PeriodEnd].
// Spent is maintained by transaction writes and is never client-supplied.
type Budget struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Spent       decimal.Decimal `json:"spent"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Covers reports whether a transaction in category on date falls inside the budget.
// Both period bounds are inclusive.
func (b Budget) Covers(category string, date time.Time) bool {
	return b.Category == category && !date.Before(b.PeriodStart) && !date.After(b.PeriodEnd)
}

// Remaining is the amount left before the cap is reached; negative when overspent.
func (b Budget) Remaining() decimal.Decimal {
	return b.Amount.Sub(b.Spent)
}
