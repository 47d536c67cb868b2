package dto

import "github.com/shopspring/decimal"

type CreateBudgetRequest struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart Date            `json:"periodStart"`
	PeriodEnd   Date            `json:"periodEnd"`
}

// UpdateBudgetRequest has no spent field: spent is derived from transactions.
type UpdateBudgetRequest struct {
	Category    *string          `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	PeriodStart *Date            `json:"periodStart"`
	PeriodEnd   *Date            `json:"periodEnd"`
}
