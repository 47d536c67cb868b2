package dto

import "github.com/shopspring/decimal"

type CreatePotRequest struct {
	Name          string           `json:"name"`
	TargetAmount  decimal.Decimal  `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
}

type UpdatePotRequest struct {
	Name         *string          `json:"name"`
	TargetAmount *decimal.Decimal `json:"targetAmount"`
}

type PotMovementRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
