package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PotMovement is the direction of a pot ledger entry.
type PotMovement string

const (
	PotDeposit  PotMovement = "deposit"
	PotWithdraw PotMovement = "withdraw"
)

// Pot is a savings goal. CurrentAmount only changes through deposit/withdraw.
type Pot struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Progress returns CurrentAmount as a percentage of TargetAmount.
func (p Pot) Progress() decimal.Decimal {
	if !p.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return p.CurrentAmount.Div(p.TargetAmount).Mul(decimal.NewFromInt(100))
}

// PotTransaction is an append-only ledger row recording one pot movement.
type PotTransaction struct {
	ID        string          `json:"id"`
	PotID     string          `json:"potId"`
	Amount    decimal.Decimal `json:"amount"`
	Type      PotMovement     `json:"type"`
	CreatedAt time.Time       `json:"timestamp"`
}
