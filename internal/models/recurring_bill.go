package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus is the payment state of a recurring bill.
type BillStatus string

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

// Valid reports whether s is one of the known statuses.
func (s BillStatus) Valid() bool {
	switch s {
	case BillPending, BillPaid, BillOverdue:
		return true
	}
	return false
}

type RecurringBill struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"dueDate"`
	Status    BillStatus      `json:"status"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// EffectiveStatus reports overdue for a pending bill whose due date falls on a
// day before now's day. Paid and overdue bills are returned as stored.
func (b RecurringBill) EffectiveStatus(now time.Time) BillStatus {
	if b.Status == BillPending && b.DueDate.Before(StartOfDay(now)) {
		return BillOverdue
	}
	return b.Status
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
