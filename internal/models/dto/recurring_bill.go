package dto

import (
	"github.com/shopspring/decimal"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
)

type CreateRecurringBillRequest struct {
	Name     string            `json:"name"`
	Amount   decimal.Decimal   `json:"amount"`
	DueDate  Date              `json:"dueDate"`
	Status   models.BillStatus `json:"status"`
	Category string            `json:"category"`
}

type UpdateRecurringBillRequest struct {
	Name     *string            `json:"name"`
	Amount   *decimal.Decimal   `json:"amount"`
	DueDate  *Date              `json:"dueDate"`
	Status   *models.BillStatus `json:"status"`
	Category *string            `json:"category"`
}
