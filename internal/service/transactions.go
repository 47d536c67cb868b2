package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TransactionInput is a fully specified new transaction.
type TransactionInput struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}

// TransactionPatch is a partial update; nil fields keep their stored value.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Date        *time.Time
}

// TransactionQuery selects one page of a user's transactions.
type TransactionQuery struct {
	Category string
	From     *time.Time
	To       *time.Time
	Search   string
	Order    ListOrder
	Page     int
	Limit    int
}

type TransactionPage struct {
	Items      []models.Transaction
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// TransactionService records spending and keeps Budget.spent equal to the sum
// of the transactions linked to each budget. Every write runs in one
// datastore transaction so the link and the budget arithmetic commit together.
type TransactionService struct {
	store storage.Store
	log   logrus.FieldLogger
}

func NewTransactionService(store storage.Store, log logrus.FieldLogger) *TransactionService {
	return &TransactionService{store: store, log: log}
}

// List returns a page of transactions ordered by date descending unless asked otherwise.
func (s *TransactionService) List(ctx context.Context, userID string, query TransactionQuery) (TransactionPage, error) {
	page := max(query.Page, 1)
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	sortField := query.Order.SortBy
	switch sortField {
	case storage.SortByDate, storage.SortByAmount, storage.SortByCategory, storage.SortByDescription:
	default:
		sortField = storage.SortByDate
	}

	items, total, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
		Category: strings.TrimSpace(query.Category),
		From:     query.From,
		To:       query.To,
		Search:   query.Search,
		SortBy:   sortField,
		Desc:     query.Order.Desc,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return TransactionPage{}, wrap("fetch transactions", err)
	}
	return TransactionPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *TransactionService) Get(ctx context.Context, id, userID string) (models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return models.Transaction{}, wrap("fetch transaction", err)
	}
	return tx, nil
}

// Create inserts the transaction linked to the budget covering its category
// and date, if any, and adds its amount to that budget's spent.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (models.Transaction, error) {
	var created models.Transaction
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		budgetID, err := matchBudget(ctx, q, userID, in.Category, in.Date)
		if err != nil {
			return err
		}
		created, err = q.InsertTransaction(ctx, models.Transaction{
			UserID:      userID,
			Amount:      in.Amount,
			Category:    in.Category,
			Description: in.Description,
			Date:        in.Date,
			BudgetID:    budgetID,
		})
		if err != nil {
			return err
		}
		if budgetID != nil {
			return q.AdjustBudgetSpent(ctx, *budgetID, in.Amount)
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, wrap("create transaction", err)
	}
	s.logLink(created.ID, nil, created.BudgetID)
	return created, nil
}

// Update applies patch. When category or date change the budget link is
// resolved again; when the amount or the link change the old budget is
// debited the old amount and the new budget credited the new amount.
func (s *TransactionService) Update(ctx context.Context, id, userID string, patch TransactionPatch) (models.Transaction, error) {
	var (
		updated models.Transaction
		before  *string
	)
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		existing, err := q.GetTransaction(ctx, id, userID)
		if err != nil {
			return err
		}
		before = existing.BudgetID

		next := existing
		if patch.Amount != nil {
			next.Amount = *patch.Amount
		}
		if patch.Category != nil {
			next.Category = *patch.Category
		}
		if patch.Description != nil {
			next.Description = *patch.Description
		}
		if patch.Date != nil {
			next.Date = *patch.Date
		}

		newBudgetID := existing.BudgetID
		if next.Category != existing.Category || !next.Date.Equal(existing.Date) {
			if newBudgetID, err = matchBudget(ctx, q, userID, next.Category, next.Date); err != nil {
				return err
			}
		}

		if !next.Amount.Equal(existing.Amount) || !sameBudget(existing.BudgetID, newBudgetID) {
			if existing.BudgetID != nil {
				if err := q.AdjustBudgetSpent(ctx, *existing.BudgetID, existing.Amount.Neg()); err != nil {
					return err
				}
			}
			if newBudgetID != nil {
				if err := q.AdjustBudgetSpent(ctx, *newBudgetID, next.Amount); err != nil {
					return err
				}
			}
		}

		next.BudgetID = newBudgetID
		updated, err = q.UpdateTransaction(ctx, next)
		return err
	})
	if err != nil {
		return models.Transaction{}, wrap("update transaction", err)
	}
	s.logLink(updated.ID, before, updated.BudgetID)
	return updated, nil
}

// Delete removes the transaction and takes its amount back out of its budget.
func (s *TransactionService) Delete(ctx context.Context, id, userID string) error {
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		existing, err := q.GetTransaction(ctx, id, userID)
		if err != nil {
			return err
		}
		if existing.BudgetID != nil {
			if err := q.AdjustBudgetSpent(ctx, *existing.BudgetID, existing.Amount.Neg()); err != nil {
				return err
			}
		}
		return q.DeleteTransaction(ctx, id, userID)
	})
	return wrap("delete transaction", err)
}

func (s *TransactionService) logLink(txID string, before, after *string) {
	if s.log == nil || sameBudget(before, after) {
		return
	}
	s.log.WithFields(logrus.Fields{
		"transaction": txID,
		"from_budget": deref(before),
		"to_budget":   deref(after),
	}).Debug("transaction budget link changed")
}

// matchBudget returns the id of the budget covering (category, date) or nil.
func matchBudget(ctx context.Context, q storage.Queries, userID, category string, date time.Time) (*string, error) {
	budget, err := q.FindMatchingBudget(ctx, userID, category, date)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &budget.ID, nil
}

func sameBudget(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
