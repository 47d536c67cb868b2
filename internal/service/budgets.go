package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

type BudgetInput struct {
	Category    string
	Amount      decimal.Decimal
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// BudgetPatch has no Spent field: spent is only ever derived from transactions.
type BudgetPatch struct {
	Category    *string
	Amount      *decimal.Decimal
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// BudgetQuery filters budgets by category and by overlap with [From, To].
type BudgetQuery struct {
	Category string
	From     *time.Time
	To       *time.Time
	Order    ListOrder
}

var budgetComparators = map[string]func(a, b models.Budget) int{
	"category":    func(a, b models.Budget) int { return strings.Compare(a.Category, b.Category) },
	"amount":      func(a, b models.Budget) int { return a.Amount.Cmp(b.Amount) },
	"spent":       func(a, b models.Budget) int { return a.Spent.Cmp(b.Spent) },
	"periodStart": func(a, b models.Budget) int { return a.PeriodStart.Compare(b.PeriodStart) },
	"periodEnd":   func(a, b models.Budget) int { return a.PeriodEnd.Compare(b.PeriodEnd) },
	"createdAt":   func(a, b models.Budget) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type BudgetService struct {
	store storage.Store
}

func NewBudgetService(store storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

func (s *BudgetService) List(ctx context.Context, userID string, query BudgetQuery) ([]models.Budget, error) {
	all, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, wrap("fetch budgets", err)
	}
	category := strings.TrimSpace(query.Category)
	out := make([]models.Budget, 0, len(all))
	for _, b := range all {
		if category != "" && b.Category != category {
			continue
		}
		if query.From != nil && b.PeriodEnd.Before(*query.From) {
			continue
		}
		if query.To != nil && b.PeriodStart.After(*query.To) {
			continue
		}
		out = append(out, b)
	}
	sortBy(out, query.Order, budgetComparators, "createdAt")
	return out, nil
}

func (s *BudgetService) Get(ctx context.Context, id, userID string) (models.Budget, error) {
	b, err := s.store.GetBudget(ctx, id, userID)
	if err != nil {
		return models.Budget{}, wrap("fetch budget", err)
	}
	return b, nil
}

// Create inserts the budget, attaches the user's unlinked transactions it
// covers and returns it with spent already reconciled.
func (s *BudgetService) Create(ctx context.Context, userID string, in BudgetInput) (models.Budget, error) {
	if err := validateBudget(in.Amount, in.PeriodStart, in.PeriodEnd); err != nil {
		return models.Budget{}, err
	}
	var created models.Budget
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		b, err := q.InsertBudget(ctx, models.Budget{
			UserID:      userID,
			Category:    in.Category,
			Amount:      in.Amount,
			PeriodStart: in.PeriodStart,
			PeriodEnd:   in.PeriodEnd,
		})
		if err != nil {
			return err
		}
		created, err = relink(ctx, q, b, false)
		return err
	})
	if err != nil {
		return models.Budget{}, wrap("create budget", err)
	}
	return created, nil
}

// Update changes the cap, category or period. A category or period change
// re-derives which transactions belong to the budget and recomputes spent.
func (s *BudgetService) Update(ctx context.Context, id, userID string, patch BudgetPatch) (models.Budget, error) {
	var updated models.Budget
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		existing, err := q.GetBudget(ctx, id, userID)
		if err != nil {
			return err
		}
		next := existing
		if patch.Category != nil {
			next.Category = *patch.Category
		}
		if patch.Amount != nil {
			next.Amount = *patch.Amount
		}
		if patch.PeriodStart != nil {
			next.PeriodStart = *patch.PeriodStart
		}
		if patch.PeriodEnd != nil {
			next.PeriodEnd = *patch.PeriodEnd
		}
		if err := validateBudget(next.Amount, next.PeriodStart, next.PeriodEnd); err != nil {
			return err
		}

		updated, err = q.UpdateBudget(ctx, next)
		if err != nil {
			return err
		}
		scopeChanged := next.Category != existing.Category ||
			!next.PeriodStart.Equal(existing.PeriodStart) ||
			!next.PeriodEnd.Equal(existing.PeriodEnd)
		if scopeChanged {
			updated, err = relink(ctx, q, updated, true)
		}
		return err
	})
	if err != nil {
		return models.Budget{}, wrap("update budget", err)
	}
	return updated, nil
}

// Delete releases the budget's transactions and removes it.
func (s *BudgetService) Delete(ctx context.Context, id, userID string) error {
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetBudget(ctx, id, userID); err != nil {
			return err
		}
		if _, err := q.ReleaseBudgetTransactions(ctx, id); err != nil {
			return err
		}
		return q.DeleteBudget(ctx, id, userID)
	})
	return wrap("delete budget", err)
}

// Transactions lists the transactions currently linked to the budget.
func (s *BudgetService) Transactions(ctx context.Context, id, userID string) ([]models.Transaction, error) {
	if _, err := s.store.GetBudget(ctx, id, userID); err != nil {
		return nil, wrap("fetch budget", err)
	}
	txs, err := s.store.ListBudgetTransactions(ctx, id, userID)
	if err != nil {
		return nil, wrap("fetch budget transactions", err)
	}
	return txs, nil
}

// Recalculate resets spent to the sum of the linked transactions.
func (s *BudgetService) Recalculate(ctx context.Context, id, userID string) (models.Budget, error) {
	var out models.Budget
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetBudget(ctx, id, userID); err != nil {
			return err
		}
		var err error
		out, err = q.RecomputeBudgetSpent(ctx, id)
		return err
	})
	if err != nil {
		return models.Budget{}, wrap("recalculate budget", err)
	}
	return out, nil
}

// relink attaches unlinked covered transactions to b, first releasing its
// current ones when release is set, and recomputes spent.
func relink(ctx context.Context, q storage.Queries, b models.Budget, release bool) (models.Budget, error) {
	if release {
		if _, err := q.ReleaseBudgetTransactions(ctx, b.ID); err != nil {
			return models.Budget{}, err
		}
	}
	if _, err := q.LinkUnassignedTransactions(ctx, b); err != nil {
		return models.Budget{}, err
	}
	return q.RecomputeBudgetSpent(ctx, b.ID)
}

func validateBudget(amount decimal.Decimal, start, end time.Time) error {
	if !amount.IsPositive() {
		return invalid("amount must be greater than 0")
	}
	if !end.After(start) {
		return invalid("periodEnd must be after periodStart")
	}
	return nil
}
