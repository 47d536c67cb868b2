package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

type PotInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
}

type PotPatch struct {
	Name         *string
	TargetAmount *decimal.Decimal
}

// PotQuery filters pots by name and by progress percentage window.
type PotQuery struct {
	Search      string
	MinProgress *decimal.Decimal
	MaxProgress *decimal.Decimal
	Order       ListOrder
}

var potComparators = map[string]func(a, b models.Pot) int{
	"name":          func(a, b models.Pot) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"targetAmount":  func(a, b models.Pot) int { return a.TargetAmount.Cmp(b.TargetAmount) },
	"currentAmount": func(a, b models.Pot) int { return a.CurrentAmount.Cmp(b.CurrentAmount) },
	"progress":      func(a, b models.Pot) int { return a.Progress().Cmp(b.Progress()) },
	"createdAt":     func(a, b models.Pot) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// PotService manages savings pots. Balance changes always append a ledger
// row in the same datastore transaction.
type PotService struct {
	store storage.Store
}

func NewPotService(store storage.Store) *PotService {
	return &PotService{store: store}
}

func (s *PotService) List(ctx context.Context, userID string, query PotQuery) ([]models.Pot, error) {
	all, err := s.store.ListPots(ctx, userID)
	if err != nil {
		return nil, wrap("fetch pots", err)
	}
	out := make([]models.Pot, 0, len(all))
	for _, p := range all {
		if query.Search != "" && !containsFold(p.Name, query.Search) {
			continue
		}
		progress := p.Progress()
		if query.MinProgress != nil && progress.LessThan(*query.MinProgress) {
			continue
		}
		if query.MaxProgress != nil && progress.GreaterThan(*query.MaxProgress) {
			continue
		}
		out = append(out, p)
	}
	sortBy(out, query.Order, potComparators, "createdAt")
	return out, nil
}

func (s *PotService) Get(ctx context.Context, id, userID string) (models.Pot, error) {
	p, err := s.store.GetPot(ctx, id, userID)
	if err != nil {
		return models.Pot{}, wrap("fetch pot", err)
	}
	return p, nil
}

// Create inserts the pot. A non-zero opening balance is recorded as a deposit.
func (s *PotService) Create(ctx context.Context, userID string, in PotInput) (models.Pot, error) {
	if !in.TargetAmount.IsPositive() {
		return models.Pot{}, invalid("targetAmount must be greater than 0")
	}
	if in.CurrentAmount.IsNegative() {
		return models.Pot{}, invalid("currentAmount cannot be negative")
	}
	if in.CurrentAmount.GreaterThan(in.TargetAmount) {
		return models.Pot{}, invalid("currentAmount cannot exceed targetAmount")
	}
	var created models.Pot
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		var err error
		created, err = q.InsertPot(ctx, models.Pot{
			UserID:        userID,
			Name:          in.Name,
			TargetAmount:  in.TargetAmount,
			CurrentAmount: in.CurrentAmount,
		})
		if err != nil {
			return err
		}
		if in.CurrentAmount.IsPositive() {
			_, err = q.InsertPotTransaction(ctx, models.PotTransaction{
				PotID:  created.ID,
				Amount: in.CurrentAmount,
				Type:   models.PotDeposit,
			})
		}
		return err
	})
	if err != nil {
		return models.Pot{}, wrap("create pot", err)
	}
	return created, nil
}

// Update renames the pot or moves its target. The target cannot drop below
// the amount already saved.
func (s *PotService) Update(ctx context.Context, id, userID string, patch PotPatch) (models.Pot, error) {
	var updated models.Pot
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		existing, err := q.GetPot(ctx, id, userID)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			existing.Name = *patch.Name
		}
		if patch.TargetAmount != nil {
			if !patch.TargetAmount.IsPositive() {
				return invalid("targetAmount must be greater than 0")
			}
			if patch.TargetAmount.LessThan(existing.CurrentAmount) {
				return invalid("targetAmount cannot be below currentAmount")
			}
			existing.TargetAmount = *patch.TargetAmount
		}
		updated, err = q.UpdatePot(ctx, existing)
		return err
	})
	if err != nil {
		return models.Pot{}, wrap("update pot", err)
	}
	return updated, nil
}

func (s *PotService) Delete(ctx context.Context, id, userID string) error {
	return wrap("delete pot", s.store.DeletePot(ctx, id, userID))
}

// Deposit adds amount to the pot and records it in the ledger.
func (s *PotService) Deposit(ctx context.Context, id, userID string, amount decimal.Decimal) (models.Pot, error) {
	return s.move(ctx, "deposit to pot", id, userID, amount, models.PotDeposit)
}

// Withdraw removes amount from the pot, failing with ErrInsufficientFunds
// when the pot holds less than amount.
func (s *PotService) Withdraw(ctx context.Context, id, userID string, amount decimal.Decimal) (models.Pot, error) {
	return s.move(ctx, "withdraw from pot", id, userID, amount, models.PotWithdraw)
}

func (s *PotService) move(ctx context.Context, op, id, userID string, amount decimal.Decimal, kind models.PotMovement) (models.Pot, error) {
	if !amount.IsPositive() {
		return models.Pot{}, invalid("amount must be greater than 0")
	}
	var out models.Pot
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		pot, err := q.GetPot(ctx, id, userID)
		if err != nil {
			return err
		}
		delta := amount
		switch kind {
		case models.PotDeposit:
			if pot.CurrentAmount.Add(amount).GreaterThan(pot.TargetAmount) {
				return ErrExceedsTarget
			}
		case models.PotWithdraw:
			if amount.GreaterThan(pot.CurrentAmount) {
				return ErrInsufficientFunds
			}
			delta = amount.Neg()
		}
		if out, err = q.AdjustPotAmount(ctx, pot.ID, delta); err != nil {
			return err
		}
		_, err = q.InsertPotTransaction(ctx, models.PotTransaction{PotID: pot.ID, Amount: amount, Type: kind})
		return err
	})
	if err != nil {
		return models.Pot{}, wrap(op, err)
	}
	return out, nil
}

// Ledger lists the pot's movements, newest first.
func (s *PotService) Ledger(ctx context.Context, id, userID string) ([]models.PotTransaction, error) {
	if _, err := s.store.GetPot(ctx, id, userID); err != nil {
		return nil, wrap("fetch pot", err)
	}
	entries, err := s.store.ListPotTransactions(ctx, id)
	if err != nil {
		return nil, wrap("fetch pot transactions", err)
	}
	return entries, nil
}
