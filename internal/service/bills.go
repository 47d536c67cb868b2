package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

type BillInput struct {
	Name     string
	Amount   decimal.Decimal
	DueDate  time.Time
	Status   models.BillStatus
	Category string
}

type BillPatch struct {
	Name     *string
	Amount   *decimal.Decimal
	DueDate  *time.Time
	Status   *models.BillStatus
	Category *string
}

type BillQuery struct {
	Status   models.BillStatus
	Category string
	Search   string
	Order    ListOrder
}

var billComparators = map[string]func(a, b models.RecurringBill) int{
	"dueDate": func(a, b models.RecurringBill) int { return a.DueDate.Compare(b.DueDate) },
	"amount":  func(a, b models.RecurringBill) int { return a.Amount.Cmp(b.Amount) },
	"name":    func(a, b models.RecurringBill) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"status":  func(a, b models.RecurringBill) int { return strings.Compare(string(a.Status), string(b.Status)) },
}

// RecurringBillService owns bill status: reads report pending bills past
// their due day as overdue, and SweepOverdue persists that transition.
type RecurringBillService struct {
	store storage.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewRecurringBillService(store storage.Store, log logrus.FieldLogger) *RecurringBillService {
	return &RecurringBillService{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// List returns bills with their effective status, ordered by due date unless asked otherwise.
func (s *RecurringBillService) List(ctx context.Context, userID string, query BillQuery) ([]models.RecurringBill, error) {
	all, err := s.store.ListBills(ctx, userID)
	if err != nil {
		return nil, wrap("fetch recurring bills", err)
	}
	now := s.now()
	category := strings.TrimSpace(query.Category)
	out := make([]models.RecurringBill, 0, len(all))
	for _, b := range all {
		b.Status = b.EffectiveStatus(now)
		if query.Status != "" && b.Status != query.Status {
			continue
		}
		if category != "" && b.Category != category {
			continue
		}
		if query.Search != "" && !containsFold(b.Name, query.Search) {
			continue
		}
		out = append(out, b)
	}
	sortBy(out, query.Order, billComparators, "dueDate")
	return out, nil
}

func (s *RecurringBillService) Get(ctx context.Context, id, userID string) (models.RecurringBill, error) {
	b, err := s.store.GetBill(ctx, id, userID)
	if err != nil {
		return models.RecurringBill{}, wrap("fetch recurring bill", err)
	}
	b.Status = b.EffectiveStatus(s.now())
	return b, nil
}

func (s *RecurringBillService) Create(ctx context.Context, userID string, in BillInput) (models.RecurringBill, error) {
	if in.Status == "" {
		in.Status = models.BillPending
	}
	if err := validateBill(in.Amount, in.Status); err != nil {
		return models.RecurringBill{}, err
	}
	created, err := s.store.InsertBill(ctx, models.RecurringBill{
		UserID:   userID,
		Name:     in.Name,
		Amount:   in.Amount,
		DueDate:  in.DueDate,
		Status:   in.Status,
		Category: in.Category,
	})
	if err != nil {
		return models.RecurringBill{}, wrap("create recurring bill", err)
	}
	created.Status = created.EffectiveStatus(s.now())
	return created, nil
}

func (s *RecurringBillService) Update(ctx context.Context, id, userID string, patch BillPatch) (models.RecurringBill, error) {
	var updated models.RecurringBill
	err := s.store.WithTx(ctx, func(q storage.Queries) error {
		existing, err := q.GetBill(ctx, id, userID)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			existing.Name = *patch.Name
		}
		if patch.Amount != nil {
			existing.Amount = *patch.Amount
		}
		if patch.DueDate != nil {
			existing.DueDate = *patch.DueDate
		}
		if patch.Status != nil {
			existing.Status = *patch.Status
		}
		if patch.Category != nil {
			existing.Category = *patch.Category
		}
		if err := validateBill(existing.Amount, existing.Status); err != nil {
			return err
		}
		updated, err = q.UpdateBill(ctx, existing)
		return err
	})
	if err != nil {
		return models.RecurringBill{}, wrap("update recurring bill", err)
	}
	updated.Status = updated.EffectiveStatus(s.now())
	return updated, nil
}

// MarkPaid sets the bill's status to paid.
func (s *RecurringBillService) MarkPaid(ctx context.Context, id, userID string) (models.RecurringBill, error) {
	paid := models.BillPaid
	return s.Update(ctx, id, userID, BillPatch{Status: &paid})
}

func (s *RecurringBillService) Delete(ctx context.Context, id, userID string) error {
	return wrap("delete recurring bill", s.store.DeleteBill(ctx, id, userID))
}

// SweepOverdue persists pending → overdue for every bill due before today.
func (s *RecurringBillService) SweepOverdue(ctx context.Context) (int64, error) {
	n, err := s.store.MarkOverdueBills(ctx, models.StartOfDay(s.now()))
	if err != nil {
		return 0, wrap("mark overdue bills", err)
	}
	if n > 0 && s.log != nil {
		s.log.WithField("bills", n).Info("marked recurring bills overdue")
	}
	return n, nil
}

// RunSweeper calls SweepOverdue immediately and then every interval until ctx ends.
func (s *RecurringBillService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOverdue(ctx); err != nil && s.log != nil {
			s.log.WithError(err).Error("overdue bill sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func validateBill(amount decimal.Decimal, status models.BillStatus) error {
	if !amount.IsPositive() {
		return invalid("amount must be greater than 0")
	}
	if !status.Valid() {
		return invalid("status must be one of pending, paid, overdue")
	}
	return nil
}
