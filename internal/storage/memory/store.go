// Package memory is an in-process storage.Store. Transactions run against a
// private copy of the data that replaces the shared copy only on commit, so a
// failed transaction leaves nothing behind.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store serializes all access behind one mutex, including whole transactions.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}
	s.st = newState(s.clock)
	return s
}

// SetClock overrides the timestamp source used for createdAt/updatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) clock() time.Time {
	return s.now()
}

// Close is a no-op.
func (s *Store) Close() {}

// WithTx runs fn against a snapshot and publishes it only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(q storage.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	if err := fn(snapshot); err != nil {
		return err
	}
	s.st = snapshot
	return nil
}

type state struct {
	clock   func() time.Time
	seq     int64
	users   map[string]models.User
	txs     map[string]models.Transaction
	budgets map[string]models.Budget
	pots    map[string]models.Pot
	potTxs  map[string]models.PotTransaction
	bills   map[string]models.RecurringBill
	// order records insertion sequence, used to break createdAt ties.
	order map[string]int64
}

func newState(clock func() time.Time) *state {
	return &state{
		clock:   clock,
		users:   map[string]models.User{},
		txs:     map[string]models.Transaction{},
		budgets: map[string]models.Budget{},
		pots:    map[string]models.Pot{},
		potTxs:  map[string]models.PotTransaction{},
		bills:   map[string]models.RecurringBill{},
		order:   map[string]int64{},
	}
}

func (st *state) clone() *state {
	return &state{
		clock:   st.clock,
		seq:     st.seq,
		users:   cloneMap(st.users),
		txs:     cloneMap(st.txs),
		budgets: cloneMap(st.budgets),
		pots:    cloneMap(st.pots),
		potTxs:  cloneMap(st.potTxs),
		bills:   cloneMap(st.bills),
		order:   cloneMap(st.order),
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (st *state) newID() string {
	id := uuid.NewString()
	st.seq++
	st.order[id] = st.seq
	return id
}

// ---- shared (locked) entry points ----

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateUser(ctx, user)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.FindUserByEmail(ctx, email)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.FindUserByID(ctx, id)
}

func (s *Store) InsertTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.InsertTransaction(ctx, tx)
}

func (s *Store) GetTransaction(ctx context.Context, id, userID string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetTransaction(ctx, id, userID)
}

func (s *Store) UpdateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateTransaction(ctx, tx)
}

func (s *Store) DeleteTransaction(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteTransaction(ctx, id, userID)
}

func (s *Store) ListTransactions(ctx context.Context, userID string, filter storage.TransactionFilter) ([]models.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListTransactions(ctx, userID, filter)
}

func (s *Store) ListBudgetTransactions(ctx context.Context, budgetID, userID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListBudgetTransactions(ctx, budgetID, userID)
}

func (s *Store) LinkUnassignedTransactions(ctx context.Context, budget models.Budget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.LinkUnassignedTransactions(ctx, budget)
}

func (s *Store) ReleaseBudgetTransactions(ctx context.Context, budgetID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ReleaseBudgetTransactions(ctx, budgetID)
}

func (s *Store) InsertBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.InsertBudget(ctx, budget)
}

func (s *Store) GetBudget(ctx context.Context, id, userID string) (models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetBudget(ctx, id, userID)
}

func (s *Store) UpdateBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateBudget(ctx, budget)
}

func (s *Store) DeleteBudget(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteBudget(ctx, id, userID)
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListBudgets(ctx, userID)
}

func (s *Store) FindMatchingBudget(ctx context.Context, userID, category string, date time.Time) (models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.FindMatchingBudget(ctx, userID, category, date)
}

func (s *Store) AdjustBudgetSpent(ctx context.Context, budgetID string, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.AdjustBudgetSpent(ctx, budgetID, delta)
}

func (s *Store) RecomputeBudgetSpent(ctx context.Context, budgetID string) (models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.RecomputeBudgetSpent(ctx, budgetID)
}

func (s *Store) InsertPot(ctx context.Context, pot models.Pot) (models.Pot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.InsertPot(ctx, pot)
}

func (s *Store) GetPot(ctx context.Context, id, userID string) (models.Pot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetPot(ctx, id, userID)
}

func (s *Store) UpdatePot(ctx context.Context, pot models.Pot) (models.Pot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdatePot(ctx, pot)
}

func (s *Store) DeletePot(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeletePot(ctx, id, userID)
}

func (s *Store) ListPots(ctx context.Context, userID string) ([]models.Pot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListPots(ctx, userID)
}

func (s *Store) AdjustPotAmount(ctx context.Context, potID string, delta decimal.Decimal) (models.Pot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.AdjustPotAmount(ctx, potID, delta)
}

func (s *Store) InsertPotTransaction(ctx context.Context, entry models.PotTransaction) (models.PotTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.InsertPotTransaction(ctx, entry)
}

func (s *Store) ListPotTransactions(ctx context.Context, potID string) ([]models.PotTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListPotTransactions(ctx, potID)
}

func (s *Store) InsertBill(ctx context.Context, bill models.RecurringBill) (models.RecurringBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.InsertBill(ctx, bill)
}

func (s *Store) GetBill(ctx context.Context, id, userID string) (models.RecurringBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetBill(ctx, id, userID)
}

func (s *Store) UpdateBill(ctx context.Context, bill models.RecurringBill) (models.RecurringBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateBill(ctx, bill)
}

func (s *Store) DeleteBill(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteBill(ctx, id, userID)
}

func (s *Store) ListBills(ctx context.Context, userID string) ([]models.RecurringBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListBills(ctx, userID)
}

func (s *Store) MarkOverdueBills(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.MarkOverdueBills(ctx, before)
}

// ---- unlocked state operations ----

func (st *state) CreateUser(_ context.Context, user models.User) (models.User, error) {
	for _, existing := range st.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	now := st.clock()
	user.ID = st.newID()
	user.CreatedAt, user.UpdatedAt = now, now
	st.users[user.ID] = user
	return user, nil
}

func (st *state) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range st.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (st *state) FindUserByID(_ context.Context, id string) (models.User, error) {
	u, ok := st.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (st *state) InsertTransaction(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	now := st.clock()
	tx.ID = st.newID()
	tx.CreatedAt, tx.UpdatedAt = now, now
	st.txs[tx.ID] = tx
	return tx, nil
}

func (st *state) GetTransaction(_ context.Context, id, userID string) (models.Transaction, error) {
	tx, ok := st.txs[id]
	if !ok || tx.UserID != userID {
		return models.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (st *state) UpdateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	existing, err := st.GetTransaction(ctx, tx.ID, tx.UserID)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.CreatedAt = existing.CreatedAt
	tx.UpdatedAt = st.clock()
	st.txs[tx.ID] = tx
	return tx, nil
}

func (st *state) DeleteTransaction(ctx context.Context, id, userID string) error {
	if _, err := st.GetTransaction(ctx, id, userID); err != nil {
		return err
	}
	delete(st.txs, id)
	return nil
}

func (st *state) ListTransactions(_ context.Context, userID string, filter storage.TransactionFilter) ([]models.Transaction, int, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.Transaction
	for _, tx := range st.txs {
		if tx.UserID != userID {
			continue
		}
		if filter.Category != "" && tx.Category != filter.Category {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tx.Date.After(*filter.To) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(tx.Description), search) {
			continue
		}
		matched = append(matched, tx)
	}

	slices.SortStableFunc(matched, func(a, b models.Transaction) int {
		var c int
		switch filter.SortBy {
		case storage.SortByAmount:
			c = a.Amount.Cmp(b.Amount)
		case storage.SortByCategory:
			c = strings.Compare(a.Category, b.Category)
		case storage.SortByDescription:
			c = strings.Compare(a.Description, b.Description)
		default:
			c = a.Date.Compare(b.Date)
		}
		if c == 0 {
			c = cmp.Compare(st.order[a.ID], st.order[b.ID])
		}
		if filter.Desc {
			return -c
		}
		return c
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return []models.Transaction{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	if matched == nil {
		matched = []models.Transaction{}
	}
	return matched, total, nil
}

func (st *state) ListBudgetTransactions(_ context.Context, budgetID, userID string) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, tx := range st.txs {
		if tx.UserID == userID && tx.InBudget(budgetID) {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, func(a, b models.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(st.order[b.ID], st.order[a.ID])
	})
	return out, nil
}

func (st *state) LinkUnassignedTransactions(_ context.Context, budget models.Budget) (int64, error) {
	var n int64
	now := st.clock()
	for id, tx := range st.txs {
		if tx.UserID != budget.UserID || tx.BudgetID != nil || !budget.Covers(tx.Category, tx.Date) {
			continue
		}
		budgetID := budget.ID
		tx.BudgetID = &budgetID
		tx.UpdatedAt = now
		st.txs[id] = tx
		n++
	}
	return n, nil
}

func (st *state) ReleaseBudgetTransactions(_ context.Context, budgetID string) (int64, error) {
	var n int64
	now := st.clock()
	for id, tx := range st.txs {
		if !tx.InBudget(budgetID) {
			continue
		}
		tx.BudgetID = nil
		tx.UpdatedAt = now
		st.txs[id] = tx
		n++
	}
	return n, nil
}

func (st *state) InsertBudget(_ context.Context, budget models.Budget) (models.Budget, error) {
	now := st.clock()
	budget.ID = st.newID()
	budget.Spent = decimal.Zero
	budget.CreatedAt, budget.UpdatedAt = now, now
	st.budgets[budget.ID] = budget
	return budget, nil
}

func (st *state) GetBudget(_ context.Context, id, userID string) (models.Budget, error) {
	b, ok := st.budgets[id]
	if !ok || b.UserID != userID {
		return models.Budget{}, storage.ErrNotFound
	}
	return b, nil
}

func (st *state) UpdateBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	existing, err := st.GetBudget(ctx, budget.ID, budget.UserID)
	if err != nil {
		return models.Budget{}, err
	}
	existing.Category = budget.Category
	existing.Amount = budget.Amount
	existing.PeriodStart = budget.PeriodStart
	existing.PeriodEnd = budget.PeriodEnd
	existing.UpdatedAt = st.clock()
	st.budgets[existing.ID] = existing
	return existing, nil
}

func (st *state) DeleteBudget(ctx context.Context, id, userID string) error {
	if _, err := st.GetBudget(ctx, id, userID); err != nil {
		return err
	}
	delete(st.budgets, id)
	return nil
}

func (st *state) ListBudgets(_ context.Context, userID string) ([]models.Budget, error) {
	out := []models.Budget{}
	for _, b := range st.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b models.Budget) int { return st.newest(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
	return out, nil
}

func (st *state) FindMatchingBudget(_ context.Context, userID, category string, date time.Time) (models.Budget, error) {
	var (
		found models.Budget
		ok    bool
	)
	for _, b := range st.budgets {
		if b.UserID != userID || !b.Covers(category, date) {
			continue
		}
		if !ok || st.newest(b.ID, b.CreatedAt, found.ID, found.CreatedAt) < 0 {
			found, ok = b, true
		}
	}
	if !ok {
		return models.Budget{}, storage.ErrNotFound
	}
	return found, nil
}

func (st *state) AdjustBudgetSpent(_ context.Context, budgetID string, delta decimal.Decimal) error {
	b, ok := st.budgets[budgetID]
	if !ok {
		return storage.ErrNotFound
	}
	b.Spent = b.Spent.Add(delta)
	b.UpdatedAt = st.clock()
	st.budgets[budgetID] = b
	return nil
}

func (st *state) RecomputeBudgetSpent(_ context.Context, budgetID string) (models.Budget, error) {
	b, ok := st.budgets[budgetID]
	if !ok {
		return models.Budget{}, storage.ErrNotFound
	}
	sum := decimal.Zero
	for _, tx := range st.txs {
		if tx.InBudget(budgetID) {
			sum = sum.Add(tx.Amount)
		}
	}
	b.Spent = sum
	b.UpdatedAt = st.clock()
	st.budgets[budgetID] = b
	return b, nil
}

func (st *state) InsertPot(_ context.Context, pot models.Pot) (models.Pot, error) {
	now := st.clock()
	pot.ID = st.newID()
	pot.CreatedAt, pot.UpdatedAt = now, now
	st.pots[pot.ID] = pot
	return pot, nil
}

func (st *state) GetPot(_ context.Context, id, userID string) (models.Pot, error) {
	p, ok := st.pots[id]
	if !ok || p.UserID != userID {
		return models.Pot{}, storage.ErrNotFound
	}
	return p, nil
}

func (st *state) UpdatePot(ctx context.Context, pot models.Pot) (models.Pot, error) {
	existing, err := st.GetPot(ctx, pot.ID, pot.UserID)
	if err != nil {
		return models.Pot{}, err
	}
	existing.Name = pot.Name
	existing.TargetAmount = pot.TargetAmount
	existing.UpdatedAt = st.clock()
	st.pots[existing.ID] = existing
	return existing, nil
}

func (st *state) DeletePot(ctx context.Context, id, userID string) error {
	if _, err := st.GetPot(ctx, id, userID); err != nil {
		return err
	}
	delete(st.pots, id)
	for entryID, entry := range st.potTxs {
		if entry.PotID == id {
			delete(st.potTxs, entryID)
		}
	}
	return nil
}

func (st *state) ListPots(_ context.Context, userID string) ([]models.Pot, error) {
	out := []models.Pot{}
	for _, p := range st.pots {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Pot) int { return st.newest(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
	return out, nil
}

func (st *state) AdjustPotAmount(_ context.Context, potID string, delta decimal.Decimal) (models.Pot, error) {
	p, ok := st.pots[potID]
	if !ok {
		return models.Pot{}, storage.ErrNotFound
	}
	p.CurrentAmount = p.CurrentAmount.Add(delta)
	p.UpdatedAt = st.clock()
	st.pots[potID] = p
	return p, nil
}

func (st *state) InsertPotTransaction(_ context.Context, entry models.PotTransaction) (models.PotTransaction, error) {
	if _, ok := st.pots[entry.PotID]; !ok {
		return models.PotTransaction{}, storage.ErrNotFound
	}
	entry.ID = st.newID()
	entry.CreatedAt = st.clock()
	st.potTxs[entry.ID] = entry
	return entry, nil
}

func (st *state) ListPotTransactions(_ context.Context, potID string) ([]models.PotTransaction, error) {
	out := []models.PotTransaction{}
	for _, entry := range st.potTxs {
		if entry.PotID == potID {
			out = append(out, entry)
		}
	}
	slices.SortFunc(out, func(a, b models.PotTransaction) int { return st.newest(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
	return out, nil
}

func (st *state) InsertBill(_ context.Context, bill models.RecurringBill) (models.RecurringBill, error) {
	now := st.clock()
	bill.ID = st.newID()
	bill.CreatedAt, bill.UpdatedAt = now, now
	st.bills[bill.ID] = bill
	return bill, nil
}

func (st *state) GetBill(_ context.Context, id, userID string) (models.RecurringBill, error) {
	b, ok := st.bills[id]
	if !ok || b.UserID != userID {
		return models.RecurringBill{}, storage.ErrNotFound
	}
	return b, nil
}

func (st *state) UpdateBill(ctx context.Context, bill models.RecurringBill) (models.RecurringBill, error) {
	existing, err := st.GetBill(ctx, bill.ID, bill.UserID)
	if err != nil {
		return models.RecurringBill{}, err
	}
	bill.CreatedAt = existing.CreatedAt
	bill.UpdatedAt = st.clock()
	st.bills[bill.ID] = bill
	return bill, nil
}

func (st *state) DeleteBill(ctx context.Context, id, userID string) error {
	if _, err := st.GetBill(ctx, id, userID); err != nil {
		return err
	}
	delete(st.bills, id)
	return nil
}

func (st *state) ListBills(_ context.Context, userID string) ([]models.RecurringBill, error) {
	out := []models.RecurringBill{}
	for _, b := range st.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b models.RecurringBill) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(st.order[a.ID], st.order[b.ID])
	})
	return out, nil
}

func (st *state) MarkOverdueBills(_ context.Context, before time.Time) (int64, error) {
	var n int64
	now := st.clock()
	for id, b := range st.bills {
		if b.Status != models.BillPending || !b.DueDate.Before(before) {
			continue
		}
		b.Status = models.BillOverdue
		b.UpdatedAt = now
		st.bills[id] = b
		n++
	}
	return n, nil
}

// newest compares for createdAt descending, then insertion order descending.
func (st *state) newest(aID string, aAt time.Time, bID string, bAt time.Time) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return cmp.Compare(st.order[bID], st.order[aID])
}
