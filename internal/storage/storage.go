package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Transaction sort columns accepted by ListTransactions.
const (
	SortByDate        = "date"
	SortByAmount      = "amount"
	SortByCategory    = "category"
	SortByDescription = "description"
)

// TransactionFilter narrows and orders a page of transactions.
// Zero values mean "no constraint"; Limit <= 0 returns every match.
type TransactionFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
	Search   string
	SortBy   string
	Desc     bool
	Limit    int
	Offset   int
}

// Queries captures persistence operations needed by services. Every
// user-owned lookup is scoped by (id, userID) and reports ErrNotFound for rows
// that belong to someone else.
type Queries interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)

	InsertTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetTransaction(ctx context.Context, id, userID string) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id, userID string) error
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, int, error)
	ListBudgetTransactions(ctx context.Context, budgetID, userID string) ([]models.Transaction, error)
	// LinkUnassignedTransactions points every unlinked transaction covered by
	// budget at it and returns how many rows changed.
	LinkUnassignedTransactions(ctx context.Context, budget models.Budget) (int64, error)
	// ReleaseBudgetTransactions clears budgetId on every transaction pointing at budgetID.
	ReleaseBudgetTransactions(ctx context.Context, budgetID string) (int64, error)

	InsertBudget(ctx context.Context, budget models.Budget) (models.Budget, error)
	GetBudget(ctx context.Context, id, userID string) (models.Budget, error)
	// UpdateBudget persists category, amount and period. Spent is not written.
	UpdateBudget(ctx context.Context, budget models.Budget) (models.Budget, error)
	DeleteBudget(ctx context.Context, id, userID string) error
	ListBudgets(ctx context.Context, userID string) ([]models.Budget, error)
	// FindMatchingBudget returns the most recently created budget of userID
	// whose category matches and whose period contains date.
	FindMatchingBudget(ctx context.Context, userID, category string, date time.Time) (models.Budget, error)
	AdjustBudgetSpent(ctx context.Context, budgetID string, delta decimal.Decimal) error
	// RecomputeBudgetSpent sets spent to the sum of linked transaction amounts.
	RecomputeBudgetSpent(ctx context.Context, budgetID string) (models.Budget, error)

	InsertPot(ctx context.Context, pot models.Pot) (models.Pot, error)
	GetPot(ctx context.Context, id, userID string) (models.Pot, error)
	// UpdatePot persists name and target. CurrentAmount moves only via AdjustPotAmount.
	UpdatePot(ctx context.Context, pot models.Pot) (models.Pot, error)
	DeletePot(ctx context.Context, id, userID string) error
	ListPots(ctx context.Context, userID string) ([]models.Pot, error)
	AdjustPotAmount(ctx context.Context, potID string, delta decimal.Decimal) (models.Pot, error)
	InsertPotTransaction(ctx context.Context, entry models.PotTransaction) (models.PotTransaction, error)
	ListPotTransactions(ctx context.Context, potID string) ([]models.PotTransaction, error)

	InsertBill(ctx context.Context, bill models.RecurringBill) (models.RecurringBill, error)
	GetBill(ctx context.Context, id, userID string) (models.RecurringBill, error)
	UpdateBill(ctx context.Context, bill models.RecurringBill) (models.RecurringBill, error)
	DeleteBill(ctx context.Context, id, userID string) error
	ListBills(ctx context.Context, userID string) ([]models.RecurringBill, error)
	// MarkOverdueBills moves pending bills due before the given instant to overdue.
	MarkOverdueBills(ctx context.Context, before time.Time) (int64, error)
}

// Store is a Queries implementation that can also run a function inside a
// single datastore transaction. If fn returns an error every statement it
// issued is rolled back.
type Store interface {
	Queries
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Close()
}
