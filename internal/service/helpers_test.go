package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/memory"
)

var errInjected = errors.New("injected failure")

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// failingStore wraps the memory store and makes one Queries method fail inside transactions.
type failingStore struct {
	*memory.Store
	failOn string
}

func (f *failingStore) WithTx(ctx context.Context, fn func(q storage.Queries) error) error {
	return f.Store.WithTx(ctx, func(q storage.Queries) error {
		return fn(failingQueries{Queries: q, failOn: f.failOn})
	})
}

type failingQueries struct {
	storage.Queries
	failOn string
}

func (q failingQueries) AdjustBudgetSpent(ctx context.Context, budgetID string, delta decimal.Decimal) error {
	if q.failOn == "AdjustBudgetSpent" {
		return errInjected
	}
	return q.Queries.AdjustBudgetSpent(ctx, budgetID, delta)
}

func (q failingQueries) InsertPotTransaction(ctx context.Context, entry models.PotTransaction) (models.PotTransaction, error) {
	if q.failOn == "InsertPotTransaction" {
		return models.PotTransaction{}, errInjected
	}
	return q.Queries.InsertPotTransaction(ctx, entry)
}
