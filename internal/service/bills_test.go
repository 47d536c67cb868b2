package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/memory"
)

func newBillFixture(now time.Time) (*RecurringBillService, *memory.Store) {
	store := memory.New()
	bills := NewRecurringBillService(store, quietLogger())
	bills.now = func() time.Time { return now }
	return bills, store
}

func TestPendingBillPastDueReadsOverdue(t *testing.T) {
	ctx := context.Background()
	bills, store := newBillFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))

	past, err := bills.Create(ctx, "alice", BillInput{Name: "Rent", Amount: dec(t, "900"), DueDate: day(2024, 3, 1)})
	require.NoError(t, err)
	assert.Equal(t, models.BillOverdue, past.Status)

	today, err := bills.Create(ctx, "alice", BillInput{Name: "Phone", Amount: dec(t, "30"), DueDate: day(2024, 3, 10)})
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, today.Status)

	_, err = bills.Create(ctx, "alice", BillInput{Name: "Gym", Amount: dec(t, "40"), DueDate: day(2024, 2, 1), Status: models.BillPaid})
	require.NoError(t, err)

	stored, err := store.GetBill(ctx, past.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, stored.Status, "read path does not persist")

	overdue, err := bills.List(ctx, "alice", BillQuery{Status: models.BillOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Rent", overdue[0].Name)

	n, err := bills.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	stored, err = store.GetBill(ctx, past.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.BillOverdue, stored.Status)

	n, err = bills.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()
	bills, _ := newBillFixture(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	bill, err := bills.Create(ctx, "alice", BillInput{Name: "Rent", Amount: dec(t, "900"), DueDate: day(2024, 3, 1)})
	require.NoError(t, err)

	paid, err := bills.MarkPaid(ctx, bill.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, paid.Status)

	_, err = bills.MarkPaid(ctx, bill.ID, "mallory")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, bills.Delete(ctx, bill.ID, "mallory"), ErrNotFound)
}

func TestBillValidationAndSorting(t *testing.T) {
	ctx := context.Background()
	bills, _ := newBillFixture(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var verr *ValidationError

	_, err := bills.Create(ctx, "alice", BillInput{Name: "Bad", Amount: dec(t, "10"), DueDate: day(2024, 2, 1), Status: "late"})
	require.ErrorAs(t, err, &verr)

	for _, in := range []BillInput{
		{Name: "Streaming", Amount: dec(t, "15"), DueDate: day(2024, 2, 20), Category: "Entertainment"},
		{Name: "Electric", Amount: dec(t, "80"), DueDate: day(2024, 2, 5), Category: "Utilities"},
		{Name: "Water", Amount: dec(t, "25"), DueDate: day(2024, 2, 12), Category: "Utilities"},
	} {
		_, err := bills.Create(ctx, "alice", in)
		require.NoError(t, err)
	}

	list, err := bills.List(ctx, "alice", BillQuery{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Electric", list[0].Name)

	list, err = bills.List(ctx, "alice", BillQuery{Category: "Utilities", Order: ParseOrder("amount", "desc", false)})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Electric", list[0].Name)

	list, err = bills.List(ctx, "alice", BillQuery{Search: "STREAM"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	bad := models.BillStatus("late")
	_, err = bills.Update(ctx, list[0].ID, "alice", BillPatch{Status: &bad})
	require.ErrorAs(t, err, &verr)
}
