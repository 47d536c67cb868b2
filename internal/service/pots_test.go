package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/memory"
)

func TestPotScenario(t *testing.T) {
	ctx := context.Background()
	pots := NewPotService(memory.New())
	pot, err := pots.Create(ctx, "alice", PotInput{Name: "Holiday", TargetAmount: dec(t, "1000")})
	require.NoError(t, err)

	_, err = pots.Deposit(ctx, pot.ID, "alice", dec(t, "1100"))
	require.ErrorIs(t, err, ErrExceedsTarget)

	pot, err = pots.Deposit(ctx, pot.ID, "alice", dec(t, "400"))
	require.NoError(t, err)
	assert.True(t, pot.CurrentAmount.Equal(dec(t, "400")))

	_, err = pots.Withdraw(ctx, pot.ID, "alice", dec(t, "500"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	pot, err = pots.Get(ctx, pot.ID, "alice")
	require.NoError(t, err)
	assert.True(t, pot.CurrentAmount.Equal(dec(t, "400")))

	ledger, err := pots.Ledger(ctx, pot.ID, "alice")
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, models.PotDeposit, ledger[0].Type)

	pot, err = pots.Withdraw(ctx, pot.ID, "alice", dec(t, "150"))
	require.NoError(t, err)
	assert.True(t, pot.CurrentAmount.Equal(dec(t, "250")))
	ledger, err = pots.Ledger(ctx, pot.ID, "alice")
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, models.PotWithdraw, ledger[0].Type)
}

func TestPotMovementIsAtomic(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	pot, err := NewPotService(mem).Create(ctx, "alice", PotInput{Name: "Car", TargetAmount: dec(t, "1000"), CurrentAmount: dec(t, "100")})
	require.NoError(t, err)

	broken := NewPotService(&failingStore{Store: mem, failOn: "InsertPotTransaction"})
	_, err = broken.Deposit(ctx, pot.ID, "alice", dec(t, "50"))
	require.ErrorIs(t, err, errInjected)
	_, err = broken.Withdraw(ctx, pot.ID, "alice", dec(t, "50"))
	require.ErrorIs(t, err, errInjected)

	got, err := mem.GetPot(ctx, pot.ID, "alice")
	require.NoError(t, err)
	assert.True(t, got.CurrentAmount.Equal(dec(t, "100")))
	ledger, err := mem.ListPotTransactions(ctx, pot.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 1, "only the opening deposit is recorded")
}

func TestPotValidation(t *testing.T) {
	ctx := context.Background()
	pots := NewPotService(memory.New())
	var verr *ValidationError

	_, err := pots.Create(ctx, "alice", PotInput{Name: "Zero", TargetAmount: decimal.Zero})
	require.ErrorAs(t, err, &verr)
	_, err = pots.Create(ctx, "alice", PotInput{Name: "Over", TargetAmount: dec(t, "10"), CurrentAmount: dec(t, "11")})
	require.ErrorAs(t, err, &verr)

	pot, err := pots.Create(ctx, "alice", PotInput{Name: "Ok", TargetAmount: dec(t, "100"), CurrentAmount: dec(t, "60")})
	require.NoError(t, err)
	_, err = pots.Deposit(ctx, pot.ID, "alice", dec(t, "-5"))
	require.ErrorAs(t, err, &verr)

	target := dec(t, "50")
	_, err = pots.Update(ctx, pot.ID, "alice", PotPatch{TargetAmount: &target})
	require.ErrorAs(t, err, &verr)

	name := "Emergency"
	target = dec(t, "500")
	updated, err := pots.Update(ctx, pot.ID, "alice", PotPatch{Name: &name, TargetAmount: &target})
	require.NoError(t, err)
	assert.Equal(t, "Emergency", updated.Name)
	assert.True(t, updated.CurrentAmount.Equal(dec(t, "60")))
}

func TestPotsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	pots := NewPotService(memory.New())
	pot, err := pots.Create(ctx, "alice", PotInput{Name: "Holiday", TargetAmount: dec(t, "1000")})
	require.NoError(t, err)

	_, err = pots.Deposit(ctx, pot.ID, "mallory", dec(t, "10"))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = pots.Withdraw(ctx, pot.ID, "mallory", dec(t, "10"))
	require.ErrorIs(t, err, ErrNotFound)
	name := "mine now"
	_, err = pots.Update(ctx, pot.ID, "mallory", PotPatch{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, pots.Delete(ctx, pot.ID, "mallory"), ErrNotFound)
	_, err = pots.Ledger(ctx, pot.ID, "mallory")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, pots.Delete(ctx, pot.ID, "alice"))
	_, err = pots.Get(ctx, pot.ID, "alice")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPotsByProgress(t *testing.T) {
	ctx := context.Background()
	pots := NewPotService(memory.New())
	for _, in := range []PotInput{
		{Name: "Holiday", TargetAmount: dec(t, "1000"), CurrentAmount: dec(t, "100")},
		{Name: "Bike", TargetAmount: dec(t, "200"), CurrentAmount: dec(t, "150")},
		{Name: "House", TargetAmount: dec(t, "50000")},
	} {
		_, err := pots.Create(ctx, "alice", in)
		require.NoError(t, err)
	}

	minProgress := dec(t, "50")
	list, err := pots.List(ctx, "alice", PotQuery{MinProgress: &minProgress})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bike", list[0].Name)

	list, err = pots.List(ctx, "alice", PotQuery{Order: ParseOrder("name", "asc", false)})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Bike", "Holiday", "House"}, []string{list[0].Name, list[1].Name, list[2].Name})

	list, err = pots.List(ctx, "alice", PotQuery{Search: "ho"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
