package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/postgres"
)

// TestPostgresIntegration runs the budget and pot flows against a live database.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("RUN_PG_INTEGRATION") != "true" {
		t.Skip("set RUN_PG_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := postgres.NewStore(ctx, dbURL)
	require.NoError(t, err, "init store")
	defer store.Close()

	h := newRouter(store)
	c := signIn(t, h, fmt.Sprintf("pgtest_%d@example.com", time.Now().UnixNano()))

	code, env := c.do(http.MethodPost, "/api/budgets", map[string]any{
		"category": "Groceries", "amount": 500, "periodStart": "2024-01-01", "periodEnd": "2024-01-31",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	budget := decodeData[models.Budget](t, env)

	code, env = c.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": "120.25", "category": "Groceries", "date": "2024-01-31",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	tx := decodeData[models.Transaction](t, env)
	require.NotNil(t, tx.BudgetID)

	code, env = c.do(http.MethodGet, "/api/budgets/"+budget.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.RequireFromString("120.25").Equal(decodeData[models.Budget](t, env).Spent))

	// Concurrent updates of one transaction must leave spent equal to its final amount.
	var wg sync.WaitGroup
	for _, amount := range []string{"75", "75", "75", "75"} {
		wg.Add(1)
		go func(amount string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPut, "/api/transactions/"+tx.ID, strings.NewReader(`{"amount":`+amount+`}`))
			req.Header.Set("Authorization", "Bearer "+c.token)
			h.ServeHTTP(httptest.NewRecorder(), req)
		}(amount)
	}
	wg.Wait()
	code, env = c.do(http.MethodGet, "/api/budgets/"+budget.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.NewFromInt(75).Equal(decodeData[models.Budget](t, env).Spent))

	code, _ = c.do(http.MethodDelete, "/api/budgets/"+budget.ID, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, env = c.do(http.MethodGet, "/api/transactions/"+tx.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, decodeData[models.Transaction](t, env).BudgetID)

	code, env = c.do(http.MethodPost, "/api/pots", map[string]any{"name": "Trip", "targetAmount": 300, "currentAmount": 50})
	require.Equal(t, http.StatusCreated, code, env.Message)
	pot := decodeData[models.Pot](t, env)

	code, _ = c.do(http.MethodPost, "/api/pots/"+pot.ID+"/withdraw", map[string]any{"amount": 60})
	assert.Equal(t, http.StatusBadRequest, code)
	code, env = c.do(http.MethodPost, "/api/pots/"+pot.ID+"/deposit", map[string]any{"amount": 25})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.NewFromInt(75).Equal(decodeData[models.Pot](t, env).CurrentAmount))

	code, env = c.do(http.MethodGet, "/api/pots/"+pot.ID+"/transactions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]models.PotTransaction](t, env), 2)

}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
