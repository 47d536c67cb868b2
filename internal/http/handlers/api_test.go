package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/middleware"
	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/models/dto"
	"github.com/victor-nwoseh/finance-tracker/internal/service"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/memory"
)

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newRouter(store storage.Store) http.Handler {
	log, _ := test.NewNullLogger()
	tokens := auth.NewTokenManager("test-secret", "finance-tracker", time.Hour)
	protect := func(next http.Handler) http.Handler {
		return middleware.RequireAuth(tokens, log, next)
	}

	mux := http.NewServeMux()
	NewHealthHandler(time.Now()).Register(mux)
	NewAuthHandler(service.NewUserService(store, tokens), log).Register(mux, protect)
	NewTransactionHandler(service.NewTransactionService(store, log), log).Register(mux, protect)
	NewBudgetHandler(service.NewBudgetService(store), log).Register(mux, protect)
	NewPotHandler(service.NewPotService(store), log).Register(mux, protect)
	NewRecurringBillHandler(service.NewRecurringBillService(store, log), log).Register(mux, protect)
	return mux
}

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	return newRouter(memory.New())
}

func (c *apiClient) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// signIn registers email and returns a client carrying its token.
func signIn(t *testing.T, h http.Handler, email string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, handler: h}
	code, _ := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "password": "correct-horse", "name": "Test User",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, code)
	login := decodeData[dto.LoginResponse](t, env)
	require.NotEmpty(t, login.Token)
	c.token = login.Token
	return c
}

func TestHealth(t *testing.T) {
	c := &apiClient{t: t, handler: newAPI(t)}
	code, env := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", decodeData[map[string]string](t, env)["status"])
}

func TestAuthFlow(t *testing.T) {
	h := newAPI(t)
	c := signIn(t, h, "Ada@Example.com")

	code, env := c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	me := decodeData[models.User](t, env)
	assert.Equal(t, "ada@example.com", me.Email)
	assert.Equal(t, "Test User", me.Name)
	assert.NotContains(t, string(env.Data), "correct-horse")

	anon := &apiClient{t: t, handler: h}
	code, env = anon.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "ada@example.com", "password": "another-pass", "name": "Other",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, http.StatusConflict, env.Code)

	code, _ = anon.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = anon.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	c := &apiClient{t: t, handler: newAPI(t)}
	code, env := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "not-an-email", "password": "short", "name": "",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
	assert.Contains(t, env.Errors, "name")

	code, env = c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "long@example.com", "password": strings.Repeat("x", 80), "name": "Long",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "must be at most 72 bytes", env.Errors["password"])

	code, _ = c.do(http.MethodPost, "/api/auth/register", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newAPI(t)
	anon := &apiClient{t: t, handler: h}
	for _, path := range []string{"/api/auth/me", "/api/transactions", "/api/budgets", "/api/pots", "/api/recurring-bills"} {
		code, _ := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}

	bad := &apiClient{t: t, handler: h, token: "not-a-jwt"}
	code, _ := bad.do(http.MethodGet, "/api/transactions", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestTransactionKeepsBudgetSpentInSync(t *testing.T) {
	c := signIn(t, newAPI(t), "spender@example.com")

	code, env := c.do(http.MethodPost, "/api/budgets", map[string]any{
		"category": "Groceries", "amount": 500, "periodStart": "2024-01-01", "periodEnd": "2024-01-31",
	})
	require.Equal(t, http.StatusCreated, code)
	budget := decodeData[models.Budget](t, env)
	assert.True(t, budget.Spent.IsZero())

	code, env = c.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": 120, "category": "Groceries", "description": "weekly shop", "date": "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, code)
	tx := decodeData[models.Transaction](t, env)
	require.NotNil(t, tx.BudgetID)
	assert.Equal(t, budget.ID, *tx.BudgetID)

	assertSpent := func(want string) {
		t.Helper()
		code, env := c.do(http.MethodGet, "/api/budgets/"+budget.ID, nil)
		require.Equal(t, http.StatusOK, code)
		got := decodeData[models.Budget](t, env)
		assert.True(t, decimal.RequireFromString(want).Equal(got.Spent), "spent = %s, want %s", got.Spent, want)
	}
	assertSpent("120")

	code, _ = c.do(http.MethodPut, "/api/transactions/"+tx.ID, map[string]any{"amount": 80})
	require.Equal(t, http.StatusOK, code)
	assertSpent("80")

	code, env = c.do(http.MethodPut, "/api/budgets/"+budget.ID, map[string]any{"spent": 999})
	require.Equal(t, http.StatusOK, code, env.Message)
	assertSpent("80")

	code, env = c.do(http.MethodGet, "/api/budgets/"+budget.ID+"/transactions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]models.Transaction](t, env), 1)

	code, _ = c.do(http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	require.Equal(t, http.StatusNoContent, code)
	assertSpent("0")

	code, env = c.do(http.MethodPost, "/api/budgets/"+budget.ID+"/recalculate", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decodeData[models.Budget](t, env).Spent.IsZero())
}

func TestTransactionListPagination(t *testing.T) {
	c := signIn(t, newAPI(t), "pager@example.com")
	for i := 1; i <= 12; i++ {
		code, _ := c.do(http.MethodPost, "/api/transactions", map[string]any{
			"amount": i, "category": "Misc", "date": fmt.Sprintf("2024-02-%02d", i),
		})
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := c.do(http.MethodGet, "/api/transactions?page=2&limit=5&sortBy=amount&order=asc", nil)
	require.Equal(t, http.StatusOK, code)
	page := decodeData[dto.Page[models.Transaction]](t, env)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 5)
	assert.True(t, decimal.NewFromInt(6).Equal(page.Items[0].Amount))

	code, env = c.do(http.MethodGet, "/api/transactions?startDate=2024-02-10&endDate=2024-02-11", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, decodeData[dto.Page[models.Transaction]](t, env).Total)

	code, env = c.do(http.MethodGet, "/api/transactions?sortBy=password&page=zero", nil)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "sortBy")
	assert.Contains(t, env.Errors, "page")
}

func TestTransactionValidation(t *testing.T) {
	c := signIn(t, newAPI(t), "validator@example.com")
	code, env := c.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": -5, "category": "",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "amount")
	assert.Contains(t, env.Errors, "category")
	assert.Contains(t, env.Errors, "date")

	code, env = c.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": 5, "category": "Food", "date": "yesterday",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid JSON payload", env.Message)

	code, _ = c.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": "10.999", "category": "Food", "date": "2024-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestResourcesAreScopedToOwner(t *testing.T) {
	h := newAPI(t)
	owner := signIn(t, h, "owner@example.com")
	intruder := signIn(t, h, "intruder@example.com")

	code, env := owner.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": 40, "category": "Fun", "date": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, code)
	tx := decodeData[models.Transaction](t, env)

	code, env = owner.do(http.MethodPost, "/api/pots", map[string]any{"name": "Holiday", "targetAmount": 1000})
	require.Equal(t, http.StatusCreated, code)
	pot := decodeData[models.Pot](t, env)

	for _, path := range []string{"/api/transactions/" + tx.ID, "/api/pots/" + pot.ID} {
		code, _ := intruder.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, code, path)
		code, _ = intruder.do(http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusNotFound, code, path)
	}
	code, _ = intruder.do(http.MethodPost, "/api/pots/"+pot.ID+"/deposit", map[string]any{"amount": 10})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = intruder.do(http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, decodeData[dto.Page[models.Transaction]](t, env).Total)

	code, _ = owner.do(http.MethodGet, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPotMovements(t *testing.T) {
	c := signIn(t, newAPI(t), "saver@example.com")
	code, env := c.do(http.MethodPost, "/api/pots", map[string]any{"name": "Emergency", "targetAmount": 1000})
	require.Equal(t, http.StatusCreated, code)
	pot := decodeData[models.Pot](t, env)

	code, env = c.do(http.MethodPost, "/api/pots/"+pot.ID+"/deposit", map[string]any{"amount": 200})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.NewFromInt(200).Equal(decodeData[models.Pot](t, env).CurrentAmount))

	code, env = c.do(http.MethodPost, "/api/pots/"+pot.ID+"/withdraw", map[string]any{"amount": 250})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, http.StatusBadRequest, env.Code)

	code, _ = c.do(http.MethodPost, "/api/pots/"+pot.ID+"/deposit", map[string]any{"amount": 0})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = c.do(http.MethodPost, "/api/pots/"+pot.ID+"/withdraw", map[string]any{"amount": 50})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.NewFromInt(150).Equal(decodeData[models.Pot](t, env).CurrentAmount))

	code, env = c.do(http.MethodGet, "/api/pots/"+pot.ID+"/transactions", nil)
	require.Equal(t, http.StatusOK, code)
	ledger := decodeData[[]models.PotTransaction](t, env)
	require.Len(t, ledger, 2)

	kinds := []models.PotMovement{ledger[0].Type, ledger[1].Type}
	assert.ElementsMatch(t, []models.PotMovement{models.PotDeposit, models.PotWithdraw}, kinds)
	assert.Contains(t, string(env.Data), `"timestamp"`)
}

func TestRecurringBillLifecycle(t *testing.T) {
	c := signIn(t, newAPI(t), "payer@example.com")
	due := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")

	code, env := c.do(http.MethodPost, "/api/recurring-bills", map[string]any{
		"name": "Internet", "amount": "45.50", "dueDate": due, "category": "Utilities",
	})
	require.Equal(t, http.StatusCreated, code)
	bill := decodeData[models.RecurringBill](t, env)
	assert.Equal(t, models.BillPending, bill.Status)

	code, env = c.do(http.MethodPost, "/api/recurring-bills/"+bill.ID+"/pay", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.BillPaid, decodeData[models.RecurringBill](t, env).Status)

	code, env = c.do(http.MethodGet, "/api/recurring-bills?status=paid", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]models.RecurringBill](t, env), 1)

	code, env = c.do(http.MethodGet, "/api/recurring-bills?status=late", nil)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "status")

	code, _ = c.do(http.MethodPut, "/api/recurring-bills/"+bill.ID, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodDelete, "/api/recurring-bills/"+bill.ID, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = c.do(http.MethodGet, "/api/recurring-bills/"+bill.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBudgetDateOnlyEndCoversLastDay(t *testing.T) {
	c := signIn(t, newAPI(t), "lastday@example.com")

	code, env := c.do(http.MethodPost, "/api/budgets", map[string]any{
		"category": "Groceries", "amount": 300, "periodStart": "2024-01-01", "periodEnd": "2024-01-31",
	})
	require.Equal(t, http.StatusCreated, code)
	budget := decodeData[models.Budget](t, env)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999000, time.UTC), budget.PeriodEnd.UTC())

	code, env = c.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": 30, "category": "Groceries", "date": "2024-01-31T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, code)
	lastDay := decodeData[models.Transaction](t, env)
	require.NotNil(t, lastDay.BudgetID)
	assert.Equal(t, budget.ID, *lastDay.BudgetID)

	code, env = c.do(http.MethodPost, "/api/transactions", map[string]any{
		"amount": 10, "category": "Groceries", "date": "2024-02-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Nil(t, decodeData[models.Transaction](t, env).BudgetID)

	code, env = c.do(http.MethodPut, "/api/budgets/"+budget.ID, map[string]any{"periodEnd": "2024-01-30"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decodeData[models.Budget](t, env).Spent.IsZero())

	code, env = c.do(http.MethodGet, "/api/transactions/"+lastDay.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, decodeData[models.Transaction](t, env).BudgetID)
}
