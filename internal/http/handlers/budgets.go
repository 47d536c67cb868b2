package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/http/respond"
	"github.com/victor-nwoseh/finance-tracker/internal/models/dto"
	"github.com/victor-nwoseh/finance-tracker/internal/service"
)

var budgetSortFields = []string{"category", "amount", "spent", "periodStart", "periodEnd", "createdAt"}

// BudgetHandler exposes /api/budgets. Spent is never accepted from clients.
type BudgetHandler struct {
	budgets *service.BudgetService
	log     logrus.FieldLogger
}

func NewBudgetHandler(budgets *service.BudgetService, log logrus.FieldLogger) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, log: log}
}

func (h *BudgetHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("GET /api/budgets", protect(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/budgets", protect(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /api/budgets/{id}", protect(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /api/budgets/{id}", protect(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /api/budgets/{id}", protect(http.HandlerFunc(h.handleDelete)))
	mux.Handle("GET /api/budgets/{id}/transactions", protect(http.HandlerFunc(h.handleTransactions)))
	mux.Handle("POST /api/budgets/{id}/recalculate", protect(http.HandlerFunc(h.handleRecalculate)))
}

func (h *BudgetHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errs := fieldErrors{}
	query := service.BudgetQuery{
		Category: strings.TrimSpace(q.Get("category")),
		From:     queryDate(q, "startDate", errs),
		To:       queryEndDate(q, "endDate", errs),
		Order:    queryOrder(q, budgetSortFields, true, errs),
	}
	if !errs.ok(w) {
		return
	}
	budgets, err := h.budgets.List(r.Context(), auth.UserIDFromContext(r.Context()), query)
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch budgets")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", budgets)
}

func (h *BudgetHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.text("category", req.Category, true, maxNameLength)
	errs.money("amount", req.Amount, false)
	errs.date("periodStart", req.PeriodStart)
	errs.date("periodEnd", req.PeriodEnd)
	if !req.PeriodStart.IsZero() && !req.PeriodEnd.IsZero() && !req.PeriodEnd.End().After(req.PeriodStart.Time) {
		errs.add("periodEnd", "must be after periodStart")
	}
	if !errs.ok(w) {
		return
	}

	created, err := h.budgets.Create(r.Context(), auth.UserIDFromContext(r.Context()), service.BudgetInput{
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		PeriodStart: req.PeriodStart.Time,
		PeriodEnd:   req.PeriodEnd.End(),
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to create budget")
		return
	}
	respond.JSON(w, http.StatusCreated, "budget created", created)
}

func (h *BudgetHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	budget, err := h.budgets.Get(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch budget")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", budget)
}

func (h *BudgetHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	if req.Category != nil {
		errs.text("category", *req.Category, true, maxNameLength)
	}
	if req.Amount != nil {
		errs.money("amount", *req.Amount, false)
	}
	if req.PeriodStart != nil {
		errs.date("periodStart", *req.PeriodStart)
	}
	if req.PeriodEnd != nil {
		errs.date("periodEnd", *req.PeriodEnd)
	}
	if !errs.ok(w) {
		return
	}

	updated, err := h.budgets.Update(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), service.BudgetPatch{
		Category:    trimmed(req.Category),
		Amount:      req.Amount,
		PeriodStart: optionalTime(req.PeriodStart),
		PeriodEnd:   optionalEnd(req.PeriodEnd),
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to update budget")
		return
	}
	respond.JSON(w, http.StatusOK, "budget updated", updated)
}

func (h *BudgetHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.budgets.Delete(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, h.log, err, "failed to delete budget")
		return
	}
	respond.NoContent(w)
}

func (h *BudgetHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.budgets.Transactions(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch budget transactions")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", txs)
}

func (h *BudgetHandler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	budget, err := h.budgets.Recalculate(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to recalculate budget")
		return
	}
	respond.JSON(w, http.StatusOK, "budget recalculated", budget)
}
