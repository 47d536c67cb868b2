package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/http/respond"
	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/models/dto"
	"github.com/victor-nwoseh/finance-tracker/internal/service"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

var transactionSortFields = []string{storage.SortByDate, storage.SortByAmount, storage.SortByCategory, storage.SortByDescription}

// TransactionHandler exposes /api/transactions.
type TransactionHandler struct {
	txs *service.TransactionService
	log logrus.FieldLogger
}

func NewTransactionHandler(txs *service.TransactionService, log logrus.FieldLogger) *TransactionHandler {
	return &TransactionHandler{txs: txs, log: log}
}

func (h *TransactionHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("GET /api/transactions", protect(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/transactions", protect(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /api/transactions/{id}", protect(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /api/transactions/{id}", protect(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /api/transactions/{id}", protect(http.HandlerFunc(h.handleDelete)))
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errs := fieldErrors{}
	query := service.TransactionQuery{
		Category: strings.TrimSpace(q.Get("category")),
		From:     queryDate(q, "startDate", errs),
		To:       queryEndDate(q, "endDate", errs),
		Search:   strings.TrimSpace(q.Get("search")),
		Order:    queryOrder(q, transactionSortFields, true, errs),
		Page:     queryInt(q, "page", errs),
		Limit:    queryInt(q, "limit", errs),
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		errs.add("endDate", "must not be before startDate")
	}
	if !errs.ok(w) {
		return
	}

	page, err := h.txs.List(r.Context(), auth.UserIDFromContext(r.Context()), query)
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch transactions")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.Page[models.Transaction]{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	})
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.money("amount", req.Amount, false)
	errs.text("category", req.Category, true, maxNameLength)
	errs.text("description", req.Description, false, maxTextLength)
	errs.date("date", req.Date)
	if !errs.ok(w) {
		return
	}

	created, err := h.txs.Create(r.Context(), auth.UserIDFromContext(r.Context()), service.TransactionInput{
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        req.Date.Time,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to create transaction")
		return
	}
	respond.JSON(w, http.StatusCreated, "transaction created", created)
}

func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txs.Get(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch transaction")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", tx)
}

func (h *TransactionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	if req.Amount != nil {
		errs.money("amount", *req.Amount, false)
	}
	if req.Category != nil {
		errs.text("category", *req.Category, true, maxNameLength)
	}
	if req.Description != nil {
		errs.text("description", *req.Description, false, maxTextLength)
	}
	if req.Date != nil {
		errs.date("date", *req.Date)
	}
	if !errs.ok(w) {
		return
	}

	updated, err := h.txs.Update(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), service.TransactionPatch{
		Amount:      req.Amount,
		Category:    trimmed(req.Category),
		Description: trimmed(req.Description),
		Date:        optionalTime(req.Date),
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to update transaction")
		return
	}
	respond.JSON(w, http.StatusOK, "transaction updated", updated)
}

func (h *TransactionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.txs.Delete(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, h.log, err, "failed to delete transaction")
		return
	}
	respond.NoContent(w)
}
