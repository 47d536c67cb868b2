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
)

var billSortFields = []string{"dueDate", "amount", "name", "status"}

// RecurringBillHandler exposes /api/recurring-bills.
type RecurringBillHandler struct {
	bills *service.RecurringBillService
	log   logrus.FieldLogger
}

func NewRecurringBillHandler(bills *service.RecurringBillService, log logrus.FieldLogger) *RecurringBillHandler {
	return &RecurringBillHandler{bills: bills, log: log}
}

func (h *RecurringBillHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("GET /api/recurring-bills", protect(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/recurring-bills", protect(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /api/recurring-bills/{id}", protect(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /api/recurring-bills/{id}", protect(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /api/recurring-bills/{id}", protect(http.HandlerFunc(h.handleDelete)))
	mux.Handle("POST /api/recurring-bills/{id}/pay", protect(http.HandlerFunc(h.handlePay)))
}

func (h *RecurringBillHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errs := fieldErrors{}
	status := models.BillStatus(strings.ToLower(strings.TrimSpace(q.Get("status"))))
	if status != "" && !status.Valid() {
		errs.add("status", "must be one of pending, paid, overdue")
	}
	query := service.BillQuery{
		Status:   status,
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		Order:    queryOrder(q, billSortFields, false, errs),
	}
	if !errs.ok(w) {
		return
	}
	bills, err := h.bills.List(r.Context(), auth.UserIDFromContext(r.Context()), query)
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch recurring bills")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", bills)
}

func (h *RecurringBillHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRecurringBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.text("name", req.Name, true, maxNameLength)
	errs.money("amount", req.Amount, false)
	errs.date("dueDate", req.DueDate)
	errs.text("category", req.Category, false, maxNameLength)
	if req.Status != "" && !req.Status.Valid() {
		errs.add("status", "must be one of pending, paid, overdue")
	}
	if !errs.ok(w) {
		return
	}

	created, err := h.bills.Create(r.Context(), auth.UserIDFromContext(r.Context()), service.BillInput{
		Name:     strings.TrimSpace(req.Name),
		Amount:   req.Amount,
		DueDate:  req.DueDate.Time,
		Status:   req.Status,
		Category: strings.TrimSpace(req.Category),
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to create recurring bill")
		return
	}
	respond.JSON(w, http.StatusCreated, "recurring bill created", created)
}

func (h *RecurringBillHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	bill, err := h.bills.Get(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch recurring bill")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", bill)
}

func (h *RecurringBillHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRecurringBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	if req.Name != nil {
		errs.text("name", *req.Name, true, maxNameLength)
	}
	if req.Amount != nil {
		errs.money("amount", *req.Amount, false)
	}
	if req.DueDate != nil {
		errs.date("dueDate", *req.DueDate)
	}
	if req.Category != nil {
		errs.text("category", *req.Category, false, maxNameLength)
	}
	if req.Status != nil && !req.Status.Valid() {
		errs.add("status", "must be one of pending, paid, overdue")
	}
	if !errs.ok(w) {
		return
	}

	updated, err := h.bills.Update(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), service.BillPatch{
		Name:     trimmed(req.Name),
		Amount:   req.Amount,
		DueDate:  optionalTime(req.DueDate),
		Status:   req.Status,
		Category: trimmed(req.Category),
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to update recurring bill")
		return
	}
	respond.JSON(w, http.StatusOK, "recurring bill updated", updated)
}

func (h *RecurringBillHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.bills.Delete(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, h.log, err, "failed to delete recurring bill")
		return
	}
	respond.NoContent(w)
}

func (h *RecurringBillHandler) handlePay(w http.ResponseWriter, r *http.Request) {
	bill, err := h.bills.MarkPaid(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to mark recurring bill paid")
		return
	}
	respond.JSON(w, http.StatusOK, "recurring bill paid", bill)
}
