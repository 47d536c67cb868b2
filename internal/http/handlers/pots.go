package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/http/respond"
	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/models/dto"
	"github.com/victor-nwoseh/finance-tracker/internal/service"
)

var potSortFields = []string{"name", "targetAmount", "currentAmount", "progress", "createdAt"}

// PotHandler exposes /api/pots and the deposit/withdraw movements.
type PotHandler struct {
	pots *service.PotService
	log  logrus.FieldLogger
}

func NewPotHandler(pots *service.PotService, log logrus.FieldLogger) *PotHandler {
	return &PotHandler{pots: pots, log: log}
}

func (h *PotHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("GET /api/pots", protect(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/pots", protect(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /api/pots/{id}", protect(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /api/pots/{id}", protect(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /api/pots/{id}", protect(http.HandlerFunc(h.handleDelete)))
	mux.Handle("POST /api/pots/{id}/deposit", protect(http.HandlerFunc(h.handleDeposit)))
	mux.Handle("POST /api/pots/{id}/withdraw", protect(http.HandlerFunc(h.handleWithdraw)))
	mux.Handle("GET /api/pots/{id}/transactions", protect(http.HandlerFunc(h.handleLedger)))
}

func (h *PotHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errs := fieldErrors{}
	query := service.PotQuery{
		Search:      strings.TrimSpace(q.Get("search")),
		MinProgress: queryDecimal(q, "minProgress", errs),
		MaxProgress: queryDecimal(q, "maxProgress", errs),
		Order:       queryOrder(q, potSortFields, true, errs),
	}
	if !errs.ok(w) {
		return
	}
	pots, err := h.pots.List(r.Context(), auth.UserIDFromContext(r.Context()), query)
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch pots")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", pots)
}

func (h *PotHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	current := decimal.Zero
	if req.CurrentAmount != nil {
		current = *req.CurrentAmount
	}
	errs := fieldErrors{}
	errs.text("name", req.Name, true, maxNameLength)
	errs.money("targetAmount", req.TargetAmount, false)
	errs.money("currentAmount", current, true)
	if current.GreaterThan(req.TargetAmount) {
		errs.add("currentAmount", "cannot exceed targetAmount")
	}
	if !errs.ok(w) {
		return
	}

	created, err := h.pots.Create(r.Context(), auth.UserIDFromContext(r.Context()), service.PotInput{
		Name:          strings.TrimSpace(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: current,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to create pot")
		return
	}
	respond.JSON(w, http.StatusCreated, "pot created", created)
}

func (h *PotHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	pot, err := h.pots.Get(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch pot")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", pot)
}

func (h *PotHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	if req.Name != nil {
		errs.text("name", *req.Name, true, maxNameLength)
	}
	if req.TargetAmount != nil {
		errs.money("targetAmount", *req.TargetAmount, false)
	}
	if !errs.ok(w) {
		return
	}
	updated, err := h.pots.Update(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), service.PotPatch{
		Name:         trimmed(req.Name),
		TargetAmount: req.TargetAmount,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "failed to update pot")
		return
	}
	respond.JSON(w, http.StatusOK, "pot updated", updated)
}

func (h *PotHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.pots.Delete(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, h.log, err, "failed to delete pot")
		return
	}
	respond.NoContent(w)
}

func (h *PotHandler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.pots.Deposit, "deposit recorded", "failed to deposit to pot")
}

func (h *PotHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.pots.Withdraw, "withdrawal recorded", "failed to withdraw from pot")
}

// potMovement is the shape shared by PotService.Deposit and PotService.Withdraw.
type potMovement func(ctx context.Context, id, userID string, amount decimal.Decimal) (models.Pot, error)

func (h *PotHandler) handleMovement(w http.ResponseWriter, r *http.Request, move potMovement, message, generic string) {
	var req dto.PotMovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.money("amount", req.Amount, false)
	if !errs.ok(w) {
		return
	}
	pot, err := move(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), req.Amount)
	if err != nil {
		writeServiceError(w, h.log, err, generic)
		return
	}
	respond.JSON(w, http.StatusOK, message, pot)
}

func (h *PotHandler) handleLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.pots.Ledger(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch pot transactions")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", entries)
}
