package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/http/respond"
	"github.com/victor-nwoseh/finance-tracker/internal/models/dto"
	"github.com/victor-nwoseh/finance-tracker/internal/service"
)

const (
	maxBodyBytes   = 1 << 20
	maxNameLength  = 100
	maxTextLength  = 255
	maxMoneyDigits = 2
)

// Protect wraps a handler with authentication.
type Protect func(http.Handler) http.Handler

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP statuses. Unexpected errors
// are logged with their cause and reported with a generic message only.
func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error, generic string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict):
		respond.Error(w, http.StatusConflict, "already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrInsufficientFunds):
		respond.Error(w, http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, service.ErrExceedsTarget):
		respond.Error(w, http.StatusBadRequest, "deposit would exceed target amount")
	default:
		log.WithError(err).Error(generic)
		respond.Error(w, http.StatusInternalServerError, generic)
	}
}

// fieldErrors collects per-field validation failures.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) text(field, value string, required bool, maxLen int) {
	value = strings.TrimSpace(value)
	if required && value == "" {
		f.add(field, "is required")
		return
	}
	if len(value) > maxLen {
		f.add(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
}

func (f fieldErrors) money(field string, value decimal.Decimal, allowZero bool) {
	switch {
	case value.IsNegative() || (!allowZero && value.IsZero()):
		if allowZero {
			f.add(field, "cannot be negative")
		} else {
			f.add(field, "must be greater than 0")
		}
	case !value.Round(maxMoneyDigits).Equal(value):
		f.add(field, "must have at most 2 decimal places")
	}
}

func (f fieldErrors) date(field string, value dto.Date) {
	if value.IsZero() {
		f.add(field, "is required")
	}
}

// ok writes the collected errors and reports whether there were none.
func (f fieldErrors) ok(w http.ResponseWriter) bool {
	if len(f) == 0 {
		return true
	}
	respond.Invalid(w, f)
	return false
}

// queryDate parses an optional date parameter into *time.Time.
func queryDate(q url.Values, key string, errs fieldErrors) *time.Time {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		errs.add(key, err.Error())
		return nil
	}
	return &t
}

// queryEndDate is queryDate with date-only values extended to the end of that day.
func queryEndDate(q url.Values, key string, errs fieldErrors) *time.Time {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	t, err := dto.ParseEndDate(raw)
	if err != nil {
		errs.add(key, err.Error())
		return nil
	}
	return &t
}

func queryInt(q url.Values, key string, errs fieldErrors) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		errs.add(key, "must be a positive integer")
		return 0
	}
	return n
}

func queryDecimal(q url.Values, key string, errs fieldErrors) *decimal.Decimal {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs.add(key, "must be a number")
		return nil
	}
	return &d
}

func queryOrder(q url.Values, allowed []string, defDesc bool, errs fieldErrors) service.ListOrder {
	order := service.ParseOrder(q.Get("sortBy"), q.Get("order"), defDesc)
	if order.SortBy != "" && !slices.Contains(allowed, order.SortBy) {
		errs.add("sortBy", "must be one of "+strings.Join(allowed, ", "))
	}
	if o := strings.ToLower(strings.TrimSpace(q.Get("order"))); o != "" && o != "asc" && o != "desc" {
		errs.add("order", "must be asc or desc")
	}
	return order
}

func optionalTime(d *dto.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// optionalEnd is optionalTime for inclusive upper bounds.
func optionalEnd(d *dto.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.End()
	return &t
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
