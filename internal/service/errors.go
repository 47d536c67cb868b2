// Package service holds the business rules for every finance entity. Services
// return the sentinel errors below for expected conditions and wrap anything
// else as "failed to <operation>" so handlers can log the cause and hide it.
package service

import (
	"errors"
	"fmt"

	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

var (
	// ErrNotFound covers both missing rows and rows owned by another user.
	ErrNotFound = errors.New("not found or unauthorized")
	// ErrConflict indicates a duplicate unique key, such as a registered email.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned by login for unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInsufficientFunds is returned when a pot withdrawal exceeds its balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrExceedsTarget is returned when a deposit would overshoot a pot's target.
	ErrExceedsTarget = errors.New("deposit exceeds pot target")
)

// ValidationError reports input a service refuses regardless of how it arrived.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// wrap passes expected sentinels through and tags everything else with the operation.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrConflict
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrExceedsTarget),
		errors.As(err, &verr):
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
