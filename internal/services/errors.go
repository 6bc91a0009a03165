package services

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyUnlocked = errors.New("achievement already unlocked")

	// ErrSideEffects means the primary write committed but one or more
	// follow-up steps (xp, activity, notifications) did not.
	ErrSideEffects = errors.New("side effects incomplete")
)

var ErrInvalidCredentials = errors.New("invalid credentials")
