package services

import "errors"

// Business errors. Handlers map these onto HTTP statuses; anything not in
// this list is treated as an internal failure. Each one is detected inside
// the transaction that would have applied the mutation, so the outcome is
// deterministic even under concurrent duplicates.
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrTaskInactive      = errors.New("task is not active")
	ErrAlreadyClaimed    = errors.New("task already claimed")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrDuplicateReceipt  = errors.New("reward record already credited")
	ErrInsufficientItem  = errors.New("item not held")
	ErrInsufficientFunds = errors.New("balance too low")
	ErrUnauthorized      = errors.New("not authorized")
	ErrSelfReferral      = errors.New("cannot refer yourself")
	ErrNoEligibleTarget  = errors.New("no eligible raid target")
	ErrBanned            = errors.New("account is banned")

	// ErrTransientStore marks timeout/conflict exhaustion. Safe to retry for
	// every operation except a bare, non-deduped credit.
	ErrTransientStore = errors.New("transient store failure")
)
