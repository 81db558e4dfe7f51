package services

import (
	"errors"

	"github.com/prestolend/lending-api/internal/repository"
	"github.com/prestolend/lending-api/internal/statemachine"
)

// Common service errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidTerms  = errors.New("invalid schedule terms")
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrAlreadyPaid   = errors.New("installment already paid")
	ErrCancelled     = errors.New("installment is cancelled")
	ErrWrittenOff    = errors.New("installment is written off")
	ErrOverpayment   = errors.New("payment exceeds amount due on installment")
	ErrTerminalLoan  = errors.New("loan is in a terminal status")

	// Aliases for sentinels owned by other packages, so callers can match
	// the whole taxonomy from one place.
	ErrInvalidTransition   = statemachine.ErrInvalidTransition
	ErrConcurrencyConflict = repository.ErrStaleVersion
)
