package model

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by the ledger wraps exactly one of
// the five category errors, so callers can branch on the category with
// errors.Is while still matching the specific reason.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrState        = errors.New("invalid state")
	ErrLiquidity    = errors.New("insufficient liquidity")
	ErrHalted       = errors.New("system halted")
)

// Specific reasons, each wrapping its category.
var (
	ErrPlanNotFound      = fmt.Errorf("plan not found: %w", ErrValidation)
	ErrPlanDisabled      = fmt.Errorf("plan disabled: %w", ErrValidation)
	ErrInvalidParameters = fmt.Errorf("invalid parameters: %w", ErrValidation)
	ErrAmountOutOfRange  = fmt.Errorf("amount out of range: %w", ErrValidation)
	ErrDepositNotFound   = fmt.Errorf("deposit not found: %w", ErrValidation)
	ErrTransferFailed    = fmt.Errorf("asset transfer failed: %w", ErrLiquidity)

	ErrNotHolder = fmt.Errorf("caller is not the certificate holder: %w", ErrUnauthorized)
	ErrNotAdmin  = fmt.Errorf("caller is not the administrator: %w", ErrUnauthorized)

	ErrNotActive      = fmt.Errorf("certificate is not active: %w", ErrState)
	ErrNotMatured     = fmt.Errorf("certificate has not matured: %w", ErrState)
	ErrAlreadyMatured = fmt.Errorf("certificate has already matured: %w", ErrState)
)
