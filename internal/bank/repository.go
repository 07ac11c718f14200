package bank

import (
	"context"

	apperrors "bida-banking-workers/internal/common/errors"
)

var (
	ErrStateNotInitialized   = apperrors.Sentinel(apperrors.ErrCodeStateNotInitialized)
	ErrKycNotApproved        = apperrors.Sentinel(apperrors.ErrCodeKycNotApproved)
	ErrAccountNotActive      = apperrors.Sentinel(apperrors.ErrCodeAccountNotActive)
	ErrNoEscrowFound         = apperrors.Sentinel(apperrors.ErrCodeNoEscrowFound)
	ErrEscrowAlreadyReleased = apperrors.Sentinel(apperrors.ErrCodeEscrowAlreadyReleased)
	ErrBankStateNotFound     = apperrors.Sentinel(apperrors.ErrCodeBankStateNotFound)
	ErrInvalidRequest        = apperrors.Sentinel(apperrors.ErrCodeInvalidBankRequest)
)

// UpdateFunc mutates a private copy of the stored state. Returning an error
// aborts the update and leaves the stored record untouched.
type UpdateFunc func(state *BankState) error

// Repository is the Bank State Store. Implementations must hand out copies so
// callers never share memory with the stored record.
type Repository interface {
	// Get returns ErrBankStateNotFound when the investor has no state.
	Get(ctx context.Context, investorID string) (*BankState, error)

	// Create stores state unless a record already exists, in which case the
	// existing record is returned with created=false.
	Create(ctx context.Context, state *BankState) (stored *BankState, created bool, err error)

	// Update applies fn atomically and returns the new record.
	Update(ctx context.Context, investorID string, fn UpdateFunc) (*BankState, error)
}
