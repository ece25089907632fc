package repository

import (
	"context"
	"errors"

	"otp-signup/model"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountVerified is returned when a patch requiring an unverified record hits a verified one
	ErrAccountVerified = errors.New("account already verified")
	// ErrOTPChanged is returned when a patch's ExpectOTP no longer matches the pending code
	ErrOTPChanged = errors.New("pending otp changed")
)

// AccountRepository is the durable email -> account mapping.
type AccountRepository interface {
	// InsertIfAbsent creates the record, or fails with ErrAccountExists. Never overwrites.
	InsertIfAbsent(ctx context.Context, account *model.Account) error

	// GetByEmail returns ErrAccountNotFound when no record exists.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)

	// UpdateFields applies a partial update atomically. Guards are checked in
	// order: existence (ErrAccountNotFound), RequireUnverified
	// (ErrAccountVerified), ExpectOTP (ErrOTPChanged).
	UpdateFields(ctx context.Context, email string, patch model.AccountPatch) error
}
