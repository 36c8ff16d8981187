package services

import (
	"errors"

	"edumarket/internal/repositories"
)

var (
	// ErrDuplicateEmail is returned when registering an email that already has an account.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned when no account matches the email and password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionEnded is returned for a valid token whose user is no longer signed in.
	ErrSessionEnded = errors.New("session has ended")
	// ErrInvalidPrice is returned when a listing price is not a positive amount.
	ErrInvalidPrice = errors.New("price must be greater than zero")
	// ErrListingSold is returned when trying to buy a listing that is already sold.
	ErrListingSold = errors.New("listing already sold")
	// ErrNoPaymentHandle is returned when the seller has no UPI handle on the listing.
	ErrNoPaymentHandle = errors.New("seller has no UPI handle")

	// ErrNotFound and ErrPersistence are the storage failures callers can act on.
	ErrNotFound    = repositories.ErrNotFound
	ErrPersistence = repositories.ErrPersistence
)
