package model

import "github.com/m-mizutani/goerr/v2"

// Error kinds. Callers classify wrapped errors with errors.Is.
var (
	// ErrValidation is returned for bad or missing fields. It never reaches the store.
	ErrValidation = goerr.New("validation error")

	// ErrInvalidInterval is returned when end <= start. It is also an ErrValidation.
	ErrInvalidInterval = goerr.Wrap(ErrValidation, "invalid interval")

	ErrNotFound         = goerr.New("not found")
	ErrStoreUnavailable = goerr.New("store unavailable")
	ErrExternalService  = goerr.New("external service error")
	ErrUnknownOperation = goerr.New("unknown operation")
)
