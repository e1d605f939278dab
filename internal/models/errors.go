package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrInvalidID        = errors.New("invalid ID format")
	ErrInvalidOutcome   = errors.New("invalid outcome")
	ErrAlreadyResolved  = errors.New("prediction record already resolved")
	ErrInsufficientData = errors.New("insufficient data for prediction")
)
