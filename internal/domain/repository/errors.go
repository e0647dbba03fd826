package repository

import "errors"

var (
	// ErrNotFound is returned by point reads of absent items.
	ErrNotFound = errors.New("item not found")
	// ErrConditionFailed is returned when a conditional write guard rejects the write.
	ErrConditionFailed = errors.New("condition check failed")
	// ErrMalformedRecord is returned when a stored item cannot be decoded into its entity.
	ErrMalformedRecord = errors.New("malformed record")
)
