// Package services defines the business logic for pass batch sessions and
// the pass ledger. This file centralizes service-level error values so they
// can be returned consistently and mapped to HTTP results by handlers.
package services

import "errors"

var (
	// ErrBatchNotFound indicates the batch session does not exist, expired,
	// or belongs to another user.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrRunNotFound indicates a stored submission run could not be found.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidEventID is returned when a ledger query names a malformed event id.
	ErrInvalidEventID = errors.New("invalid event id")
)
