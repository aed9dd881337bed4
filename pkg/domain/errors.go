package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSessionID is returned for empty or malformed session identifiers.
var ErrInvalidSessionID = errors.New("invalid session id")

// ErrInvalidState is returned when a value outside the defined state set is decoded.
var ErrInvalidState = errors.New("invalid dialogue state")

// ErrClassifierNotConfigured is the configuration error raised when a turn is
// processed before an intent classifier has been provided. It aborts the turn.
var ErrClassifierNotConfigured = errors.New("intent classifier not configured")
