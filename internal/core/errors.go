package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAlreadyJoined      = "already_joined"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInvalidMessage     = "invalid_message"
	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeStoreUnavailable   = "store_unavailable"
)

// ErrHubStopped is returned when registering with a hub that is no longer running.
var ErrHubStopped = errors.New("hub stopped")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func errorEvent(room, code, msg string) *Event {
	return &Event{Kind: EventError, Room: room, Error: coreError(code, msg)}
}
