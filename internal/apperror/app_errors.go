package apperror

import "errors"

var (
	ErrInvalidField     = errors.New("invalid field")
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnknownAction    = errors.New("unknown action")
	ErrMissingPayload   = errors.New("payload is required")
	ErrUnknownStorage   = errors.New("unknown session storage")
	ErrRedisAddrMissing = errors.New("redis address string is empty")
)
