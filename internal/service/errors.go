package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrAccessDenied   = errors.New("access denied")
)

// DetailError carries a client-facing message for a sentinel error
type DetailError struct {
	Kind    error
	Message string
}

func (e *DetailError) Error() string { return e.Message }

func (e *DetailError) Unwrap() error { return e.Kind }

func detail(kind error, format string, args ...interface{}) error {
	return &DetailError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) error {
	return detail(ErrInvalidRequest, format, args...)
}

func denied(format string, args ...interface{}) error {
	return detail(ErrAccessDenied, format, args...)
}
