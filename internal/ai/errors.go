package ai

import (
	"errors"
	"fmt"
)

// Sentinel errors for summarization calls.
var (
	ErrDisabled      = errors.New("ai: summarizer not configured")
	ErrUnauthorized  = errors.New("ai: api key rejected")
	ErrRateLimited   = errors.New("ai: rate limited by provider")
	ErrBadRequest    = errors.New("ai: bad request")
	ErrServer        = errors.New("ai: provider error")
	ErrEmptyResponse = errors.New("ai: empty completion")
	ErrCircuitOpen   = errors.New("ai: circuit open")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // "summarize"
	Model  string
	Status int // HTTP status, 0 if the request never completed
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ai %s [%s] status %d: %v", e.Op, e.Model, e.Status, e.Err)
	}
	return fmt.Sprintf("ai %s [%s]: %v", e.Op, e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, model string, status int, err error) error {
	return &Error{Op: op, Model: model, Status: status, Err: err}
}
