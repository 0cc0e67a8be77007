package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrProvider matches every *Error via errors.Is.
var ErrProvider = errors.New("provider error")

// ErrEmptyResponse is wrapped when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty response")

// Provider is a completion backend.
type Provider interface {
	// Complete sends one prompt and returns the generated text
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name
	Name() string
}

// Request contains the parameters for a single completion
type Request struct {
	Prompt      string
	System      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Response contains the generated text
type Response struct {
	Text  string
	Model string
	Usage *Usage
}

// Usage reports token accounting when the backend returns it
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Error is returned for every failed completion.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

// Unwrap exposes both ErrProvider and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

// Timeout reports whether the call ran out of time.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Provider: name, Err: err}
}
