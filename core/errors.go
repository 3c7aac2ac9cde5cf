// Package core provides configuration, error taxonomy, and retry primitives
// shared across the backend.
package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a continuation failure into one of the user-facing
// categories. Every provider-specific error is normalized into one of these
// before it reaches the editor layer; the editor stores only display strings
// and performs no classification of its own.
type ErrorKind string

const (
	// KindConfiguration indicates a missing or unusable credential.
	// Fatal for the request; surfaced verbatim with remediation instructions.
	KindConfiguration ErrorKind = "configuration"

	// KindValidation indicates rejected input (empty after trimming).
	// Surfaced without retry; no network call is made.
	KindValidation ErrorKind = "validation"

	// KindAuthentication indicates the credential was rejected (401/403).
	KindAuthentication ErrorKind = "authentication"

	// KindQuota indicates rate limiting or an exhausted quota (429).
	// Transient: retried up to the attempt budget, then surfaced with a
	// retry affordance.
	KindQuota ErrorKind = "quota"

	// KindServiceUnavailable indicates the provider is overloaded (503).
	// Transient, same handling as KindQuota.
	KindServiceUnavailable ErrorKind = "service_unavailable"

	// KindModelUnavailable indicates the requested model does not exist
	// (404). Triggers fallback to the next model in the chain; only
	// surfaced once the chain is exhausted.
	KindModelUnavailable ErrorKind = "model_unavailable"

	// KindEmptyResponse indicates the provider answered but every
	// extraction path yielded empty or whitespace-only text.
	KindEmptyResponse ErrorKind = "empty_response"

	// KindGeneration is the catch-all for everything else; it carries the
	// original provider message.
	KindGeneration ErrorKind = "generation"
)

// ContinuationError is the structured error type for the AI continuation
// pipeline. It follows the Code/Message/Action pattern: Message describes
// what failed, Action tells the user how to fix it (when there is a fix).
type ContinuationError struct {
	Kind    ErrorKind
	Message string
	Action  string // remediation instruction, may be empty
	Err     error  // wrapped provider error, may be nil
}

func (e *ContinuationError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

func (e *ContinuationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error class is transient and worth an
// automatic retry. Only overload and quota/rate-limit failures qualify.
func (e *ContinuationError) Retryable() bool {
	return e.Kind == KindQuota || e.Kind == KindServiceUnavailable
}

// NewContinuationError builds a ContinuationError wrapping err.
func NewContinuationError(kind ErrorKind, message string, err error) *ContinuationError {
	return &ContinuationError{Kind: kind, Message: message, Err: err}
}

// ErrMissingCredential returns the configuration error for an absent API key.
// Detected at request time, not at startup.
func ErrMissingCredential() *ContinuationError {
	return &ContinuationError{
		Kind:    KindConfiguration,
		Message: "No AI credential configured",
		Action:  "Set GEMINI_API_KEY (or OPENAI_API_KEY with TEXT_LLM_URL) in your .env file",
	}
}

// ErrEmptyInput returns the validation error for whitespace-only input.
func ErrEmptyInput() *ContinuationError {
	return &ContinuationError{
		Kind:    KindValidation,
		Message: "Cannot continue writing from empty text",
		Action:  "Write something first, then ask for a continuation",
	}
}

// ErrEmptyResponse returns the error for a response with no extractable text.
func ErrEmptyResponse(model string) *ContinuationError {
	return &ContinuationError{
		Kind:    KindEmptyResponse,
		Message: fmt.Sprintf("Model %s returned an empty response", model),
	}
}

// KindOf extracts the ErrorKind from an error chain.
// Returns KindGeneration for errors that are not ContinuationErrors.
func KindOf(err error) ErrorKind {
	var ce *ContinuationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindGeneration
}

// IsRetryable reports whether err (anywhere in its chain) is a transient
// continuation error.
func IsRetryable(err error) bool {
	var ce *ContinuationError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}
	return false
}

// IsModelUnavailable reports whether err indicates a missing model, which is
// the signal for the fallback chain to advance.
func IsModelUnavailable(err error) bool {
	return KindOf(err) == KindModelUnavailable
}
