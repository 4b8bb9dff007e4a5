package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Chat Errors.

	// ErrEmptyQuery indicates the question was empty after trimming.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrAwaitingAnswer indicates a question is already outstanding.
	ErrAwaitingAnswer = errors.New("awaiting answer")

	// ErrCorpusEmpty indicates chat is gated because no documents are indexed.
	ErrCorpusEmpty = errors.New("no documents uploaded")

	// ErrStaleExchange indicates a reply arrived after the transcript was cleared.
	ErrStaleExchange = errors.New("exchange discarded after clear")

	// Document Errors.

	// ErrNoFile indicates no file was selected for upload.
	ErrNoFile = errors.New("no file selected")

	// ErrEmptyFile indicates the selected file has no content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrUploadInProgress indicates an upload is already running.
	ErrUploadInProgress = errors.New("upload in progress")

	// ErrDeleteInProgress indicates a delete for the same document is already running.
	ErrDeleteInProgress = errors.New("delete in progress")
)

// ValidationError reports input rejected before any request is sent.
// Drivers suppress these at the point of action.
type ValidationError struct {
	Field  string
	Reason error
}

// NewValidationError creates a ValidationError for field wrapping reason.
func NewValidationError(field string, reason error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Reason)
}

// Unwrap exposes the reason so errors.Is matches sentinels like ErrEmptyQuery.
func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NetworkError reports a transport failure: the request never got a response.
type NetworkError struct {
	Op      string
	Err     error
	Timeout bool
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// ServerError reports a non-success response from the gateway.
// Detail is the gateway's structured message, surfaced verbatim.
type ServerError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Detail)
}

// Is matches ErrNotFound for 404 responses.
func (e *ServerError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsServer reports whether err is a ServerError.
func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// Generic user-facing messages.
const (
	MessageTimeout     = "Request timed out"
	MessageUnreachable = "Could not reach the server"
	MessageFallback    = "Failed to get response"
)

// UserMessage returns the message a driver shows for err.
// Server details are surfaced verbatim; transport failures get a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var se *ServerError
	if errors.As(err, &se) {
		if se.Detail != "" {
			return se.Detail
		}
		return MessageFallback
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		if ne.Timeout {
			return MessageTimeout
		}
		return MessageUnreachable
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return MessageFallback
}

// ChatErrorContent formats err as the content of a failed assistant turn.
func ChatErrorContent(err error) string {
	return "Error: " + UserMessage(err)
}
