package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrEmptyQuery", ErrEmptyQuery},
		{"ErrAwaitingAnswer", ErrAwaitingAnswer},
		{"ErrCorpusEmpty", ErrCorpusEmpty},
		{"ErrNoFile", ErrNoFile},
		{"ErrEmptyFile", ErrEmptyFile},
		{"ErrUploadInProgress", ErrUploadInProgress},
		{"ErrDeleteInProgress", ErrDeleteInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestValidationError_MatchesReasonAndInvalidInput(t *testing.T) {
	err := NewValidationError("query", ErrEmptyQuery)

	assert.Equal(t, "query: query cannot be empty", err.Error())
	assert.True(t, errors.Is(err, ErrEmptyQuery))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", err)))
}

func TestValidationError_NoField(t *testing.T) {
	err := NewValidationError("", ErrNoFile)
	assert.Equal(t, "no file selected", err.Error())
}

func TestIsValidation_OtherErrors(t *testing.T) {
	assert.False(t, IsValidation(nil))
	assert.False(t, IsValidation(ErrInvalidInput))
	assert.False(t, IsValidation(&NetworkError{Op: "list", Err: errors.New("boom")}))
}

func TestServerError_NotFound(t *testing.T) {
	err := &ServerError{Op: "delete", StatusCode: 404, Detail: "Document 'a.pdf' not found"}

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsServer(err))
	assert.Contains(t, err.Error(), "404")

	other := &ServerError{Op: "delete", StatusCode: 500, Detail: "boom"}
	assert.False(t, errors.Is(other, ErrNotFound))
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "chat", Err: context.DeadlineExceeded, Timeout: true}

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, IsNetwork(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"server detail verbatim", &ServerError{StatusCode: 400, Detail: "Query cannot be empty"}, "Query cannot be empty"},
		{"server without detail", &ServerError{StatusCode: 500}, MessageFallback},
		{"timeout", &NetworkError{Err: errors.New("x"), Timeout: true}, MessageTimeout},
		{"unreachable", &NetworkError{Err: errors.New("refused")}, MessageUnreachable},
		{"wrapped server", fmt.Errorf("upload: %w", &ServerError{StatusCode: 415, Detail: "Unsupported file type"}), "Unsupported file type"},
		{"plain", errors.New("something odd"), "something odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestChatErrorContent(t *testing.T) {
	err := &ServerError{StatusCode: 500, Detail: "LLM unavailable"}
	assert.Equal(t, "Error: LLM unavailable", ChatErrorContent(err))
}
