// Package messages defines Bubbletea message types for the TUI.
// Messages carry the results of asynchronous service calls back into the
// Elm update loop.
package messages

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// FocusArea identifies which pane receives key input.
type FocusArea int

const (
	// FocusChat is the transcript and question input.
	FocusChat FocusArea = iota
	// FocusDocuments is the document sidebar.
	FocusDocuments
)

// String returns the string representation of the focus area.
func (f FocusArea) String() string {
	switch f {
	case FocusChat:
		return "chat"
	case FocusDocuments:
		return "documents"
	default:
		return "unknown"
	}
}

// Next returns the other focus area.
func (f FocusArea) Next() FocusArea {
	if f == FocusChat {
		return FocusDocuments
	}
	return FocusChat
}

// CorpusLoaded is sent after a document listing, initial or refresh.
type CorpusLoaded struct {
	Documents []domain.Document
	Err       error
}

// UploadCompleted is sent when an upload and its refresh have finished.
type UploadCompleted struct {
	Path   string
	Result *domain.UploadResult
	Err    error
}

// DeleteRequested asks the app to confirm deleting a document.
type DeleteRequested struct {
	Filename string
}

// DeleteCompleted is sent when a delete and its refresh have finished.
type DeleteCompleted struct {
	Filename string
	Deleted  bool
	Err      error
}

// InfoLoaded carries the index snapshot and gateway health.
type InfoLoaded struct {
	Info   *domain.CorpusInfo
	Health *domain.Health
	Err    error
}

// AnswerReceived carries the outcome of an outstanding question.
// Generation identifies the transcript the question belonged to.
type AnswerReceived struct {
	Generation int
	Turn       *domain.ChatTurn
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
