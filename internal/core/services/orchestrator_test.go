package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

func newOrchestrator(gw *mockGateway) (*DocumentOrchestrator, *CorpusService) {
	corpus := NewCorpusService(gw)
	return NewDocumentOrchestrator(gw, corpus), corpus
}

func TestOrchestrator_Upload_RefreshesOnSuccess(t *testing.T) {
	gw := newMockGateway(domain.Document{Filename: "report.pdf", NumChunks: 4})
	orch, corpus := newOrchestrator(gw)

	result, err := orch.Upload(context.Background(), "/tmp/report.pdf")

	require.NoError(t, err)
	require.NotNil(t, result)
	uploads, lists, _ := gw.counts()
	assert.Equal(t, 1, uploads)
	assert.Equal(t, 1, lists)
	assert.True(t, corpus.Has("report.pdf"))
	assert.False(t, orch.Busy())
}

func TestOrchestrator_Upload_FailureLeavesCorpus(t *testing.T) {
	gw := newMockGateway()
	gw.UploadFunc = func(context.Context, string) (*domain.UploadResult, error) {
		return nil, &domain.ServerError{StatusCode: 400, Detail: "Unsupported file type"}
	}
	orch, corpus := newOrchestrator(gw)

	_, err := orch.Upload(context.Background(), "image.png")

	require.Error(t, err)
	assert.Equal(t, "Unsupported file type", domain.UserMessage(err))
	_, lists, _ := gw.counts()
	assert.Equal(t, 0, lists, "no refresh after a failed upload")
	assert.True(t, corpus.IsEmpty())
	assert.False(t, orch.Busy(), "busy flag released after failure")
}

func TestOrchestrator_Upload_NoFile(t *testing.T) {
	gw := newMockGateway()
	orch, _ := newOrchestrator(gw)

	_, err := orch.Upload(context.Background(), "  ")

	assert.ErrorIs(t, err, domain.ErrNoFile)
	assert.True(t, domain.IsValidation(err))
	uploads, _, _ := gw.counts()
	assert.Zero(t, uploads)
}

func TestOrchestrator_Upload_RejectsWhileBusy(t *testing.T) {
	gw := newMockGateway()
	started := make(chan struct{})
	release := make(chan struct{})
	gw.UploadFunc = func(context.Context, string) (*domain.UploadResult, error) {
		close(started)
		<-release
		return &domain.UploadResult{Filename: "a.pdf"}, nil
	}
	orch, _ := newOrchestrator(gw)

	done := make(chan error, 1)
	go func() {
		_, err := orch.Upload(context.Background(), "a.pdf")
		done <- err
	}()
	<-started

	assert.True(t, orch.Busy())
	_, err := orch.Upload(context.Background(), "b.pdf")
	assert.ErrorIs(t, err, domain.ErrUploadInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, orch.Busy())
	uploads, _, _ := gw.counts()
	assert.Equal(t, 1, uploads)
}

func TestOrchestrator_Upload_RefreshFailureReturnsResult(t *testing.T) {
	gw := newMockGateway()
	gw.ListFunc = func(context.Context) ([]domain.Document, error) {
		return nil, errors.New("list failed")
	}
	orch, _ := newOrchestrator(gw)

	result, err := orch.Upload(context.Background(), "a.txt")

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, err.Error(), "refresh after upload")
}

func TestOrchestrator_UploadFirst_UsesFirstPathOnly(t *testing.T) {
	gw := newMockGateway()
	orch, _ := newOrchestrator(gw)

	_, err := orch.UploadFirst(context.Background(), []string{"one.pdf", "two.pdf", "three.pdf"})

	require.NoError(t, err)
	assert.Equal(t, []string{"one.pdf"}, gw.uploaded)
}

func TestOrchestrator_UploadFirst_EmptyList(t *testing.T) {
	orch, _ := newOrchestrator(newMockGateway())

	_, err := orch.UploadFirst(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrNoFile)
}

func TestOrchestrator_Delete_Declined(t *testing.T) {
	gw := newMockGateway(domain.Document{Filename: "a.pdf"})
	orch, corpus := newOrchestrator(gw)
	require.NoError(t, corpus.Refresh(context.Background()))

	var asked string
	deleted, err := orch.Delete(context.Background(), "a.pdf", func(name string) bool {
		asked = name
		return false
	})

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "a.pdf", asked)
	_, lists, deletes := gw.counts()
	assert.Zero(t, deletes)
	assert.Equal(t, 1, lists)
	assert.True(t, corpus.Has("a.pdf"))
}

func TestOrchestrator_Delete_ConfirmedRefreshes(t *testing.T) {
	docs := []domain.Document{{Filename: "a.pdf"}}
	gw := newMockGateway()
	gw.ListFunc = func(context.Context) ([]domain.Document, error) { return docs, nil }
	gw.DeleteFunc = func(context.Context, string) (*domain.DeleteResult, error) {
		docs = []domain.Document{}
		return &domain.DeleteResult{Message: "Deleted", NumChunksDeleted: 3}, nil
	}
	orch, corpus := newOrchestrator(gw)
	require.NoError(t, corpus.Refresh(context.Background()))

	deleted, err := orch.Delete(context.Background(), "a.pdf", driving.AlwaysConfirm)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, corpus.Has("a.pdf"))
	assert.False(t, orch.Deleting("a.pdf"))
}

func TestOrchestrator_Delete_NotFoundLeavesCorpus(t *testing.T) {
	gw := newMockGateway(domain.Document{Filename: "a.pdf"})
	gw.DeleteFunc = func(context.Context, string) (*domain.DeleteResult, error) {
		return nil, &domain.ServerError{StatusCode: 404, Detail: "Document 'a.pdf' not found"}
	}
	orch, corpus := newOrchestrator(gw)
	require.NoError(t, corpus.Refresh(context.Background()))

	deleted, err := orch.Delete(context.Background(), "a.pdf", driving.AlwaysConfirm)

	assert.False(t, deleted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, lists, _ := gw.counts()
	assert.Equal(t, 1, lists, "no refresh after a failed delete")
	assert.True(t, corpus.Has("a.pdf"))
}

func TestOrchestrator_Delete_DuplicateRejected(t *testing.T) {
	gw := newMockGateway()
	started := make(chan struct{})
	release := make(chan struct{})
	gw.DeleteFunc = func(context.Context, string) (*domain.DeleteResult, error) {
		close(started)
		<-release
		return &domain.DeleteResult{}, nil
	}
	orch, _ := newOrchestrator(gw)

	done := make(chan error, 1)
	go func() {
		_, err := orch.Delete(context.Background(), "a.pdf", driving.AlwaysConfirm)
		done <- err
	}()
	<-started

	assert.True(t, orch.Deleting("a.pdf"))
	_, err := orch.Delete(context.Background(), "a.pdf", driving.AlwaysConfirm)
	assert.ErrorIs(t, err, domain.ErrDeleteInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestOrchestrator_Delete_DoesNotShareBusyFlag(t *testing.T) {
	gw := newMockGateway()
	started := make(chan struct{})
	release := make(chan struct{})
	gw.UploadFunc = func(context.Context, string) (*domain.UploadResult, error) {
		close(started)
		<-release
		return &domain.UploadResult{}, nil
	}
	orch, _ := newOrchestrator(gw)

	done := make(chan error, 1)
	go func() {
		_, err := orch.Upload(context.Background(), "a.pdf")
		done <- err
	}()
	<-started

	deleted, err := orch.Delete(context.Background(), "b.pdf", driving.AlwaysConfirm)
	assert.NoError(t, err)
	assert.True(t, deleted)

	close(release)
	require.NoError(t, <-done)
}
