package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second, RetryInterval: time.Millisecond})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})

	assert.Equal(t, "http://localhost:8000", c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
	assert.Nil(t, c.limiter)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://rag:9000///"})
	assert.Equal(t, "http://rag:9000", c.BaseURL())
}

func TestListDocuments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/documents/", r.URL.Path)
		_, _ = io.WriteString(w, `[{"document_id":"d1","filename":"a.pdf","num_chunks":3,"created_at":null},
			{"document_id":"d2","filename":"b.txt","num_chunks":1,"created_at":null}]`)
	})

	docs, err := c.ListDocuments(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Document{
		{DocumentID: "d1", Filename: "a.pdf", NumChunks: 3},
		{DocumentID: "d2", Filename: "b.txt", NumChunks: 1},
	}, docs)
}

func TestListDocuments_NullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	docs, err := c.ListDocuments(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestUploadDocument(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello retrieval world")

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/documents/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "notes.txt", header.Filename)
		assert.True(t, strings.HasPrefix(header.Header.Get("Content-Type"), "text/plain"))
		assert.Equal(t, "hello retrieval world", string(data))

		_, _ = io.WriteString(w, `{"document_id":"d9","filename":"notes.txt","num_chunks":2,"message":"Document uploaded and processed successfully"}`)
	})

	result, err := c.UploadDocument(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "d9", result.DocumentID)
	assert.Equal(t, 2, result.NumChunks)
	assert.Equal(t, "Document uploaded and processed successfully", result.Message)
}

func TestUploadDocument_Validation(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.UploadDocument(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, domain.ErrNoFile)
	assert.True(t, domain.IsValidation(err))

	_, err = c.UploadDocument(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNoFile)

	empty := writeFile(t, "empty.pdf", "")
	_, err = c.UploadDocument(context.Background(), empty)
	assert.ErrorIs(t, err, domain.ErrEmptyFile)

	assert.Zero(t, atomic.LoadInt32(&calls), "no request for invalid input")
}

func TestUploadDocument_ServerRejects(t *testing.T) {
	path := writeFile(t, "image.png", "not really a png")
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Unsupported file type: .png. Allowed: .pdf, .docx, .txt"}`)
	})

	_, err := c.UploadDocument(context.Background(), path)

	var se *domain.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "Unsupported file type: .png. Allowed: .pdf, .docx, .txt", domain.UserMessage(err))
}

func TestUploadDocument_NotRetried(t *testing.T) {
	path := writeFile(t, "a.txt", "content")
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, RetryInterval: time.Millisecond})

	_, err := c.UploadDocument(context.Background(), path)

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDeleteDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/documents/annual report.pdf", r.URL.Path)
		_, _ = io.WriteString(w, `{"message":"Document 'annual report.pdf' deleted successfully","num_chunks_deleted":7}`)
	})

	result, err := c.DeleteDocument(context.Background(), "annual report.pdf")

	require.NoError(t, err)
	assert.Equal(t, 7, result.NumChunksDeleted)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Document 'x.pdf' not found"}`)
	})

	_, err := c.DeleteDocument(context.Background(), "x.pdf")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Document 'x.pdf' not found", domain.UserMessage(err))
}

func TestGetCorpusInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/info", r.URL.Path)
		_, _ = io.WriteString(w, `{"collection_name":"documents","total_chunks":42,"persist_directory":"./chroma",
			"similarity_metric":"cosine","model":"all-MiniLM-L6-v2","dimension":384,"provider":"local"}`)
	})

	info, err := c.GetCorpusInfo(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 42, info.TotalChunks)
	assert.Equal(t, "cosine", info.SimilarityMetric)
	assert.Equal(t, 384, info.Dimension)
	assert.Equal(t, "all-MiniLM-L6-v2", info.Model)
	assert.Equal(t, "documents", info.CollectionName)
}

func TestSendChatMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("developer_mode"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What is X?", body["query"])
		assert.EqualValues(t, 5, body["top_k"])
		history, _ := body["chat_history"].([]any)
		if assert.Len(t, history, 2) {
			assert.Equal(t, map[string]any{"role": "user", "content": "hi"}, history[0])
		}

		_, _ = io.WriteString(w, `{"answer":"X is Y.","confidence":0.8,"prompt_used":"PROMPT",
			"sources":[{"chunk_id":"c1","text":"passage","source":"a.pdf","page":2,"similarity_score":0.91}]}`)
	})

	reply, err := c.SendChatMessage(context.Background(), domain.ChatRequest{
		Query: "What is X?",
		History: []domain.HistoryMessage{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
		},
		TopK:          5,
		DeveloperMode: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "X is Y.", reply.Answer)
	assert.InDelta(t, 0.8, reply.Confidence, 0.0001)
	require.NotNil(t, reply.PromptUsed)
	assert.Equal(t, "PROMPT", *reply.PromptUsed)
	require.Len(t, reply.Sources, 1)
	require.NotNil(t, reply.Sources[0].Page)
	assert.Equal(t, 2, *reply.Sources[0].Page)
}

func TestSendChatMessage_EmptyHistoryEncodedAsArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("developer_mode"))
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), `"chat_history":[]`)
		_, _ = io.WriteString(w, `{"answer":"a","confidence":0}`)
	})

	reply, err := c.SendChatMessage(context.Background(), domain.ChatRequest{Query: "q"})

	require.NoError(t, err)
	assert.NotNil(t, reply.Sources)
	assert.Nil(t, reply.PromptUsed)
}

func TestSendChatMessage_EmptyQuery(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.SendChatMessage(context.Background(), domain.ChatRequest{Query: "  "})

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestSendChatMessage_NotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, RetryInterval: time.Millisecond})

	_, err := c.SendChatMessage(context.Background(), domain.ChatRequest{Query: "q"})

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCheckHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"healthy","service":"RAG Chat API"}`)
	})

	health, err := c.CheckHealth(context.Background())

	require.NoError(t, err)
	assert.True(t, health.IsHealthy())
	assert.Equal(t, "RAG Chat API", health.Service)
}

func TestReads_RetryTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 2, RetryInterval: time.Millisecond})

	docs, err := c.ListDocuments(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReads_RetryBudgetExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 2, RetryInterval: time.Millisecond})

	_, err := c.CheckHealth(context.Background())

	var se *domain.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusGatewayTimeout, se.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReads_NoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"Error listing documents: boom"}`)
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, RetryInterval: time.Millisecond})

	_, err := c.ListDocuments(context.Background())

	assert.Equal(t, "Error listing documents: boom", domain.UserMessage(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNetworkError_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c := NewClient(Config{BaseURL: base, Timeout: time.Second})

	_, err := c.ListDocuments(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, domain.MessageUnreachable, domain.UserMessage(err))
}

func TestNetworkError_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := c.SendChatMessage(context.Background(), domain.ChatRequest{Query: "q"})

	var ne *domain.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout)
	assert.Equal(t, domain.MessageTimeout, domain.UserMessage(err))
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	c := NewClient(Config{BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.SendChatMessage(ctx, domain.ChatRequest{Query: "q"})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	})
	c.limiter = NewClient(Config{RateLimit: 0.5}).limiter

	_, err := c.CheckHealth(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.CheckHealth(ctx)

	assert.True(t, domain.IsNetwork(err), "second call waits for a token and hits the deadline")
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 400, `{"detail":"Query cannot be empty"}`, "Query cannot be empty"},
		{"validation list", 422, `{"detail":[{"loc":["body","query"],"msg":"field required","type":"value_error.missing"},{"loc":["body","top_k"],"msg":"value is not a valid integer"}]}`,
			"field required; value is not a valid integer"},
		{"object detail", 400, `{"detail":{"code":7}}`, `{"code":7}`},
		{"plain text", 502, "Bad Gateway from proxy", "Bad Gateway from proxy"},
		{"empty body", 503, "", "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail(tt.status, []byte(tt.body)))
		})
	}
}

func TestParseDetail_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("€", maxErrorBody)

	got := parseDetail(500, []byte(body))

	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxErrorBody+len("..."))
	assert.Equal(t, strings.Repeat("€", maxErrorBody/3)+"...", got)
}
