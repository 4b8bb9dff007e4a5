package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

const (
	documentsPath = "/api/documents/"
	uploadPath    = "/api/documents/upload"
	infoPath      = "/api/documents/info"

	fallbackContentType = "application/octet-stream"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadDocument sends the file at path as multipart field "file".
// The file must exist and be non-empty; its extension is not checked here.
func (c *Client) UploadDocument(ctx context.Context, path string) (*domain.UploadResult, error) {
	const op = "upload document"

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewValidationError("file", fmt.Errorf("%w: %v", domain.ErrNoFile, err))
	}
	if info.IsDir() {
		return nil, domain.NewValidationError("file", fmt.Errorf("%w: %s is a directory", domain.ErrNoFile, path))
	}
	if info.Size() == 0 {
		return nil, domain.NewValidationError("file", domain.ErrEmptyFile)
	}

	body, contentType, err := buildUploadBody(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)

	var result domain.UploadResult
	if err := c.do(req, op, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// buildUploadBody encodes path as a multipart form with a detected part type.
func buildUploadBody(path string) (*bytes.Buffer, string, error) {
	partType := fallbackContentType
	if mt, err := mimetype.DetectFile(path); err == nil {
		partType = mt.String()
	}
	logger.Debug("Detected content type %s for %s", partType, filepath.Base(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(path))))
	header.Set("Content-Type", partType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// ListDocuments returns every indexed document.
func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	docs, err := getJSON[[]domain.Document](ctx, c, "list documents", documentsPath)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (c *Client) DeleteDocument(ctx context.Context, filename string) (*domain.DeleteResult, error) {
	const op = "delete document"

	if strings.TrimSpace(filename) == "" {
		return nil, domain.NewValidationError("filename", domain.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+documentsPath+url.PathEscape(filename), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}

	var result domain.DeleteResult
	if err := c.do(req, op, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCorpusInfo returns a descriptive snapshot of the index.
func (c *Client) GetCorpusInfo(ctx context.Context) (*domain.CorpusInfo, error) {
	info, err := getJSON[domain.CorpusInfo](ctx, c, "get corpus info", infoPath)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
