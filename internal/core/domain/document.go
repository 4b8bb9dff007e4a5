package domain

import (
	"path/filepath"
	"strings"
)

// Document represents one source file indexed by the backend.
// The client never creates or mutates a Document locally; it only
// mirrors what the gateway returns from a listing.
type Document struct {
	// DocumentID is the backend identifier, when the gateway reports one.
	DocumentID string `json:"document_id,omitempty"`

	// Filename uniquely identifies the document within the corpus.
	Filename string `json:"filename"`

	// NumChunks is the number of retrieval units derived from the file.
	NumChunks int `json:"num_chunks"`
}

// UploadResult is the gateway's summary of a successful upload.
type UploadResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	NumChunks  int    `json:"num_chunks"`
	Message    string `json:"message"`
}

// DeleteResult is the gateway's summary of a successful delete.
type DeleteResult struct {
	Message          string `json:"message"`
	NumChunksDeleted int    `json:"num_chunks_deleted"`
}

// CorpusInfo is a descriptive snapshot of the backend index.
// It is used for diagnostics only, never for chat correctness.
type CorpusInfo struct {
	TotalChunks      int    `json:"total_chunks"`
	Model            string `json:"model"`
	Dimension        int    `json:"dimension"`
	SimilarityMetric string `json:"similarity_metric"`
	CollectionName   string `json:"collection_name,omitempty"`
	Provider         string `json:"provider,omitempty"`
}

// Health is the gateway liveness payload.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// IsHealthy reports whether the gateway declared itself healthy.
func (h Health) IsHealthy() bool {
	return strings.EqualFold(h.Status, "healthy") || strings.EqualFold(h.Status, "ok")
}

// AcceptedExtensions lists the file extensions the gateway can index.
// This is a client-side hint; the gateway performs authoritative validation.
var AcceptedExtensions = []string{".pdf", ".docx", ".txt"}

// IsAcceptedFile reports whether name carries an accepted extension.
func IsAcceptedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// TotalChunks sums the chunk counts of docs.
func TotalChunks(docs []Document) int {
	total := 0
	for i := range docs {
		total += docs[i].NumChunks
	}
	return total
}
