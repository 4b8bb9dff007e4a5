package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the uploaded documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve for this question (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Sources    []SourceOutput `json:"sources"`
	PromptUsed string         `json:"prompt_used,omitempty"`
}

// SourceOutput is a passage supporting an answer.
type SourceOutput struct {
	Source string  `json:"source"`
	Page   *int    `json:"page,omitempty"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents   []DocumentOutput `json:"documents"`
	Count       int              `json:"count"`
	TotalChunks int              `json:"total_chunks"`
}

// DocumentOutput represents one indexed document.
type DocumentOutput struct {
	Filename  string `json:"filename"`
	NumChunks int    `json:"num_chunks"`
}

// CorpusInfoInput is the (empty) input schema for corpus_info.
type CorpusInfoInput struct{}

// CorpusInfoOutput is the output schema for corpus_info.
type CorpusInfoOutput struct {
	TotalChunks      int    `json:"total_chunks"`
	Model            string `json:"model"`
	Dimension        int    `json:"dimension"`
	SimilarityMetric string `json:"similarity_metric"`
	Healthy          bool   `json:"healthy"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered from the uploaded documents, with cited passages",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the uploaded documents and their chunk counts",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "corpus_info",
		Description: "Describe the backend index: chunk count, embedding model and similarity metric",
	}, s.handleCorpusInfo)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if domain.IsBlank(input.Question) {
		return nil, AskOutput{}, domain.ErrEmptyQuery
	}

	// Another client may have uploaded since the last listing
	if s.ports.Corpus.IsEmpty() {
		if err := s.ports.Corpus.Refresh(ctx); err != nil {
			return nil, AskOutput{}, errors.New(domain.UserMessage(err))
		}
	}

	turn, err := s.ports.Chat.SendWith(ctx, input.Question, domain.AskOptions{TopK: input.TopK})
	if turn != nil && turn.Failed {
		return nil, AskOutput{}, errors.New(turn.Content)
	}
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", err)
	}

	output := AskOutput{
		Answer:     turn.Content,
		Confidence: turn.Confidence,
		Sources:    make([]SourceOutput, len(turn.Sources)),
		PromptUsed: turn.PromptUsed,
	}
	for i := range turn.Sources {
		output.Sources[i] = SourceOutput{
			Source: turn.Sources[i].Source,
			Page:   turn.Sources[i].Page,
			Text:   turn.Sources[i].Text,
			Score:  turn.Sources[i].SimilarityScore,
		}
	}
	return nil, output, nil
}

// handleListDocuments refreshes and returns the corpus.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if err := s.ports.Corpus.Refresh(ctx); err != nil {
		return nil, ListDocumentsOutput{}, errors.New(domain.UserMessage(err))
	}

	docs := s.ports.Corpus.Documents()
	output := ListDocumentsOutput{
		Documents:   make([]DocumentOutput, len(docs)),
		Count:       len(docs),
		TotalChunks: domain.TotalChunks(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			Filename:  docs[i].Filename,
			NumChunks: docs[i].NumChunks,
		}
	}
	return nil, output, nil
}

// handleCorpusInfo returns the index snapshot.
func (s *Server) handleCorpusInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CorpusInfoInput,
) (*mcp.CallToolResult, CorpusInfoOutput, error) {
	info, err := s.ports.Corpus.Info(ctx)
	if err != nil {
		return nil, CorpusInfoOutput{}, errors.New(domain.UserMessage(err))
	}

	output := CorpusInfoOutput{
		TotalChunks:      info.TotalChunks,
		Model:            info.Model,
		Dimension:        info.Dimension,
		SimilarityMetric: info.SimilarityMetric,
	}
	if health, err := s.ports.Corpus.Health(ctx); err == nil {
		output.Healthy = health.IsHealthy()
	}
	return nil, output, nil
}
