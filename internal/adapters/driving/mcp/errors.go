// Package mcp provides an MCP (Model Context Protocol) server adapter for ragchat.
// It lets AI assistants ask questions of the indexed corpus and read the
// document listing and chat transcript.
package mcp

import "errors"

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("mcp: corpus service is required")

// ErrMissingChatSession is returned when the chat session is not provided.
var ErrMissingChatSession = errors.New("mcp: chat session is required")
