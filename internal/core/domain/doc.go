// Package domain defines the core business entities for ragchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source file indexed by the backend gateway
//   - ChatTurn: One entry in the chat transcript
//   - SourceCitation: A retrieved passage supporting an answer
//   - SessionConfig: Per-session chat parameters
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
