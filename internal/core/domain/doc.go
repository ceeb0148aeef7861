// Package domain defines the core business entities for slackrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Message: A single Slack message as returned by the history APIs
//   - Channel: A conversation the bot is a member of
//   - Chunk: A contiguous span of conversation text prepared for embedding
//   - StoredChunk: A Chunk persisted with its embedding vector
//   - Cursor: The per-channel high-water mark of the last synced message
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
