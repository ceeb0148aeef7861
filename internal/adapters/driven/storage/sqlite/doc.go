// Package sqlite provides a SQLite-based implementation of the chunk and
// cursor stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements both store interfaces
// through a single database connection:
//
//   - ChunkStore: Embedded chunk persistence and similarity search
//   - CursorStore: Per-channel sync cursors
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Embeddings are stored as little-endian float32 blobs.
//
// # Similarity Search
//
// SQLite has no vector type, so SearchSimilar loads the embeddings of one
// channel and ranks them by cosine similarity in Go. Retrieval is always
// scoped to a single channel, which keeps the scan small.
//
// # Data Location
//
// By default, the database is stored at ~/.slackrag/data/slackrag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
