package domain

import (
	"fmt"
	"time"
)

// ChunkKind distinguishes thread chunks from rolling-window chunks.
type ChunkKind string

// Chunk kinds. The value is part of the chunk key.
const (
	ChunkKindThread ChunkKind = "thread"
	ChunkKindWindow ChunkKind = "window"
)

// ChunkScope identifies where a batch of messages came from.
type ChunkScope struct {
	TeamID      string
	ChannelID   string
	ChannelName string
}

// Chunk is a contiguous span of conversation text prepared for embedding.
//
// Key is a deterministic function of (team, channel, kind, thread root or
// ts span): re-processing the same source range yields the same key, which
// is what makes re-indexing idempotent.
type Chunk struct {
	// TeamID scopes the chunk to a workspace.
	TeamID string

	// ChannelID is the channel the messages came from.
	ChannelID string

	// ChannelName is the channel display name. May be empty.
	ChannelName string

	// IsThread is true for thread chunks.
	IsThread bool

	// ThreadTS is the thread root timestamp for thread chunks.
	ThreadTS string

	// StartTS is the timestamp of the first message in the chunk.
	StartTS string

	// EndTS is the timestamp of the last message in the chunk.
	EndTS string

	// Text is the normalised "@who: text" lines joined by newlines.
	Text string

	// Key is the idempotence key used for upserts.
	Key string

	// MessageCount is the number of source messages in the chunk.
	MessageCount int
}

// Kind returns the chunk kind.
func (c Chunk) Kind() ChunkKind {
	if c.IsThread {
		return ChunkKindThread
	}
	return ChunkKindWindow
}

// ThreadChunkKey returns the key for the thread rooted at threadTS.
func ThreadChunkKey(teamID, channelID, threadTS string) string {
	return fmt.Sprintf("%s:%s:%s:%s", teamID, channelID, ChunkKindThread, threadTS)
}

// WindowChunkKey returns the key for the window spanning startTS..endTS.
// The key is not content addressed: different window parameters over the
// same messages produce different keys.
func WindowChunkKey(teamID, channelID, startTS, endTS string) string {
	return fmt.Sprintf("%s:%s:%s:%s-%s", teamID, channelID, ChunkKindWindow, startTS, endTS)
}

// StoredChunk is the persisted form of a Chunk.
type StoredChunk struct {
	Chunk

	// ID is the row identifier assigned on first insert. Re-upserts under
	// the same key keep it.
	ID string

	// Embedding is the vector for Chunk.Text.
	Embedding []float32

	// UpdatedAt is when the row was last written.
	UpdatedAt time.Time
}

// RetrievedContext is a stored chunk returned by a similarity query.
type RetrievedContext struct {
	StoredChunk

	// Similarity is 1 - cosine distance between query and chunk vectors.
	Similarity float64
}
