// Package chunker segments channel messages into thread chunks and
// rolling-window chunks ready for embedding.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	slacktext "github.com/custodia-labs/slackrag/internal/normalisers/slack"
)

// DefaultMaxMessages is the default number of messages per window.
const DefaultMaxMessages = 20

// DefaultMaxMinutes is the default maximum span of a window in minutes.
const DefaultMaxMinutes = 10.0

// Chunker builds chunks from messages ordered oldest to newest.
type Chunker struct {
	maxMessages int
	maxMinutes  float64
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxMessages sets the maximum number of messages in one window.
func WithMaxMessages(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxMessages = n
		}
	}
}

// WithMaxMinutes sets the maximum time span of one window.
func WithMaxMinutes(m float64) Option {
	return func(c *Chunker) {
		if m > 0 {
			c.maxMinutes = m
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxMessages: DefaultMaxMessages,
		maxMinutes:  DefaultMaxMinutes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxMessages returns the window size limit.
func (c *Chunker) MaxMessages() int {
	return c.maxMessages
}

// MaxMinutes returns the window span limit.
func (c *Chunker) MaxMinutes() float64 {
	return c.maxMinutes
}

// BuildThread builds one chunk from every message of a thread. It reports
// false when no message has text left after normalisation.
func (c *Chunker) BuildThread(
	ctx context.Context,
	scope domain.ChunkScope,
	threadTS string,
	replies []domain.Message,
	resolver driven.UserResolver,
) (domain.Chunk, bool) {
	if len(replies) == 0 {
		return domain.Chunk{}, false
	}

	text := renderLines(ctx, replies, resolver)
	if strings.TrimSpace(text) == "" {
		return domain.Chunk{}, false
	}

	return domain.Chunk{
		TeamID:       scope.TeamID,
		ChannelID:    scope.ChannelID,
		ChannelName:  scope.ChannelName,
		IsThread:     true,
		ThreadTS:     threadTS,
		StartTS:      replies[0].TS,
		EndTS:        replies[len(replies)-1].TS,
		Text:         text,
		Key:          domain.ThreadChunkKey(scope.TeamID, scope.ChannelID, threadTS),
		MessageCount: len(replies),
	}, true
}

// BuildWindows groups non-thread messages into windows. A window closes
// when it holds maxMessages messages, or before adding a message that is
// maxMinutes or more after the window's first message. Messages without
// text never open or extend a window.
func (c *Chunker) BuildWindows(
	ctx context.Context,
	scope domain.ChunkScope,
	messages []domain.Message,
	resolver driven.UserResolver,
) []domain.Chunk {
	var (
		chunks []domain.Chunk
		buf    []domain.Message
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		defer func() { buf = nil }()

		text := renderLines(ctx, buf, resolver)
		if strings.TrimSpace(text) == "" {
			return
		}

		start, end := buf[0].TS, buf[len(buf)-1].TS
		chunks = append(chunks, domain.Chunk{
			TeamID:       scope.TeamID,
			ChannelID:    scope.ChannelID,
			ChannelName:  scope.ChannelName,
			StartTS:      start,
			EndTS:        end,
			Text:         text,
			Key:          domain.WindowChunkKey(scope.TeamID, scope.ChannelID, start, end),
			MessageCount: len(buf),
		})
	}

	for _, m := range messages {
		if !m.HasText() {
			continue
		}
		if len(buf) > 0 && domain.MinutesBetween(buf[0].TS, m.TS) >= c.maxMinutes {
			flush()
		}
		buf = append(buf, m)
		if len(buf) >= c.maxMessages {
			flush()
		}
	}
	flush()

	return chunks
}

// Partition splits a fetched batch into distinct thread roots, in first
// seen order, and the messages that belong to no thread. Messages without
// text are dropped.
func (c *Chunker) Partition(messages []domain.Message) (threadRoots []string, nonThread []domain.Message) {
	seen := make(map[string]bool)
	for _, m := range messages {
		if !m.HasText() {
			continue
		}
		if m.InThread() {
			if !seen[m.ThreadTS] {
				seen[m.ThreadTS] = true
				threadRoots = append(threadRoots, m.ThreadTS)
			}
			continue
		}
		nonThread = append(nonThread, m)
	}
	return threadRoots, nonThread
}

// renderLines formats each message with text as "@who: text", joined by
// newlines.
func renderLines(ctx context.Context, messages []domain.Message, resolver driven.UserResolver) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		text := slacktext.Normalise(ctx, m.Text, resolver)
		if text == "" {
			continue
		}
		lines = append(lines, slacktext.FormatUserLine(author(ctx, m.User, resolver), text))
	}
	return strings.Join(lines, "\n")
}

func author(ctx context.Context, userID string, resolver driven.UserResolver) string {
	if userID == "" {
		return ""
	}
	if resolver == nil {
		return userID
	}
	return resolver.Username(ctx, userID)
}
