package driven

import (
	"context"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// MessageSource reads conversation data from the workspace.
// Implementations absorb rate limiting: a call only returns once every page
// has been fetched, the context is cancelled, or a non rate-limit error occurs.
type MessageSource interface {
	// TeamID returns the workspace id the credentials belong to.
	TeamID(ctx context.Context) (string, error)

	// ListChannels returns the public, non-archived channels the bot is a
	// member of, each exactly once.
	ListChannels(ctx context.Context) ([]domain.Channel, error)

	// FetchHistory returns top-level channel messages ordered oldest to newest.
	FetchHistory(ctx context.Context, channelID string, opts HistoryOptions) ([]domain.Message, error)

	// FetchThreadReplies returns the root and every reply of a thread,
	// ordered oldest to newest.
	FetchThreadReplies(ctx context.Context, channelID, threadTS string, pageLimit int) ([]domain.Message, error)
}

// HistoryOptions configures a history fetch.
type HistoryOptions struct {
	// Oldest is an inclusive lower bound on message ts. Empty fetches
	// from the beginning of the channel.
	Oldest string

	// PageLimit is the page size requested from the API.
	PageLimit int

	// SinglePage stops after the first page (the most recent messages).
	SinglePage bool
}

// UserDirectory looks up workspace users.
type UserDirectory interface {
	// LookupUser returns the best display name for a user id.
	LookupUser(ctx context.Context, userID string) (string, error)
}

// UserResolver maps user ids to display names. Lookups never fail:
// an unresolvable id resolves to itself.
type UserResolver interface {
	Username(ctx context.Context, userID string) string
}

// ReplyPoster posts messages back into the workspace.
type ReplyPoster interface {
	// PostReply posts text as a reply in the thread rooted at threadTS.
	PostReply(ctx context.Context, channelID, threadTS, text string) error
}
