package slack

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	slackgo "github.com/slack-go/slack"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
)

// Ensure Client implements the interfaces.
var (
	_ driven.MessageSource = (*Client)(nil)
	_ driven.UserDirectory = (*Client)(nil)
	_ driven.ReplyPoster   = (*Client)(nil)
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageLimit is the page size when the caller passes zero.
	DefaultPageLimit = 200

	// channelListLimit is the conversations.list page size.
	channelListLimit = 200
)

// Web API method names, used for error and metric labels.
const (
	methodAuthTest      = "auth.test"
	methodConversations = "conversations.list"
	methodHistory       = "conversations.history"
	methodReplies       = "conversations.replies"
	methodUsersInfo     = "users.info"
	methodPostMessage   = "chat.postMessage"
)

// API is the subset of the slack-go client used here.
type API interface {
	AuthTestContext(ctx context.Context) (*slackgo.AuthTestResponse, error)
	GetConversationsContext(ctx context.Context, params *slackgo.GetConversationsParameters) ([]slackgo.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slackgo.GetConversationHistoryParameters) (*slackgo.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slackgo.GetConversationRepliesParameters) ([]slackgo.Message, bool, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slackgo.User, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slackgo.MsgOption) (string, string, error)
}

// Config holds connection settings for the Web API.
type Config struct {
	// Token is the bot token (required).
	Token string

	// APIURL overrides the Web API base URL. Must end with a slash.
	APIURL string

	// RequestsPerSecond is the proactive throttle rate.
	RequestsPerSecond float64

	// Burst is the proactive throttle bucket size.
	Burst int
}

// Client wraps the slack-go client with pagination, throttling and retry.
type Client struct {
	api         API
	rateLimiter *RateLimiter
	retrier     *Retrier
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimiter replaces the proactive throttle.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = r
	}
}

// WithRetrier replaces the rate limit retrier.
func WithRetrier(r *Retrier) Option {
	return func(c *Client) {
		c.retrier = r
	}
}

// NewClient creates a Web API client from a bot token.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: slack bot token", domain.ErrMissingConfig)
	}

	opts := []slackgo.Option{
		slackgo.OptionHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	}
	if cfg.APIURL != "" {
		opts = append(opts, slackgo.OptionAPIURL(cfg.APIURL))
	}

	return New(slackgo.New(cfg.Token, opts...),
		WithRateLimiter(NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst)),
	), nil
}

// New creates a Client over an existing API implementation.
func New(api API, opts ...Option) *Client {
	c := &Client{
		api:         api,
		rateLimiter: NewRateLimiter(ProactiveRate, ProactiveBurst),
		retrier:     NewRetrier(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call throttles, then runs one page request under the retry policy.
func (c *Client) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	return c.retrier.Do(ctx, method, func(ctx context.Context) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		return wrapError(fn(ctx), method)
	})
}

// TeamID returns the workspace id of the token.
func (c *Client) TeamID(ctx context.Context) (string, error) {
	var resp *slackgo.AuthTestResponse
	err := c.call(ctx, methodAuthTest, func(ctx context.Context) error {
		var err error
		resp, err = c.api.AuthTestContext(ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	return resp.TeamID, nil
}

// ListChannels returns all public, non-archived channels the bot is a
// member of.
func (c *Client) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	params := &slackgo.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           channelListLimit,
		Types:           []string{"public_channel"},
	}

	seen := make(map[string]bool)
	var channels []domain.Channel

	for {
		var page []slackgo.Channel
		var next string
		err := c.call(ctx, methodConversations, func(ctx context.Context) error {
			var err error
			page, next, err = c.api.GetConversationsContext(ctx, params)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, ch := range page {
			if !ch.IsMember || seen[ch.ID] {
				continue
			}
			seen[ch.ID] = true
			channels = append(channels, domain.Channel{
				ID:       ch.ID,
				Name:     ch.Name,
				IsMember: ch.IsMember,
			})
		}

		if next == "" {
			break
		}
		params.Cursor = next
	}

	return channels, nil
}

// FetchHistory returns channel messages in [opts.Oldest, now], oldest first.
func (c *Client) FetchHistory(ctx context.Context, channelID string, opts driven.HistoryOptions) ([]domain.Message, error) {
	params := &slackgo.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     pageLimit(opts.PageLimit),
		Oldest:    opts.Oldest,
		Inclusive: opts.Oldest != "",
	}

	var all []domain.Message
	for {
		var resp *slackgo.GetConversationHistoryResponse
		err := c.call(ctx, methodHistory, func(ctx context.Context) error {
			var err error
			resp, err = c.api.GetConversationHistoryContext(ctx, params)
			return err
		})
		if err != nil {
			return nil, err
		}

		all = append(all, toMessages(resp.Messages)...)

		next := resp.ResponseMetaData.NextCursor
		if opts.SinglePage || next == "" {
			break
		}
		params.Cursor = next
	}

	// Pages arrive newest first.
	slices.Reverse(all)
	return all, nil
}

// FetchThreadReplies returns every message of a thread, oldest first.
func (c *Client) FetchThreadReplies(ctx context.Context, channelID, threadTS string, limit int) ([]domain.Message, error) {
	params := &slackgo.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     pageLimit(limit),
	}

	var all []domain.Message
	for {
		var page []slackgo.Message
		var next string
		err := c.call(ctx, methodReplies, func(ctx context.Context) error {
			var err error
			page, _, next, err = c.api.GetConversationRepliesContext(ctx, params)
			return err
		})
		if err != nil {
			return nil, err
		}

		all = append(all, toMessages(page)...)

		if next == "" {
			break
		}
		params.Cursor = next
	}

	return all, nil
}

// LookupUser returns the best display name for a user: the handle, then
// the profile display name, then the real name.
func (c *Client) LookupUser(ctx context.Context, userID string) (string, error) {
	var user *slackgo.User
	err := c.call(ctx, methodUsersInfo, func(ctx context.Context) error {
		var err error
		user, err = c.api.GetUserInfoContext(ctx, userID)
		return err
	})
	if err != nil {
		return "", err
	}

	switch {
	case user.Name != "":
		return user.Name, nil
	case user.Profile.DisplayName != "":
		return user.Profile.DisplayName, nil
	case user.RealName != "":
		return user.RealName, nil
	default:
		return "", fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
}

// PostReply posts text into the thread rooted at threadTS.
func (c *Client) PostReply(ctx context.Context, channelID, threadTS, text string) error {
	return c.call(ctx, methodPostMessage, func(ctx context.Context) error {
		_, _, err := c.api.PostMessageContext(ctx, channelID,
			slackgo.MsgOptionText(text, false),
			slackgo.MsgOptionTS(threadTS),
		)
		return err
	})
}

func toMessages(in []slackgo.Message) []domain.Message {
	out := make([]domain.Message, 0, len(in))
	for _, m := range in {
		out = append(out, domain.Message{
			TS:       m.Timestamp,
			User:     m.User,
			Text:     m.Text,
			ThreadTS: m.ThreadTimestamp,
		})
	}
	return out
}

func pageLimit(n int) int {
	if n <= 0 {
		return DefaultPageLimit
	}
	return n
}
