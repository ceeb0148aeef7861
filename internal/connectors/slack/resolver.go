package slack

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/logger"
)

// Ensure UserResolver implements the interface.
var _ driven.UserResolver = (*UserResolver)(nil)

// UserResolver caches user display names for the lifetime of one run.
// Create a new resolver per sync pass or per answered question.
type UserResolver struct {
	directory driven.UserDirectory

	mu    sync.Mutex
	cache map[string]string
}

// NewUserResolver creates an empty resolver over a user directory.
func NewUserResolver(directory driven.UserDirectory) *UserResolver {
	return &UserResolver{
		directory: directory,
		cache:     make(map[string]string),
	}
}

// Username returns the display name for userID. Lookup failures resolve to
// the id itself and are cached so a broken id is only looked up once.
func (r *UserResolver) Username(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	r.mu.Lock()
	name, ok := r.cache[userID]
	r.mu.Unlock()
	if ok {
		return name
	}

	name = userID
	if r.directory != nil {
		resolved, err := r.directory.LookupUser(ctx, userID)
		switch {
		case err != nil:
			logger.Debug("Resolve user %s failed: %v", userID, err)
		case strings.TrimSpace(resolved) != "":
			name = strings.TrimSpace(resolved)
		}
	}

	r.mu.Lock()
	r.cache[userID] = name
	r.mu.Unlock()
	return name
}
