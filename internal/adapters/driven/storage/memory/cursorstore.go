package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

type cursorKey struct {
	team    string
	channel string
}

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[cursorKey]domain.Cursor
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[cursorKey]domain.Cursor),
	}
}

// Get retrieves the cursor for a channel.
func (s *CursorStore) Get(_ context.Context, teamID, channelID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cursors[cursorKey{teamID, channelID}]
	if !ok {
		return "", domain.ErrNotFound
	}
	return c.LatestTS, nil
}

// Set stores or updates the cursor for a channel.
func (s *CursorStore) Set(_ context.Context, teamID, channelID, ts string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[cursorKey{teamID, channelID}] = domain.Cursor{
		TeamID:    teamID,
		ChannelID: channelID,
		LatestTS:  ts,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// List returns every cursor of a team ordered by channel.
func (s *CursorStore) List(_ context.Context, teamID string) ([]domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Cursor
	for k, c := range s.cursors {
		if k.team == teamID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}
