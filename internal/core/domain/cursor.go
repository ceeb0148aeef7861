package domain

import "time"

// Cursor is the high-water mark of the last synced message in a channel.
type Cursor struct {
	// TeamID scopes the cursor to a workspace.
	TeamID string

	// ChannelID identifies the channel.
	ChannelID string

	// LatestTS is the timestamp of the newest message whose chunks have
	// been durably upserted.
	LatestTS string

	// UpdatedAt is when the cursor was last advanced.
	UpdatedAt time.Time
}
