package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for slackrag resources.
	uriScheme = "slackrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Sync == nil {
		return
	}

	// Template for channel sync status.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "channels/{channelId}/status",
		Name:        "channel-status",
		Description: "Status of the most recent sync of a channel",
		MIMEType:    "application/json",
	}, s.handleChannelStatusResource)
}

// handleChannelStatusResource returns the sync status of a channel.
func (s *Server) handleChannelStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	channelID := extractChannelID(req.Params.URI)
	if channelID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Sync.Status(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("getting channel status: %w", err)
	}

	type statusInfo struct {
		ChannelID       string `json:"channel_id"`
		Running         bool   `json:"running"`
		Mode            string `json:"mode,omitempty"`
		MessagesFetched int    `json:"messages_fetched"`
		ThreadChunks    int    `json:"thread_chunks"`
		WindowChunks    int    `json:"window_chunks"`
		ChunksUpserted  int    `json:"chunks_upserted"`
		Cursor          string `json:"cursor,omitempty"`
		LastError       string `json:"last_error,omitempty"`
		FinishedAt      string `json:"finished_at,omitempty"`
	}

	info := statusInfo{
		ChannelID:       status.ChannelID,
		Running:         status.Running,
		Mode:            status.Mode,
		MessagesFetched: status.MessagesFetched,
		ThreadChunks:    status.ThreadChunks,
		WindowChunks:    status.WindowChunks,
		ChunksUpserted:  status.ChunksUpserted,
		Cursor:          status.Cursor,
		LastError:       status.LastError,
	}
	if !status.FinishedAt.IsZero() {
		info.FinishedAt = status.FinishedAt.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChannelID extracts the channel ID from a URI like slackrag://channels/{channelId}/status.
func extractChannelID(uri string) string {
	const prefix = uriScheme + "channels/"
	const suffix = "/status"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
