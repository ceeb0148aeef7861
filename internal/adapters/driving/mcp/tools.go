package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	ChannelID string `json:"channel_id" jsonschema:"the Slack channel id to search, e.g. C0123ABCD"`
	Question  string `json:"question" jsonschema:"the question to find history for"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Contexts []ContextOutput `json:"contexts"`
	Count    int             `json:"count"`
}

// ContextOutput represents a single retrieved chunk.
type ContextOutput struct {
	Key          string  `json:"key"`
	ChannelName  string  `json:"channel_name,omitempty"`
	IsThread     bool    `json:"is_thread"`
	StartTS      string  `json:"start_ts"`
	EndTS        string  `json:"end_ts"`
	Similarity   float64 `json:"similarity"`
	MessageCount int     `json:"message_count"`
	Text         string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	ChannelID string `json:"channel_id" jsonschema:"the Slack channel id whose history grounds the answer"`
	Question  string `json:"question" jsonschema:"the question to answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Sources []ContextOutput `json:"sources"`
}

// SyncInput is the input schema for the sync tool.
type SyncInput struct {
	ChannelID string `json:"channel_id,omitempty" jsonschema:"channel to sync; empty syncs every member channel"`
}

// SyncOutput is the output schema for the sync tool.
type SyncOutput struct {
	Synced string `json:"synced"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the indexed Slack history of a channel most relevant to a question",
	}, s.handleRetrieve)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using only the indexed history of a Slack channel",
		}, s.handleAsk)
	}

	if s.ports.Sync != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync",
			Description: "Index new Slack messages since the last sync",
		}, s.handleSync)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	contexts, err := s.ports.Retrieval.Retrieve(ctx, input.ChannelID, input.Question)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	return nil, RetrieveOutput{
		Contexts: toContextOutputs(contexts),
		Count:    len(contexts),
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Answer(ctx, input.ChannelID, input.Question)
	metrics.Answers.WithLabelValues("mcp", metrics.Result(err)).Inc()
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: toContextOutputs(answer.Contexts),
	}, nil
}

// handleSync handles the sync tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if input.ChannelID == "" {
		if err := s.ports.Sync.SyncAll(ctx); err != nil {
			return nil, SyncOutput{}, err
		}
		return nil, SyncOutput{Synced: "all"}, nil
	}

	if err := s.ports.Sync.SyncChannel(ctx, input.ChannelID); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return nil, SyncOutput{}, errors.New("a sync of this channel is already running")
		}
		return nil, SyncOutput{}, err
	}
	return nil, SyncOutput{Synced: input.ChannelID}, nil
}

func toContextOutputs(contexts []domain.RetrievedContext) []ContextOutput {
	out := make([]ContextOutput, len(contexts))
	for i := range contexts {
		c := &contexts[i]
		out[i] = ContextOutput{
			Key:          c.Key,
			ChannelName:  c.ChannelName,
			IsThread:     c.IsThread,
			StartTS:      c.StartTS,
			EndTS:        c.EndTS,
			Similarity:   c.Similarity,
			MessageCount: c.MessageCount,
			Text:         c.Text,
		}
	}
	return out
}
