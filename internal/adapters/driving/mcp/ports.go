package mcp

import (
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval finds channel history relevant to a question.
	Retrieval driving.RetrievalService

	// Answer generates grounded answers. Optional: the ask tool is only
	// registered when set.
	Answer driving.AnswerService

	// Sync runs incremental syncs and reports channel status. Optional.
	Sync driving.SyncOrchestrator
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
