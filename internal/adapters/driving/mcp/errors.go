// Package mcp provides an MCP (Model Context Protocol) server adapter for slackrag.
// It lets AI assistants retrieve indexed channel history and ask grounded
// questions about it.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
