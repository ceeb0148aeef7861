package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillCmd_Success(t *testing.T) {
	withServices(t)
	mock := &mockSyncOrchestrator{}
	syncOrchestrator = mock

	out, err := executeCommand(t, context.Background(), "backfill")

	require.NoError(t, err)
	assert.Equal(t, 1, mock.backfills)
	assert.Contains(t, out, "Backfilling all member channels...")
	assert.Contains(t, out, "Backfill complete.")
}

func TestBackfillCmd_Error(t *testing.T) {
	withServices(t)
	syncOrchestrator = &mockSyncOrchestrator{err: errors.New("slack down")}

	out, err := executeCommand(t, context.Background(), "backfill")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "backfill failed")
	assert.Contains(t, err.Error(), "slack down")
	assert.NotContains(t, out, "Backfill complete.")
}

func TestBackfillCmd_NotConfigured(t *testing.T) {
	withServices(t)
	syncOrchestrator = nil

	_, err := executeCommand(t, context.Background(), "backfill")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestBackfillCmd_RejectsArgs(t *testing.T) {
	withServices(t)
	syncOrchestrator = &mockSyncOrchestrator{}

	_, err := executeCommand(t, context.Background(), "backfill", "C1")

	require.Error(t, err)
}
