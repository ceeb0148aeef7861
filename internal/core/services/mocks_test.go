package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
)

// --- Mock implementations shared by the service tests ---

// mockSource implements driven.MessageSource over in-memory channel history.
type mockSource struct {
	mu sync.Mutex

	teamID   string
	teamErr  error
	channels []domain.Channel
	listErr  error

	// history holds top-level messages per channel, oldest first.
	history    map[string][]domain.Message
	historyErr map[string]error

	// replies holds whole threads keyed by channel and root ts.
	replies  map[string][]domain.Message
	replyErr error

	historyCalls []driven.HistoryOptions
	replyCalls   []string
}

func newMockSource(teamID string, channels ...domain.Channel) *mockSource {
	return &mockSource{
		teamID:     teamID,
		channels:   channels,
		history:    make(map[string][]domain.Message),
		historyErr: make(map[string]error),
		replies:    make(map[string][]domain.Message),
	}
}

func (m *mockSource) TeamID(_ context.Context) (string, error) {
	return m.teamID, m.teamErr
}

func (m *mockSource) ListChannels(_ context.Context) ([]domain.Channel, error) {
	return m.channels, m.listErr
}

func (m *mockSource) FetchHistory(_ context.Context, channelID string, opts driven.HistoryOptions) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.historyCalls = append(m.historyCalls, opts)
	if err := m.historyErr[channelID]; err != nil {
		return nil, err
	}

	var out []domain.Message
	for _, msg := range m.history[channelID] {
		if opts.Oldest != "" && domain.ParseTS(msg.TS) < domain.ParseTS(opts.Oldest) {
			continue
		}
		out = append(out, msg)
	}
	if opts.SinglePage && opts.PageLimit > 0 && len(out) > opts.PageLimit {
		out = out[len(out)-opts.PageLimit:]
	}
	return out, nil
}

func (m *mockSource) FetchThreadReplies(_ context.Context, channelID, threadTS string, _ int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.replyCalls = append(m.replyCalls, threadTS)
	if m.replyErr != nil {
		return nil, m.replyErr
	}
	return m.replies[channelID+":"+threadTS], nil
}

func (m *mockSource) lastHistoryCall() driven.HistoryOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.historyCalls) == 0 {
		return driven.HistoryOptions{}
	}
	return m.historyCalls[len(m.historyCalls)-1]
}

// mockEmbedder implements driven.EmbeddingService with fixed vectors.
type mockEmbedder struct {
	mu      sync.Mutex
	dims    int
	vectors map[string][]float32
	err     error
	failOn  string
	calls   []string
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	if m.failOn != "" && text == m.failOn {
		return nil, errors.New("embedding backend failed")
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(len(text)%7 + i + 1)
	}
	return v, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockLLM implements driven.LLMService returning a canned response.
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	template string
	err      error
}

func (m *mockPromptStore) Load(_ string) (string, error) { return m.template, m.err }
func (m *mockPromptStore) Reload()                       {}

// mockRetriever implements driving.RetrievalService.
type mockRetriever struct {
	contexts []domain.RetrievedContext
	err      error
}

func (m *mockRetriever) Retrieve(_ context.Context, _, _ string) ([]domain.RetrievedContext, error) {
	return m.contexts, m.err
}

// mockSyncOrchestrator implements driving.SyncOrchestrator for scheduler tests.
type mockSyncOrchestrator struct {
	mu      sync.Mutex
	syncAll int
	err     error
	onSync  func()
}

func (m *mockSyncOrchestrator) Backfill(context.Context) error { return nil }

func (m *mockSyncOrchestrator) SyncAll(context.Context) error {
	m.mu.Lock()
	m.syncAll++
	hook := m.onSync
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return m.err
}

func (m *mockSyncOrchestrator) SyncChannel(context.Context, string) error { return nil }

func (m *mockSyncOrchestrator) Status(_ context.Context, channelID string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{ChannelID: channelID}, nil
}

func (m *mockSyncOrchestrator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncAll
}

// mapResolver resolves user ids from a fixed map.
type mapResolver map[string]string

func (r mapResolver) Username(_ context.Context, id string) string {
	if name, ok := r[id]; ok {
		return name
	}
	return id
}

// sortedKeys returns the keys of a chunk slice in order for stable asserts.
func sortedKeys(chunks []domain.Chunk) []string {
	keys := make([]string, 0, len(chunks))
	for _, c := range chunks {
		keys = append(keys, c.Key)
	}
	sort.Strings(keys)
	return keys
}
