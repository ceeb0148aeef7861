package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/slackrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/slackrag/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "slackrag.db"

// Store is a unified SQLite-based storage that provides access to
// the chunk and cursor stores through wrapper types.
type Store struct {
	db         *sql.DB
	path       string
	dimensions int
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.slackrag/data/slackrag.db.
// dimensions fixes the embedding size accepted by the chunk store; zero
// accepts any size.
func NewStore(dataDir string, dimensions int) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".slackrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		dimensions: dimensions,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// Upsert inserts a chunk or updates the row with the same key.
func (s *chunkStore) Upsert(ctx context.Context, chunk domain.StoredChunk) error {
	if dims := s.store.dimensions; dims > 0 && len(chunk.Embedding) != dims {
		return fmt.Errorf("chunk %s has %d dimensions, store expects %d: %w",
			chunk.Key, len(chunk.Embedding), dims, domain.ErrDimensionMismatch)
	}

	id := chunk.ID
	if id == "" {
		id = uuid.New().String()
	}
	updatedAt := chunk.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO slack_chunks (
			id, chunk_key, team_id, channel_id, channel_name,
			is_thread, thread_ts, start_ts, end_ts,
			text, message_count, embedding, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_key) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding,
			message_count = excluded.message_count,
			end_ts = excluded.end_ts,
			updated_at = excluded.updated_at
	`, id, chunk.Key, chunk.TeamID, chunk.ChannelID, nullString(chunk.ChannelName),
		chunk.IsThread, nullString(chunk.ThreadTS), chunk.StartTS, chunk.EndTS,
		chunk.Text, chunk.MessageCount, vector.Encode(chunk.Embedding), updatedAt)

	if err != nil {
		return fmt.Errorf("upserting chunk: %w", err)
	}
	return nil
}

const chunkColumns = `id, chunk_key, team_id, channel_id, channel_name,
	is_thread, thread_ts, start_ts, end_ts,
	text, message_count, embedding, updated_at`

// GetByKey retrieves the chunk stored under key.
func (s *chunkStore) GetByKey(ctx context.Context, key string) (*domain.StoredChunk, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM slack_chunks WHERE chunk_key = ?", key)

	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return chunk, nil
}

// SearchSimilar ranks the chunks of one channel by cosine similarity.
func (s *chunkStore) SearchSimilar(ctx context.Context, query driven.SimilarityQuery) ([]domain.RetrievedContext, error) {
	if query.ChannelID == "" {
		return nil, fmt.Errorf("%w: channel id is required", domain.ErrInvalidInput)
	}
	if dims := s.store.dimensions; dims > 0 && len(query.Vector) != dims {
		return nil, fmt.Errorf("query has %d dimensions, store expects %d: %w",
			len(query.Vector), dims, domain.ErrDimensionMismatch)
	}

	q := "SELECT " + chunkColumns + " FROM slack_chunks WHERE channel_id = ?"
	args := []any{query.ChannelID}
	if query.TeamID != "" {
		q += " AND team_id = ?"
		args = append(args, query.TeamID)
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []*domain.StoredChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		candidates = append(candidates, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	ranked := vector.TopK(query.Vector, candidates,
		func(c *domain.StoredChunk) []float32 { return c.Embedding }, query.TopK)

	results := make([]domain.RetrievedContext, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, domain.RetrievedContext{
			StoredChunk: *r.Item,
			Similarity:  r.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of chunks stored for a channel.
func (s *chunkStore) Count(ctx context.Context, channelID string) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM slack_chunks WHERE channel_id = ?", channelID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Dimensions returns the configured embedding size.
func (s *chunkStore) Dimensions() int {
	return s.store.dimensions
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Get retrieves the cursor for a channel.
func (s *cursorStore) Get(ctx context.Context, teamID, channelID string) (string, error) {
	var ts string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT latest_ts FROM slack_channel_cursors
		WHERE team_id = ? AND channel_id = ?
	`, teamID, channelID).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("scanning cursor: %w", err)
	}
	return ts, nil
}

// Set stores or updates the cursor for a channel.
func (s *cursorStore) Set(ctx context.Context, teamID, channelID, ts string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO slack_channel_cursors (team_id, channel_id, latest_ts, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(team_id, channel_id) DO UPDATE SET
			latest_ts = excluded.latest_ts,
			updated_at = excluded.updated_at
	`, teamID, channelID, ts, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

// List returns every cursor of a team ordered by channel.
func (s *cursorStore) List(ctx context.Context, teamID string) ([]domain.Cursor, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT team_id, channel_id, latest_ts, updated_at
		FROM slack_channel_cursors
		WHERE team_id = ?
		ORDER BY channel_id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying cursors: %w", err)
	}
	defer rows.Close()

	var cursors []domain.Cursor
	for rows.Next() {
		var c domain.Cursor
		if err := rows.Scan(&c.TeamID, &c.ChannelID, &c.LatestTS, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning cursor: %w", err)
		}
		cursors = append(cursors, c)
	}
	return cursors, rows.Err()
}

// ==================== Helpers ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanChunk scans a single chunk row.
func scanChunk(row scanner) (*domain.StoredChunk, error) {
	var (
		chunk       domain.StoredChunk
		channelName sql.NullString
		threadTS    sql.NullString
		blob        []byte
	)

	if err := row.Scan(&chunk.ID, &chunk.Key, &chunk.TeamID, &chunk.ChannelID, &channelName,
		&chunk.IsThread, &threadTS, &chunk.StartTS, &chunk.EndTS,
		&chunk.Text, &chunk.MessageCount, &blob, &chunk.UpdatedAt); err != nil {
		return nil, err
	}

	embedding, err := vector.Decode(blob)
	if err != nil {
		return nil, err
	}
	chunk.Embedding = embedding
	chunk.ChannelName = channelName.String
	chunk.ThreadTS = threadTS.String
	return &chunk, nil
}

// nullString maps empty strings to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
