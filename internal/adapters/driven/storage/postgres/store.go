// Package postgres provides a PostgreSQL implementation of the chunk and
// cursor stores backed by the pgvector extension.
//
// Similarity search runs in the database using the cosine distance operator
// (<=>), scoped to one channel.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/logger"
)

const (
	// pingTimeout bounds the connectivity check on open.
	pingTimeout = 5 * time.Second

	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Store is a PostgreSQL-based storage that provides access to the chunk and
// cursor stores through wrapper types.
type Store struct {
	db         *gorm.DB
	dimensions int
}

// NewStore connects to the database at dsn and applies the schema.
// dimensions sizes the vector column and must be positive.
func NewStore(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: database url is required", domain.ErrMissingConfig)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}

	logLevel := gormlogger.Silent
	if logger.IsVerbose() {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	s := &Store{db: db, dimensions: dimensions}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Ping verifies the connection to the database.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s}
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dimensions) {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// schemaStatements returns the idempotent DDL for a vector column of size dims.
func schemaStatements(dims int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS slack_chunks (
			id            UUID PRIMARY KEY,
			chunk_key     TEXT NOT NULL UNIQUE,
			team_id       TEXT NOT NULL,
			channel_id    TEXT NOT NULL,
			channel_name  TEXT,
			is_thread     BOOLEAN NOT NULL DEFAULT FALSE,
			thread_ts     TEXT,
			start_ts      TEXT NOT NULL,
			end_ts        TEXT NOT NULL,
			text          TEXT NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0,
			embedding     vector(%d) NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`, dims),
		`CREATE INDEX IF NOT EXISTS idx_slack_chunks_channel ON slack_chunks(channel_id)`,
		`CREATE TABLE IF NOT EXISTS slack_channel_cursors (
			team_id    TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			latest_ts  TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (team_id, channel_id)
		)`,
	}
}

// ==================== Chunk Store ====================

type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// chunkRow is the scan target for chunk queries.
type chunkRow struct {
	ID           string
	ChunkKey     string
	TeamID       string
	ChannelID    string
	ChannelName  sql.NullString
	IsThread     bool
	ThreadTS     sql.NullString
	StartTS      string
	EndTS        string
	Text         string
	MessageCount int
	Embedding    string
	UpdatedAt    time.Time
	Similarity   float64
}

func (r chunkRow) toDomain() (domain.StoredChunk, error) {
	embedding, err := parseVector(r.Embedding)
	if err != nil {
		return domain.StoredChunk{}, err
	}
	return domain.StoredChunk{
		Chunk: domain.Chunk{
			TeamID:       r.TeamID,
			ChannelID:    r.ChannelID,
			ChannelName:  r.ChannelName.String,
			IsThread:     r.IsThread,
			ThreadTS:     r.ThreadTS.String,
			StartTS:      r.StartTS,
			EndTS:        r.EndTS,
			Text:         r.Text,
			Key:          r.ChunkKey,
			MessageCount: r.MessageCount,
		},
		ID:        r.ID,
		Embedding: embedding,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

const chunkColumns = `id::text AS id, chunk_key, team_id, channel_id, channel_name,
	is_thread, thread_ts, start_ts, end_ts, text, message_count,
	embedding::text AS embedding, updated_at`

func (s *chunkStore) Upsert(ctx context.Context, chunk domain.StoredChunk) error {
	if len(chunk.Embedding) != s.store.dimensions {
		return fmt.Errorf("chunk %s has %d dimensions, store expects %d: %w",
			chunk.Key, len(chunk.Embedding), s.store.dimensions, domain.ErrDimensionMismatch)
	}

	id := chunk.ID
	if id == "" {
		id = uuid.New().String()
	}
	updatedAt := chunk.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	err := s.store.db.WithContext(ctx).Exec(`
		INSERT INTO slack_chunks (
			id, chunk_key, team_id, channel_id, channel_name,
			is_thread, thread_ts, start_ts, end_ts,
			text, message_count, embedding, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?::vector, ?)
		ON CONFLICT (chunk_key) DO UPDATE SET
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding,
			message_count = EXCLUDED.message_count,
			end_ts = EXCLUDED.end_ts,
			updated_at = EXCLUDED.updated_at
	`, id, chunk.Key, chunk.TeamID, chunk.ChannelID, nullString(chunk.ChannelName),
		chunk.IsThread, nullString(chunk.ThreadTS), chunk.StartTS, chunk.EndTS,
		chunk.Text, chunk.MessageCount, formatVector(chunk.Embedding), updatedAt).Error
	if err != nil {
		return fmt.Errorf("upserting chunk: %w", err)
	}
	return nil
}

func (s *chunkStore) GetByKey(ctx context.Context, key string) (*domain.StoredChunk, error) {
	var rows []chunkRow
	err := s.store.db.WithContext(ctx).Raw(
		"SELECT "+chunkColumns+" FROM slack_chunks WHERE chunk_key = ?", key,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying chunk: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	chunk, err := rows[0].toDomain()
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (s *chunkStore) SearchSimilar(ctx context.Context, query driven.SimilarityQuery) ([]domain.RetrievedContext, error) {
	if query.ChannelID == "" {
		return nil, fmt.Errorf("%w: channel id is required", domain.ErrInvalidInput)
	}
	if len(query.Vector) != s.store.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, store expects %d: %w",
			len(query.Vector), s.store.dimensions, domain.ErrDimensionMismatch)
	}

	q, args := similarityQuery(query)
	var rows []chunkRow
	if err := s.store.db.WithContext(ctx).Raw(q, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	results := make([]domain.RetrievedContext, 0, len(rows))
	for _, r := range rows {
		chunk, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		results = append(results, domain.RetrievedContext{StoredChunk: chunk, Similarity: r.Similarity})
	}
	return results, nil
}

// similarityQuery builds the nearest-neighbour query for a channel.
func similarityQuery(query driven.SimilarityQuery) (string, []any) {
	vec := formatVector(query.Vector)

	var b strings.Builder
	b.WriteString("SELECT " + chunkColumns + ", 1 - (embedding <=> ?::vector) AS similarity")
	b.WriteString(" FROM slack_chunks WHERE channel_id = ?")
	args := []any{vec, query.ChannelID}
	if query.TeamID != "" {
		b.WriteString(" AND team_id = ?")
		args = append(args, query.TeamID)
	}
	b.WriteString(" ORDER BY embedding <=> ?::vector")
	args = append(args, vec)
	if query.TopK > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, query.TopK)
	}
	return b.String(), args
}

func (s *chunkStore) Count(ctx context.Context, channelID string) (int, error) {
	var n int64
	err := s.store.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM slack_chunks WHERE channel_id = ?", channelID,
	).Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return int(n), nil
}

func (s *chunkStore) Dimensions() int {
	return s.store.dimensions
}

// ==================== Cursor Store ====================

type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

func (s *cursorStore) Get(ctx context.Context, teamID, channelID string) (string, error) {
	var ts sql.NullString
	err := s.store.db.WithContext(ctx).Raw(
		"SELECT latest_ts FROM slack_channel_cursors WHERE team_id = ? AND channel_id = ?",
		teamID, channelID,
	).Row().Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("querying cursor: %w", err)
	}
	return ts.String, nil
}

func (s *cursorStore) Set(ctx context.Context, teamID, channelID, ts string) error {
	err := s.store.db.WithContext(ctx).Exec(`
		INSERT INTO slack_channel_cursors (team_id, channel_id, latest_ts, updated_at)
		VALUES (?, ?, ?, NOW())
		ON CONFLICT (team_id, channel_id)
		DO UPDATE SET latest_ts = EXCLUDED.latest_ts, updated_at = NOW()
	`, teamID, channelID, ts).Error
	if err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

func (s *cursorStore) List(ctx context.Context, teamID string) ([]domain.Cursor, error) {
	var cursors []domain.Cursor
	err := s.store.db.WithContext(ctx).Raw(`
		SELECT team_id, channel_id, latest_ts, updated_at
		FROM slack_channel_cursors
		WHERE team_id = ?
		ORDER BY channel_id
	`, teamID).Scan(&cursors).Error
	if err != nil {
		return nil, fmt.Errorf("querying cursors: %w", err)
	}
	return cursors, nil
}

// ==================== Helpers ====================

// formatVector renders v in pgvector's text format, e.g. "[0.1,0.2]".
func formatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 8)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector parses pgvector's text format.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid vector literal %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float32{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
