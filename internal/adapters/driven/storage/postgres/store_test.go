package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
)

func TestFormatVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{1}, "[1]"},
		{"mixed", []float32{0.5, -0.25, 3}, "[0.5,-0.25,3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatVector(tt.in))
		})
	}
}

func TestParseVector(t *testing.T) {
	got, err := parseVector("[0.5, -0.25,3]")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 3}, got)

	got, err = parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseVector("0.5,1")
	assert.Error(t, err)

	_, err = parseVector("[a,b]")
	assert.Error(t, err)
}

func TestVectorRoundtrip(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3, -1.5}
	out, err := parseVector(formatVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSimilarityQuery(t *testing.T) {
	q, args := similarityQuery(driven.SimilarityQuery{
		ChannelID: "C1",
		Vector:    []float32{1, 0},
		TopK:      8,
	})
	assert.Contains(t, q, "1 - (embedding <=> ?::vector) AS similarity")
	assert.Contains(t, q, "WHERE channel_id = ?")
	assert.Contains(t, q, "ORDER BY embedding <=> ?::vector")
	assert.True(t, strings.HasSuffix(q, "LIMIT ?"))
	assert.NotContains(t, q, "team_id = ?")
	assert.Equal(t, []any{"[1,0]", "C1", "[1,0]", 8}, args)
}

func TestSimilarityQuery_TeamScoped(t *testing.T) {
	q, args := similarityQuery(driven.SimilarityQuery{
		TeamID:    "T1",
		ChannelID: "C1",
		Vector:    []float32{1},
	})
	assert.Contains(t, q, "AND team_id = ?")
	assert.NotContains(t, q, "LIMIT")
	assert.Equal(t, []any{"[1]", "C1", "T1", "[1]"}, args)
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements(768)
	require.NotEmpty(t, stmts)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", stmts[0])
	assert.Contains(t, strings.Join(stmts, "\n"), "vector(768)")
	assert.Contains(t, strings.Join(stmts, "\n"), "slack_channel_cursors")
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(context.Background(), "", 768)
	assert.ErrorIs(t, err, domain.ErrMissingConfig)

	_, err = NewStore(context.Background(), "postgres://localhost/db", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
