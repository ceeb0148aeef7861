package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := []float32{0.5, -1.25, 3.0, 0}

	out, err := Decode(Encode(in))

	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Len(t, Encode(in), 16)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)

	v, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCosineSimilarity(t *testing.T) {
	s, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)

	s, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s, 1e-9)

	s, err = CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, s, 1e-9)

	_, err = CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)

	_, err = CosineSimilarity([]float32{0, 0}, []float32{1, 2})
	assert.Error(t, err)
}

func TestTopK(t *testing.T) {
	type item struct {
		id  string
		vec []float32
	}
	items := []item{
		{"far", []float32{0, 1}},
		{"near", []float32{1, 0.1}},
		{"exact", []float32{2, 0}},
		{"bad", []float32{1}},
	}

	got := TopK([]float32{1, 0}, items, func(i item) []float32 { return i.vec }, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "exact", got[0].Item.id)
	assert.Equal(t, "near", got[1].Item.id)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)

	all := TopK([]float32{1, 0}, items, func(i item) []float32 { return i.vec }, 0)
	assert.Len(t, all, 3, "unscorable candidates are skipped")
}
