// Package vector holds the embedding helpers shared by the SQLite and
// in-memory chunk stores: blob encoding and brute-force cosine ranking.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Encode packs a vector as little-endian float32 values.
func Encode(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode unpacks a blob written by Encode.
func Decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector: blob length %d is not a multiple of 4", len(data))
	}
	if len(data) == 0 {
		return nil, nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// CosineSimilarity returns 1 - cosine distance between a and b. Vectors of
// different length or zero magnitude are an error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("vector: zero-magnitude vector")
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// Scored is a candidate with its similarity to the query.
type Scored[T any] struct {
	Item       T
	Similarity float64
}

// TopK scores every candidate against query and returns the k most similar,
// highest first. Candidates whose similarity cannot be computed are skipped.
// Ties keep candidate order.
func TopK[T any](query []float32, candidates []T, vec func(T) []float32, k int) []Scored[T] {
	scored := make([]Scored[T], 0, len(candidates))
	for _, c := range candidates {
		s, err := CosineSimilarity(query, vec(c))
		if err != nil || math.IsNaN(s) {
			continue
		}
		scored = append(scored, Scored[T]{Item: c, Similarity: s})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
