// Package normalisers provides text normalisation for source markup.
// Each normaliser turns raw message text into the plain form that is
// chunked, embedded and shown to the generator.
package normalisers
