// Package vector defines the similarity-search gateway consumed by the
// drafting pipeline and the ingestion processor. Backends are external
// services; this package owns only the wire models and payload schema.
package vector

import "context"

// Point is one stored answer: the embedding plus its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// Match is a scored nearest-neighbour hit with the payload already
// normalized to the canonical schema (see Normalizer).
type Match struct {
	Score    float32
	Answer   string
	Question string
	Source   string
	Payload  map[string]interface{}
}

// Store is the similarity-search gateway. Search returns matches in
// descending score order, already filtered by minScore.
type Store interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int, minScore float32) ([]Match, error)
	Close() error
}
