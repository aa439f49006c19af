package database

import (
	"context"
)

type PredictionStore interface {
	// CreateSchema creates the prediction tables when missing; it is
	// idempotent and safe to run on every start.
	CreateSchema() error
	DoesDatabaseExist() bool
	Close() error

	// CreatePrediction validates the input, assigns ID and CreatedAt and
	// persists the record in a single insert. The stored record is returned.
	CreatePrediction(ctx context.Context, input NewPrediction) (*Prediction, error)

	// ListPredictions returns all records ordered by CreatedAt descending.
	// An empty store yields an empty slice, not an error.
	ListPredictions(ctx context.Context) ([]*Prediction, error)

	// CountByClass returns the number of stored predictions per class.
	CountByClass(ctx context.Context) (map[string]int, error)
}
