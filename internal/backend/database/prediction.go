package database

import "time"

// Prediction is the persisted outcome of one successful classification.
type Prediction struct {
	ID             string    `json:"id" db:"id"`
	PredictedClass string    `json:"predictedClass" db:"predicted_class"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	Handling       []string  `json:"handling" db:"handling"` // ordered disposal steps, may be empty
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// NewPrediction carries the fields of a prediction before the store
// assigns ID and CreatedAt.
type NewPrediction struct {
	PredictedClass string
	Confidence     float64
	Handling       []string
}
