package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteStore(connectionString string) (PredictionStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteStore) CreateSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		predicted_class TEXT NOT NULL,
		confidence REAL NOT NULL,
		handling TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_predictions_created_at
		ON predictions (created_at DESC)`)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteStore) CreatePrediction(ctx context.Context, input NewPrediction) (*Prediction, error) {
	if err := validateNewPrediction(input); err != nil {
		return nil, err
	}

	record := &Prediction{
		ID:             uuid.NewString(),
		PredictedClass: input.PredictedClass,
		Confidence:     input.Confidence,
		Handling:       input.Handling,
		CreatedAt:      time.Now().UTC(),
	}
	if record.Handling == nil {
		record.Handling = []string{}
	}

	handling, err := json.Marshal(record.Handling)
	if err != nil {
		return nil, fmt.Errorf("failed to encode handling steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO predictions (id, predicted_class, confidence, handling, created_at) VALUES (?, ?, ?, ?, ?)",
		record.ID, record.PredictedClass, record.Confidence, string(handling), record.CreatedAt.UnixNano())
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *SQLiteStore) ListPredictions(ctx context.Context) ([]*Prediction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, predicted_class, confidence, handling, created_at FROM predictions ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	predictions := []*Prediction{}
	for rows.Next() {
		record, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, record)
	}
	return predictions, rows.Err()
}

func (s *SQLiteStore) CountByClass(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT predicted_class, COUNT(*) FROM predictions GROUP BY predicted_class")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var class string
		var count int
		if err := rows.Scan(&class, &count); err != nil {
			return nil, err
		}
		counts[class] = count
	}
	return counts, rows.Err()
}

func validateNewPrediction(input NewPrediction) error {
	if input.PredictedClass == "" {
		return fmt.Errorf("predictedClass is required")
	}
	if input.Confidence < 0 || input.Confidence > 1 {
		return fmt.Errorf("confidence %f is outside [0, 1]", input.Confidence)
	}
	return nil
}

func scanPrediction(rows *sql.Rows) (*Prediction, error) {
	var record Prediction
	var handling string
	var createdAtNanos int64
	if err := rows.Scan(&record.ID, &record.PredictedClass, &record.Confidence, &handling, &createdAtNanos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(handling), &record.Handling); err != nil {
		return nil, fmt.Errorf("failed to decode handling steps for %s: %w", record.ID, err)
	}
	if record.Handling == nil {
		record.Handling = []string{}
	}
	record.CreatedAt = time.Unix(0, createdAtNanos).UTC()
	return &record, nil
}
