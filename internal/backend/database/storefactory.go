package database

import (
	"fmt"
	"log"
)

func NewPredictionStore(databaseType, connectionString string) (store PredictionStore, err error) {
	if connectionString == "" {
		return nil, fmt.Errorf("database connection string is not set")
	}

	switch databaseType {
	case "sqlite":
		store, err = NewSQLiteStore(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}

	// Ensure database schema exists (idempotent), important for in-memory SQLite
	log.Print("initializing database schema (ensuring tables exist)")
	if err = store.CreateSchema(); err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return store, nil
}
