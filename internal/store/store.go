// Package store persists congestion data in a relational database via gorm.
// It owns the dimension upserts, transactional batch fact writes, the
// full-replace aggregate swap, and the query surface consumed by the
// dashboard API layer.
package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps a gorm connection with congestion-specific operations.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing gorm connection. Tests use this with sqlite.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for all tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&EntryPoint{},
		&VehicleClass{},
		&CongestionEntry{},
		&DailyAggregate{},
	)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
