package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forum-reactor/internal/core"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteRepository implements RepositoryPort using SQLite via GORM
type SQLiteRepository struct {
	db *gorm.DB
}

var _ core.RepositoryPort = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the ledger database at dbPath
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// Migrate runs database migrations
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&core.Attempt{})
}

// RecordAttempt stores one attempt row
func (r *SQLiteRepository) RecordAttempt(ctx context.Context, attempt *core.Attempt) error {
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now()
	}
	if attempt.FinishedAt.IsZero() {
		attempt.FinishedAt = attempt.StartedAt
	}
	// Times are stored as text, so keep one zone for range queries
	attempt.StartedAt = attempt.StartedAt.UTC()
	attempt.FinishedAt = attempt.FinishedAt.UTC()

	return r.db.WithContext(ctx).Create(attempt).Error
}

// RecentAttempts returns the newest attempts first
func (r *SQLiteRepository) RecentAttempts(ctx context.Context, limit int) ([]*core.Attempt, error) {
	var attempts []*core.Attempt
	result := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&attempts)
	if result.Error != nil {
		return nil, result.Error
	}

	return attempts, nil
}

// CountByOutcome counts attempts started at or after since, grouped by outcome
func (r *SQLiteRepository) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Count   int64
	}
	result := r.db.WithContext(ctx).
		Model(&core.Attempt{}).
		Select("outcome, COUNT(*) AS count").
		Where("started_at >= ?", since.UTC()).
		Group("outcome").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Count
	}
	return counts, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
