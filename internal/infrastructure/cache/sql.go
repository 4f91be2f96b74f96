package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvItem is one row of the key-value table
type kvItem struct {
	Key       string     `gorm:"column:item_key;type:varchar(255);primaryKey"`
	Value     string     `gorm:"type:text;not null"`
	ExpiresAt *time.Time `gorm:"index"`
}

// TableName specifies the table name for kvItem
func (kvItem) TableName() string {
	return "kv_items"
}

// SQLStore is a key-value store kept in a database table, so values
// survive process restarts
type SQLStore struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewSQLiteStore opens (or creates) a SQLite database at path
func NewSQLiteStore(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return NewSQLStore(db, nil)
}

// NewSQLStore creates the key-value table on db if needed; clk may be nil
func NewSQLStore(db *gorm.DB, clk clock.Clock) (*SQLStore, error) {
	if clk == nil {
		clk = clock.New()
	}
	if err := db.AutoMigrate(&kvItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return &SQLStore{db: db, clock: clk}, nil
}

// Set stores a key-value pair; expiration <= 0 keeps it until deleted
func (s *SQLStore) Set(key string, value string, expiration time.Duration) error {
	item := kvItem{Key: key, Value: value}
	if expiration > 0 {
		at := s.clock.Now().Add(expiration)
		item.ExpiresAt = &at
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

// Get retrieves a value by key. Missing, expired and unreadable keys all
// report false.
func (s *SQLStore) Get(key string) (string, bool) {
	var item kvItem
	err := s.db.Where("item_key = ?", key).First(&item).Error
	if err != nil {
		return "", false
	}
	if item.ExpiresAt != nil && s.clock.Now().After(*item.ExpiresAt) {
		return "", false
	}
	return item.Value, true
}

// Delete removes a key
func (s *SQLStore) Delete(key string) error {
	if err := s.db.Where("item_key = ?", key).Delete(&kvItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many
func (s *SQLStore) PurgeExpired() (int64, error) {
	result := s.db.Where("expires_at IS NOT NULL AND expires_at < ?", s.clock.Now()).Delete(&kvItem{})
	return result.RowsAffected, result.Error
}

// Close releases the database connection
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
