package repositories

import (
	"errors"
	"fmt"
	"time"

	"edumarket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMKVStore is a GORM implementation of KVStore backed by the kv_entries table.
type GORMKVStore struct {
	db *gorm.DB
}

// NewGORMKVStore creates a new instance of GORMKVStore.
func NewGORMKVStore(db *gorm.DB) *GORMKVStore {
	return &GORMKVStore{
		db: db,
	}
}

// Get reads the value stored under key.
func (s *GORMKVStore) Get(key string) (string, bool, error) {
	var entry models.KVEntry
	if err := s.db.First(&entry, "entry_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set creates or replaces the value stored under key.
func (s *GORMKVStore) Set(key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *GORMKVStore) Delete(key string) error {
	if err := s.db.Delete(&models.KVEntry{}, "entry_key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
