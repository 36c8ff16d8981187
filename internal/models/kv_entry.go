package models

import "time"

// KVEntry is one named value in the local key-value table.
type KVEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey;type:varchar(128)"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of naming strategy.
func (KVEntry) TableName() string {
	return "kv_entries"
}
