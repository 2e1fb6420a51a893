package models

import "time"

// KVEntry is a single durable key-value record.
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey"`
	Value     string    `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string { return "kv_entries" }
