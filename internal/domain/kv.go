package domain

import (
	"errors"
	"time"
)

// ErrStorageFull marks a write refused for lack of capacity. Key-value stores wrap it
// so callers can tell capacity failures from transient ones.
var ErrStorageFull = errors.New("storage full")

// KVEntry is one persisted key of the client-side state replica.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }
