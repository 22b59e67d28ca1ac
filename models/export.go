package models

import "time"

// ExportBundleVersion the export format version tag
const ExportBundleVersion = "1.0"

// ExportBundle single serializable snapshot of the device archive. Importing
// one overwrites the profile, settings and recordings wholesale.
type ExportBundle struct {
	// Version export format version tag
	Version string `json:"version" validate:"required"`
	// ExportedAt when the snapshot was taken
	ExportedAt time.Time `json:"exported_at"`
	// User the device profile
	User UserProfile `json:"user"`
	// Recordings every recording, newest first
	Recordings []Recording `json:"recordings"`
	// Settings device settings
	Settings Settings `json:"settings"`
}

// StorageStats archive usage statistics
type StorageStats struct {
	// ItemCount total persisted rows across all families
	ItemCount int64 `json:"item_count"`
	// TotalSize approximate serialized size in bytes
	TotalSize int64 `json:"total_size"`
	// Breakdown per-family approximate sizes in bytes
	Breakdown map[string]int64 `json:"breakdown"`
}

// CacheEntry one TTL cache entry. A read at or past `ExpiresAt` is treated as
// absence and evicts the entry.
type CacheEntry struct {
	// Key cache key
	Key string `json:"key" gorm:"column:key;primaryKey;unique" validate:"required"`
	// Payload the cached document
	Payload []byte `json:"payload" gorm:"column:payload;not null"`
	// WrittenAt when the entry was cached
	WrittenAt time.Time `json:"written_at" gorm:"column:written_at;not null"`
	// ExpiresAt absolute expiry timestamp
	ExpiresAt time.Time `json:"expires_at" gorm:"column:expires_at;not null"`
}
