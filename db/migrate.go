package db

import (
	"context"

	"gorm.io/gorm"
)

// DefineTables prepare a database connection with all tables defined
func DefineTables(_ context.Context, db *gorm.DB) error {
	return db.AutoMigrate(
		DeviceProfileDBEntry{},
		DeviceSettingsDBEntry{},
		RecordingDBEntry{},
		CacheEntryDBEntry{},
		DeviceJournalDBEntry{},
	)
}
