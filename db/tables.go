package db

import "github.com/alwitt/witness/models"

// --------------------------------------------------------------------------------------
// Device profile

// GlobalDeviceProfileEntryID ID of the singleton device profile entry
const GlobalDeviceProfileEntryID = "device-profile"

// DeviceProfileDBEntry device profile DB entry
type DeviceProfileDBEntry struct {
	// EntryID must always be device-profile
	EntryID string `gorm:"column:entry_id;primaryKey;unique" validate:"required,oneof=device-profile"`
	models.UserProfile
}

// TableName hard code table name
func (DeviceProfileDBEntry) TableName() string {
	return "device_profile"
}

// --------------------------------------------------------------------------------------
// Device settings

// GlobalDeviceSettingsEntryID ID of the singleton device settings entry
const GlobalDeviceSettingsEntryID = "device-settings"

// DeviceSettingsDBEntry device settings DB entry
type DeviceSettingsDBEntry struct {
	// EntryID must always be device-settings
	EntryID string `gorm:"column:entry_id;primaryKey;unique" validate:"required,oneof=device-settings"`
	models.Settings
}

// TableName hard code table name
func (DeviceSettingsDBEntry) TableName() string {
	return "device_settings"
}

// --------------------------------------------------------------------------------------
// Recordings

// RecordingDBEntry incident recording DB entry
type RecordingDBEntry struct {
	models.Recording
}

// TableName hard code table name
func (RecordingDBEntry) TableName() string {
	return "recordings"
}

// --------------------------------------------------------------------------------------
// TTL cache

// CacheEntryDBEntry TTL cache DB entry
type CacheEntryDBEntry struct {
	models.CacheEntry
}

// TableName hard code table name
func (CacheEntryDBEntry) TableName() string {
	return "cache_entries"
}

// --------------------------------------------------------------------------------------
// Device journal

// DeviceJournalDBEntry device journal DB entry
type DeviceJournalDBEntry struct {
	models.DeviceJournalEntry
}

// TableName hard code table name
func (DeviceJournalDBEntry) TableName() string {
	return "device_journal"
}
