package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/witness/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// RecordingQueryFilter incident recording query filter conditions
type RecordingQueryFilter struct {
	CommonListEntryQueryFilter
	// TargetUserID fetch only recordings owned by this user
	TargetUserID *string
	// FlaggedOnly fetch only flagged recordings
	FlaggedOnly bool
}

// JournalQueryFilter device journal query filter conditions
type JournalQueryFilter struct {
	CommonListEntryQueryFilter
	// EventTypes the specific event types to query for
	EventTypes []models.JournalEventTypeENUMType
	// EventsAfter filter for events after this timestamp
	EventsAfter *time.Time
	// EventsBefore filter for events before this timestamp
	EventsBefore *time.Time
}

// Database the database handle for interacting with the device archive
type Database interface {
	// ------------------------------------------------------------------------------------
	// Device profile

	/*
		GetDeviceProfile fetch the singleton device profile entry.

		If the entry does not exist, a default profile is created and persisted.

			@param ctx context.Context - execution context
			@returns the profile
	*/
	GetDeviceProfile(ctx context.Context) (models.UserProfile, error)

	/*
		SaveDeviceProfile overwrite the singleton device profile entry

			@param ctx context.Context - execution context
			@param profile models.UserProfile - the new profile content
			@returns the persisted profile
	*/
	SaveDeviceProfile(ctx context.Context, profile models.UserProfile) (models.UserProfile, error)

	/*
		ReplaceDeviceProfile overwrite the singleton device profile entry verbatim.

		Unlike SaveDeviceProfile, the stored user ID and creation time are
		replaced by the given profile's. Meant for archive restoration.

			@param ctx context.Context - execution context
			@param profile models.UserProfile - the new profile content
			@returns the persisted profile
	*/
	ReplaceDeviceProfile(ctx context.Context, profile models.UserProfile) (models.UserProfile, error)

	// ------------------------------------------------------------------------------------
	// Device settings

	/*
		GetDeviceSettings fetch the singleton device settings entry.

		If the entry does not exist, default settings are created and persisted.

			@param ctx context.Context - execution context
			@returns the settings
	*/
	GetDeviceSettings(ctx context.Context) (models.Settings, error)

	/*
		SaveDeviceSettings overwrite the singleton device settings entry

			@param ctx context.Context - execution context
			@param settings models.Settings - the new settings content
			@returns the persisted settings
	*/
	SaveDeviceSettings(ctx context.Context, settings models.Settings) (models.Settings, error)

	// ------------------------------------------------------------------------------------
	// Recordings

	/*
		CreateRecording insert a new incident recording

			@param ctx context.Context - execution context
			@param recording models.Recording - the recording entry
			@returns the persisted entry
	*/
	CreateRecording(ctx context.Context, recording models.Recording) (models.Recording, error)

	/*
		GetRecording fetch a recording by ID

			@param ctx context.Context - execution context
			@param recordingID string - recording ID
			@returns the entry
	*/
	GetRecording(ctx context.Context, recordingID string) (models.Recording, error)

	/*
		ListRecordings list recordings, newest first

			@param ctx context.Context - execution context
			@param filters RecordingQueryFilter - entry listing filter
			@return list of recordings sorted by creation time descending
	*/
	ListRecordings(ctx context.Context, filters RecordingQueryFilter) ([]models.Recording, error)

	/*
		SaveRecordingEntry overwrite an existing recording entry

			@param ctx context.Context - execution context
			@param recording models.Recording - the full entry content
	*/
	SaveRecordingEntry(ctx context.Context, recording models.Recording) error

	/*
		DeleteRecording delete a recording by ID

			@param ctx context.Context - execution context
			@param recordingID string - recording ID
			@returns whether an entry was actually removed
	*/
	DeleteRecording(ctx context.Context, recordingID string) (bool, error)

	/*
		ReplaceRecordings replace the full recording list

			@param ctx context.Context - execution context
			@param recordings []models.Recording - the new list content
	*/
	ReplaceRecordings(ctx context.Context, recordings []models.Recording) error

	// ------------------------------------------------------------------------------------
	// TTL cache

	/*
		SetCacheEntry upsert a TTL cache entry

			@param ctx context.Context - execution context
			@param entry models.CacheEntry - the entry
	*/
	SetCacheEntry(ctx context.Context, entry models.CacheEntry) error

	/*
		GetCacheEntry fetch a TTL cache entry by key.

		Expiry is not interpreted here; the store layer decides staleness.

			@param ctx context.Context - execution context
			@param key string - cache key
			@returns the entry
	*/
	GetCacheEntry(ctx context.Context, key string) (models.CacheEntry, error)

	/*
		DeleteCacheEntry delete a TTL cache entry. Deleting an absent key is a no-op.

			@param ctx context.Context - execution context
			@param key string - cache key
	*/
	DeleteCacheEntry(ctx context.Context, key string) error

	/*
		PurgeExpiredCacheEntries remove every cache entry expired as of a timestamp

			@param ctx context.Context - execution context
			@param now time.Time - the reference timestamp
			@returns number of entries removed
	*/
	PurgeExpiredCacheEntries(ctx context.Context, now time.Time) (int64, error)

	// ------------------------------------------------------------------------------------
	// Device journal

	/*
		RecordJournalEvent append a device journal entry

			@param ctx context.Context - execution context
			@param eventType models.JournalEventTypeENUMType - the event type
			@param metadata interface{} - optional event metadata
			@returns the journal entry
	*/
	RecordJournalEvent(
		ctx context.Context, eventType models.JournalEventTypeENUMType, metadata interface{},
	) (models.DeviceJournalEntry, error)

	/*
		ListJournalEvents list captured device journal entries

			@param ctx context.Context - execution context
			@param filters JournalQueryFilter - entry listing filter
			@return list of journal entries
	*/
	ListJournalEvents(
		ctx context.Context, filters JournalQueryFilter,
	) ([]models.DeviceJournalEntry, error)

	// ------------------------------------------------------------------------------------
	// Maintenance

	/*
		WipeAll remove every row from every archive table

			@param ctx context.Context - execution context
	*/
	WipeAll(ctx context.Context) error
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	logTags := log.Fields{"package": "witness", "module": "db", "component": "db-client"}

	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}

/*
WipeAll remove every row from every archive table

	@param ctx context.Context - execution context
*/
func (d *databaseImpl) WipeAll(_ context.Context) error {
	for _, target := range []interface{}{
		&DeviceProfileDBEntry{},
		&DeviceSettingsDBEntry{},
		&RecordingDBEntry{},
		&CacheEntryDBEntry{},
		&DeviceJournalDBEntry{},
	} {
		if tmp := d.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(target); tmp.Error != nil {
			return fmt.Errorf("failed to wipe archive table [%w]", tmp.Error)
		}
	}
	return nil
}
