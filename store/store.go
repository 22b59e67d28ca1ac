// Package store - device archive controllers
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/models"
	"github.com/apex/log"
	"gorm.io/gorm"
)

// ErrRecordingNotFound signals an update or fetch against an unknown recording ID
var ErrRecordingNotFound = errors.New("recording not found")

// DeviceStore the device-local persistent store. It owns the user profile,
// the recording list, device settings, a generic TTL cache, and the device
// journal, all backed by a single archive file.
type DeviceStore interface {
	/*
		GetUser fetch the device's user profile.

		The profile is created with defaults on first read. This call never fails
		the caller; internal storage errors are logged and a default profile is
		returned.

			@param ctx context.Context - execution context
			@returns the profile
	*/
	GetUser(ctx context.Context) models.UserProfile

	/*
		UpdateUser merge partial fields into the current profile.

		Top level profile fields merge shallowly. `Preferences` merges one level
		deep. `UpdatedAt` is stamped on success.

			@param ctx context.Context - execution context
			@param update models.UserProfileUpdate - the partial update
			@returns the merged profile
	*/
	UpdateUser(ctx context.Context, update models.UserProfileUpdate) (models.UserProfile, error)

	/*
		SaveRecording persist a new recording.

		An ID is assigned if absent, and required fields are defaulted.

			@param ctx context.Context - execution context
			@param recording models.Recording - the recording data
			@returns the stored recording
	*/
	SaveRecording(ctx context.Context, recording models.Recording) (models.Recording, error)

	/*
		GetRecordings fetch recordings, sorted by creation time descending.

		The newest-first ordering is a contract callers depend on. Storage errors
		are logged and an empty list is returned.

			@param ctx context.Context - execution context
			@param targetUserID *string - optionally, filter by owning user
			@returns recordings, newest first
	*/
	GetRecordings(ctx context.Context, targetUserID *string) []models.Recording

	/*
		GetRecording fetch one recording by ID

			@param ctx context.Context - execution context
			@param recordingID string - recording ID
			@returns the recording, or nil with `ErrRecordingNotFound` when no
			    recording has that ID
	*/
	GetRecording(ctx context.Context, recordingID string) (*models.Recording, error)

	/*
		UpdateRecording merge partial fields into the recording with the given ID.

			@param ctx context.Context - execution context
			@param recordingID string - recording ID
			@param update models.RecordingUpdate - the partial update
			@returns the merged recording, or nil with `ErrRecordingNotFound` when
			    no recording has that ID
	*/
	UpdateRecording(
		ctx context.Context, recordingID string, update models.RecordingUpdate,
	) (*models.Recording, error)

	/*
		DeleteRecording remove a recording by ID. Idempotent; deleting an unknown
		ID is a no-op success.

			@param ctx context.Context - execution context
			@param recordingID string - recording ID
	*/
	DeleteRecording(ctx context.Context, recordingID string) error

	/*
		GetSettings fetch device settings, created with defaults on first read.

		This call never fails the caller; internal storage errors are logged and
		default settings are returned.

			@param ctx context.Context - execution context
			@returns the settings
	*/
	GetSettings(ctx context.Context) models.Settings

	/*
		UpdateSettings merge partial fields into the current settings

			@param ctx context.Context - execution context
			@param update models.SettingsUpdate - the partial update
			@returns the merged settings
	*/
	UpdateSettings(ctx context.Context, update models.SettingsUpdate) (models.Settings, error)

	/*
		SaveToCache cache a document under a key with a TTL

			@param ctx context.Context - execution context
			@param key string - cache key
			@param document interface{} - JSON-serializable payload
			@param ttl time.Duration - time until the entry expires
	*/
	SaveToCache(ctx context.Context, key string, document interface{}, ttl time.Duration) error

	/*
		GetFromCache read a cached document.

		A read at or past the entry's expiry is a miss, and evicts the entry.
		Stale data is never returned.

			@param ctx context.Context - execution context
			@param key string - cache key
			@param target interface{} - unmarshal destination for the payload
			@returns whether the key was present and fresh
	*/
	GetFromCache(ctx context.Context, key string, target interface{}) (bool, error)

	/*
		RemoveFromCache drop a cached document. Removing an absent key is a no-op.

			@param ctx context.Context - execution context
			@param key string - cache key
	*/
	RemoveFromCache(ctx context.Context, key string) error

	/*
		ExportData produce a snapshot of profile, recordings and settings

			@param ctx context.Context - execution context
			@returns the export bundle
	*/
	ExportData(ctx context.Context) (models.ExportBundle, error)

	/*
		ImportData restore a snapshot, overwriting existing state wholesale

			@param ctx context.Context - execution context
			@param bundle models.ExportBundle - the bundle to restore
	*/
	ImportData(ctx context.Context, bundle models.ExportBundle) error

	/*
		ClearAllData remove every record family from the archive

			@param ctx context.Context - execution context
	*/
	ClearAllData(ctx context.Context) error

	/*
		StorageStats report archive usage statistics

			@param ctx context.Context - execution context
			@returns the statistics
	*/
	StorageStats(ctx context.Context) (models.StorageStats, error)

	/*
		JournalEvent append a device journal entry. Best effort; journal failures
		are logged and never fail the caller.

			@param ctx context.Context - execution context
			@param eventType models.JournalEventTypeENUMType - the event type
			@param metadata interface{} - optional event metadata
	*/
	JournalEvent(
		ctx context.Context, eventType models.JournalEventTypeENUMType, metadata interface{},
	)

	/*
		Journal list captured device journal entries

			@param ctx context.Context - execution context
			@param filters db.JournalQueryFilter - entry listing filter
			@returns journal entries, oldest first
	*/
	Journal(ctx context.Context, filters db.JournalQueryFilter) ([]models.DeviceJournalEntry, error)
}

// deviceStoreImpl implements DeviceStore
type deviceStoreImpl struct {
	goutils.Component

	persistence db.Client

	timeSource func() time.Time
}

/*
NewDeviceStore define a new device store

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param timeSource func() time.Time - clock used for cache expiry decisions
	    and timestamp stamping. Pass nil for the wall clock.
	@returns store instance
*/
func NewDeviceStore(
	_ context.Context, persistence db.Client, timeSource func() time.Time,
) (DeviceStore, error) {
	logTags := log.Fields{"module": "store", "component": "device-store"}

	if timeSource == nil {
		timeSource = time.Now
	}

	instance := &deviceStoreImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		timeSource:  timeSource,
	}

	return instance, nil
}

/*
GetUser fetch the device's user profile.

The profile is created with defaults on first read. This call never fails
the caller; internal storage errors are logged and a default profile is
returned.

	@param ctx context.Context - execution context
	@returns the profile
*/
func (s *deviceStoreImpl) GetUser(ctx context.Context) models.UserProfile {
	var profile models.UserProfile

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			profile, err = dbClient.GetDeviceProfile(dbCtx)
			return err
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(s.LogTags).Error("Device profile read failed")
		// Serve an in-memory default so the caller can proceed
		return models.UserProfile{
			SubscriptionStatus: models.SubscriptionStatusFree,
			Preferences:        models.DefaultPreferences(),
		}
	}

	return profile
}

/*
UpdateUser merge partial fields into the current profile.

Top level profile fields merge shallowly. `Preferences` merges one level
deep. `UpdatedAt` is stamped on success.

	@param ctx context.Context - execution context
	@param update models.UserProfileUpdate - the partial update
	@returns the merged profile
*/
func (s *deviceStoreImpl) UpdateUser(
	ctx context.Context, update models.UserProfileUpdate,
) (models.UserProfile, error) {
	var merged models.UserProfile

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			profile, err := dbClient.GetDeviceProfile(dbCtx)
			if err != nil {
				return fmt.Errorf("failed to fetch current profile [%w]", err)
			}

			applyProfileUpdate(&profile, update)

			merged, err = dbClient.SaveDeviceProfile(dbCtx, profile)
			if err != nil {
				return fmt.Errorf("failed to persist merged profile [%w]", err)
			}
			return nil
		},
	); dbErr != nil {
		return models.UserProfile{}, fmt.Errorf("profile update failed [%w]", dbErr)
	}

	return merged, nil
}

// applyProfileUpdate merge the partial update into the profile. Top level
// fields replace; preferences merge one level deep.
func applyProfileUpdate(profile *models.UserProfile, update models.UserProfileUpdate) {
	if update.Email != nil {
		profile.Email = update.Email
	}
	if update.SubscriptionStatus != nil {
		profile.SubscriptionStatus = *update.SubscriptionStatus
	}
	if update.SubscriptionExpiry != nil {
		profile.SubscriptionExpiry = *update.SubscriptionExpiry
	}
	if update.SubscriptionID != nil {
		profile.SubscriptionID = *update.SubscriptionID
	}
	if update.Preferences != nil {
		if update.Preferences.Language != nil {
			profile.Preferences.Language = *update.Preferences.Language
		}
		if update.Preferences.DefaultState != nil {
			profile.Preferences.DefaultState = *update.Preferences.DefaultState
		}
		if update.Preferences.Notifications != nil {
			profile.Preferences.Notifications = *update.Preferences.Notifications
		}
		if update.Preferences.AutoLocation != nil {
			profile.Preferences.AutoLocation = *update.Preferences.AutoLocation
		}
	}
}

/*
SaveRecording persist a new recording.

An ID is assigned if absent, and required fields are defaulted.

	@param ctx context.Context - execution context
	@param recording models.Recording - the recording data
	@returns the stored recording
*/
func (s *deviceStoreImpl) SaveRecording(
	ctx context.Context, recording models.Recording,
) (models.Recording, error) {
	var stored models.Recording

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error

			if recording.UserID == "" {
				profile, err := dbClient.GetDeviceProfile(dbCtx)
				if err != nil {
					return fmt.Errorf("failed to resolve owning user [%w]", err)
				}
				recording.UserID = profile.UserID
			}

			now := s.timeSource()
			if recording.StartTime.IsZero() {
				recording.StartTime = now
			}
			if recording.EndTime.IsZero() {
				recording.EndTime = recording.StartTime
			}
			if recording.Duration == 0 {
				recording.Duration = int64(recording.EndTime.Sub(recording.StartTime).Seconds())
			}
			if recording.Metadata.Quality == "" {
				recording.Metadata.Quality = models.RecordingQualityStandard
			}

			stored, err = dbClient.CreateRecording(dbCtx, recording)
			if err != nil {
				return fmt.Errorf("failed to insert recording [%w]", err)
			}

			return nil
		},
	); dbErr != nil {
		return models.Recording{}, fmt.Errorf("recording save failed [%w]", dbErr)
	}

	s.JournalEvent(
		ctx,
		models.JournalEventTypeRecordingCreated,
		models.JournalEventRecordingRelated{RecordingID: stored.ID},
	)

	return stored, nil
}

/*
GetRecordings fetch recordings, sorted by creation time descending.

The newest-first ordering is a contract callers depend on. Storage errors
are logged and an empty list is returned.

	@param ctx context.Context - execution context
	@param targetUserID *string - optionally, filter by owning user
	@returns recordings, newest first
*/
func (s *deviceStoreImpl) GetRecordings(
	ctx context.Context, targetUserID *string,
) []models.Recording {
	recordings := []models.Recording{}

	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recordings, err = dbClient.ListRecordings(
				dbCtx, db.RecordingQueryFilter{TargetUserID: targetUserID},
			)
			return err
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(s.LogTags).Error("Recording list read failed")
		return []models.Recording{}
	}

	return recordings
}

/*
GetRecording fetch one recording by ID

	@param ctx context.Context - execution context
	@param recordingID string - recording ID
	@returns the recording, or nil with `ErrRecordingNotFound` when no
	    recording has that ID
*/
func (s *deviceStoreImpl) GetRecording(
	ctx context.Context, recordingID string,
) (*models.Recording, error) {
	var recording models.Recording

	dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recording, err = dbClient.GetRecording(dbCtx, recordingID)
			return err
		},
	)
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, fmt.Errorf("recording %s read failed [%w]", recordingID, dbErr)
	}

	return &recording, nil
}

/*
UpdateRecording merge partial fields into the recording with the given ID.

	@param ctx context.Context - execution context
	@param recordingID string - recording ID
	@param update models.RecordingUpdate - the partial update
	@returns the merged recording, or nil with `ErrRecordingNotFound` when
	    no recording has that ID
*/
func (s *deviceStoreImpl) UpdateRecording(
	ctx context.Context, recordingID string, update models.RecordingUpdate,
) (*models.Recording, error) {
	var merged models.Recording

	dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			recording, err := dbClient.GetRecording(dbCtx, recordingID)
			if err != nil {
				return err
			}

			if update.Notes != nil {
				recording.Notes = *update.Notes
			}
			if update.IsFlagged != nil {
				recording.IsFlagged = *update.IsFlagged
			}
			if update.RemoteHash != nil {
				recording.RemoteHash = *update.RemoteHash
			}
			if update.RemoteGatewayURL != nil {
				recording.RemoteGatewayURL = *update.RemoteGatewayURL
			}
			if update.Location != nil {
				recording.Location = update.Location
			}

			if err := dbClient.SaveRecordingEntry(dbCtx, recording); err != nil {
				return fmt.Errorf("failed to persist merged recording [%w]", err)
			}

			merged = recording
			return nil
		},
	)
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, fmt.Errorf("recording %s update failed [%w]", recordingID, dbErr)
	}

	return &merged, nil
}

/*
DeleteRecording remove a recording by ID. Idempotent; deleting an unknown
ID is a no-op success.

	@param ctx context.Context - execution context
	@param recordingID string - recording ID
*/
func (s *deviceStoreImpl) DeleteRecording(ctx context.Context, recordingID string) error {
	removed := false

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			removed, err = dbClient.DeleteRecording(dbCtx, recordingID)
			return err
		},
	); dbErr != nil {
		return fmt.Errorf("recording %s delete failed [%w]", recordingID, dbErr)
	}

	if removed {
		s.JournalEvent(
			ctx,
			models.JournalEventTypeRecordingDeleted,
			models.JournalEventRecordingRelated{RecordingID: recordingID},
		)
	}

	return nil
}

/*
GetSettings fetch device settings, created with defaults on first read.

This call never fails the caller; internal storage errors are logged and
default settings are returned.

	@param ctx context.Context - execution context
	@returns the settings
*/
func (s *deviceStoreImpl) GetSettings(ctx context.Context) models.Settings {
	var settings models.Settings

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			settings, err = dbClient.GetDeviceSettings(dbCtx)
			return err
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(s.LogTags).Error("Device settings read failed")
		return models.DefaultSettings()
	}

	return settings
}

/*
UpdateSettings merge partial fields into the current settings

	@param ctx context.Context - execution context
	@param update models.SettingsUpdate - the partial update
	@returns the merged settings
*/
func (s *deviceStoreImpl) UpdateSettings(
	ctx context.Context, update models.SettingsUpdate,
) (models.Settings, error) {
	var merged models.Settings

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			settings, err := dbClient.GetDeviceSettings(dbCtx)
			if err != nil {
				return fmt.Errorf("failed to fetch current settings [%w]", err)
			}

			if update.Theme != nil {
				settings.Theme = *update.Theme
			}
			if update.Language != nil {
				settings.Language = *update.Language
			}
			if update.DefaultState != nil {
				settings.DefaultState = *update.DefaultState
			}
			if update.AutoLocation != nil {
				settings.AutoLocation = *update.AutoLocation
			}
			if update.Notifications != nil {
				settings.Notifications = *update.Notifications
			}
			if update.RecordingQuality != nil {
				settings.RecordingQuality = *update.RecordingQuality
			}
			if update.AutoUpload != nil {
				settings.AutoUpload = *update.AutoUpload
			}

			merged, err = dbClient.SaveDeviceSettings(dbCtx, settings)
			if err != nil {
				return fmt.Errorf("failed to persist merged settings [%w]", err)
			}
			return nil
		},
	); dbErr != nil {
		return models.Settings{}, fmt.Errorf("settings update failed [%w]", dbErr)
	}

	return merged, nil
}

/*
JournalEvent append a device journal entry. Best effort; journal failures
are logged and never fail the caller.

	@param ctx context.Context - execution context
	@param eventType models.JournalEventTypeENUMType - the event type
	@param metadata interface{} - optional event metadata
*/
func (s *deviceStoreImpl) JournalEvent(
	ctx context.Context, eventType models.JournalEventTypeENUMType, metadata interface{},
) {
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			_, err := dbClient.RecordJournalEvent(dbCtx, eventType, metadata)
			return err
		},
	); dbErr != nil {
		log.
			WithError(dbErr).
			WithFields(s.LogTags).
			WithField("event", eventType).
			Error("Journal append failed")
	}
}

/*
Journal list captured device journal entries

	@param ctx context.Context - execution context
	@param filters db.JournalQueryFilter - entry listing filter
	@returns journal entries, oldest first
*/
func (s *deviceStoreImpl) Journal(
	ctx context.Context, filters db.JournalQueryFilter,
) ([]models.DeviceJournalEntry, error) {
	var entries []models.DeviceJournalEntry

	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entries, err = dbClient.ListJournalEvents(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("journal read failed [%w]", dbErr)
	}

	return entries, nil
}
