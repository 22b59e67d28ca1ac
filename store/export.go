package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/models"
)

/*
ExportData produce a snapshot of profile, recordings and settings

	@param ctx context.Context - execution context
	@returns the export bundle
*/
func (s *deviceStoreImpl) ExportData(ctx context.Context) (models.ExportBundle, error) {
	var bundle models.ExportBundle

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			profile, err := dbClient.GetDeviceProfile(dbCtx)
			if err != nil {
				return fmt.Errorf("failed to read profile [%w]", err)
			}

			recordings, err := dbClient.ListRecordings(dbCtx, db.RecordingQueryFilter{})
			if err != nil {
				return fmt.Errorf("failed to read recording list [%w]", err)
			}

			settings, err := dbClient.GetDeviceSettings(dbCtx)
			if err != nil {
				return fmt.Errorf("failed to read settings [%w]", err)
			}

			bundle = models.ExportBundle{
				Version:    models.ExportBundleVersion,
				ExportedAt: s.timeSource(),
				User:       profile,
				Recordings: recordings,
				Settings:   settings,
			}
			return nil
		},
	); dbErr != nil {
		return models.ExportBundle{}, fmt.Errorf("archive export failed [%w]", dbErr)
	}

	return bundle, nil
}

/*
ImportData restore a snapshot, overwriting existing state wholesale

	@param ctx context.Context - execution context
	@param bundle models.ExportBundle - the bundle to restore
*/
func (s *deviceStoreImpl) ImportData(ctx context.Context, bundle models.ExportBundle) error {
	if bundle.Version == "" {
		return fmt.Errorf("import bundle carries no format version tag")
	}

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			if _, err := dbClient.ReplaceDeviceProfile(dbCtx, bundle.User); err != nil {
				return fmt.Errorf("failed to restore profile [%w]", err)
			}

			if err := dbClient.ReplaceRecordings(dbCtx, bundle.Recordings); err != nil {
				return fmt.Errorf("failed to restore recording list [%w]", err)
			}

			if _, err := dbClient.SaveDeviceSettings(dbCtx, bundle.Settings); err != nil {
				return fmt.Errorf("failed to restore settings [%w]", err)
			}

			return nil
		},
	); dbErr != nil {
		return fmt.Errorf("archive import failed [%w]", dbErr)
	}

	s.JournalEvent(ctx, models.JournalEventTypeDataImported, nil)

	return nil
}

/*
ClearAllData remove every record family from the archive

	@param ctx context.Context - execution context
*/
func (s *deviceStoreImpl) ClearAllData(ctx context.Context) error {
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.WipeAll(dbCtx)
		},
	); dbErr != nil {
		return fmt.Errorf("archive wipe failed [%w]", dbErr)
	}

	s.JournalEvent(ctx, models.JournalEventTypeDataCleared, nil)

	return nil
}

/*
StorageStats report archive usage statistics

	@param ctx context.Context - execution context
	@returns the statistics
*/
func (s *deviceStoreImpl) StorageStats(ctx context.Context) (models.StorageStats, error) {
	bundle, err := s.ExportData(ctx)
	if err != nil {
		return models.StorageStats{}, fmt.Errorf("stats computation failed [%w]", err)
	}

	stats := models.StorageStats{Breakdown: map[string]int64{}}

	profileBytes, _ := json.Marshal(bundle.User)
	stats.Breakdown["user"] = int64(len(profileBytes))
	stats.ItemCount++

	var recordingBytes int64
	for _, recording := range bundle.Recordings {
		serialized, _ := json.Marshal(recording)
		recordingBytes += int64(len(serialized))
		stats.ItemCount++
	}
	stats.Breakdown["recordings"] = recordingBytes

	settingsBytes, _ := json.Marshal(bundle.Settings)
	stats.Breakdown["settings"] = int64(len(settingsBytes))
	stats.ItemCount++

	for _, size := range stats.Breakdown {
		stats.TotalSize += size
	}

	return stats, nil
}
