package db

import (
	"context"
	"fmt"

	"github.com/alwitt/witness/models"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

/*
CreateRecording insert a new incident recording

	@param ctx context.Context - execution context
	@param recording models.Recording - the recording entry
	@returns the persisted entry
*/
func (d *databaseImpl) CreateRecording(
	_ context.Context, recording models.Recording,
) (models.Recording, error) {
	if recording.ID == "" {
		recording.ID = ulid.Make().String()
	}

	newEntry := RecordingDBEntry{Recording: recording}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.Recording{}, fmt.Errorf(
			"new recording '%s' is not valid [%w]", recording.ID, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.Recording{}, fmt.Errorf(
			"new recording '%s' failed insert [%w]", recording.ID, tmp.Error,
		)
	}

	return newEntry.Recording, nil
}

// getRecordingEntry find a recording by ID
func (d *databaseImpl) getRecordingEntry(recordingID string) (RecordingDBEntry, error) {
	var entry RecordingDBEntry
	err := d.db.Where("id = ?", recordingID).First(&entry).Error
	return entry, err
}

/*
GetRecording fetch a recording by ID

	@param ctx context.Context - execution context
	@param recordingID string - recording ID
	@returns the entry
*/
func (d *databaseImpl) GetRecording(
	_ context.Context, recordingID string,
) (models.Recording, error) {
	entry, err := d.getRecordingEntry(recordingID)
	if err != nil {
		return models.Recording{}, fmt.Errorf("failed to fetch recording %s [%w]", recordingID, err)
	}

	return entry.Recording, nil
}

/*
ListRecordings list recordings, newest first

	@param ctx context.Context - execution context
	@param filters RecordingQueryFilter - entry listing filter
	@return list of recordings sorted by creation time descending
*/
func (d *databaseImpl) ListRecordings(
	_ context.Context, filters RecordingQueryFilter,
) ([]models.Recording, error) {
	query := d.db.Model(&RecordingDBEntry{})

	if filters.TargetUserID != nil {
		query = query.Where("user_id = ?", *filters.TargetUserID)
	}
	if filters.FlaggedOnly {
		query = query.Where("is_flagged = ?", true)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	// Newest first. Callers depend on this ordering; ULIDs break creation
	// timestamp ties.
	query = query.Order("created_at desc, id desc")

	var entries []RecordingDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list recordings [%w]", tmp.Error)
	}

	result := []models.Recording{}
	for _, entry := range entries {
		result = append(result, entry.Recording)
	}

	return result, nil
}

/*
SaveRecordingEntry overwrite an existing recording entry

	@param ctx context.Context - execution context
	@param recording models.Recording - the full entry content
*/
func (d *databaseImpl) SaveRecordingEntry(_ context.Context, recording models.Recording) error {
	entry := RecordingDBEntry{Recording: recording}

	if err := d.validator.Struct(&entry); err != nil {
		return fmt.Errorf("updated recording '%s' is not valid [%w]", recording.ID, err)
	}

	if tmp := d.db.Save(&entry); tmp.Error != nil {
		return fmt.Errorf("recording '%s' update failed [%w]", recording.ID, tmp.Error)
	}

	return nil
}

/*
DeleteRecording delete a recording by ID

	@param ctx context.Context - execution context
	@param recordingID string - recording ID
	@returns whether an entry was actually removed
*/
func (d *databaseImpl) DeleteRecording(_ context.Context, recordingID string) (bool, error) {
	tmp := d.db.Where("id = ?", recordingID).Delete(&RecordingDBEntry{})
	if tmp.Error != nil {
		return false, fmt.Errorf("failed to delete recording %s [%w]", recordingID, tmp.Error)
	}
	return tmp.RowsAffected > 0, nil
}

/*
ReplaceRecordings replace the full recording list

	@param ctx context.Context - execution context
	@param recordings []models.Recording - the new list content
*/
func (d *databaseImpl) ReplaceRecordings(
	ctx context.Context, recordings []models.Recording,
) error {
	tmp := d.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&RecordingDBEntry{})
	if tmp.Error != nil {
		return fmt.Errorf("failed to clear recording list [%w]", tmp.Error)
	}

	for _, recording := range recordings {
		if _, err := d.CreateRecording(ctx, recording); err != nil {
			return fmt.Errorf("failed to restore recording %s [%w]", recording.ID, err)
		}
	}

	return nil
}
