package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/witness/models"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
)

/*
RecordJournalEvent append a device journal entry

	@param ctx context.Context - execution context
	@param eventType models.JournalEventTypeENUMType - the event type
	@param metadata interface{} - optional event metadata
	@returns the journal entry
*/
func (d *databaseImpl) RecordJournalEvent(
	_ context.Context, eventType models.JournalEventTypeENUMType, metadata interface{},
) (models.DeviceJournalEntry, error) {

	newEntry := DeviceJournalDBEntry{
		DeviceJournalEntry: models.DeviceJournalEntry{ID: ulid.Make().String(), EventType: eventType},
	}

	if metadata != nil {
		if err := d.validator.Struct(metadata); err != nil {
			return models.DeviceJournalEntry{}, fmt.Errorf(
				"new journal event '%s' metadata entry is not valid [%w]", eventType, err,
			)
		}

		metadataStr, _ := json.Marshal(&metadata)
		newEntry.Metadata = datatypes.JSON(metadataStr)
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.DeviceJournalEntry{}, fmt.Errorf(
			"new journal event '%s' entry is not valid [%w]", eventType, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.DeviceJournalEntry{}, fmt.Errorf(
			"new journal event '%s' insert failed [%w]", eventType, tmp.Error,
		)
	}

	return newEntry.DeviceJournalEntry, nil
}

/*
ListJournalEvents list captured device journal entries

	@param ctx context.Context - execution context
	@param filters JournalQueryFilter - entry listing filter
	@return list of journal entries
*/
func (d *databaseImpl) ListJournalEvents(
	_ context.Context, filters JournalQueryFilter,
) ([]models.DeviceJournalEntry, error) {
	query := d.db.Model(&DeviceJournalDBEntry{})

	if len(filters.EventTypes) > 0 {
		query = query.Where("type in ?", filters.EventTypes)
	}

	if filters.EventsAfter != nil {
		query = query.Where("created_at >= ?", *filters.EventsAfter)
	}
	if filters.EventsBefore != nil {
		query = query.Where("created_at <= ?", *filters.EventsBefore)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at")

	var entries []DeviceJournalDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list captured journal events [%w]", tmp.Error)
	}

	result := []models.DeviceJournalEntry{}
	for _, entry := range entries {
		result = append(result, entry.DeviceJournalEntry)
	}

	return result, nil
}
