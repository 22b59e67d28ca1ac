package db

import (
	"context"
	"fmt"

	"github.com/alwitt/witness/models"
)

// getDeviceSettingsEntry fetch the device settings entry
//
// If the entry does not exist, initialize a new one with defaults.
func (d *databaseImpl) getDeviceSettingsEntry() (DeviceSettingsDBEntry, error) {
	var entries []DeviceSettingsDBEntry
	dbErr := d.db.Where("entry_id = ?", GlobalDeviceSettingsEntryID).Find(&entries).Error
	if dbErr != nil {
		return DeviceSettingsDBEntry{}, fmt.Errorf("failed to read device settings table [%w]", dbErr)
	}
	if len(entries) == 0 {
		// Make a new one
		newEntry := DeviceSettingsDBEntry{
			EntryID:  GlobalDeviceSettingsEntryID,
			Settings: models.DefaultSettings(),
		}
		if err := d.validator.Struct(&newEntry); err != nil {
			return DeviceSettingsDBEntry{}, fmt.Errorf("default device settings are not valid [%w]", err)
		}
		if dbErr = d.db.Create(&newEntry).Error; dbErr != nil {
			return DeviceSettingsDBEntry{}, fmt.Errorf(
				"failed to setup singleton device settings entry [%w]", dbErr,
			)
		}
		return newEntry, nil
	}
	return entries[0], nil
}

/*
GetDeviceSettings fetch the singleton device settings entry.

If the entry does not exist, default settings are created and persisted.

	@param ctx context.Context - execution context
	@returns the settings
*/
func (d *databaseImpl) GetDeviceSettings(_ context.Context) (models.Settings, error) {
	entry, err := d.getDeviceSettingsEntry()
	if err != nil {
		return entry.Settings, fmt.Errorf("unable to fetch device settings entry [%w]", err)
	}
	return entry.Settings, nil
}

/*
SaveDeviceSettings overwrite the singleton device settings entry

	@param ctx context.Context - execution context
	@param settings models.Settings - the new settings content
	@returns the persisted settings
*/
func (d *databaseImpl) SaveDeviceSettings(
	_ context.Context, settings models.Settings,
) (models.Settings, error) {
	entry, err := d.getDeviceSettingsEntry()
	if err != nil {
		return models.Settings{}, fmt.Errorf("unable to fetch device settings entry [%w]", err)
	}

	settings.CreatedAt = entry.CreatedAt
	entry.Settings = settings

	if err := d.validator.Struct(&entry); err != nil {
		return models.Settings{}, fmt.Errorf("updated device settings are not valid [%w]", err)
	}

	if tmp := d.db.Save(&entry); tmp.Error != nil {
		return models.Settings{}, fmt.Errorf("device settings update failed [%w]", tmp.Error)
	}

	return entry.Settings, nil
}
