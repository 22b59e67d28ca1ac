package db

import (
	"context"
	"fmt"

	"github.com/alwitt/witness/models"
	"github.com/google/uuid"
)

// getDeviceProfileEntry fetch the device profile entry
//
// If the entry does not exist, initialize a new one with defaults.
func (d *databaseImpl) getDeviceProfileEntry() (DeviceProfileDBEntry, error) {
	var entries []DeviceProfileDBEntry
	dbErr := d.db.Where("entry_id = ?", GlobalDeviceProfileEntryID).Find(&entries).Error
	if dbErr != nil {
		return DeviceProfileDBEntry{}, fmt.Errorf("failed to read device profile table [%w]", dbErr)
	}
	if len(entries) == 0 {
		// Make a new one
		newEntry := DeviceProfileDBEntry{
			EntryID: GlobalDeviceProfileEntryID,
			UserProfile: models.UserProfile{
				UserID:             uuid.NewString(),
				SubscriptionStatus: models.SubscriptionStatusFree,
				Preferences:        models.DefaultPreferences(),
			},
		}
		if err := d.validator.Struct(&newEntry); err != nil {
			return DeviceProfileDBEntry{}, fmt.Errorf("default device profile is not valid [%w]", err)
		}
		if dbErr = d.db.Create(&newEntry).Error; dbErr != nil {
			return DeviceProfileDBEntry{}, fmt.Errorf(
				"failed to setup singleton device profile entry [%w]", dbErr,
			)
		}
		return newEntry, nil
	}
	return entries[0], nil
}

/*
GetDeviceProfile fetch the singleton device profile entry.

If the entry does not exist, a default profile is created and persisted.

	@param ctx context.Context - execution context
	@returns the profile
*/
func (d *databaseImpl) GetDeviceProfile(_ context.Context) (models.UserProfile, error) {
	entry, err := d.getDeviceProfileEntry()
	if err != nil {
		return entry.UserProfile, fmt.Errorf("unable to fetch device profile entry [%w]", err)
	}
	return entry.UserProfile, nil
}

/*
SaveDeviceProfile overwrite the singleton device profile entry

	@param ctx context.Context - execution context
	@param profile models.UserProfile - the new profile content
	@returns the persisted profile
*/
func (d *databaseImpl) SaveDeviceProfile(
	_ context.Context, profile models.UserProfile,
) (models.UserProfile, error) {
	entry, err := d.getDeviceProfileEntry()
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("unable to fetch device profile entry [%w]", err)
	}

	// The user ID is assigned once and never changes
	profile.UserID = entry.UserID
	profile.CreatedAt = entry.CreatedAt
	entry.UserProfile = profile

	if err := d.validator.Struct(&entry); err != nil {
		return models.UserProfile{}, fmt.Errorf("updated device profile is not valid [%w]", err)
	}

	if tmp := d.db.Where("entry_id = ?", GlobalDeviceProfileEntryID).Save(&entry); tmp.Error != nil {
		return models.UserProfile{}, fmt.Errorf("device profile update failed [%w]", tmp.Error)
	}

	return entry.UserProfile, nil
}

/*
ReplaceDeviceProfile overwrite the singleton device profile entry verbatim.

Unlike SaveDeviceProfile, the stored user ID and creation time are replaced
by the given profile's. Meant for archive restoration.

	@param ctx context.Context - execution context
	@param profile models.UserProfile - the new profile content
	@returns the persisted profile
*/
func (d *databaseImpl) ReplaceDeviceProfile(
	_ context.Context, profile models.UserProfile,
) (models.UserProfile, error) {
	entry, err := d.getDeviceProfileEntry()
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("unable to fetch device profile entry [%w]", err)
	}

	entry.UserProfile = profile

	if err := d.validator.Struct(&entry); err != nil {
		return models.UserProfile{}, fmt.Errorf("replacement device profile is not valid [%w]", err)
	}

	if tmp := d.db.Where("entry_id = ?", GlobalDeviceProfileEntryID).Save(&entry); tmp.Error != nil {
		return models.UserProfile{}, fmt.Errorf("device profile replacement failed [%w]", tmp.Error)
	}

	return entry.UserProfile, nil
}
