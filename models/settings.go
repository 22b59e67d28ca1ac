package models

import "time"

// Settings device-wide configuration. Singleton; defaulted on first read.
type Settings struct {
	// Theme UI theme name
	Theme string `json:"theme" gorm:"column:theme;not null" validate:"required"`
	// Language content language
	Language string `json:"language" gorm:"column:language;not null" validate:"required"`
	// DefaultState default US state code
	DefaultState string `json:"default_state" gorm:"column:default_state;not null" validate:"required,us_state"`
	// AutoLocation whether location is resolved automatically
	AutoLocation bool `json:"auto_location" gorm:"column:auto_location;not null"`
	// Notifications whether notifications are enabled
	Notifications bool `json:"notifications" gorm:"column:notifications;not null"`
	// RecordingQuality capture quality for new recordings
	RecordingQuality RecordingQualityENUMType `json:"recording_quality" gorm:"column:recording_quality;not null" validate:"required,recording_quality"`
	// AutoUpload forward every finalized recording to the pinning collaborator
	AutoUpload bool `json:"auto_upload" gorm:"column:auto_upload;not null"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsUpdate partial settings update. Nil fields are left unchanged.
type SettingsUpdate struct {
	Theme            *string
	Language         *string
	DefaultState     *string
	AutoLocation     *bool
	Notifications    *bool
	RecordingQuality *RecordingQualityENUMType
	AutoUpload       *bool
}

// DefaultSettings the settings written on first read
func DefaultSettings() Settings {
	return Settings{
		Theme:            "light",
		Language:         "english",
		DefaultState:     "CA",
		AutoLocation:     true,
		Notifications:    true,
		RecordingQuality: RecordingQualityHigh,
		AutoUpload:       false,
	}
}

// DefaultPreferences the profile preferences written on first read
func DefaultPreferences() Preferences {
	return Preferences{
		Language:      "english",
		DefaultState:  "CA",
		Notifications: true,
		AutoLocation:  true,
	}
}
