// Package models - persisted data entities
package models

import "time"

// SubscriptionStatusENUMType subscription status ENUM value type
type SubscriptionStatusENUMType string

const (
	// SubscriptionStatusFree no paid subscription
	SubscriptionStatusFree SubscriptionStatusENUMType = "free"
	// SubscriptionStatusPremium active recurring subscription
	SubscriptionStatusPremium SubscriptionStatusENUMType = "premium"
	// SubscriptionStatusLifetime one-time lifetime purchase
	SubscriptionStatusLifetime SubscriptionStatusENUMType = "lifetime"
)

// Preferences user preference settings embedded within the profile
type Preferences struct {
	// Language preferred content language
	Language string `json:"language" validate:"required"`
	// DefaultState default US state code used when location is unknown
	DefaultState string `json:"default_state" validate:"required,us_state"`
	// Notifications whether notifications are enabled
	Notifications bool `json:"notifications"`
	// AutoLocation whether location is resolved automatically
	AutoLocation bool `json:"auto_location"`
}

// UserProfile the device's user profile. Exactly one exists per device
// archive; it is created lazily on first read.
type UserProfile struct {
	// UserID opaque user ID, generated once on first read
	UserID string `json:"user_id" gorm:"column:user_id;not null" validate:"required"`

	// Email optional contact email
	Email *string `json:"email,omitempty" gorm:"column:email;default:null" validate:"omitempty,email"`

	// SubscriptionStatus current subscription tier
	SubscriptionStatus SubscriptionStatusENUMType `json:"subscription_status" gorm:"column:subscription_status;not null" validate:"required,subscription_status"`
	// SubscriptionExpiry when a premium subscription lapses
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty" gorm:"column:subscription_expiry;default:null"`
	// SubscriptionID billing collaborator's subscription reference
	SubscriptionID *string `json:"subscription_id,omitempty" gorm:"column:subscription_id;default:null"`

	// Preferences user preference settings
	Preferences Preferences `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfileUpdate partial profile update. Nil fields are left unchanged.
// Profile fields merge shallowly; `Preferences` merges one level deep via
// `PreferencesUpdate`.
type UserProfileUpdate struct {
	Email              *string
	SubscriptionStatus *SubscriptionStatusENUMType
	// SubscriptionExpiry double pointer so a caller can explicitly clear the field
	SubscriptionExpiry **time.Time
	// SubscriptionID double pointer so a caller can explicitly clear the field
	SubscriptionID **string
	Preferences    *PreferencesUpdate
}

// PreferencesUpdate partial preference update. Nil fields are left unchanged.
type PreferencesUpdate struct {
	Language      *string
	DefaultState  *string
	Notifications *bool
	AutoLocation  *bool
}
