package models

import "time"

// MediaKindENUMType capture media kind ENUM value type
type MediaKindENUMType string

const (
	// MediaKindAudio audio-only capture
	MediaKindAudio MediaKindENUMType = "audio"
	// MediaKindVideo audio+video capture
	MediaKindVideo MediaKindENUMType = "video"
)

// RecordingQualityENUMType capture quality ENUM value type
type RecordingQualityENUMType string

const (
	// RecordingQualityStandard standard capture quality
	RecordingQualityStandard RecordingQualityENUMType = "standard"
	// RecordingQualityHigh high capture quality
	RecordingQualityHigh RecordingQualityENUMType = "high"
)

// LocationSnapshot where a recording was made, or where the device currently is
type LocationSnapshot struct {
	// Latitude decimal degrees
	Latitude float64 `json:"latitude"`
	// Longitude decimal degrees
	Longitude float64 `json:"longitude"`
	// Accuracy position accuracy in meters, when the device tier reported one
	Accuracy *float64 `json:"accuracy,omitempty"`
	// City city name
	City string `json:"city"`
	// State two-letter US state code
	State string `json:"state" validate:"omitempty,us_state"`
	// StateName full state name
	StateName string `json:"state_name,omitempty"`
	// Country country name
	Country string `json:"country,omitempty"`
	// CountryCode ISO country code
	CountryCode string `json:"country_code,omitempty"`
	// Timezone IANA timezone reported by the IP tier
	Timezone string `json:"timezone,omitempty"`
	// Method which resolution tier produced this snapshot
	Method LocationMethodENUMType `json:"method" validate:"required,location_method"`
}

// LocationMethodENUMType location resolution tier ENUM value type
type LocationMethodENUMType string

const (
	// LocationMethodGeocoding device coordinates reverse-geocoded
	LocationMethodGeocoding LocationMethodENUMType = "geocoding"
	// LocationMethodIP IP-based lookup
	LocationMethodIP LocationMethodENUMType = "ip"
	// LocationMethodDefault static fallback location
	LocationMethodDefault LocationMethodENUMType = "default"
	// LocationMethodManual caller-selected state override
	LocationMethodManual LocationMethodENUMType = "manual"
)

// RecordingMetadata capture descriptors attached to a recording
type RecordingMetadata struct {
	// FileSize payload size in bytes
	FileSize int64 `json:"file_size"`
	// Quality capture quality tag
	Quality RecordingQualityENUMType `json:"quality" validate:"required,recording_quality"`
	// DeviceInfo free-form device descriptor
	DeviceInfo string `json:"device_info,omitempty"`
}

// Recording one incident recording. The payload itself is not stored in the
// archive; it lives with the remote pinning collaborator once forwarded, and
// the local entry keeps only the remote reference.
type Recording struct {
	// ID recording ID. ULIDs sort by creation time.
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// UserID the owning user
	UserID string `json:"user_id" gorm:"column:user_id;not null" validate:"required"`

	// StartTime capture start timestamp
	StartTime time.Time `json:"start_time" gorm:"column:start_time;not null"`
	// EndTime capture end timestamp. Must not precede StartTime.
	EndTime time.Time `json:"end_time" gorm:"column:end_time;not null"`
	// Duration whole seconds between start and end
	Duration int64 `json:"duration" gorm:"column:duration;not null" validate:"gte=0"`

	// AudioType audio MIME type. Always set on a finalized recording.
	AudioType *string `json:"audio_type,omitempty" gorm:"column:audio_type;default:null"`
	// VideoType video MIME type, set only for video captures
	VideoType *string `json:"video_type,omitempty" gorm:"column:video_type;default:null"`

	// Notes caller-supplied free text
	Notes string `json:"notes" gorm:"column:notes"`
	// IsFlagged whether the user flagged this recording
	IsFlagged bool `json:"is_flagged" gorm:"column:is_flagged;not null"`

	// Location where the recording was made, when a snapshot was available
	Location *LocationSnapshot `json:"location,omitempty" gorm:"serializer:json;column:location;default:null"`

	// RemoteHash content hash assigned by the pinning collaborator. The remote
	// copy's lifecycle is independent; it may no longer exist.
	RemoteHash *string `json:"remote_hash,omitempty" gorm:"column:remote_hash;default:null"`
	// RemoteGatewayURL retrieval URL for the remote copy
	RemoteGatewayURL *string `json:"remote_gateway_url,omitempty" gorm:"column:remote_gateway_url;default:null"`

	// Metadata capture descriptors
	Metadata RecordingMetadata `json:"metadata" gorm:"serializer:json;column:metadata"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordingUpdate partial recording update. Nil fields are left unchanged.
type RecordingUpdate struct {
	Notes     *string
	IsFlagged *bool
	// RemoteHash double pointer so a caller can explicitly clear the field
	RemoteHash **string
	// RemoteGatewayURL double pointer so a caller can explicitly clear the field
	RemoteGatewayURL **string
	Location         *LocationSnapshot
}
