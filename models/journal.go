package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// JournalEventTypeENUMType device journal event type ENUM value type
type JournalEventTypeENUMType string

const (
	// JournalEventTypeRecordingCreated a recording was finalized and persisted
	JournalEventTypeRecordingCreated JournalEventTypeENUMType = "RECORDING_CREATED"

	// JournalEventTypeRecordingDeleted a recording was deleted
	JournalEventTypeRecordingDeleted JournalEventTypeENUMType = "RECORDING_DELETED"

	// JournalEventTypeRecordingUploaded a recording was forwarded to remote storage
	JournalEventTypeRecordingUploaded JournalEventTypeENUMType = "RECORDING_UPLOADED"

	// JournalEventTypeUploadFailed a remote forward attempt failed
	JournalEventTypeUploadFailed JournalEventTypeENUMType = "UPLOAD_FAILED"

	// JournalEventTypeSubscriptionChanged the subscription status changed
	JournalEventTypeSubscriptionChanged JournalEventTypeENUMType = "SUBSCRIPTION_CHANGED"

	// JournalEventTypeDataImported an export bundle was imported
	JournalEventTypeDataImported JournalEventTypeENUMType = "DATA_IMPORTED"

	// JournalEventTypeDataCleared the archive was wiped
	JournalEventTypeDataCleared JournalEventTypeENUMType = "DATA_CLEARED"
)

// DeviceJournalEntry recording of notable events occurring on this device
type DeviceJournalEntry struct {
	// ID journal entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType journal event type
	EventType JournalEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,journal_event_type"`
	// Metadata metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseMetadata parse the metadata based on the event type
func (e DeviceJournalEntry) ParseMetadata(validator *validator.Validate) (interface{}, error) {
	switch e.EventType {
	case JournalEventTypeRecordingCreated:
		fallthrough
	case JournalEventTypeRecordingDeleted:
		fallthrough
	case JournalEventTypeRecordingUploaded:
		fallthrough
	case JournalEventTypeUploadFailed:
		var parsed JournalEventRecordingRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("journal event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	case JournalEventTypeSubscriptionChanged:
		var parsed JournalEventSubscriptionRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("journal event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)
	}
	return nil, nil
}

// JournalEventRecordingRelated journal event metadata related to a recording
type JournalEventRecordingRelated struct {
	// RecordingID the recording ID
	RecordingID string `json:"recording_id" validate:"required"`
	// Detail optional free-form detail, e.g. the swallowed upload error
	Detail string `json:"detail,omitempty"`
}

// JournalEventSubscriptionRelated journal event metadata related to the subscription
type JournalEventSubscriptionRelated struct {
	// NewStatus the subscription status after the change
	NewStatus SubscriptionStatusENUMType `json:"new_status" validate:"required,subscription_status"`
}
