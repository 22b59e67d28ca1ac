package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	if err := v.RegisterValidation(
		"subscription_status", validateSubscriptionStatusType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"recording_quality", validateRecordingQualityType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"location_method", validateLocationMethodType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"journal_event_type", validateJournalEventType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"us_state", validateUSStateCode,
	); err != nil {
		return err
	}

	return nil
}

func validateSubscriptionStatusType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch SubscriptionStatusENUMType(fl.Field().String()) {
	case SubscriptionStatusFree:
		fallthrough
	case SubscriptionStatusPremium:
		fallthrough
	case SubscriptionStatusLifetime:
		return true
	}
	return false
}

func validateRecordingQualityType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch RecordingQualityENUMType(fl.Field().String()) {
	case RecordingQualityStandard:
		fallthrough
	case RecordingQualityHigh:
		return true
	}
	return false
}

func validateLocationMethodType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch LocationMethodENUMType(fl.Field().String()) {
	case LocationMethodGeocoding:
		fallthrough
	case LocationMethodIP:
		fallthrough
	case LocationMethodDefault:
		fallthrough
	case LocationMethodManual:
		return true
	}
	return false
}

func validateJournalEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch JournalEventTypeENUMType(fl.Field().String()) {
	case JournalEventTypeRecordingCreated:
		fallthrough
	case JournalEventTypeRecordingDeleted:
		fallthrough
	case JournalEventTypeRecordingUploaded:
		fallthrough
	case JournalEventTypeUploadFailed:
		fallthrough
	case JournalEventTypeSubscriptionChanged:
		fallthrough
	case JournalEventTypeDataImported:
		fallthrough
	case JournalEventTypeDataCleared:
		return true
	}
	return false
}

// usStateCodes the 50 states plus DC
var usStateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true,
}

// IsValidStateCode whether the value is one of the 50 state codes or DC
func IsValidStateCode(code string) bool {
	return usStateCodes[code]
}

func validateUSStateCode(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return IsValidStateCode(fl.Field().String())
}
