package domain

import "math"

// ValidationError describes an input that cannot be rated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidDate(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " must be a valid date string (YYYY-MM-DD)"}
}

func validDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

func validNumber(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// ValidateMaintainedAsset checks the inputs shared by illumination, signs and signals.
func ValidateMaintainedAsset(installedDate, lastMaintainedDate string) error {
	if !validDate(installedDate) {
		return invalidDate("installedDate")
	}
	if !validDate(lastMaintainedDate) {
		return invalidDate("lastMaintainedDate")
	}
	return nil
}

// ValidateRoadwayIllumination checks a roadway illumination record.
func ValidateRoadwayIllumination(installedDate, lastMaintainedDate string) error {
	return ValidateMaintainedAsset(installedDate, lastMaintainedDate)
}

// ValidateTrafficSign checks a traffic sign record.
func ValidateTrafficSign(installedDate, lastMaintainedDate string) error {
	return ValidateMaintainedAsset(installedDate, lastMaintainedDate)
}

// ValidateTrafficSignal checks a traffic signal record.
func ValidateTrafficSignal(installedDate, lastMaintainedDate string) error {
	return ValidateMaintainedAsset(installedDate, lastMaintainedDate)
}

// ValidateHighwayBuilding checks a highway building record. The FCI index has
// no range bound.
func ValidateHighwayBuilding(installedDate string, fciIndex *float64) error {
	if !validDate(installedDate) {
		return invalidDate("installedDate")
	}
	if !validNumber(fciIndex) {
		return &ValidationError{Field: "fciIndex", Message: "fciIndex must be a number"}
	}
	return nil
}

// ValidatePavementMarking checks a pavement marking record.
func ValidatePavementMarking(installedDate, lastMaintainedDate string, rrIndex *float64) error {
	if err := ValidateMaintainedAsset(installedDate, lastMaintainedDate); err != nil {
		return err
	}
	if !validNumber(rrIndex) || *rrIndex < 0 {
		return &ValidationError{Field: "rrIndex", Message: "rrIndex must be a positive number"}
	}
	return nil
}
