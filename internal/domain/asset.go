package domain

import (
	"encoding/json"
	"strings"
)

// AssetType identifies one of the rated asset classes.
type AssetType int

const (
	RoadwayIllumination AssetType = iota
	HighwayBuilding
	TrafficSign
	TrafficSignal
	PavementMarking

	assetTypeCount
)

var assetTypeNames = [assetTypeCount]string{
	RoadwayIllumination: "roadway illumination",
	HighwayBuilding:     "highway building",
	TrafficSign:         "traffic sign",
	TrafficSignal:       "traffic signal",
	PavementMarking:     "pavement marking",
}

// AssetTypes lists every asset type in declaration order.
func AssetTypes() []AssetType {
	types := make([]AssetType, 0, assetTypeCount)
	for t := AssetType(0); t < assetTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

// ParseAssetType matches s case-insensitively against the known type names.
func ParseAssetType(s string) (AssetType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range assetTypeNames {
		if s == name {
			return AssetType(t), true
		}
	}
	return 0, false
}

// RequiresMaintenanceDate reports whether the type's rule uses the last
// maintenance date. Highway buildings are rated on FCI alone.
func (t AssetType) RequiresMaintenanceDate() bool {
	return t != HighwayBuilding
}

func (t AssetType) String() string {
	if t < 0 || t >= assetTypeCount {
		return "unknown"
	}
	return assetTypeNames[t]
}

// Condition is the three-level rating label.
type Condition string

const (
	Good Condition = "Good"
	Fair Condition = "Fair"
	Poor Condition = "Poor"
)

// Diagnostic ratings written in place of a Condition when a batch row cannot be rated.
const (
	DiagnosticInvalidAssetType = "Invalid Asset Type"
	DiagnosticNoMaintenance    = "No maintenance data"
	DiagnosticMissingFCI       = "Missing FCI Index"
	DiagnosticMissingRR        = "Missing RR Index"
	diagnosticValidationPrefix = "Validation Error: "
)

// ValidationDiagnostic formats a validation failure as a batch rating string.
func ValidationDiagnostic(err error) string {
	return diagnosticValidationPrefix + err.Error()
}

// AssetRecord is the input to a single rating. Index fields are nil when the
// value was absent or not a number.
type AssetRecord struct {
	Type               AssetType
	InstalledDate      string
	LastMaintainedDate string
	FCIIndex           *float64
	RRIndex            *float64
	Lat                string
	Lng                string
}

// RatedRow is one batch row after rating: the original columns in header
// order plus the rating or diagnostic string.
type RatedRow struct {
	Line    int
	Columns []string
	Values  []string
	Rating  string
}

// Get returns the value of the named column, or "" if the row has no such column.
func (r RatedRow) Get(column string) string {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return ""
}

// Fields returns the original columns as a map.
func (r RatedRow) Fields() map[string]string {
	fields := make(map[string]string, len(r.Columns))
	for i, c := range r.Columns {
		if i < len(r.Values) {
			fields[c] = r.Values[i]
		}
	}
	return fields
}

// MarshalJSON flattens the row into a single object of its columns plus "rating".
func (r RatedRow) MarshalJSON() ([]byte, error) {
	out := r.Fields()
	out["rating"] = r.Rating
	return json.Marshal(out)
}
