package pipeline

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/asset-rating-service/internal/domain"
)

// Diagnostic reasons used as metric labels.
const (
	reasonInvalidAssetType = "invalid_asset_type"
	reasonNoMaintenance    = "no_maintenance_data"
	reasonMissingFCI       = "missing_fci_index"
	reasonMissingRR        = "missing_rr_index"
	reasonValidation       = "validation_error"
)

// rowOutcome is the rating of one row. reason is empty when the row received
// a condition label.
type rowOutcome struct {
	rating    string
	assetType string
	reason    string
}

// classifyRow decides the rating string for a single CSV row. Data-quality
// problems become diagnostic ratings; they never fail the batch.
func classifyRow(rater *domain.Rater, cols assetColumns) rowOutcome {
	at, ok := domain.ParseAssetType(cols.AssetType)
	if !ok {
		return rowOutcome{rating: domain.DiagnosticInvalidAssetType, reason: reasonInvalidAssetType}
	}

	out := rowOutcome{assetType: at.String()}
	rec := domain.AssetRecord{
		Type:               at,
		InstalledDate:      cols.InstalledDate,
		LastMaintainedDate: cols.LastMaintainedDate,
		Lat:                cols.Lat,
		Lng:                cols.Lng,
	}

	switch at {
	case domain.HighwayBuilding:
		if rec.FCIIndex = parseNumber(cols.FCIIndex); rec.FCIIndex == nil {
			out.rating, out.reason = domain.DiagnosticMissingFCI, reasonMissingFCI
			return out
		}
	case domain.PavementMarking:
		// The RR index is checked before the maintenance date.
		if rec.RRIndex = parseNumber(cols.RRIndex); rec.RRIndex == nil {
			out.rating, out.reason = domain.DiagnosticMissingRR, reasonMissingRR
			return out
		}
	}

	if at.RequiresMaintenanceDate() && strings.TrimSpace(cols.LastMaintainedDate) == "" {
		out.rating, out.reason = domain.DiagnosticNoMaintenance, reasonNoMaintenance
		return out
	}

	cond, err := rater.Rate(rec)
	if err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			verr = &domain.ValidationError{Message: err.Error()}
		}
		out.rating, out.reason = domain.ValidationDiagnostic(verr), reasonValidation
		return out
	}
	out.rating = string(cond)
	return out
}

// parseNumber returns nil for blank or non-numeric values. The whole trimmed
// value must be a number: "12abc" is non-numeric, not 12.
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
