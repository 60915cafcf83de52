// Package domain rates the condition of transportation infrastructure assets.
//
// # Asset Types
//
// Five asset classes are rated, each identified in input data by a
// case-insensitive type string:
//
//	roadway illumination | highway building | traffic sign | traffic signal | pavement marking
//
// Any other value is not an asset type. Batch processing reports such rows as
// "Invalid Asset Type" rather than failing.
//
// # Age and Recency
//
// Age is a calendar-year subtraction: currentYear - installedYear. Month and
// day are ignored, so an asset installed in December is the same age as one
// installed in January of the same year. Future installation dates give a
// negative age and are not clamped.
//
// An asset is recently maintained when its last maintenance happened at most
// 540 days (about 18 months) before now. Maintenance dates in the future count
// as recent. Unparsable maintenance dates never count as recent.
//
// # Rating Rules
//
// Each rule is a pure function of (age, recentlyMaintained, index):
//
//	Illumination:  <30 Good | 30-39 Good if maintained else Fair | >=40 Fair if maintained else Poor
//	Sign:          <15 Good | 15-24 Good if maintained else Fair | >=25 Fair if maintained else Poor
//	Signal:        <20 Good | 20-29 Good if maintained else Fair | >=30 Fair if maintained else Poor
//	Building:      age<30 and FCI<=5 Good | 30<=age<45 and FCI<15 Fair | otherwise Poor
//	Marking:       see [RatePavementMarking]
//
// The building rule ignores maintenance recency and relies on the Facility
// Condition Index (FCI, lower is better). Pavement markings combine age with
// the retro-reflectivity index (RR, higher is better).
//
// # Dates
//
// Dates are parsed leniently: YYYY-MM-DD with or without zero padding,
// YYYY/MM/DD, month-first M/D/YYYY, datetimes separated by "T" or a space, and
// RFC 3339. Values without a zone are read as UTC. See [ParseDate].
package domain
