package domain

import (
	"fmt"

	"github.com/jonboulle/clockwork"
)

// assetRule pairs the validator and rating rule for one asset type.
type assetRule struct {
	validate func(AssetRecord) error
	rate     func(Factors) Condition
}

// rules is indexed by AssetType. TestRulesCoverEveryAssetType guards against
// a new type being added without an entry.
var rules = [assetTypeCount]assetRule{
	RoadwayIllumination: {
		validate: func(r AssetRecord) error { return ValidateRoadwayIllumination(r.InstalledDate, r.LastMaintainedDate) },
		rate:     RateIllumination,
	},
	HighwayBuilding: {
		validate: func(r AssetRecord) error { return ValidateHighwayBuilding(r.InstalledDate, r.FCIIndex) },
		rate:     RateHighwayBuilding,
	},
	TrafficSign: {
		validate: func(r AssetRecord) error { return ValidateTrafficSign(r.InstalledDate, r.LastMaintainedDate) },
		rate:     RateSign,
	},
	TrafficSignal: {
		validate: func(r AssetRecord) error { return ValidateTrafficSignal(r.InstalledDate, r.LastMaintainedDate) },
		rate:     RateSignal,
	},
	PavementMarking: {
		validate: func(r AssetRecord) error {
			return ValidatePavementMarking(r.InstalledDate, r.LastMaintainedDate, r.RRIndex)
		},
		rate: RatePavementMarking,
	},
}

// Rater validates and rates asset records against an injected clock.
// It holds no mutable state and is safe for concurrent use.
type Rater struct {
	clock clockwork.Clock
}

// NewRater creates a Rater. A nil clock uses real time.
func NewRater(clock clockwork.Clock) *Rater {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Rater{clock: clock}
}

// AssetAge returns the asset's age in calendar years as of now.
func (r *Rater) AssetAge(installedDate string) (int, error) {
	return AssetAge(installedDate, r.clock.Now())
}

// WasRecentlyMaintained reports whether maintenance falls within the recency window.
func (r *Rater) WasRecentlyMaintained(lastMaintainedDate string) bool {
	return WasRecentlyMaintained(lastMaintainedDate, r.clock.Now())
}

// Rate validates rec and applies its asset type's rule. Validation failures
// are returned as *ValidationError.
func (r *Rater) Rate(rec AssetRecord) (Condition, error) {
	rule, err := ruleFor(rec.Type)
	if err != nil {
		return "", err
	}
	if err := rule.validate(rec); err != nil {
		return "", err
	}

	now := r.clock.Now()
	age, err := AssetAge(rec.InstalledDate, now)
	if err != nil {
		return "", invalidDate("installedDate")
	}

	f := Factors{
		Age:                age,
		RecentlyMaintained: WasRecentlyMaintained(rec.LastMaintainedDate, now),
	}
	if rec.FCIIndex != nil {
		f.FCIIndex = *rec.FCIIndex
	}
	if rec.RRIndex != nil {
		f.RRIndex = *rec.RRIndex
	}
	return rule.rate(f), nil
}

func ruleFor(t AssetType) (assetRule, error) {
	if t < 0 || t >= assetTypeCount {
		return assetRule{}, &ValidationError{Field: "assetType", Message: fmt.Sprintf("unknown asset type %d", int(t))}
	}
	return rules[t], nil
}
