package domain

// Reflectivity thresholds for pavement markings.
const (
	goodReflectivity = 100
	fairReflectivity = 50
)

// Factors are the inputs every rating rule is computed from.
type Factors struct {
	Age                int
	RecentlyMaintained bool
	FCIIndex           float64
	RRIndex            float64
}

// ageBandRule rates assets that are Good until goodBefore years, then drop one
// level per band unless recently maintained.
func ageBandRule(goodBefore, fairBefore int) func(Factors) Condition {
	return func(f Factors) Condition {
		switch {
		case f.Age < goodBefore:
			return Good
		case f.Age < fairBefore:
			if f.RecentlyMaintained {
				return Good
			}
			return Fair
		case f.RecentlyMaintained:
			return Fair
		default:
			return Poor
		}
	}
}

var (
	rateIllumination = ageBandRule(30, 40)
	rateSign         = ageBandRule(15, 25)
	rateSignal       = ageBandRule(20, 30)
)

// RateIllumination rates roadway illumination.
func RateIllumination(f Factors) Condition { return rateIllumination(f) }

// RateSign rates a traffic sign.
func RateSign(f Factors) Condition { return rateSign(f) }

// RateSignal rates a traffic signal.
func RateSignal(f Factors) Condition { return rateSignal(f) }

// RateHighwayBuilding rates a building from age and FCI index. Maintenance
// recency is not considered.
func RateHighwayBuilding(f Factors) Condition {
	switch {
	case f.Age < 30 && f.FCIIndex <= 5:
		return Good
	case f.Age >= 30 && f.Age < 45 && f.FCIIndex < 15:
		return Fair
	default:
		return Poor
	}
}

// RatePavementMarking rates a marking from age, maintenance and
// retro-reflectivity:
//   - under 5 years: reflectivity alone decides
//   - 5 to 9 years: reflectivity decides if recently maintained, otherwise capped at Fair
//   - 10 years and older: Fair if recently maintained, otherwise Poor
func RatePavementMarking(f Factors) Condition {
	switch {
	case f.Age < 5:
		return reflectivityCondition(f.RRIndex, Good)
	case f.Age < 10:
		if f.RecentlyMaintained {
			return reflectivityCondition(f.RRIndex, Good)
		}
		return reflectivityCondition(f.RRIndex, Fair)
	case f.RecentlyMaintained:
		return Fair
	default:
		return Poor
	}
}

func reflectivityCondition(rr float64, best Condition) Condition {
	switch {
	case rr >= goodReflectivity && best == Good:
		return Good
	case rr >= fairReflectivity:
		return Fair
	default:
		return Poor
	}
}
