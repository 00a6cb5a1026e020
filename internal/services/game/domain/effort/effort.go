// Package effort implements the pure accrual math that converts submitted
// activity into work units, effort, and blended expertise.
//
// All functions are deterministic and side-effect free. Values are plain
// float64 with no rounding beyond native double precision; callers that need
// display rounding do it at the presentation boundary.
package effort

import apperrors "github.com/valithor/inabsentia/internal/platform/errors"

// secondsPerWorkUnit normalizes active time: one work unit per active minute.
const secondsPerWorkUnit = 60.0

var (
	// ErrInvalidReferenceValue indicates a non-positive efficiency baseline.
	ErrInvalidReferenceValue = apperrors.New(apperrors.CodeEffortInvalidReferenceValue, "reference value must be greater than zero")
	// ErrNegativeStamina indicates a negative stamina drain input.
	ErrNegativeStamina = apperrors.New(apperrors.CodeEffortNegativeStamina, "stamina drained must be non-negative")
	// ErrNegativeEfficiency indicates a negative efficiency input.
	ErrNegativeEfficiency = apperrors.New(apperrors.CodeEffortNegativeEfficiency, "efficiency must be non-negative")
	// ErrNegativeSeconds indicates a negative active-seconds input.
	ErrNegativeSeconds = apperrors.New(apperrors.CodeEffortNegativeSeconds, "active seconds must be non-negative")
)

// Share pairs one contributor's accumulated effort with their expertise value
// for effort-proportional blending.
type Share struct {
	Effort    float64
	Expertise float64
}

// Efficiency computes relevantStat / referenceValue.
// Efficiency is undefined when the reference baseline is non-positive.
func Efficiency(relevantStat, referenceValue float64) (float64, error) {
	if referenceValue <= 0 {
		return 0, ErrInvalidReferenceValue
	}
	return relevantStat / referenceValue, nil
}

// Generate computes staminaDrained * efficiency.
// Effort is a non-negative accumulation, so both inputs must be non-negative.
func Generate(staminaDrained, efficiency float64) (float64, error) {
	if staminaDrained < 0 {
		return 0, ErrNegativeStamina
	}
	if efficiency < 0 {
		return 0, ErrNegativeEfficiency
	}
	return staminaDrained * efficiency, nil
}

// WeightedExpertise blends contributor expertise proportionally to effort:
// a contributor who supplied more effort counts more toward the result.
// Returns exactly 0.0 when total effort is non-positive, including the
// empty-input case, rather than dividing by zero.
func WeightedExpertise(shares []Share) float64 {
	totalEffort := 0.0
	for _, s := range shares {
		totalEffort += s.Effort
	}
	if totalEffort <= 0 {
		return 0.0
	}

	weighted := 0.0
	for _, s := range shares {
		weighted += (s.Effort / totalEffort) * s.Expertise
	}
	return weighted
}

// WorkUnitsFromActiveSeconds converts active time into work units.
func WorkUnitsFromActiveSeconds(seconds int64) (float64, error) {
	if seconds < 0 {
		return 0, ErrNegativeSeconds
	}
	return float64(seconds) / secondsPerWorkUnit, nil
}
