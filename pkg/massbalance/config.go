package massbalance

import "math"

// Thresholds holds the zone boundaries used by the classifier.
type Thresholds struct {
	// NormalZMax: Z_MB at or below this closes within analytical noise.
	NormalZMax float64
	// ModerateZMax: Z_MB at or below this is explained by method variability.
	ModerateZMax float64
	// MissingDegradantRatio: with a mass deficit beyond ModerateZMax, a
	// recovery ratio at or below this means degradants went undetected;
	// above it the mass left the sample physically.
	MissingDegradantRatio float64
	// SignificanceZ is the |signed Z_MB| bound for statistical significance.
	SignificanceZ float64
}

// DefaultThresholds returns the default zone boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NormalZMax:            1.0,
		ModerateZMax:          3.0,
		MissingDegradantRatio: 0.8,
		SignificanceZ:         2.0,
	}
}

// Validate checks that the thresholds describe a usable, ordered partition.
func (t Thresholds) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"normal_z_max", t.NormalZMax},
		{"moderate_z_max", t.ModerateZMax},
		{"missing_degradant_ratio", t.MissingDegradantRatio},
		{"significance_z", t.SignificanceZ},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return configError("threshold %s must be a non-negative finite number, got %g", f.name, f.v)
		}
	}
	if t.ModerateZMax < t.NormalZMax {
		return configError("moderate_z_max (%g) must not be below normal_z_max (%g)", t.ModerateZMax, t.NormalZMax)
	}
	return nil
}
