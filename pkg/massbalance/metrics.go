package massbalance

import "math"

// nominal is the 100% label claim basis for assay and degradants.
const nominal = 100.0

// Compute derives the mass balance metrics for a record.
// It fails with ErrInvalidInput on negative RSDs or non-finite numbers.
func Compute(r SampleRecord) (MetricSet, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"api_assay", r.APIAssayPct},
		{"total_degradants", r.TotalDegradantsPct},
		{"assay_rsd", r.AssayRSDPct},
		{"impurity_rsd", r.ImpurityRSDPct},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return MetricSet{}, invalidInput("%s is not a finite number", f.name)
		}
	}
	if r.AssayRSDPct < 0 {
		return MetricSet{}, invalidInput("assay_rsd must be non-negative, got %g", r.AssayRSDPct)
	}
	if r.ImpurityRSDPct < 0 {
		return MetricSet{}, invalidInput("impurity_rsd must be non-negative, got %g", r.ImpurityRSDPct)
	}

	amb := r.APIAssayPct + r.TotalDegradantsPct - nominal
	// Percent of the nominal basis; the scale factor is exactly 1 here.
	rmb := amb * (100 / nominal)

	m := MetricSet{
		AMB:                 amb,
		AMBD:                math.Abs(amb),
		RMB:                 rmb,
		RMBD:                math.Abs(rmb),
		CombinedUncertainty: CombinedUncertainty(r.AssayRSDPct, r.ImpurityRSDPct),
	}

	if m.CombinedUncertainty > 0 {
		z := m.AMBD / m.CombinedUncertainty
		m.ZMB = &z
	}

	if loss := nominal - r.APIAssayPct; loss > 0 {
		ratio := r.TotalDegradantsPct / loss
		m.RecoveryRatio = &ratio
	}

	// Finite inputs can still overflow, e.g. a subnormal RSD divides AMBD to +Inf.
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"amb", &m.AMB},
		{"combined_uncertainty", &m.CombinedUncertainty},
		{"z_mb", m.ZMB},
		{"recovery_ratio", m.RecoveryRatio},
	} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return MetricSet{}, invalidInput("%s is not finite for these inputs", f.name)
		}
	}

	return m, nil
}

// CombinedUncertainty propagates assay and impurity RSDs by root sum of squares.
func CombinedUncertainty(assayRSD, impurityRSD float64) float64 {
	return math.Hypot(assayRSD, impurityRSD)
}

// StressSeverity is the contextual severity index of a stress condition:
// temperature x time x factor. It never feeds classification.
func StressSeverity(r SampleRecord, factor float64) float64 {
	return r.TemperatureC * r.TimeMonths * factor
}
