package massbalance

import "fmt"

// QualityRules are non-fatal sanity checks on raw records.
type QualityRules struct {
	AssayMin              float64
	AssayMax              float64
	SuspiciousMassBalance float64 // flag when assay + degradants falls below this
}

// DefaultQualityRules returns the default sanity checks.
func DefaultQualityRules() QualityRules {
	return QualityRules{
		AssayMin:              0,
		AssayMax:              100,
		SuspiciousMassBalance: 90,
	}
}

// Check returns the data-quality warnings for r, or nil.
func (q QualityRules) Check(r SampleRecord) []string {
	var warnings []string
	if r.APIAssayPct < q.AssayMin || r.APIAssayPct > q.AssayMax {
		warnings = append(warnings, fmt.Sprintf("API assay %.2f%% out of range [%g, %g]", r.APIAssayPct, q.AssayMin, q.AssayMax))
	}
	if r.TotalDegradantsPct < 0 {
		warnings = append(warnings, "negative degradants")
	}
	if total := r.APIAssayPct + r.TotalDegradantsPct; total < q.SuspiciousMassBalance {
		warnings = append(warnings, fmt.Sprintf("suspicious mass loss: assay + degradants = %.2f%%", total))
	}
	return warnings
}
