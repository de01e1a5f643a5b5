// Package massbalance implements the mass balance diagnostic engine for
// forced-degradation studies. It computes mass balance metrics per sample,
// classifies them into diagnostic zones and attaches a recommended action.
package massbalance

// SampleRecord is one row of stress study data. Immutable once read.
type SampleRecord struct {
	APIName            string  `json:"api_name,omitempty"`
	APICode            string  `json:"api_code,omitempty"`
	StressCondition    string  `json:"stress_condition"`
	APIAssayPct        float64 `json:"api_assay_pct"`
	TotalDegradantsPct float64 `json:"total_degradants_pct"`
	AssayRSDPct        float64 `json:"assay_rsd_pct"`
	ImpurityRSDPct     float64 `json:"impurity_rsd_pct"`
	TemperatureC       float64 `json:"temperature_c"`
	TimeMonths         float64 `json:"time_months"`
}

// MetricSet holds the mass balance metrics derived from a single record.
type MetricSet struct {
	AMB                 float64 `json:"amb"`  // assay + degradants - 100, signed
	AMBD                float64 `json:"ambd"` // |AMB|
	RMB                 float64 `json:"rmb"`  // AMB on a nominal 100% basis
	RMBD                float64 `json:"rmbd"` // |RMB|
	CombinedUncertainty float64 `json:"combined_uncertainty"`

	// ZMB is nil when the combined uncertainty is zero.
	ZMB *float64 `json:"z_mb"`

	// RecoveryRatio is degradant rise per unit of assay loss.
	// Nil when there is no assay loss.
	RecoveryRatio *float64 `json:"recovery_ratio"`
}

// Undetermined reports whether ZMB could not be normalized.
func (m MetricSet) Undetermined() bool { return m.ZMB == nil }

// SignedZMB returns AMB / combined uncertainty and false when undetermined.
func (m MetricSet) SignedZMB() (float64, bool) {
	if m.ZMB == nil {
		return 0, false
	}
	if m.AMB < 0 {
		return -*m.ZMB, true
	}
	return *m.ZMB, true
}

// Zone is a diagnostic outcome classifying the likely cause of a mass
// balance deviation.
type Zone string

const (
	ZoneNormal                Zone = "NORMAL"
	ZoneAnalyticalVariability Zone = "ANALYTICAL_VARIABILITY"
	ZoneMissingDegradants     Zone = "MISSING_DEGRADANTS"
	ZonePhysicalLoss          Zone = "PHYSICAL_LOSS"
	ZoneOverestimation        Zone = "OVERESTIMATION"
	ZoneUndetermined          Zone = "UNDETERMINED"
)

// Zones returns every zone in classification order.
func Zones() []Zone {
	return []Zone{
		ZoneUndetermined,
		ZoneNormal,
		ZoneAnalyticalVariability,
		ZoneMissingDegradants,
		ZonePhysicalLoss,
		ZoneOverestimation,
	}
}

// Valid reports whether z is one of the known zones.
func (z Zone) Valid() bool {
	for _, known := range Zones() {
		if z == known {
			return true
		}
	}
	return false
}

// Label is the human-readable zone name.
func (z Zone) Label() string {
	switch z {
	case ZoneNormal:
		return "Normal"
	case ZoneAnalyticalVariability:
		return "Analytical variability"
	case ZoneMissingDegradants:
		return "Missing degradants"
	case ZonePhysicalLoss:
		return "Physical loss"
	case ZoneOverestimation:
		return "Overestimation"
	case ZoneUndetermined:
		return "Undetermined"
	default:
		return string(z)
	}
}

// Urgency indicates how pressing a recommendation is.
type Urgency string

const (
	UrgencyInformational  Urgency = "informational"
	UrgencyInvestigate    Urgency = "investigate"
	UrgencyActionRequired Urgency = "action-required"
)

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyInformational, UrgencyInvestigate, UrgencyActionRequired:
		return true
	}
	return false
}

// Recommendation is the structured follow-up attached to a zone.
type Recommendation struct {
	Interpretation string  `json:"interpretation"`
	Action         string  `json:"action"`
	Urgency        Urgency `json:"urgency"`
}

// Significance is the statistical reading of the signed Z_MB.
type Significance string

const (
	SignificanceWithin       Significance = "within analytical variability"
	SignificanceMassLoss     Significance = "significant mass loss"
	SignificanceOverRecovery Significance = "significant over-recovery"
	SignificanceUndetermined Significance = "undetermined"
)

// AssembledRow is a record together with everything derived from it.
// Metrics and Recommendation are nil when the row failed.
type AssembledRow struct {
	Index          int             `json:"index"`
	Record         SampleRecord    `json:"record"`
	Metrics        *MetricSet      `json:"metrics,omitempty"`
	Zone           Zone            `json:"zone,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Significance   Significance    `json:"significance,omitempty"`
	StressSeverity float64         `json:"stress_severity"`
	Warnings       []string        `json:"warnings,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// Failed reports whether the row could not be computed.
func (r AssembledRow) Failed() bool { return r.Error != "" }

// ZoneCount is the number of rows assigned to a zone.
type ZoneCount struct {
	Zone  Zone `json:"zone"`
	Count int  `json:"count"`
}

// Report is the output of assembling a batch of records.
type Report struct {
	Rows    []AssembledRow `json:"rows"`
	Errors  []*RowError    `json:"errors,omitempty"`
	Summary []ZoneCount    `json:"summary"`
	// Within counts assembled rows whose |Z_MB| is inside the significance
	// bound. Undetermined rows count against the share, rejected rows do not.
	Within    int     `json:"within_variability"`
	WithinPct float64 `json:"within_variability_pct"`
}

// Count returns the number of rows in zone z.
func (r *Report) Count(z Zone) int {
	for _, zc := range r.Summary {
		if zc.Zone == z {
			return zc.Count
		}
	}
	return 0
}
