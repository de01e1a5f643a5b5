package massbalance

import (
	"maps"
	"strings"
)

// UndeterminedMessage is surfaced for rows whose uncertainty is zero.
const UndeterminedMessage = "insufficient analytical variability data to normalize deviation"

// Resolver maps zones to recommendations. Immutable after construction.
type Resolver struct {
	table map[Zone]Recommendation
}

// NewResolver validates and copies table. Every zone must be mapped to a
// complete recommendation; otherwise ErrConfiguration is returned.
func NewResolver(table map[Zone]Recommendation) (*Resolver, error) {
	for _, z := range Zones() {
		rec, ok := table[z]
		if !ok {
			return nil, configError("no recommendation for zone %s", z)
		}
		if strings.TrimSpace(rec.Interpretation) == "" {
			return nil, configError("recommendation for zone %s has no interpretation", z)
		}
		if strings.TrimSpace(rec.Action) == "" {
			return nil, configError("recommendation for zone %s has no action", z)
		}
		if !rec.Urgency.Valid() {
			return nil, configError("recommendation for zone %s has unknown urgency %q", z, rec.Urgency)
		}
	}
	for z := range table {
		if !z.Valid() {
			return nil, configError("recommendation for unknown zone %q", z)
		}
	}
	return &Resolver{table: maps.Clone(table)}, nil
}

// Recommend returns the recommendation for z. Unknown zones get the
// UNDETERMINED entry.
func (r *Resolver) Recommend(z Zone) Recommendation {
	if rec, ok := r.table[z]; ok {
		return rec
	}
	return r.table[ZoneUndetermined]
}

// Table returns a copy of the lookup table.
func (r *Resolver) Table() map[Zone]Recommendation {
	return maps.Clone(r.table)
}

// DefaultRecommendations returns the stock zone-to-recommendation table.
func DefaultRecommendations() map[Zone]Recommendation {
	return map[Zone]Recommendation{
		ZoneNormal: {
			Interpretation: "Mass balance closes within analytical noise",
			Action:         "No investigation required",
			Urgency:        UrgencyInformational,
		},
		ZoneAnalyticalVariability: {
			Interpretation: "Deviation is plausibly explained by method variability alone",
			Action:         "Confirm method precision with replicate injections; no root-cause investigation needed",
			Urgency:        UrgencyInformational,
		},
		ZoneMissingDegradants: {
			Interpretation: "Unaccounted mass exceeds the observed degradant rise; degradation products are likely undetected",
			Action:         "Search for additional degradants with orthogonal detection (e.g. MS, CAD) and run volatility studies",
			Urgency:        UrgencyActionRequired,
		},
		ZonePhysicalLoss: {
			Interpretation: "Degradant rise tracks assay loss yet total recovered material is short",
			Action:         "Re-assess stress sampling and handling for volatile loss, adsorption or precipitation",
			Urgency:        UrgencyInvestigate,
		},
		ZoneOverestimation: {
			Interpretation: "Assay plus degradants exceed 100% beyond analytical noise, suggesting quantitation bias",
			Action:         "Review response factors, integration parameters and the chromatographic method for co-eluting species",
			Urgency:        UrgencyInvestigate,
		},
		ZoneUndetermined: {
			Interpretation: "Combined uncertainty is zero: " + UndeterminedMessage,
			Action:         "Provide assay and impurity RSD values to normalize the deviation",
			Urgency:        UrgencyInvestigate,
		},
	}
}
