// Package surface defines output rendering for mass balance reports.
// Implementations handle different output targets: terminal, JSON, Markdown and CSV.
package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/massbal/massbal/pkg/massbalance"
)

// Renderer produces formatted output from a Report.
type Renderer interface {
	// Render writes the formatted report to the writer.
	Render(w io.Writer, report *massbalance.Report) error
}

// ForFormat returns the renderer for an output format name.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text", "terminal":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "csv":
		return &CSVRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json, markdown or csv)", format)
	}
}

// Extension is the file extension for exported reports of a format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return "md"
	case "csv":
		return "csv"
	case "", "text", "terminal":
		return "txt"
	default:
		return "json"
	}
}

func formatZMB(m *massbalance.MetricSet) string {
	if m == nil || m.ZMB == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *m.ZMB)
}

// flagged counts rows that need follow-up: anything not informational, plus failures.
func flagged(report *massbalance.Report) int {
	n := 0
	for _, row := range report.Rows {
		if row.Failed() || (row.Recommendation != nil && row.Recommendation.Urgency != massbalance.UrgencyInformational) {
			n++
		}
	}
	return n
}

// zonesPresent returns the zones that occur in the report, in zone order,
// with the recommendation attached to them.
func zonesPresent(report *massbalance.Report) []zoneAdvice {
	recs := make(map[massbalance.Zone]massbalance.Recommendation)
	for _, row := range report.Rows {
		if row.Recommendation != nil {
			recs[row.Zone] = *row.Recommendation
		}
	}
	var out []zoneAdvice
	for _, zc := range report.Summary {
		if zc.Count == 0 {
			continue
		}
		out = append(out, zoneAdvice{Zone: zc.Zone, Count: zc.Count, Rec: recs[zc.Zone]})
	}
	return out
}

type zoneAdvice struct {
	Zone  massbalance.Zone
	Count int
	Rec   massbalance.Recommendation
}
