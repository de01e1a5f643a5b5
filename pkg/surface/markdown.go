package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/massbal/massbal/pkg/massbalance"
)

// MarkdownRenderer produces a Markdown report suitable for study records
// or pull request comments.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, report *massbalance.Report) error {
	_, err := io.WriteString(w, buildMarkdown(report))
	return err
}

func buildMarkdown(report *massbalance.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Mass balance: %d samples — %d flagged\n\n", len(report.Rows), flagged(report)))

	if assessed := len(report.Rows) - len(report.Errors); assessed > 0 {
		sb.WriteString(fmt.Sprintf("**Within analytical variability:** %.1f%% (%d of %d)\n\n", report.WithinPct, report.Within, assessed))
	}

	// Zone summary
	sb.WriteString("### Zones\n\n")
	sb.WriteString("| Zone | Count |\n|------|-------|\n")
	for _, zc := range report.Summary {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", zc.Zone.Label(), zc.Count))
	}
	sb.WriteString("\n")

	// Results
	sb.WriteString("### Results\n\n")
	sb.WriteString("| # | API | Stress | Assay % | Degradants % | AMB | RMBD | Z_MB | Z_MB interpretation | Zone |\n")
	sb.WriteString("|---|-----|--------|---------|--------------|-----|------|------|---------------------|------|\n")
	for _, row := range report.Rows {
		rec := row.Record
		if row.Failed() {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %.2f | – | – | – | – | rejected |\n",
				row.Index, cell(rec.APIName), cell(rec.StressCondition), rec.APIAssayPct, rec.TotalDegradantsPct))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %.2f | %+.2f | %.2f | %s | %s | %s %s |\n",
			row.Index, cell(rec.APIName), cell(rec.StressCondition), rec.APIAssayPct, rec.TotalDegradantsPct,
			row.Metrics.AMB, row.Metrics.RMBD, formatZMB(row.Metrics), row.Significance,
			urgencyIcon(row.Recommendation.Urgency), row.Zone.Label()))
	}
	sb.WriteString("\n")

	// Recommendations
	if advice := zonesPresent(report); len(advice) > 0 {
		sb.WriteString("### Recommendations\n\n")
		for _, za := range advice {
			sb.WriteString(fmt.Sprintf("- %s **%s** (%d, %s): %s. %s.\n",
				urgencyIcon(za.Rec.Urgency), za.Zone.Label(), za.Count, za.Rec.Urgency,
				za.Rec.Interpretation, za.Rec.Action))
		}
		sb.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		sb.WriteString("### Rejected rows\n\n")
		for _, e := range report.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", cell(e.Error())))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func urgencyIcon(u massbalance.Urgency) string {
	switch u {
	case massbalance.UrgencyActionRequired:
		return ":red_circle:"
	case massbalance.UrgencyInvestigate:
		return ":orange_circle:"
	default:
		return ":green_circle:"
	}
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
