package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/massbal/massbal/pkg/massbalance"
)

// TerminalRenderer renders a Report as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func urgencyColor(u massbalance.Urgency) string {
	if noColor() {
		return ""
	}
	switch u {
	case massbalance.UrgencyInformational:
		return colorGreen
	case massbalance.UrgencyInvestigate:
		return colorYellow
	case massbalance.UrgencyActionRequired:
		return colorRed
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, report *massbalance.Report) error {
	// Header
	fmt.Fprintf(w, "%s\n\n",
		bold(fmt.Sprintf("Mass balance: %d samples — %d flagged", len(report.Rows), flagged(report))))

	if assessed := len(report.Rows) - len(report.Errors); assessed > 0 {
		fmt.Fprintf(w, "Within analytical variability: %.1f%% (%d of %d)\n\n", report.WithinPct, report.Within, assessed)
	}

	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No samples.")
		fmt.Fprintln(w)
		return nil
	}

	// Rows
	fmt.Fprintf(w, "  %-4s %-14s %8s %8s %8s %7s  %-24s %s\n", "#", "Stress", "Assay%", "Deg%", "AMB", "Z_MB", "Zone", "Z_MB interpretation")
	for _, row := range report.Rows {
		cond := truncate(row.Record.StressCondition, 14)
		if row.Failed() {
			fmt.Fprintf(w, "  %-4d %-14s %8.2f %8.2f %8s %7s  %s\n",
				row.Index, cond, row.Record.APIAssayPct, row.Record.TotalDegradantsPct, "-", "-",
				colored("ERROR", urgencyColor(massbalance.UrgencyActionRequired)))
			continue
		}
		// pad before coloring so escape codes don't break alignment
		zone := fmt.Sprintf("%-24s", row.Zone.Label())
		fmt.Fprintf(w, "  %-4d %-14s %8.2f %8.2f %+8.2f %7s  %s %s\n",
			row.Index, cond, row.Record.APIAssayPct, row.Record.TotalDegradantsPct,
			row.Metrics.AMB, formatZMB(row.Metrics),
			colored(zone, urgencyColor(row.Recommendation.Urgency)), row.Significance)
	}
	fmt.Fprintln(w)

	// Recommendations per zone
	advice := zonesPresent(report)
	if len(advice) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, za := range advice {
			fmt.Fprintf(w, "  %s %s (%d) [%s]\n",
				colored("●", urgencyColor(za.Rec.Urgency)), bold(za.Zone.Label()), za.Count, za.Rec.Urgency)
			for _, line := range wrapText(za.Rec.Interpretation, 70) {
				fmt.Fprintf(w, "    %s\n", dim(line))
			}
			for i, line := range wrapText(za.Rec.Action, 70) {
				prefix := "  "
				if i == 0 {
					prefix = "→ "
				}
				fmt.Fprintf(w, "    %s%s\n", prefix, line)
			}
		}
		fmt.Fprintln(w)
	}

	// Data quality
	hasWarnings := false
	for _, row := range report.Rows {
		if len(row.Warnings) == 0 {
			continue
		}
		if !hasWarnings {
			fmt.Fprintln(w, "Data quality:")
			hasWarnings = true
		}
		fmt.Fprintf(w, "  row %d: %s\n", row.Index, strings.Join(row.Warnings, ", "))
	}
	if hasWarnings {
		fmt.Fprintln(w)
	}

	// Failures
	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "Rejected rows:")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s\n", colored(e.Error(), urgencyColor(massbalance.UrgencyActionRequired)))
		}
		fmt.Fprintln(w)
	}

	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
