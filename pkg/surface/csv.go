package surface

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/massbal/massbal/pkg/massbalance"
)

// CSVRenderer writes the assembled table as flat CSV, one line per row.
type CSVRenderer struct{}

var csvHeader = []string{
	"index", "api_name", "api_code", "stress_type", "time_months", "temperature_c",
	"api_assay", "total_degradants", "assay_rsd", "impurity_rsd",
	"amb", "ambd", "rmb", "rmbd", "combined_uncertainty", "z_mb", "recovery_ratio",
	"significance", "stress_severity", "zone", "urgency", "interpretation", "action",
	"warnings", "error",
}

func (r *CSVRenderer) Render(w io.Writer, report *massbalance.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := cw.Write(csvRow(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(row massbalance.AssembledRow) []string {
	rec := row.Record
	out := []string{
		strconv.Itoa(row.Index), rec.APIName, rec.APICode, rec.StressCondition,
		num(rec.TimeMonths), num(rec.TemperatureC),
		num(rec.APIAssayPct), num(rec.TotalDegradantsPct), num(rec.AssayRSDPct), num(rec.ImpurityRSDPct),
	}

	if m := row.Metrics; m != nil {
		out = append(out, num(m.AMB), num(m.AMBD), num(m.RMB), num(m.RMBD), num(m.CombinedUncertainty),
			optNum(m.ZMB), optNum(m.RecoveryRatio))
	} else {
		out = append(out, "", "", "", "", "", "", "")
	}

	out = append(out, string(row.Significance), num(row.StressSeverity), string(row.Zone))
	if rec := row.Recommendation; rec != nil {
		out = append(out, string(rec.Urgency), rec.Interpretation, rec.Action)
	} else {
		out = append(out, "", "", "")
	}
	return append(out, strings.Join(row.Warnings, "; "), row.Error)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func optNum(f *float64) string {
	if f == nil {
		return ""
	}
	return num(*f)
}
