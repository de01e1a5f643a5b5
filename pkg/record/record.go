// Package record turns tabular stress study data into typed sample records.
// Column names are normalized through an alias table, per-peak degradant
// columns are summed, and every cell problem is reported as a validation
// error instead of aborting the table.
package record

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/massbal/massbal/pkg/massbalance"
)

// Canonical column names.
const (
	ColAPIName         = "api_name"
	ColAPICode         = "api_code"
	ColStress          = "stress_type"
	ColTimeMonths      = "time_months"
	ColTemperature     = "temperature_c"
	ColAPIAssay        = "api_assay"
	ColTotalDegradants = "total_degradants"
	ColAssayRSD        = "assay_rsd"
	ColImpurityRSD     = "impurity_rsd"
)

// degradantPrefix marks per-peak degradant columns that are summed into the total.
const degradantPrefix = "degradant_"

var aliases = map[string][]string{
	ColAPIName:         {"api_name", "api"},
	ColAPICode:         {"api_code"},
	ColStress:          {"stress_type", "stress_typ", "stress", "stress_condition", "condition"},
	ColTimeMonths:      {"time_months", "time", "time_mon", "months", "time_month"},
	ColTemperature:     {"temperature_c", "temperature", "temp", "temp_c"},
	ColAPIAssay:        {"api_assay", "api_assay_percent", "assay", "assay_percent", "api_assay_pct"},
	ColTotalDegradants: {"total_degradants", "total_degradant", "degradants", "total_impurities", "total_degradants_pct"},
	ColAssayRSD:        {"assay_rsd", "assay_rsd_pct", "rsd_assay"},
	ColImpurityRSD:     {"impurity_rsd", "impurity_rsd_pct", "rsd_impurity", "degradant_rsd"},
}

var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for canonical, names := range aliases {
		for _, n := range names {
			idx[n] = canonical
		}
	}
	return idx
}()

// Options controls record binding.
type Options struct {
	// DefaultAssayRSD and DefaultImpurityRSD fill in absent or empty RSD cells.
	DefaultAssayRSD    float64
	DefaultImpurityRSD float64
}

// Table is the typed result of reading a data file.
type Table struct {
	Records []massbalance.SampleRecord
	// Errors lists row-level problems. A row with errors is still present in
	// Records so indices line up with the input.
	Errors []*massbalance.ValidationError
	// DegradantColumns are the per-peak columns that were summed, if any.
	DegradantColumns []string
}

// Valid reports whether no row-level problems were found.
func (t *Table) Valid() bool { return len(t.Errors) == 0 }

// Entries pairs each record with its validation errors for the assembler.
func (t *Table) Entries() []massbalance.Entry {
	byRow := make(map[int][]error)
	for _, e := range t.Errors {
		byRow[e.Row] = append(byRow[e.Row], e)
	}
	entries := make([]massbalance.Entry, len(t.Records))
	for i, r := range t.Records {
		entries[i] = massbalance.Entry{Record: r, Err: errors.Join(byRow[i]...)}
	}
	return entries
}

// LoadFile reads records from a CSV or JSON file, chosen by extension.
func LoadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f, opts)
	case ".csv", ".txt", ".tsv":
		return ReadCSV(f, opts)
	default:
		return nil, fmt.Errorf("unsupported record file type %q (want .csv or .json)", filepath.Ext(path))
	}
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	separators    = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeColumn maps a raw header to its canonical name. Unknown headers
// are returned in normalized form.
func NormalizeColumn(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "\ufeff")
	s = parenthetical.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.Trim(separators.ReplaceAllString(s, "_"), "_")
	if canonical, ok := aliasIndex[s]; ok {
		return canonical
	}
	return s
}

func isDegradantColumn(name string) bool {
	return strings.HasPrefix(name, degradantPrefix) && aliasIndex[name] == ""
}

// binder maps the cells of one header layout onto SampleRecord fields.
type binder struct {
	idx        map[string]int
	degradants []int
	degNames   []string
	opts       Options
}

func newBinder(header []string, opts Options) (*binder, error) {
	b := &binder{idx: make(map[string]int), opts: opts}
	for i, h := range header {
		name := NormalizeColumn(h)
		if name == "" {
			continue
		}
		if isDegradantColumn(name) {
			b.degradants = append(b.degradants, i)
			b.degNames = append(b.degNames, name)
			continue
		}
		if _, dup := b.idx[name]; !dup {
			b.idx[name] = i
		}
	}

	var missing []string
	for _, col := range []string{ColStress, ColAPIAssay} {
		if _, ok := b.idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if _, ok := b.idx[ColTotalDegradants]; !ok && len(b.degradants) == 0 {
		missing = append(missing, ColTotalDegradants+" or "+degradantPrefix+"*")
	}
	if len(missing) > 0 {
		return nil, &massbalance.ValidationError{
			Row:     -1,
			Field:   strings.Join(missing, ", "),
			Message: "missing required column",
		}
	}
	return b, nil
}

func (b *binder) cell(cells []string, col string) (string, bool) {
	i, ok := b.idx[col]
	if !ok || i >= len(cells) {
		return "", false
	}
	return strings.TrimSpace(cells[i]), true
}

// bind converts one row. Problems are collected rather than returned early
// so a row reports every bad cell at once.
func (b *binder) bind(row int, cells []string) (massbalance.SampleRecord, []*massbalance.ValidationError) {
	var (
		rec  massbalance.SampleRecord
		errs []*massbalance.ValidationError
	)
	fail := func(field, format string, args ...any) {
		errs = append(errs, &massbalance.ValidationError{Row: row, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	number := func(col string, required bool, def float64) float64 {
		raw, present := b.cell(cells, col)
		if !present || raw == "" {
			if required {
				fail(col, "missing value")
			}
			return def
		}
		v, ok := ParseNumber(raw)
		if !ok {
			fail(col, "cannot parse %q as a number", raw)
			return def
		}
		return v
	}

	rec.APIName, _ = b.cell(cells, ColAPIName)
	rec.APICode, _ = b.cell(cells, ColAPICode)
	rec.StressCondition, _ = b.cell(cells, ColStress)
	if rec.StressCondition == "" {
		fail(ColStress, "missing value")
	}

	rec.APIAssayPct = number(ColAPIAssay, true, 0)
	rec.TimeMonths = number(ColTimeMonths, false, 0)
	rec.TemperatureC = number(ColTemperature, false, 0)
	rec.AssayRSDPct = number(ColAssayRSD, false, b.opts.DefaultAssayRSD)
	rec.ImpurityRSDPct = number(ColImpurityRSD, false, b.opts.DefaultImpurityRSD)

	if _, ok := b.idx[ColTotalDegradants]; ok {
		rec.TotalDegradantsPct = number(ColTotalDegradants, true, 0)
	} else {
		for k, i := range b.degradants {
			if i >= len(cells) || strings.TrimSpace(cells[i]) == "" {
				continue // not detected
			}
			v, ok := ParseNumber(cells[i])
			if !ok {
				fail(b.degNames[k], "cannot parse %q as a number", strings.TrimSpace(cells[i]))
				continue
			}
			rec.TotalDegradantsPct += v
		}
	}

	if rec.AssayRSDPct < 0 {
		fail(ColAssayRSD, "must be non-negative, got %g", rec.AssayRSDPct)
	}
	if rec.ImpurityRSDPct < 0 {
		fail(ColImpurityRSD, "must be non-negative, got %g", rec.ImpurityRSDPct)
	}

	return rec, errs
}

// ParseNumber parses a numeric cell. It accepts surrounding space, a
// trailing percent sign and either "." or "," as the decimal separator.
// When both appear, the last one is the decimal separator and the other
// groups thousands ("1,234.5" and "1.234,5" are both 1234.5).
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, false
	}
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
