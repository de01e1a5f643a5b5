package record_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massbal/massbal/pkg/massbalance"
	"github.com/massbal/massbal/pkg/record"
)

const studyCSV = `API Name,API Code,Stress Type,Time (Months),Temperature (°C),API Assay (%),Degradant A,Degradant B,Assay RSD,Impurity RSD
Drug X,DX-1,Acidic,1,60,98.0,1.5,0.5,1.0,1.0
Drug X,DX-1,Basic,1,60,90.0,2.0,1.0,1.0,1.0
,,,,,,,,,
Drug X,DX-1,Thermal,3,80,97.0,9.0,,1.0,1.0
`

func TestReadCSV_AliasesAndDegradantSum(t *testing.T) {
	tbl, err := record.ReadCSV(strings.NewReader(studyCSV), record.Options{})
	require.NoError(t, err)
	require.True(t, tbl.Valid(), "errors: %v", tbl.Errors)
	require.Len(t, tbl.Records, 3, "blank rows are dropped")

	assert.Equal(t, []string{"degradant_a", "degradant_b"}, tbl.DegradantColumns)

	first := tbl.Records[0]
	assert.Equal(t, "Drug X", first.APIName)
	assert.Equal(t, "DX-1", first.APICode)
	assert.Equal(t, "Acidic", first.StressCondition)
	assert.Equal(t, 98.0, first.APIAssayPct)
	assert.Equal(t, 2.0, first.TotalDegradantsPct)
	assert.Equal(t, 60.0, first.TemperatureC)
	assert.Equal(t, 1.0, first.TimeMonths)

	assert.Equal(t, 3.0, tbl.Records[1].TotalDegradantsPct)
	assert.Equal(t, 9.0, tbl.Records[2].TotalDegradantsPct, "empty peak means not detected")
}

func TestReadCSV_MissingRequiredColumn(t *testing.T) {
	_, err := record.ReadCSV(strings.NewReader("stress,time\nacidic,1\n"), record.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, massbalance.ErrInvalidInput)

	var ve *massbalance.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, -1, ve.Row)
	assert.Contains(t, ve.Field, record.ColAPIAssay)
	assert.Contains(t, ve.Field, record.ColTotalDegradants)
}

func TestReadCSV_RowErrorsKeepIndices(t *testing.T) {
	in := "stress;assay;total_degradants;assay_rsd;impurity_rsd\n" +
		"acidic;n/a;2;1;1\n" +
		"basic;95,5;3%;-1;1\n" +
		"thermal;97;;1;1\n"

	tbl, err := record.ReadCSV(strings.NewReader(in), record.Options{})
	require.NoError(t, err)
	require.Len(t, tbl.Records, 3)
	assert.Equal(t, 95.5, tbl.Records[1].APIAssayPct, "comma decimal separator")
	assert.Equal(t, 3.0, tbl.Records[1].TotalDegradantsPct, "percent sign stripped")

	require.Len(t, tbl.Errors, 3)
	assert.Equal(t, 0, tbl.Errors[0].Row)
	assert.Equal(t, record.ColAPIAssay, tbl.Errors[0].Field)
	assert.Equal(t, 1, tbl.Errors[1].Row)
	assert.Equal(t, record.ColAssayRSD, tbl.Errors[1].Field)
	assert.Equal(t, 2, tbl.Errors[2].Row)
	assert.Equal(t, record.ColTotalDegradants, tbl.Errors[2].Field)

	entries := tbl.Entries()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.ErrorIs(t, e.Err, massbalance.ErrInvalidInput)
	}
}

func TestReadCSV_MalformedRowIsRowError(t *testing.T) {
	in := "stress,assay,total_degradants,assay_rsd,impurity_rsd\n" +
		"thermal,98,2,1,1\n" +
		"\"acidic\"x,97,1,1,1\n" +
		"basic,96,3,1,1\n"

	tbl, err := record.ReadCSV(strings.NewReader(in), record.Options{})
	require.NoError(t, err)
	require.Len(t, tbl.Records, 3)
	assert.Equal(t, "thermal", tbl.Records[0].StressCondition)
	assert.Equal(t, "basic", tbl.Records[2].StressCondition)
	assert.Equal(t, 96.0, tbl.Records[2].APIAssayPct)

	require.Len(t, tbl.Errors, 1)
	assert.Equal(t, 1, tbl.Errors[0].Row)
	assert.Contains(t, tbl.Errors[0].Message, "malformed row")
	assert.ErrorIs(t, tbl.Entries()[1].Err, massbalance.ErrInvalidInput)
	assert.NoError(t, tbl.Entries()[2].Err)
}

func TestReadCSV_DefaultRSD(t *testing.T) {
	in := "stress,assay,degradants\nacidic,98,2\n"
	tbl, err := record.ReadCSV(strings.NewReader(in), record.Options{DefaultAssayRSD: 0.5, DefaultImpurityRSD: 1.5})
	require.NoError(t, err)
	require.Len(t, tbl.Records, 1)
	assert.Equal(t, 0.5, tbl.Records[0].AssayRSDPct)
	assert.Equal(t, 1.5, tbl.Records[0].ImpurityRSDPct)
}

func TestReadJSON(t *testing.T) {
	in := `[
		{"Stress Type": "oxidative", "API Assay": 92.5, "Total Degradants": "4.5", "Assay RSD": 1, "Impurity RSD": 1},
		{},
		{"stress": "photolytic", "time": 2},
		{"stress": "thermal", "assay": 97, "degradant_1": 1, "degradant_2": 2}
	]`
	tbl, err := record.ReadJSON(strings.NewReader(in), record.Options{})
	require.NoError(t, err)
	require.Len(t, tbl.Records, 3)

	assert.Equal(t, "oxidative", tbl.Records[0].StressCondition)
	assert.Equal(t, 92.5, tbl.Records[0].APIAssayPct)
	assert.Equal(t, 4.5, tbl.Records[0].TotalDegradantsPct)
	assert.Equal(t, 3.0, tbl.Records[2].TotalDegradantsPct)
	assert.Equal(t, []string{"degradant_1", "degradant_2"}, tbl.DegradantColumns)

	require.Len(t, tbl.Errors, 1)
	assert.Equal(t, 1, tbl.Errors[0].Row)
	assert.Equal(t, "missing required column", tbl.Errors[0].Message)
}

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		"API Assay (%)":        record.ColAPIAssay,
		" assay_percent ":      record.ColAPIAssay,
		"Stress_Typ":           record.ColStress,
		"Time (Months)":        record.ColTimeMonths,
		"Temperature (°C)":     record.ColTemperature,
		"Total Degradants (%)": record.ColTotalDegradants,
		"Degradant RSD":        record.ColImpurityRSD,
		"Degradant A":          "degradant_a",
		"\ufeffStress":        record.ColStress,
	}
	for in, want := range tests {
		assert.Equal(t, want, record.NormalizeColumn(in), in)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"98.5", 98.5, true},
		{" 2.0 % ", 2.0, true},
		{"1,25", 1.25, true},
		{"1,000.5", 1000.5, true},
		{"1.234,5", 1234.5, true},
		{"1.234.567,8", 1234567.8, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"-0,5 %", -0.5, true},
		{"1e-2", 0.01, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range tests {
		got, ok := record.ParseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestLoadFileAndWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "study.csv")
	require.NoError(t, os.WriteFile(path, []byte(studyCSV), 0o644))

	tbl, err := record.LoadFile(path, record.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, record.WriteCSV(&buf, tbl.Records))

	again, err := record.ReadCSV(&buf, record.Options{})
	require.NoError(t, err)
	assert.Equal(t, tbl.Records, again.Records)

	_, err = record.LoadFile(filepath.Join(dir, "study.xlsx"), record.Options{})
	assert.Error(t, err)
}
