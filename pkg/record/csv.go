package record

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/massbal/massbal/pkg/massbalance"
)

// ReadCSV reads a delimited table with a header row. The delimiter is
// sniffed from the header (comma, semicolon or tab). A missing required
// column fails the whole table; cell problems and malformed quoting
// become row-level errors.
func ReadCSV(r io.Reader, opts Options) (*Table, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(4096)

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(peek)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading header: empty input")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	b, err := newBinder(header, opts)
	if err != nil {
		return nil, err
	}

	t := &Table{DegradantColumns: b.degNames}
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			// The reader resumes at the next line, so only this row is lost.
			t.Records = append(t.Records, massbalance.SampleRecord{})
			t.Errors = append(t.Errors, &massbalance.ValidationError{
				Row:     len(t.Records) - 1,
				Message: fmt.Sprintf("malformed row (line %d): %v", pe.StartLine, pe.Err),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.Records), err)
		}
		if blank(cells) {
			continue
		}
		rec, errs := b.bind(len(t.Records), cells)
		t.Records = append(t.Records, rec)
		t.Errors = append(t.Errors, errs...)
	}
	return t, nil
}

func sniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// WriteCSV writes records back out with canonical column names.
func WriteCSV(w io.Writer, records []massbalance.SampleRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		ColAPIName, ColAPICode, ColStress, ColTimeMonths, ColTemperature,
		ColAPIAssay, ColTotalDegradants, ColAssayRSD, ColImpurityRSD,
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.APIName, r.APICode, r.StressCondition,
			formatFloat(r.TimeMonths), formatFloat(r.TemperatureC),
			formatFloat(r.APIAssayPct), formatFloat(r.TotalDegradantsPct),
			formatFloat(r.AssayRSDPct), formatFloat(r.ImpurityRSDPct),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
