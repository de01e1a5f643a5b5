package record

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/massbal/massbal/pkg/massbalance"
)

// ReadJSON reads a JSON array of objects keyed by column name. Keys go
// through the same alias table as CSV headers. Because each object carries
// its own keys, a missing required column is reported against that row.
func ReadJSON(r io.Reader, opts Options) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}

	t := &Table{}
	seenDeg := make(map[string]bool)
	for _, obj := range objs {
		if len(obj) == 0 {
			continue
		}
		row := len(t.Records)
		header := sortedKeys(obj)
		cells := make([]string, len(header))
		for i, k := range header {
			cells[i] = cellString(obj[k])
		}
		if blank(cells) {
			continue
		}

		b, err := newBinder(header, opts)
		if err != nil {
			ve := err.(*massbalance.ValidationError)
			ve.Row = row
			t.Records = append(t.Records, massbalance.SampleRecord{})
			t.Errors = append(t.Errors, ve)
			continue
		}
		for _, name := range b.degNames {
			if !seenDeg[name] {
				seenDeg[name] = true
				t.DegradantColumns = append(t.DegradantColumns, name)
			}
		}

		rec, errs := b.bind(row, cells)
		t.Records = append(t.Records, rec)
		t.Errors = append(t.Errors, errs...)
	}
	return t, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
