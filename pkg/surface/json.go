package surface

import (
	"encoding/json"
	"io"

	"github.com/massbal/massbal/pkg/massbalance"
)

// JSONRenderer marshals Report to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, report *massbalance.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
