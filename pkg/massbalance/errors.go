package massbalance

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a record that cannot be computed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration marks an unusable threshold set or recommendation table.
	ErrConfiguration = errors.New("configuration error")
)

// ValidationError describes a single problem with a record field.
// Row is -1 when the problem applies to the whole table.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	switch {
	case e.Row < 0 && e.Field != "":
		return fmt.Sprintf("column %s: %s", e.Field, e.Message)
	case e.Row < 0:
		return e.Message
	case e.Field != "":
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	default:
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// RowError is a row-level failure collected during assembly.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// MarshalJSON renders the error message as a string.
func (e *RowError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	}{Index: e.Index, Error: e.Err.Error()})
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
