package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"readonly-sim/internal/state"
)

// JSONStdoutWriter prints state reports as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Publish outputs a state report in JSON format.
func (w *JSONStdoutWriter) Publish(rec state.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
