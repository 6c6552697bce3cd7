package sim

import (
	"errors"

	"readonly-sim/internal/agent"
	"readonly-sim/internal/state"
)

// MultiWriter fan-outs state reports to multiple publishers.
type MultiWriter struct {
	writers []agent.Publisher
}

// NewMultiWriter creates a new MultiWriter. Nil publishers are skipped.
func NewMultiWriter(ws ...agent.Publisher) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range ws {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// Publish sends a report to every publisher, even after one fails, and
// returns the joined errors.
func (mw *MultiWriter) Publish(rec state.Record) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Publish(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
