package agent

import "sync"

// Destination holds the most recently received destination intent. It is
// written from the transport's goroutines and read on the tick path.
type Destination struct {
	mu    sync.RWMutex
	value string
}

// NewDestination returns a slot holding initial.
func NewDestination(initial string) *Destination {
	return &Destination{value: initial}
}

// Set replaces the stored destination.
func (d *Destination) Set(v string) {
	d.mu.Lock()
	d.value = v
	d.mu.Unlock()
}

// Get returns the last value passed to Set, or the initial value.
func (d *Destination) Get() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}
