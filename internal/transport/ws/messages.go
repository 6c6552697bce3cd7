package ws

import "readonly-sim/internal/state"

// Frame types.
const (
	TypeDestination = "destination"
	TypeState       = "state"
	TypeError       = "error"
)

// DestinationMsg is sent by clients to change an agent's destination intent.
type DestinationMsg struct {
	Type        string `json:"type"`
	Agent       string `json:"agent"`
	Destination string `json:"destination"`
}

// StateMsg carries one state report to clients.
type StateMsg struct {
	Type  string       `json:"type"`
	State state.Record `json:"state"`
}

// ErrorMsg reports a rejected inbound frame.
type ErrorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
