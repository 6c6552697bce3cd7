package agent

import "fmt"

// ConfigurationError reports an agent that cannot be initialised.
type ConfigurationError struct {
	Agent  string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("agent configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("agent %q configuration: %s: %s", e.Agent, e.Field, e.Reason)
}
