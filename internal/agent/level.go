package agent

import "readonly-sim/internal/building"

// UnknownLevel is reported when no level of the building contains the agent.
const UnknownLevel = ""

// ResolveLevel maps a height onto a building level name. A nil model, an empty
// building or a height outside every level all resolve to UnknownLevel.
func ResolveLevel(model building.Model, z float64) string {
	if model == nil {
		return UnknownLevel
	}
	if name, ok := model.LevelContaining(z); ok {
		return name
	}
	return UnknownLevel
}
