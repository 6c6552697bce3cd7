// Package building answers which level of a building contains a height.
package building

import (
	"fmt"
	"math"
	"sort"

	"readonly-sim/internal/config"
)

// Model is the capability the agent core needs from a building.
type Model interface {
	// LevelContaining returns the name of the level whose extent contains z.
	LevelContaining(z float64) (string, bool)
}

// Level is a named vertical extent [MinZ, MaxZ).
type Level struct {
	Name string
	MinZ float64
	MaxZ float64
}

// Contains reports whether z lies within the half-open extent of the level.
func (l Level) Contains(z float64) bool {
	return z >= l.MinZ && z < l.MaxZ
}

// Levels is an immutable level table. The zero value is an empty building.
type Levels struct {
	levels []Level
}

// NewLevels validates and orders the given levels by MinZ. Overlapping extents
// are allowed; the lowest-starting level wins.
func NewLevels(levels ...Level) (*Levels, error) {
	seen := make(map[string]struct{}, len(levels))
	out := make([]Level, 0, len(levels))
	for _, l := range levels {
		if l.Name == "" {
			return nil, fmt.Errorf("level with extent [%g, %g) has no name", l.MinZ, l.MaxZ)
		}
		if _, dup := seen[l.Name]; dup {
			return nil, fmt.Errorf("duplicate level %q", l.Name)
		}
		if math.IsNaN(l.MinZ) || math.IsNaN(l.MaxZ) || l.MaxZ <= l.MinZ {
			return nil, fmt.Errorf("level %q has empty extent [%g, %g)", l.Name, l.MinZ, l.MaxZ)
		}
		seen[l.Name] = struct{}{}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinZ < out[j].MinZ })
	return &Levels{levels: out}, nil
}

// FromConfig builds a level table from the building section of a config.
func FromConfig(b config.Building) (*Levels, error) {
	levels := make([]Level, len(b.Levels))
	for i, l := range b.Levels {
		levels[i] = Level{Name: l.Name, MinZ: l.MinZ, MaxZ: l.MaxZ}
	}
	lv, err := NewLevels(levels...)
	if err != nil {
		if b.Name != "" {
			return nil, fmt.Errorf("building %q: %w", b.Name, err)
		}
		return nil, err
	}
	return lv, nil
}

// LevelContaining implements Model.
func (b *Levels) LevelContaining(z float64) (string, bool) {
	if b == nil {
		return "", false
	}
	for _, l := range b.levels {
		if l.Contains(z) {
			return l.Name, true
		}
	}
	return "", false
}

// Names returns the level names ordered from the lowest extent up.
func (b *Levels) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, len(b.levels))
	for i, l := range b.levels {
		names[i] = l.Name
	}
	return names
}
