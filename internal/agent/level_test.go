package agent

import (
	"testing"

	"readonly-sim/internal/building"
)

type fixedModel map[float64]string

func (m fixedModel) LevelContaining(z float64) (string, bool) {
	name, ok := m[z]
	return name, ok
}

func TestResolveLevel(t *testing.T) {
	b, err := building.NewLevels(
		building.Level{Name: "L1", MinZ: 0, MaxZ: 3},
		building.Level{Name: "L2", MinZ: 3, MaxZ: 6},
	)
	if err != nil {
		t.Fatalf("NewLevels: %v", err)
	}
	cases := []struct {
		z    float64
		want string
	}{
		{1, "L1"},
		{3.0, "L2"},
		{-1.0, UnknownLevel},
		{6.0, UnknownLevel},
	}
	for _, tc := range cases {
		if got := ResolveLevel(b, tc.z); got != tc.want {
			t.Errorf("ResolveLevel(%v) = %q, want %q", tc.z, got, tc.want)
		}
	}
}

func TestResolveLevelNoBuilding(t *testing.T) {
	if got := ResolveLevel(nil, 1); got != UnknownLevel {
		t.Fatalf("nil model resolved to %q", got)
	}
	var empty *building.Levels
	if got := ResolveLevel(empty, 1); got != UnknownLevel {
		t.Fatalf("empty building resolved to %q", got)
	}
}

func TestResolveLevelIgnoresNameOnMiss(t *testing.T) {
	// A model reporting a miss must not leak whatever name it returned.
	m := missWithName{}
	if got := ResolveLevel(m, 0); got != UnknownLevel {
		t.Fatalf("ResolveLevel = %q", got)
	}
	if got := ResolveLevel(fixedModel{2: "roof"}, 2); got != "roof" {
		t.Fatalf("ResolveLevel = %q", got)
	}
}

type missWithName struct{}

func (missWithName) LevelContaining(float64) (string, bool) { return "L9", false }
