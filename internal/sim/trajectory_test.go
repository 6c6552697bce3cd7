package sim

import (
	"math"
	"testing"

	"readonly-sim/internal/config"
)

func TestTrajectoryPoseAt(t *testing.T) {
	tr := NewTrajectory([]config.Waypoint{
		{T: 10, X: 10, Y: 0, Z: 3, Yaw: 0},
		{T: 0, X: 0, Y: 0, Z: 0, Yaw: 0},
	})
	cases := []struct {
		t    float64
		x, z float64
	}{
		{-5, 0, 0},
		{0, 0, 0},
		{5, 5, 1.5},
		{10, 10, 3},
		{20, 10, 3},
	}
	for _, tc := range cases {
		p := tr.PoseAt(tc.t).Position
		if math.Abs(p.X-tc.x) > 1e-9 || math.Abs(p.Z-tc.z) > 1e-9 {
			t.Errorf("PoseAt(%v) = %+v, want x=%v z=%v", tc.t, p, tc.x, tc.z)
		}
	}
}

func TestTrajectoryYawShortestArc(t *testing.T) {
	tr := NewTrajectory([]config.Waypoint{
		{T: 0, Yaw: 3.0},
		{T: 1, Yaw: -3.0},
	})
	// Crossing pi rather than sweeping back through zero.
	yaw := tr.PoseAt(0.5).Yaw()
	if math.Abs(math.Abs(yaw)-math.Pi) > 1e-6 {
		t.Fatalf("midpoint yaw = %v, want +-pi", yaw)
	}
}

func TestEmptyTrajectory(t *testing.T) {
	p := Trajectory(nil).PoseAt(3)
	if p.Position.X != 0 || p.Position.Z != 0 || p.Orientation.W != 1 {
		t.Fatalf("unexpected pose %+v", p)
	}
}
