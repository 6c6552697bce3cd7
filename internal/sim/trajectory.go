package sim

import (
	"math"
	"sort"

	"readonly-sim/internal/config"
	"readonly-sim/internal/state"
)

// Trajectory is a scripted motion for an agent: waypoints ordered by time,
// linearly interpolated in between.
type Trajectory []config.Waypoint

// NewTrajectory returns a time-ordered copy of wps.
func NewTrajectory(wps []config.Waypoint) Trajectory {
	tr := make(Trajectory, len(wps))
	copy(tr, wps)
	sort.SliceStable(tr, func(i, j int) bool { return tr[i].T < tr[j].T })
	return tr
}

// PoseAt returns the pose at simulation time t, holding the first and last
// waypoints outside the scripted interval.
func (tr Trajectory) PoseAt(t float64) state.Pose {
	switch {
	case len(tr) == 0:
		return state.Pose{Orientation: state.IdentityQuaternion}
	case t <= tr[0].T:
		return waypointPose(tr[0])
	case t >= tr[len(tr)-1].T:
		return waypointPose(tr[len(tr)-1])
	}
	i := sort.Search(len(tr), func(i int) bool { return tr[i].T > t })
	a, b := tr[i-1], tr[i]
	f := (t - a.T) / (b.T - a.T)
	yaw := a.Yaw + math.Remainder(b.Yaw-a.Yaw, 2*math.Pi)*f
	return state.PoseFromYaw(lerp(a.X, b.X, f), lerp(a.Y, b.Y, f), lerp(a.Z, b.Z, f), yaw)
}

func waypointPose(w config.Waypoint) state.Pose {
	return state.PoseFromYaw(w.X, w.Y, w.Z, w.Yaw)
}

func lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}
