// Package state holds the pose and state record types shared by the agent core and its transports.
package state

import "math"

// Vector3 is a position in the simulator's world frame, in meters.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a unit rotation.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IdentityQuaternion is the zero rotation.
var IdentityQuaternion = Quaternion{W: 1}

// Pose is a rigid transform sampled from the simulator.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseFromYaw builds a pose rotated about the vertical axis only.
func PoseFromYaw(x, y, z, yaw float64) Pose {
	half := yaw / 2
	return Pose{
		Position:    Vector3{X: x, Y: y, Z: z},
		Orientation: Quaternion{W: math.Cos(half), Z: math.Sin(half)},
	}
}

// Yaw returns the heading of the pose around Z, in radians within [-pi, pi].
func (p Pose) Yaw() float64 {
	q := p.Orientation
	siny := 2 * (q.W*q.Z + q.X*q.Y)
	cosy := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	return math.Atan2(siny, cosy)
}

// Record is one outbound state report for an agent.
type Record struct {
	Name        string  `json:"name"`
	Pose        Pose    `json:"pose"`
	Level       string  `json:"level_name"`
	Destination string  `json:"destination"`
	Seq         uint64  `json:"seq"`
	SimTime     float64 `json:"sim_time"`
}

// Sample is a single pose reading for an agent at a simulation time.
// Recorded runs are streams of samples which can be replayed through an agent.
// A sample carrying Destination is a destination change instead of a pose.
type Sample struct {
	Agent       string  `json:"agent"`
	SimTime     float64 `json:"sim_time"`
	Pose        Pose    `json:"pose,omitzero"`
	Destination *string `json:"destination,omitempty"`
}

// DestinationSample records that agent was given dest at simTime.
func DestinationSample(agent string, simTime float64, dest string) Sample {
	return Sample{Agent: agent, SimTime: simTime, Destination: &dest}
}

// IsDestination reports whether s is a destination change.
func (s Sample) IsDestination() bool {
	return s.Destination != nil
}
