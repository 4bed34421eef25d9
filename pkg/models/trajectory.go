package models

import "github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"

// Sample is one time-stamped position of an agent. T is seconds since the
// start of the episode.
type Sample struct {
	T float64 `yaml:"t" json:"t"`
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// DistanceTo is the 3D Euclidean distance between two samples' positions.
func (s Sample) DistanceTo(o Sample) float64 {
	return utils.Distance3(s.X, s.Y, s.Z, o.X, o.Y, o.Z)
}

// Trajectory is the ordered position trace of one agent, one sample per tick.
type Trajectory []Sample

// ConflictPoint is the pair of trajectory indices judged the closest near-miss.
type ConflictPoint struct {
	EgoPassIndex int  `yaml:"ego_pass_tick" json:"ego_pass_tick"`
	ObjPassIndex int  `yaml:"obj_pass_tick" json:"obj_pass_tick"`
	Loss         Loss `yaml:"loss" json:"loss"`
}

// NewConflictPoint returns an undefined conflict point.
func NewConflictPoint() ConflictPoint {
	return ConflictPoint{EgoPassIndex: -1, ObjPassIndex: -1, Loss: NewLoss()}
}

// Defined reports whether both indices point into a trajectory.
func (c ConflictPoint) Defined() bool {
	return c.EgoPassIndex >= 0 && c.ObjPassIndex >= 0
}

// EgoFirst reports whether the ego reaches the conflict point before the NPC.
func (c ConflictPoint) EgoFirst() bool {
	return c.EgoPassIndex < c.ObjPassIndex
}

// Episode is the raw record of one executed scenario before scoring.
type Episode struct {
	Result   ResultKind     `yaml:"result" json:"result"`
	Collided bool           `yaml:"collided" json:"collided"`
	Ego      Trajectory     `yaml:"ego" json:"ego"`
	Npc      Trajectory     `yaml:"npc" json:"npc"`
	Actions  []ActionRecord `yaml:"actions" json:"actions"`
}
