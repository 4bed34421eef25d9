package models

import "math"

// Loss scores how close a run came to a collision. Lower is more dangerous.
type Loss struct {
	TimeGap  float64  `yaml:"time_gap" json:"time_gap"`
	Distance float64  `yaml:"distance" json:"distance"`
	Mode     LossMode `yaml:"mode" json:"mode"`
}

// NewLoss returns the "no signal" loss: both components +Inf, distance mode.
func NewLoss() Loss {
	return Loss{TimeGap: math.Inf(1), Distance: math.Inf(1), Mode: LossByDistance}
}

// CollisionLoss is the maximal-danger loss assigned when the agents touched.
func CollisionLoss(mode LossMode) Loss {
	return Loss{TimeGap: 0, Distance: 0, Mode: mode}
}

// Value is the scalar the search minimises.
func (l Loss) Value() float64 {
	switch l.Mode {
	case LossByTimeGap:
		return l.TimeGap
	case LossByDistance, "":
		return l.Distance
	}
	return l.Distance
}

// WithMode returns a copy scored under another mode.
func (l Loss) WithMode(mode LossMode) Loss {
	l.Mode = mode
	return l
}

// Better reports whether l is strictly more dangerous than other.
func (l Loss) Better(other Loss) bool {
	return l.Value() < other.Value()
}
