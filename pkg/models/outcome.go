package models

import "math"

// MinDistance is the closest index-aligned approach between two trajectories.
type MinDistance struct {
	Index int     `yaml:"index" json:"index"`
	Value float64 `yaml:"value" json:"value"`
}

// NoMinDistance is the value reported when no samples were compared.
func NoMinDistance() MinDistance {
	return MinDistance{Index: -1, Value: math.Inf(1)}
}

// RunOutcome is the scored result of executing one seed
type RunOutcome struct {
	Result         ResultKind     `yaml:"result" json:"result"`
	Loss           Loss           `yaml:"loss" json:"loss"`
	MinDistance    MinDistance    `yaml:"min_distance" json:"min_distance"`
	ActionSequence []ActionRecord `yaml:"action_sequence" json:"action_sequence"`
	ConflictPoint  *ConflictPoint `yaml:"conflict_point,omitempty" json:"conflict_point,omitempty"`
}

// NewRunOutcome returns an outcome with "no signal" loss and min distance.
func NewRunOutcome(result ResultKind) *RunOutcome {
	return &RunOutcome{
		Result:      result,
		Loss:        NewLoss(),
		MinDistance: NoMinDistance(),
	}
}

// ErrorOutcome is the outcome recorded when the executor failed.
func ErrorOutcome() *RunOutcome {
	return NewRunOutcome(ResultError)
}

// IsCollision reports whether the episode ended in a collision
func (o *RunOutcome) IsCollision() bool {
	return o != nil && o.Result == ResultCollision
}

// Sort orders the action sequence by (tick, action, duration).
func (o *RunOutcome) Sort() {
	SortActionRecords(o.ActionSequence)
}

// Clone returns a deep copy
func (o *RunOutcome) Clone() *RunOutcome {
	if o == nil {
		return nil
	}
	out := *o
	if o.ActionSequence != nil {
		out.ActionSequence = make([]ActionRecord, len(o.ActionSequence))
		copy(out.ActionSequence, o.ActionSequence)
	}
	if o.ConflictPoint != nil {
		cp := *o.ConflictPoint
		out.ConflictPoint = &cp
	}
	return &out
}
