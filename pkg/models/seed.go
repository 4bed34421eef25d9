package models

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

// Seed is one trial: initial parameters, scripted actions, the spontaneous
// action budget and, once executed, its outcome.
type Seed struct {
	RoundID          int         `yaml:"round_id" json:"round_id"`
	PEgo             *float64    `yaml:"p_ego" json:"p_ego"`
	PNpc             *float64    `yaml:"p_npc" json:"p_npc"`
	VNpc             *float64    `yaml:"v_npc" json:"v_npc"`
	ActionCapability int         `yaml:"action_cap" json:"action_cap"`
	ActionChain      ActionChain `yaml:"action_chain" json:"action_chain"`
	Outcome          *RunOutcome `yaml:"round_result,omitempty" json:"round_result,omitempty"`
}

// NewSeed creates an unexecuted seed with every parameter set.
func NewSeed(roundID int, pEgo, pNpc, vNpc float64) *Seed {
	return &Seed{
		RoundID: roundID,
		PEgo:    Float(pEgo),
		PNpc:    Float(pNpc),
		VNpc:    Float(vNpc),
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Executed reports whether an outcome has been attached
func (s *Seed) Executed() bool {
	return s.Outcome != nil
}

// Resolved reports whether every continuous parameter has a value.
func (s *Seed) Resolved() bool {
	return s.PEgo != nil && s.PNpc != nil && s.VNpc != nil
}

// Attach records the seed's outcome. A seed is executed at most once.
func (s *Seed) Attach(outcome *RunOutcome) error {
	if s.Outcome != nil {
		return fmt.Errorf("round %d: %w", s.RoundID, ErrAlreadyExecuted)
	}
	if outcome == nil {
		return fmt.Errorf("round %d: nil outcome", s.RoundID)
	}
	outcome.Sort()
	s.Outcome = outcome
	return nil
}

// AddAction schedules an action unless the same (tick, action) pair exists.
// It reports whether the chain changed.
func (s *Seed) AddAction(a ScriptedAction) bool {
	if a.Tick < 0 || s.ActionChain.Contains(a) {
		return false
	}
	s.ActionChain = s.ActionChain.Merge(a)
	return true
}

// MergeObservedActions folds the actions that fired during execution into the
// chain so a replay reproduces them as scripted actions.
func (s *Seed) MergeObservedActions() error {
	if s.Outcome == nil {
		return fmt.Errorf("round %d: %w", s.RoundID, ErrNotExecuted)
	}
	observed := make([]ScriptedAction, 0, len(s.Outcome.ActionSequence))
	for _, rec := range s.Outcome.ActionSequence {
		if rec.Action == ActionNone {
			continue
		}
		observed = append(observed, ScriptedAction{Tick: rec.Tick, Action: rec.Action})
	}
	s.ActionChain = s.ActionChain.Merge(observed...)
	return nil
}

// ResolveDefaults fills unset parameters with a random whole number inside
// the given bounds. Set parameters are left alone.
func (s *Seed) ResolveDefaults(rng *utils.RandSource, ego, npc, vel utils.Interval) {
	draw := func(iv utils.Interval) *float64 {
		lo := int(math.Ceil(iv.Low))
		hi := int(math.Floor(iv.High))
		if hi < lo {
			return Float(iv.Low)
		}
		return Float(float64(rng.IntRange(lo, hi)))
	}
	if s.PEgo == nil {
		s.PEgo = draw(ego)
	}
	if s.PNpc == nil {
		s.PNpc = draw(npc)
	}
	if s.VNpc == nil {
		s.VNpc = draw(vel)
	}
}

// LossValue is the outcome's loss value, +Inf for unexecuted seeds.
func (s *Seed) LossValue() float64 {
	if s.Outcome == nil {
		return math.Inf(1)
	}
	return s.Outcome.Loss.Value()
}

// Result is the outcome's result kind, empty for unexecuted seeds.
func (s *Seed) Result() ResultKind {
	if s.Outcome == nil {
		return ""
	}
	return s.Outcome.Result
}

// Clone returns a deep copy
func (s *Seed) Clone() *Seed {
	if s == nil {
		return nil
	}
	out := *s
	if s.PEgo != nil {
		out.PEgo = Float(*s.PEgo)
	}
	if s.PNpc != nil {
		out.PNpc = Float(*s.PNpc)
	}
	if s.VNpc != nil {
		out.VNpc = Float(*s.VNpc)
	}
	out.ActionChain = s.ActionChain.Clone()
	out.Outcome = s.Outcome.Clone()
	return &out
}

// LogValue renders the seed as a group of structured log attributes.
func (s *Seed) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("round_id", s.RoundID),
		slog.Any("p_ego", floatOrNil(s.PEgo)),
		slog.Any("p_npc", floatOrNil(s.PNpc)),
		slog.Any("v_npc", floatOrNil(s.VNpc)),
		slog.Int("action_cap", s.ActionCapability),
		slog.Int("actions", len(s.ActionChain)),
	}
	if s.Outcome != nil {
		attrs = append(attrs,
			slog.String("result", string(s.Outcome.Result)),
			slog.Float64("loss", s.Outcome.Loss.Value()),
			slog.Float64("min_distance", s.Outcome.MinDistance.Value),
			slog.Int("fired_actions", len(s.Outcome.ActionSequence)),
		)
	}
	return slog.GroupValue(attrs...)
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
