package fuzzing

import (
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

// ErrUnresolvedParameter is returned when mutating a seed with an unset parameter
var ErrUnresolvedParameter = errors.New("seed parameter is unset")

// Mutator derives child seeds from executed parents
type Mutator struct {
	params          config.Parameters
	learningRate    float64
	tickGranularity int
	rng             *utils.RandSource
}

// NewMutator creates a mutator over the configured parameter space
func NewMutator(params config.Parameters, mutation config.Mutation, rng *utils.RandSource) *Mutator {
	lr := mutation.LearningRate
	if lr <= 0 {
		lr = 0.2
	}
	gran := mutation.TickGranularity
	if gran < 1 {
		gran = 10
	}
	return &Mutator{
		params:          params,
		learningRate:    lr,
		tickGranularity: gran,
		rng:             rng,
	}
}

// Mutate perturbs every parameter of an executed seed inside its
// neighbourhood and exploration window, clamped to the configured bounds. The
// child gets one more spontaneous action and a copy of the parent's chain.
func (m *Mutator) Mutate(seed *models.Seed, nextRoundID int) (*models.Seed, error) {
	if !seed.Executed() {
		return nil, fmt.Errorf("round %d: %w", seed.RoundID, models.ErrNotExecuted)
	}
	if !seed.Resolved() {
		return nil, fmt.Errorf("round %d: %w", seed.RoundID, ErrUnresolvedParameter)
	}

	return &models.Seed{
		RoundID:          nextRoundID,
		PEgo:             models.Float(m.perturb(*seed.PEgo, m.params.PEgo)),
		PNpc:             models.Float(m.perturb(*seed.PNpc, m.params.PNpc)),
		VNpc:             models.Float(m.perturb(*seed.VNpc, m.params.VNpc)),
		ActionCapability: seed.ActionCapability + 1,
		ActionChain:      seed.ActionChain.Clone(),
	}, nil
}

// Window returns the interval a parameter value is redrawn from
func (m *Mutator) Window(v float64, r config.Range) utils.Interval {
	neighbourhood := utils.Centered(v, r.Step/2)
	exploration := utils.Centered(v, r.Step*m.learningRate*0.5)
	return neighbourhood.Intersect(exploration).Intersect(r.Bounds())
}

func (m *Mutator) perturb(v float64, r config.Range) float64 {
	iv := m.Window(v, r)
	if iv.Empty() {
		// the value sits outside the bounds
		return utils.ClampFloat64(v, r.Low, r.High)
	}
	return m.rng.UniformFloat64(iv.Low, iv.High)
}

// Guide picks the action that pushes the NPC towards the ego's path. If the
// ego crossed the conflict region first the NPC accelerates, otherwise it
// decelerates; the tick is drawn before the earlier crossing and floored to
// the tick granularity. The action is appended to next's chain unless already
// present. It reports false when the prior seed has no conflict point.
func (m *Mutator) Guide(prior, next *models.Seed) (models.ScriptedAction, bool) {
	if prior == nil || prior.Outcome == nil || prior.Outcome.ConflictPoint == nil {
		return models.ScriptedAction{}, false
	}
	cp := prior.Outcome.ConflictPoint
	if !cp.Defined() {
		return models.ScriptedAction{}, false
	}

	action, limit := models.ActionDecelerate, cp.ObjPassIndex
	if cp.EgoFirst() {
		action, limit = models.ActionAccelerate, cp.EgoPassIndex
	}
	tick := utils.FloorToMultiple(m.rng.IntRange(0, limit), m.tickGranularity)
	guided := models.ScriptedAction{Tick: tick, Action: action}
	if next != nil {
		next.AddAction(guided)
	}
	return guided, true
}

// Next builds the child of prior for the given round: mutate, optionally fold
// in the parent's fired actions, then append the guided action.
func (m *Mutator) Next(prior *models.Seed, roundID int, mergeObserved bool) (*models.Seed, error) {
	next, err := m.Mutate(prior, roundID)
	if err != nil {
		return nil, err
	}
	if mergeObserved {
		for _, rec := range prior.Outcome.ActionSequence {
			if rec.Action == models.ActionNone {
				continue
			}
			next.AddAction(models.ScriptedAction{Tick: rec.Tick, Action: rec.Action})
		}
	}
	m.Guide(prior, next)
	return next, nil
}
