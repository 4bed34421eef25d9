package scoring

import (
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Scorer turns raw episodes into run outcomes
type Scorer struct {
	detector *Detector
}

// NewScorer creates a scorer backed by the given detector
func NewScorer(detector *Detector) *Scorer {
	return &Scorer{detector: detector}
}

// Detector returns the underlying conflict detector
func (s *Scorer) Detector() *Detector {
	return s.detector
}

// Score builds the outcome of one episode. A collision pins the loss at zero
// regardless of the trajectories. Otherwise the loss is taken from the
// conflict point when one exists and stays at +Inf when none does.
func (s *Scorer) Score(ep *models.Episode) *models.RunOutcome {
	collided := ep.Collided || ep.Result == models.ResultCollision
	result := ep.Result
	if collided {
		result = models.ResultCollision
	}
	out := models.NewRunOutcome(result)
	out.Loss.Mode = s.detector.Mode
	if len(ep.Actions) > 0 {
		out.ActionSequence = append([]models.ActionRecord(nil), ep.Actions...)
	}

	if collided {
		out.Loss = models.CollisionLoss(s.detector.Mode)
		out.Sort()
		return out
	}

	out.MinDistance = s.detector.CalculateMinDistance(ep.Ego, ep.Npc)
	if cp := s.detector.FindConflictPoint(ep.Ego, ep.Npc); cp != nil {
		out.ConflictPoint = cp
		out.Loss = cp.Loss
	}
	out.Sort()
	return out
}
