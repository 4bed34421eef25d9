package scoring

import (
	"math"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Detector locates the closest near-miss between two trajectories
type Detector struct {
	// EpsilonDistance is the proximity a sample pair needs to be a candidate.
	EpsilonDistance float64
	// DeltaEndDistance freezes the result once the best candidate is this close.
	DeltaEndDistance float64
	Mode             models.LossMode
}

// NewDetector creates a detector from the conflict configuration
func NewDetector(cfg config.Conflict) *Detector {
	return &Detector{
		EpsilonDistance:  cfg.EpsilonDistance,
		DeltaEndDistance: cfg.DeltaEndDistance,
		Mode:             cfg.LossMode,
	}
}

// PairLoss scores two samples: absolute time gap and 3D distance.
func (d *Detector) PairLoss(a, b models.Sample) models.Loss {
	return models.Loss{
		TimeGap:  math.Abs(a.T - b.T),
		Distance: a.DistanceTo(b),
		Mode:     d.Mode,
	}
}

// FindConflictPoint compares every ego sample with every NPC sample. The first
// pair within EpsilonDistance becomes the conflict point; a later pair replaces
// it only when its time gap is strictly smaller and the current point is still
// farther apart than DeltaEndDistance. Returns nil when no pair qualifies.
func (d *Detector) FindConflictPoint(ego, npc models.Trajectory) *models.ConflictPoint {
	var best *models.ConflictPoint
	for i := range ego {
		for j := range npc {
			loss := d.PairLoss(ego[i], npc[j])
			if loss.Distance > d.EpsilonDistance {
				continue
			}
			if best == nil {
				best = &models.ConflictPoint{EgoPassIndex: i, ObjPassIndex: j, Loss: loss}
				continue
			}
			if loss.TimeGap < best.Loss.TimeGap && best.Loss.Distance > d.DeltaEndDistance {
				best = &models.ConflictPoint{EgoPassIndex: i, ObjPassIndex: j, Loss: loss}
			}
		}
	}
	return best
}

// CalculateMinDistance scans index-aligned pairs up to the shorter trajectory
// and returns the first index of minimum distance.
func (d *Detector) CalculateMinDistance(ego, npc models.Trajectory) models.MinDistance {
	md := models.NoMinDistance()
	n := min(len(ego), len(npc))
	for i := 0; i < n; i++ {
		if dist := ego[i].DistanceTo(npc[i]); dist < md.Value {
			md = models.MinDistance{Index: i, Value: dist}
		}
	}
	return md
}
