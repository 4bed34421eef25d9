package fuzzing

import (
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// GridValues lists the bucket centres of a range: low + step/2 + k*step for
// every k with the value below high.
func GridValues(r config.Range) []float64 {
	if r.Step <= 0 || r.High <= r.Low {
		return nil
	}
	values := make([]float64, 0)
	for k := 0; ; k++ {
		v := r.Low + r.Step/2 + float64(k)*r.Step
		if v >= r.High {
			break
		}
		values = append(values, v)
	}
	return values
}

// GenerateInitialSeeds enumerates the cross product of the three parameter
// grids. Ego position varies slowest and NPC velocity fastest; round ids
// follow enumeration order from zero.
func GenerateInitialSeeds(params config.Parameters) []*models.Seed {
	egos := GridValues(params.PEgo)
	npcs := GridValues(params.PNpc)
	vels := GridValues(params.VNpc)

	seeds := make([]*models.Seed, 0, len(egos)*len(npcs)*len(vels))
	for _, pe := range egos {
		for _, pn := range npcs {
			for _, v := range vels {
				seeds = append(seeds, models.NewSeed(len(seeds), pe, pn, v))
			}
		}
	}
	return seeds
}
