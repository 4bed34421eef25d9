package fuzzing

import (
	"context"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/metrics"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// search hill-climbs from one initial seed. Each round mutates the current
// best, executes the child and records it as a finding. A collision ends the
// search; a strictly lower loss replaces the current best.
func (c *Campaign) search(ctx context.Context, index int, root *models.Seed) (SearchResult, error) {
	res := SearchResult{
		SeedIndex: index,
		RootRound: root.RoundID,
		BestRound: root.RoundID,
		BestLoss:  root.LossValue(),
		Status:    SearchExhaustedIterations,
	}
	best := root

	for i := 0; i < c.cfg.Campaign.MaxIterations; i++ {
		c.mu.RLock()
		round := c.round
		c.mu.RUnlock()
		if round >= c.cfg.Campaign.TotalRounds {
			res.Status = SearchExhaustedBudget
			return res, nil
		}

		next, err := c.mutator.Next(best, round, c.cfg.Mutation.MergeObservedActions)
		if err != nil {
			return res, err
		}
		if err := c.execute(ctx, next, metrics.PhaseGuided); err != nil {
			return res, err
		}
		c.mu.Lock()
		c.round++
		c.mu.Unlock()
		res.Rounds++

		if next.Outcome.IsCollision() {
			if err := c.recordFinding(ctx, checkpoint.FindingCollision, next); err != nil {
				return res, err
			}
			res.Status = SearchCollision
			res.Collisions = append(res.Collisions, next.RoundID)
			c.logger.Info("Collision found",
				"seed_index", index,
				"root_round", root.RoundID,
				"round_id", next.RoundID,
				"iteration", i+1)
			return res, nil
		}

		if err := c.recordFinding(ctx, checkpoint.FindingOther, next); err != nil {
			return res, err
		}
		if next.Outcome.Loss.Better(best.Outcome.Loss) {
			best = next
			res.BestRound = next.RoundID
			res.BestLoss = next.LossValue()
		}
	}

	c.logger.Debug("Search exhausted",
		"seed_index", index,
		"root_round", root.RoundID,
		"best_round", res.BestRound,
		"loss", res.BestLoss)
	return res, nil
}
