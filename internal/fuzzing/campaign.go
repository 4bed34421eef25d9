package fuzzing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/executor"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/metrics"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

// Campaign drives one fuzzing campaign: the initial sweep followed by a
// guided search from every non-colliding initial seed. All progress is
// checkpointed through the store, so Run resumes where a previous process
// stopped.
type Campaign struct {
	cfg       *config.Config
	exec      executor.Executor
	store     checkpoint.Store
	mutator   *Mutator
	collector *metrics.Collector
	logger    *slog.Logger

	mu         sync.RWMutex
	state      State
	campaignID string
	round      int
	seedIndex  int
	population []*models.Seed
	executed   int
	findings   []checkpoint.Finding
	searches   []SearchResult
}

// Result is what a finished or interrupted campaign produced
type Result struct {
	CampaignID string
	Population []*models.Seed
	Findings   *checkpoint.Findings
	Stats      *metrics.CampaignStats
	Searches   []SearchResult
}

// Snapshot is a point-in-time view of the campaign for status reporting
type Snapshot struct {
	CampaignID       string                 `json:"campaign_id"`
	State            State                  `json:"state"`
	CurrentRound     int                    `json:"current_round"`
	CurrentSeedIndex int                    `json:"current_seed_index"`
	PopulationSize   int                    `json:"population_size"`
	InitialExecuted  int                    `json:"initial_executed"`
	Collisions       int                    `json:"collisions"`
	Others           int                    `json:"others"`
	Searches         int                    `json:"searches"`
	Stats            *metrics.CampaignStats `json:"stats"`
}

// NewCampaign creates a campaign. exec is wrapped so that failed runs become
// ERROR outcomes.
func NewCampaign(cfg *config.Config, exec executor.Executor, store checkpoint.Store) (*Campaign, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if exec == nil {
		return nil, errors.New("executor is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	runTimeout, err := cfg.Executor.GetRunTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid run_timeout: %w", err)
	}

	rng := utils.NewRandSource(cfg.Campaign.RNGSeed)
	return &Campaign{
		cfg:       cfg,
		exec:      executor.NewSafe(exec, runTimeout),
		store:     store,
		mutator:   NewMutator(cfg.Parameters, cfg.Mutation, rng),
		collector: metrics.NewCollector(),
		logger:    logger.Default,
		state:     StateInit,
	}, nil
}

// SetLogger sets the campaign's logger
func (c *Campaign) SetLogger(l *slog.Logger) {
	c.logger = l
	if safe, ok := c.exec.(*executor.Safe); ok {
		safe.SetLogger(l)
	}
}

// SetCollector replaces the metrics collector
func (c *Campaign) SetCollector(collector *metrics.Collector) {
	c.collector = collector
}

// Run executes the campaign until every initial seed has been searched or
// ctx is cancelled. On cancellation the partial result is returned together
// with the context error; the store already holds everything needed to resume.
func (c *Campaign) Run(ctx context.Context) (*Result, error) {
	c.collector.Start()
	defer c.collector.Stop()

	if err := c.store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialise checkpoint store: %w", err)
	}

	pop, err := c.loadOrRunInitial(ctx)
	if err != nil {
		return c.result(), err
	}

	progress, err := c.resumePoint(ctx, pop)
	if err != nil {
		return c.result(), err
	}
	if err := c.store.TruncateFindings(ctx, progress.CurrentRound); err != nil {
		return c.result(), fmt.Errorf("failed to truncate findings: %w", err)
	}
	if err := c.reloadFindings(ctx); err != nil {
		return c.result(), err
	}

	c.mu.Lock()
	c.campaignID = progress.CampaignID
	c.round = progress.CurrentRound
	c.seedIndex = progress.CurrentSeedIndex
	c.mu.Unlock()

	c.logger.Info("Starting guided search",
		"campaign_id", progress.CampaignID,
		"population", len(pop.Seeds),
		"seed_index", progress.CurrentSeedIndex,
		"current_round", progress.CurrentRound)

	for index := progress.CurrentSeedIndex; index < len(pop.Seeds); index++ {
		c.setState(StateSelectNextSeed)
		c.mu.Lock()
		c.seedIndex = index
		c.mu.Unlock()

		if err := c.saveProgress(ctx, index); err != nil {
			return c.result(), err
		}

		c.setState(StateGuidedSearch)
		res, err := c.search(ctx, index, pop.Seeds[index])
		if err != nil {
			return c.result(), err
		}
		c.mu.Lock()
		c.searches = append(c.searches, res)
		c.mu.Unlock()

		if res.Status == SearchCollision {
			c.setState(StateCollisionFound)
		} else {
			c.setState(StateExhausted)
		}
		if res.Status == SearchExhaustedBudget {
			c.logger.Warn("Round budget exhausted",
				"total_rounds", c.cfg.Campaign.TotalRounds,
				"seed_index", index)
			break
		}
	}

	c.mu.Lock()
	c.seedIndex = len(pop.Seeds)
	c.mu.Unlock()
	if err := c.saveProgress(ctx, len(pop.Seeds)); err != nil {
		return c.result(), err
	}
	c.setState(StateDone)

	result := c.result()
	c.logger.Info("Campaign finished",
		"campaign_id", result.CampaignID,
		"executions", humanize.Comma(result.Stats.Executions),
		"collisions", len(result.Findings.Collision),
		"others", len(result.Findings.Other),
		"elapsed", result.Stats.Elapsed.Round(time.Millisecond).String())
	return result, nil
}

// loadOrRunInitial returns the persisted population, running the initial
// sweep first if none was saved.
func (c *Campaign) loadOrRunInitial(ctx context.Context) (checkpoint.Population, error) {
	pop, ok, err := c.store.LoadPopulation(ctx)
	if err != nil {
		return checkpoint.Population{}, fmt.Errorf("failed to load population: %w", err)
	}
	if ok {
		c.logger.Info("Loaded initial population", "population", len(pop.Seeds), "executed", pop.Executed)
		c.setPopulation(pop)
		return pop, nil
	}

	c.setState(StateRunInitialPopulation)
	if err := c.reloadFindings(ctx); err != nil {
		return checkpoint.Population{}, err
	}
	pop, err = c.runInitial(ctx)
	if err != nil {
		return checkpoint.Population{}, err
	}
	if err := c.store.SavePopulation(ctx, pop); err != nil {
		return checkpoint.Population{}, fmt.Errorf("failed to save population: %w", err)
	}
	c.setPopulation(pop)
	return pop, nil
}

// runInitial executes every grid seed not already in the initial journal.
func (c *Campaign) runInitial(ctx context.Context) (checkpoint.Population, error) {
	grid := GenerateInitialSeeds(c.cfg.Parameters)
	journal, err := c.store.LoadInitial(ctx)
	if err != nil {
		return checkpoint.Population{}, fmt.Errorf("failed to load initial journal: %w", err)
	}

	done := make(map[int]*models.Seed, len(journal))
	for _, seed := range journal {
		if err := checkJournalled(grid, done, seed); err != nil {
			return checkpoint.Population{}, err
		}
		done[seed.RoundID] = seed
	}
	if len(done) > 0 {
		c.logger.Info("Resuming initial sweep", "done", len(done), "total", len(grid))
	}

	c.mu.Lock()
	c.round = len(done)
	c.mu.Unlock()

	for _, seed := range grid {
		if _, ok := done[seed.RoundID]; ok {
			continue
		}
		if err := c.execute(ctx, seed, metrics.PhaseInitial); err != nil {
			return checkpoint.Population{}, err
		}
		// collisions reach the findings journal before the initial journal
		if seed.Outcome.IsCollision() {
			if err := c.recordFinding(ctx, checkpoint.FindingCollision, seed); err != nil {
				return checkpoint.Population{}, err
			}
		}
		if err := c.store.AppendInitial(ctx, seed); err != nil {
			return checkpoint.Population{}, fmt.Errorf("failed to journal round %d: %w", seed.RoundID, err)
		}
		done[seed.RoundID] = seed
		c.mu.Lock()
		c.round = len(done)
		c.mu.Unlock()
	}

	others := make([]*models.Seed, 0, len(grid))
	for _, seed := range grid {
		executed := done[seed.RoundID]
		if executed.Outcome.IsCollision() {
			continue
		}
		others = append(others, executed)
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].LossValue() < others[j].LossValue()
	})

	c.logger.Info("Initial sweep finished",
		"executed", len(grid),
		"collisions", len(grid)-len(others))
	return checkpoint.Population{Seeds: others, Executed: len(grid)}, nil
}

// checkJournalled validates one initial journal entry against the grid.
func checkJournalled(grid []*models.Seed, done map[int]*models.Seed, seed *models.Seed) error {
	malformed := func(format string, args ...any) error {
		return &checkpoint.StateError{Record: checkpoint.RecordInitial, Reason: fmt.Sprintf(format, args...)}
	}
	if seed == nil || seed.RoundID < 0 || seed.RoundID >= len(grid) {
		return malformed("round id outside the initial grid")
	}
	if _, dup := done[seed.RoundID]; dup {
		return malformed("round %d journalled twice", seed.RoundID)
	}
	if !seed.Executed() || !seed.Resolved() {
		return malformed("round %d is incomplete", seed.RoundID)
	}
	want := grid[seed.RoundID]
	if *seed.PEgo != *want.PEgo || *seed.PNpc != *want.PNpc || *seed.VNpc != *want.VNpc {
		return malformed("round %d does not match the configured grid", seed.RoundID)
	}
	return nil
}

// resumePoint validates the saved progress or derives the starting point.
func (c *Campaign) resumePoint(ctx context.Context, pop checkpoint.Population) (checkpoint.Progress, error) {
	progress, ok, err := c.store.LoadProgress(ctx)
	if err != nil {
		return checkpoint.Progress{}, fmt.Errorf("failed to load progress: %w", err)
	}
	if !ok {
		return checkpoint.Progress{
			CampaignID:   utils.GenerateCampaignID(),
			CurrentRound: pop.Executed,
		}, nil
	}
	if progress.CurrentSeedIndex < 0 || progress.CurrentSeedIndex > len(pop.Seeds) {
		return checkpoint.Progress{}, &checkpoint.StateError{
			Record: checkpoint.RecordProgress,
			Reason: fmt.Sprintf("seed index %d outside population of %d", progress.CurrentSeedIndex, len(pop.Seeds)),
		}
	}
	if progress.CurrentRound < pop.Executed {
		return checkpoint.Progress{}, &checkpoint.StateError{
			Record: checkpoint.RecordProgress,
			Reason: fmt.Sprintf("current round %d below initial executions %d", progress.CurrentRound, pop.Executed),
		}
	}
	if progress.CampaignID == "" {
		progress.CampaignID = utils.GenerateCampaignID()
	}
	c.logger.Info("Resuming campaign",
		"campaign_id", progress.CampaignID,
		"seed_index", progress.CurrentSeedIndex,
		"current_round", progress.CurrentRound)
	return progress, nil
}

// execute runs one seed and attaches its outcome. Only a cancelled context
// produces an error.
func (c *Campaign) execute(ctx context.Context, seed *models.Seed, phase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	out, err := c.exec.Execute(ctx, seed)
	if err != nil {
		return err
	}
	if err := seed.Attach(out); err != nil {
		return err
	}
	metrics.RecordRound(c.collector, phase, seed, time.Since(start))
	c.logger.Info("Round finished", "phase", phase, "seed", seed)
	return nil
}

func (c *Campaign) saveProgress(ctx context.Context, index int) error {
	c.mu.RLock()
	p := checkpoint.Progress{
		CampaignID:       c.campaignID,
		CurrentRound:     c.round,
		CurrentSeedIndex: index,
	}
	c.mu.RUnlock()
	if err := c.store.SaveProgress(ctx, p); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func (c *Campaign) recordFinding(ctx context.Context, kind checkpoint.FindingKind, seed *models.Seed) error {
	if err := c.store.RecordFinding(ctx, kind, seed); err != nil {
		return fmt.Errorf("failed to record round %d: %w", seed.RoundID, err)
	}
	c.mu.Lock()
	c.findings = append(c.findings, checkpoint.Finding{Kind: kind, Seed: seed})
	c.mu.Unlock()
	return nil
}

func (c *Campaign) reloadFindings(ctx context.Context) error {
	f, err := c.store.LoadFindings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load findings: %w", err)
	}
	entries := make([]checkpoint.Finding, 0, len(f.Collision)+len(f.Other))
	for _, s := range f.Collision {
		entries = append(entries, checkpoint.Finding{Kind: checkpoint.FindingCollision, Seed: s})
	}
	for _, s := range f.Other {
		entries = append(entries, checkpoint.Finding{Kind: checkpoint.FindingOther, Seed: s})
	}
	c.mu.Lock()
	c.findings = entries
	c.mu.Unlock()
	return nil
}

func (c *Campaign) setPopulation(pop checkpoint.Population) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.population = pop.Seeds
	c.executed = pop.Executed
}

func (c *Campaign) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the driver's current state
func (c *Campaign) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Findings returns the collision and other seeds recorded so far
func (c *Campaign) Findings() *checkpoint.Findings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return checkpoint.BuildFindings(c.findings)
}

// Population returns the sorted initial population, empty before the
// initial sweep completes
func (c *Campaign) Population() []*models.Seed {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*models.Seed(nil), c.population...)
}

// Snapshot returns the campaign's current status
func (c *Campaign) Snapshot() Snapshot {
	stats := metrics.ConvertToCampaignStats(c.collector)
	findings := c.Findings()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		CampaignID:       c.campaignID,
		State:            c.state,
		CurrentRound:     c.round,
		CurrentSeedIndex: c.seedIndex,
		PopulationSize:   len(c.population),
		InitialExecuted:  c.executed,
		Collisions:       len(findings.Collision),
		Others:           len(findings.Other),
		Searches:         len(c.searches),
		Stats:            stats,
	}
}

func (c *Campaign) result() *Result {
	findings := c.Findings()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Result{
		CampaignID: c.campaignID,
		Population: append([]*models.Seed(nil), c.population...),
		Findings:   findings,
		Stats:      metrics.ConvertToCampaignStats(c.collector),
		Searches:   append([]SearchResult(nil), c.searches...),
	}
}
