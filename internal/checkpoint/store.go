package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

var (
	// ErrMalformedState is wrapped by every StateError.
	ErrMalformedState = errors.New("malformed checkpoint state")
	// ErrUnknownStore is returned by NewStore for an unsupported backend.
	ErrUnknownStore = errors.New("unknown checkpoint store")
)

// StateError reports a persisted record that is missing or inconsistent
type StateError struct {
	Record string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("checkpoint %s: %s", e.Record, e.Reason)
}

func (e *StateError) Unwrap() error {
	return ErrMalformedState
}

func stateErrorf(record, format string, args ...any) error {
	return &StateError{Record: record, Reason: fmt.Sprintf(format, args...)}
}

// Record names shared by all backends
const (
	RecordPopulation = "population"
	RecordOrder      = "order"
	RecordProgress   = "progress"
	RecordInitial    = "initial"
	RecordFindings   = "findings"
)

// Population is the executed initial sweep minus its collisions, sorted by loss.
type Population struct {
	Seeds []*models.Seed
	// Executed counts every initial-sweep execution, collisions included.
	Executed int
}

// Progress marks where guided search resumes
type Progress struct {
	CampaignID       string `yaml:"campaign_id"`
	CurrentRound     int    `yaml:"current_round"`
	CurrentSeedIndex int    `yaml:"current_seed_index"`
}

// FindingKind separates collision seeds from every other terminal seed
type FindingKind string

const (
	FindingCollision FindingKind = "collision"
	FindingOther     FindingKind = "other"
)

// ParseFindingKind validates a finding kind name
func ParseFindingKind(s string) (FindingKind, error) {
	switch FindingKind(s) {
	case FindingCollision, FindingOther:
		return FindingKind(s), nil
	default:
		return "", &models.UnknownEnumError{Enum: "finding kind", Value: s}
	}
}

// Finding is one journal entry
type Finding struct {
	Kind FindingKind  `yaml:"kind"`
	Seed *models.Seed `yaml:"seed"`
}

// Findings holds the campaign's deliverables, each list ascending by round id
type Findings struct {
	Collision []*models.Seed
	Other     []*models.Seed
}

// Of returns the seeds of one kind
func (f *Findings) Of(kind FindingKind) []*models.Seed {
	if kind == FindingCollision {
		return f.Collision
	}
	return f.Other
}

// BuildFindings replays journal entries in order. A later entry for the same
// round id replaces the earlier one, whichever kind either had.
func BuildFindings(entries []Finding) *Findings {
	latest := make(map[int]Finding, len(entries))
	for _, e := range entries {
		if e.Seed == nil {
			continue
		}
		latest[e.Seed.RoundID] = e
	}
	f := &Findings{}
	for _, e := range latest {
		switch e.Kind {
		case FindingCollision:
			f.Collision = append(f.Collision, e.Seed)
		case FindingOther:
			f.Other = append(f.Other, e.Seed)
		}
	}
	byRound := func(seeds []*models.Seed) {
		sort.Slice(seeds, func(i, j int) bool { return seeds[i].RoundID < seeds[j].RoundID })
	}
	byRound(f.Collision)
	byRound(f.Other)
	return f
}

// Store persists campaign state. Every write is durable when it returns.
type Store interface {
	Init(ctx context.Context) error

	// SavePopulation writes the sorted population and its round-id order.
	SavePopulation(ctx context.Context, pop Population) error
	// LoadPopulation reports false when no population has been saved.
	LoadPopulation(ctx context.Context) (Population, bool, error)

	SaveProgress(ctx context.Context, p Progress) error
	LoadProgress(ctx context.Context) (Progress, bool, error)

	// AppendInitial journals one executed initial-sweep seed.
	AppendInitial(ctx context.Context, seed *models.Seed) error
	// LoadInitial returns the journalled initial seeds in execution order.
	LoadInitial(ctx context.Context) ([]*models.Seed, error)

	RecordFinding(ctx context.Context, kind FindingKind, seed *models.Seed) error
	LoadFindings(ctx context.Context) (*Findings, error)
	// TruncateFindings drops findings with a round id at or above fromRound.
	TruncateFindings(ctx context.Context, fromRound int) error

	Close() error
}

// assemblePopulation checks a decoded population against its order record.
func assemblePopulation(order []int, seeds map[int]*models.Seed, executed int) (Population, error) {
	if len(order) != len(seeds) {
		return Population{}, stateErrorf(RecordOrder, "%d round ids for %d seeds", len(order), len(seeds))
	}
	if executed < len(seeds) {
		return Population{}, stateErrorf(RecordPopulation, "executed count %d below population size %d", executed, len(seeds))
	}
	pop := Population{Seeds: make([]*models.Seed, 0, len(order)), Executed: executed}
	seen := make(map[int]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return Population{}, stateErrorf(RecordOrder, "duplicate round id %d", id)
		}
		seen[id] = true
		seed, ok := seeds[id]
		if !ok || seed == nil {
			return Population{}, stateErrorf(RecordOrder, "round id %d has no seed", id)
		}
		if seed.RoundID != id {
			return Population{}, stateErrorf(RecordPopulation, "seed keyed %d has round id %d", id, seed.RoundID)
		}
		if !seed.Executed() {
			return Population{}, stateErrorf(RecordPopulation, "seed %d has no outcome", id)
		}
		if !seed.Resolved() {
			return Population{}, stateErrorf(RecordPopulation, "seed %d has unset parameters", id)
		}
		pop.Seeds = append(pop.Seeds, seed)
	}
	return pop, nil
}

// splitPopulation is the inverse of assemblePopulation.
func splitPopulation(pop Population) ([]int, map[int]*models.Seed) {
	order := make([]int, 0, len(pop.Seeds))
	seeds := make(map[int]*models.Seed, len(pop.Seeds))
	for _, s := range pop.Seeds {
		order = append(order, s.RoundID)
		seeds[s.RoundID] = s
	}
	return order, seeds
}
