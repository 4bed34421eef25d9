package fuzzing

// State is the campaign driver's position in its lifecycle
type State string

const (
	StateInit                 State = "init"
	StateRunInitialPopulation State = "run_initial_population"
	StateSelectNextSeed       State = "select_next_seed"
	StateGuidedSearch         State = "guided_search"
	StateCollisionFound       State = "collision_found"
	StateExhausted            State = "exhausted"
	StateDone                 State = "done"
)

// SearchStatus says why a guided search ended
type SearchStatus string

const (
	SearchCollision           SearchStatus = "collision"
	SearchExhaustedIterations SearchStatus = "exhausted_iterations"
	SearchExhaustedBudget     SearchStatus = "exhausted_budget"
)

// SearchResult summarises the guided search from one initial seed
type SearchResult struct {
	SeedIndex  int          `json:"seed_index"`
	RootRound  int          `json:"root_round"`
	Status     SearchStatus `json:"status"`
	Rounds     int          `json:"rounds"`
	BestRound  int          `json:"best_round"`
	BestLoss   float64      `json:"-"`
	Collisions []int        `json:"collisions,omitempty"`
}
