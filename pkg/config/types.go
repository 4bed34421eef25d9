package config

import (
	"time"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

// Config represents the campaign configuration
type Config struct {
	LogLevel   string     `yaml:"log_level"`
	LogFormat  string     `yaml:"log_format"` // text or json
	Parameters Parameters `yaml:"parameters"`
	Mutation   Mutation   `yaml:"mutation"`
	Conflict   Conflict   `yaml:"conflict"`
	Campaign   Campaign   `yaml:"campaign"`
	Executor   Executor   `yaml:"executor"`
	Status     Status     `yaml:"status"`
}

// Range is one searchable continuous parameter: the closed bounds and the
// grid cell width.
type Range struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
	Step float64 `yaml:"step"`
}

// Bounds returns the closed interval [Low, High]
func (r Range) Bounds() utils.Interval {
	return utils.Interval{Low: r.Low, High: r.High}
}

// Parameters holds the three searchable parameters
type Parameters struct {
	PEgo Range `yaml:"p_ego"`
	PNpc Range `yaml:"p_npc"`
	VNpc Range `yaml:"v_npc"`
}

// Mutation configures the guided mutator
type Mutation struct {
	LearningRate         float64 `yaml:"learning_rate"`
	TickGranularity      int     `yaml:"tick_granularity"`
	MergeObservedActions bool    `yaml:"merge_observed_actions"`
}

// Conflict configures the conflict detector
type Conflict struct {
	EpsilonDistance  float64         `yaml:"epsilon_distance"`
	DeltaEndDistance float64         `yaml:"delta_end_distance"`
	LossMode         models.LossMode `yaml:"loss_mode"`
}

// Campaign configures the driver and its persistence
type Campaign struct {
	ResultDir     string `yaml:"result_dir"`
	Store         string `yaml:"store"` // file or sqlite
	SQLitePath    string `yaml:"sqlite_path"`
	MaxIterations int    `yaml:"max_iterations"`
	TotalRounds   int    `yaml:"total_rounds"`
	RNGSeed       int64  `yaml:"rng_seed"`
}

// Executor selects and configures the scenario executor
type Executor struct {
	Kind         string    `yaml:"kind"` // kinematic or remote
	Address      string    `yaml:"address"`
	ReadyTimeout string    `yaml:"ready_timeout"` // e.g., "30s"
	RunTimeout   string    `yaml:"run_timeout"`   // e.g., "2m"
	Kinematic    Kinematic `yaml:"kinematic"`
}

// Kinematic configures the in-process reference world
type Kinematic struct {
	TickSeconds         float64             `yaml:"tick_seconds"`
	MaxRuntimeSeconds   float64             `yaml:"max_runtime_seconds"`
	ArriveScope         float64             `yaml:"arrive_scope"`
	ActionCheckInterval int                 `yaml:"action_check_interval"`
	ActionOdds          float64             `yaml:"action_odds"`
	ActionDurationTicks int                 `yaml:"action_duration_ticks"`
	EgoSpeedKmh         float64             `yaml:"ego_speed_kmh"`
	CollisionRadius     float64             `yaml:"collision_radius"`
	ActionOptions       []models.ActionKind `yaml:"action_options"`
}

// Status configures the read-only status endpoint. An empty address disables it.
type Status struct {
	Addr string `yaml:"addr"`
}

// GetReadyTimeout parses the ready timeout string to time.Duration
func (e *Executor) GetReadyTimeout() (time.Duration, error) {
	return parseOptionalDuration(e.ReadyTimeout)
}

// GetRunTimeout parses the run timeout string to time.Duration.
// Zero means no per-run deadline.
func (e *Executor) GetRunTimeout() (time.Duration, error) {
	return parseOptionalDuration(e.RunTimeout)
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
