package config

import (
	"fmt"
	"os"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Parameters: Parameters{
			PEgo: Range{Low: 0, High: 10, Step: 1},
			PNpc: Range{Low: 0, High: 10, Step: 1},
			VNpc: Range{Low: 0, High: 60, Step: 4},
		},
		Mutation: Mutation{
			LearningRate:    0.2,
			TickGranularity: 10,
		},
		Conflict: Conflict{
			EpsilonDistance:  1.0,
			DeltaEndDistance: 0.003,
			LossMode:         models.LossByDistance,
		},
		Campaign: Campaign{
			ResultDir:     "./result",
			Store:         "file",
			MaxIterations: 50,
			TotalRounds:   10000,
		},
		Executor: Executor{
			Kind:         "kinematic",
			Address:      "localhost:50061",
			ReadyTimeout: "30s",
			Kinematic: Kinematic{
				TickSeconds:         0.01,
				MaxRuntimeSeconds:   30,
				ArriveScope:         5,
				ActionCheckInterval: 20,
				ActionOdds:          0.3,
				ActionDurationTicks: 10,
				EgoSpeedKmh:         30,
				CollisionRadius:     2,
				ActionOptions:       append([]models.ActionKind(nil), models.DefaultActionOptions...),
			},
		},
	}
}

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate re-checks a configuration, typically after flag overrides
func (c *Config) Validate() error {
	return validateConfig(c)
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log_format: %s (must be text or json)", cfg.LogFormat)
	}

	if err := validateParameters(&cfg.Parameters); err != nil {
		return fmt.Errorf("parameters validation failed: %w", err)
	}
	if err := validateMutation(&cfg.Mutation); err != nil {
		return fmt.Errorf("mutation validation failed: %w", err)
	}
	if err := validateConflict(&cfg.Conflict); err != nil {
		return fmt.Errorf("conflict validation failed: %w", err)
	}
	if err := validateCampaign(&cfg.Campaign); err != nil {
		return fmt.Errorf("campaign validation failed: %w", err)
	}
	if err := validateExecutor(&cfg.Executor); err != nil {
		return fmt.Errorf("executor validation failed: %w", err)
	}

	return nil
}

// validateParameters validates the three parameter ranges
func validateParameters(p *Parameters) error {
	ranges := []struct {
		name string
		r    Range
	}{
		{"p_ego", p.PEgo},
		{"p_npc", p.PNpc},
		{"v_npc", p.VNpc},
	}
	for _, nr := range ranges {
		if nr.r.High <= nr.r.Low {
			return fmt.Errorf("%s: high (%g) must be greater than low (%g)", nr.name, nr.r.High, nr.r.Low)
		}
		if nr.r.Step <= 0 {
			return fmt.Errorf("%s: step must be positive, got %g", nr.name, nr.r.Step)
		}
	}
	return nil
}

// validateMutation validates the mutator settings
func validateMutation(m *Mutation) error {
	if m.LearningRate <= 0 || m.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %g", m.LearningRate)
	}
	if m.TickGranularity < 1 {
		return fmt.Errorf("tick_granularity must be at least 1, got %d", m.TickGranularity)
	}
	return nil
}

// validateConflict validates the conflict detector thresholds
func validateConflict(c *Conflict) error {
	if c.EpsilonDistance <= 0 {
		return fmt.Errorf("epsilon_distance must be positive, got %g", c.EpsilonDistance)
	}
	if c.DeltaEndDistance < 0 {
		return fmt.Errorf("delta_end_distance cannot be negative, got %g", c.DeltaEndDistance)
	}
	if c.DeltaEndDistance > c.EpsilonDistance {
		return fmt.Errorf("delta_end_distance (%g) cannot exceed epsilon_distance (%g)", c.DeltaEndDistance, c.EpsilonDistance)
	}
	return nil
}

// validateCampaign validates the driver and persistence settings
func validateCampaign(c *Campaign) error {
	if c.ResultDir == "" {
		return fmt.Errorf("result_dir cannot be empty")
	}
	switch c.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid store: %s (must be file or sqlite)", c.Store)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.TotalRounds <= 0 {
		return fmt.Errorf("total_rounds must be positive, got %d", c.TotalRounds)
	}
	return nil
}

// validateExecutor validates the executor selection
func validateExecutor(e *Executor) error {
	switch e.Kind {
	case "kinematic":
		if err := validateKinematic(&e.Kinematic); err != nil {
			return fmt.Errorf("kinematic: %w", err)
		}
	case "remote":
		if e.Address == "" {
			return fmt.Errorf("address is required for the remote executor")
		}
	default:
		return fmt.Errorf("invalid kind: %s (must be kinematic or remote)", e.Kind)
	}
	if _, err := e.GetReadyTimeout(); err != nil {
		return fmt.Errorf("invalid ready_timeout %s: %w", e.ReadyTimeout, err)
	}
	if _, err := e.GetRunTimeout(); err != nil {
		return fmt.Errorf("invalid run_timeout %s: %w", e.RunTimeout, err)
	}
	return nil
}

// validateKinematic validates the reference world settings
func validateKinematic(k *Kinematic) error {
	if k.TickSeconds <= 0 {
		return fmt.Errorf("tick_seconds must be positive, got %g", k.TickSeconds)
	}
	if k.MaxRuntimeSeconds <= 0 {
		return fmt.Errorf("max_runtime_seconds must be positive, got %g", k.MaxRuntimeSeconds)
	}
	if k.ArriveScope <= 0 {
		return fmt.Errorf("arrive_scope must be positive, got %g", k.ArriveScope)
	}
	if k.ActionCheckInterval < 1 {
		return fmt.Errorf("action_check_interval must be at least 1, got %d", k.ActionCheckInterval)
	}
	if k.ActionOdds < 0 || k.ActionOdds > 1 {
		return fmt.Errorf("action_odds must be between 0 and 1, got %g", k.ActionOdds)
	}
	if k.ActionDurationTicks < 1 {
		return fmt.Errorf("action_duration_ticks must be at least 1, got %d", k.ActionDurationTicks)
	}
	if k.EgoSpeedKmh <= 0 {
		return fmt.Errorf("ego_speed_kmh must be positive, got %g", k.EgoSpeedKmh)
	}
	if k.CollisionRadius <= 0 {
		return fmt.Errorf("collision_radius must be positive, got %g", k.CollisionRadius)
	}
	if len(k.ActionOptions) == 0 {
		return fmt.Errorf("action_options cannot be empty")
	}
	return nil
}
