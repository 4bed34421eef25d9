package config

import "testing"

func TestParseConfigYAMLStringEmpty(t *testing.T) {
	cfg, err := ParseConfigYAMLString("")
	if err != nil {
		t.Fatalf("ParseConfigYAMLString failed: %v", err)
	}
	if cfg.Executor.Kind != "kinematic" {
		t.Fatalf("expected default executor kinematic, got %q", cfg.Executor.Kind)
	}
}

func TestParseConfigYAMLStringInvalid(t *testing.T) {
	tests := []struct {
		name     string
		yamlText string
	}{
		{
			name:     "Invalid log level",
			yamlText: `log_level: loud`,
		},
		{
			name:     "Invalid log format",
			yamlText: `log_format: xml`,
		},
		{
			name:     "Inverted range",
			yamlText: "parameters:\n  p_ego: {low: 10, high: 0, step: 1}",
		},
		{
			name:     "Zero step",
			yamlText: "parameters:\n  v_npc: {low: 0, high: 60, step: 0}",
		},
		{
			name:     "Learning rate out of range",
			yamlText: "mutation:\n  learning_rate: 1.5",
		},
		{
			name:     "Unknown loss mode",
			yamlText: "conflict:\n  loss_mode: speed",
		},
		{
			name:     "Delta above epsilon",
			yamlText: "conflict:\n  epsilon_distance: 0.5\n  delta_end_distance: 1",
		},
		{
			name:     "Unknown store",
			yamlText: "campaign:\n  store: redis",
		},
		{
			name:     "Zero iterations",
			yamlText: "campaign:\n  max_iterations: 0",
		},
		{
			name:     "Unknown executor",
			yamlText: "executor:\n  kind: carla",
		},
		{
			name:     "Remote without address",
			yamlText: "executor:\n  kind: remote\n  address: \"\"",
		},
		{
			name:     "Bad ready timeout",
			yamlText: "executor:\n  ready_timeout: soon",
		},
		{
			name:     "Unknown action option",
			yamlText: "executor:\n  kinematic:\n    action_options: [fly]",
		},
		{
			name:     "Empty action options",
			yamlText: "executor:\n  kinematic:\n    action_options: []",
		},
		{
			name:     "Malformed yaml",
			yamlText: "campaign: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigYAMLString(tt.yamlText)
			if err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}
