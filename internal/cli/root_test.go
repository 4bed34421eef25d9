package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/report"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// executeCmd runs the root command with the given args and returns stdout, stderr, and error.
func executeCmd(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd := NewRootCmd()
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeConfig writes a small campaign config into dir
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	data := `log_level: error
parameters:
  p_ego: {low: 0, high: 2, step: 1}
  p_npc: {low: 0, high: 2, step: 1}
  v_npc: {low: 16, high: 24, step: 4}
campaign:
  result_dir: ` + filepath.Join(dir, "result") + `
  max_iterations: 2
  rng_seed: 3
executor:
  kinematic:
    max_runtime_seconds: 15
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootHelp(t *testing.T) {
	stdout, _, err := executeCmd("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "scenfuzz") {
		t.Error("expected 'scenfuzz' in help output")
	}
	for _, cmd := range []string{"run", "seeds", "report", "serve-sim", "replay", "version"} {
		if !strings.Contains(stdout, cmd) {
			t.Errorf("expected '%s' command in help output", cmd)
		}
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := executeCmd("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "scenfuzz "+Version) {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestSeeds(t *testing.T) {
	stdout, _, err := executeCmd("seeds", "--log-level", "error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "seeds: 1500") {
		t.Errorf("expected 1500 seeds, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "v_npc: [2 6 10") {
		t.Errorf("expected velocity grid, got:\n%s", stdout)
	}
}

func TestSeedsList(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := executeCmd("seeds", "--config", writeConfig(t, dir), "--list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "seeds: 8") {
		t.Errorf("expected 8 seeds, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "7\t1.5\t1.5\t22") {
		t.Errorf("expected last seed listed, got:\n%s", stdout)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, _, err := executeCmd("seeds", "--log-level", "loud"); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestRunAndReport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	stdout, _, err := executeCmd("run", "--config", cfgPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, "scenfuzz campaign") {
		t.Errorf("expected summary, got:\n%s", stdout)
	}

	resultDir := filepath.Join(dir, "result")
	for _, name := range []string{report.CollisionFile, report.OtherFile, report.InitialFile} {
		if _, err := os.Stat(filepath.Join(resultDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	initial, err := report.ReadSeeds(filepath.Join(resultDir, report.InitialFile))
	if err != nil {
		t.Fatal(err)
	}
	collisions, err := report.ReadSeeds(filepath.Join(resultDir, report.CollisionFile))
	if err != nil {
		t.Fatal(err)
	}
	initialCollisions := 0
	for _, s := range collisions {
		if s.RoundID < 8 {
			initialCollisions++
		}
	}
	if len(initial)+initialCollisions != 8 {
		t.Errorf("expected the 8 initial seeds split between population and collisions, got %d + %d", len(initial), initialCollisions)
	}

	stdout, _, err = executeCmd("report", "--config", cfgPath)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(stdout, "done") {
		t.Errorf("expected finished campaign in report, got:\n%s", stdout)
	}
}

func TestRunSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	if _, _, err := executeCmd("run", "--config", cfgPath, "--store", "sqlite"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "result", "campaign.db")); err != nil {
		t.Errorf("expected sqlite database: %v", err)
	}
}

func TestRunRejectsUnknownStore(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := executeCmd("run", "--config", writeConfig(t, dir), "--store", "redis"); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestReplay(t *testing.T) {
	stdout, _, err := executeCmd("replay", "--log-level", "error",
		"--p-ego", "0", "--p-npc", "0", "--v-npc", "18.75")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !strings.Contains(stdout, "result: "+string(models.ResultCollision)) {
		t.Errorf("expected collision, got:\n%s", stdout)
	}
}

func TestReplayDrawsUnsetParameters(t *testing.T) {
	stdout, _, err := executeCmd("replay", "--log-level", "error", "--v-npc", "0", "--action", "10:dec")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !strings.Contains(stdout, "v_npc=0") {
		t.Errorf("expected the given velocity kept, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "action: dec at tick 10") {
		t.Errorf("expected the scripted action to fire, got:\n%s", stdout)
	}
}

func TestParseActions(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    models.ActionChain
		wantErr bool
	}{
		{"Empty", nil, nil, false},
		{"Sorted and deduplicated", []string{"40:lane", "10:acc", "10:acc"}, models.ActionChain{
			{Tick: 10, Action: models.ActionAccelerate},
			{Tick: 40, Action: models.ActionLaneChange},
		}, false},
		{"Missing separator", []string{"10acc"}, nil, true},
		{"Negative tick", []string{"-1:acc"}, nil, true},
		{"Unknown kind", []string{"10:fly"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseActions(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
