package fuzzing

import (
	"math"
	"testing"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
)

func TestGenerateInitialSeedsCoverage(t *testing.T) {
	seeds := GenerateInitialSeeds(config.Default().Parameters)
	if len(seeds) != 1500 {
		t.Fatalf("Expected 1500 seeds, got %d", len(seeds))
	}

	for i, s := range seeds {
		if s.RoundID != i {
			t.Fatalf("Expected round id %d, got %d", i, s.RoundID)
		}
		if s.ActionCapability != 0 || len(s.ActionChain) != 0 || s.Executed() {
			t.Fatalf("Seed %d is not a fresh initial seed: %+v", i, s)
		}
	}

	first, last := seeds[0], seeds[len(seeds)-1]
	if *first.PEgo != 0.5 || *first.PNpc != 0.5 || *first.VNpc != 2 {
		t.Errorf("Expected first seed (0.5, 0.5, 2), got (%g, %g, %g)", *first.PEgo, *first.PNpc, *first.VNpc)
	}
	if *last.PEgo != 9.5 || *last.PNpc != 9.5 || *last.VNpc != 58 {
		t.Errorf("Expected last seed (9.5, 9.5, 58), got (%g, %g, %g)", *last.PEgo, *last.PNpc, *last.VNpc)
	}

	// velocity varies fastest, ego slowest
	if *seeds[1].VNpc != 6 || *seeds[1].PEgo != 0.5 {
		t.Errorf("Expected velocity to vary first, got %+v", seeds[1])
	}
	if *seeds[150].PEgo != 1.5 || *seeds[150].PNpc != 0.5 {
		t.Errorf("Expected ego to advance after 150 seeds, got (%g, %g)", *seeds[150].PEgo, *seeds[150].PNpc)
	}
}

func TestGridValues(t *testing.T) {
	tests := []struct {
		name     string
		r        config.Range
		expected []float64
	}{
		{"Unit steps", config.Range{Low: 0, High: 3, Step: 1}, []float64{0.5, 1.5, 2.5}},
		{"Wide steps", config.Range{Low: 0, High: 60, Step: 20}, []float64{10, 30, 50}},
		{"Partial last cell", config.Range{Low: 0, High: 2.4, Step: 1}, []float64{0.5, 1.5}},
		{"Step wider than range", config.Range{Low: 0, High: 1, Step: 4}, []float64{}},
		{"Invalid step", config.Range{Low: 0, High: 1, Step: 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GridValues(tt.r)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > 1e-9 {
					t.Errorf("Expected %v, got %v", tt.expected, got)
				}
			}
		})
	}
}

func TestGridValuesNoAccumulatedError(t *testing.T) {
	values := GridValues(config.Range{Low: 0, High: 10, Step: 0.1})
	if len(values) != 100 {
		t.Fatalf("Expected 100 values, got %d", len(values))
	}
	if got := values[99]; math.Abs(got-9.95) > 1e-9 {
		t.Errorf("Expected last value 9.95, got %.12f", got)
	}
}
