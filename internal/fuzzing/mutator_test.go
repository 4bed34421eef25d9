package fuzzing

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

func newTestMutator(seed int64) *Mutator {
	cfg := config.Default()
	return NewMutator(cfg.Parameters, cfg.Mutation, utils.NewRandSource(seed))
}

func executedSeed(id int, pe, pn, v float64, cp *models.ConflictPoint) *models.Seed {
	s := models.NewSeed(id, pe, pn, v)
	out := models.NewRunOutcome(models.ResultArrive)
	out.ConflictPoint = cp
	if cp != nil {
		out.Loss = cp.Loss
	}
	if err := s.Attach(out); err != nil {
		panic(err)
	}
	return s
}

// tolerance absorbs float rounding of the window edges
const tolerance = 1e-9

func TestMutateStaysInWindow(t *testing.T) {
	m := newTestMutator(1)
	parent := executedSeed(0, 5, 5, 30, nil)

	for i := 0; i < 10000; i++ {
		child, err := m.Mutate(parent, i+1)
		if err != nil {
			t.Fatalf("Mutate failed: %v", err)
		}
		if *child.PEgo < 4.9-tolerance || *child.PEgo > 5.1+tolerance {
			t.Fatalf("p_ego %f outside [4.9, 5.1]", *child.PEgo)
		}
		if *child.PNpc < 4.9-tolerance || *child.PNpc > 5.1+tolerance {
			t.Fatalf("p_npc %f outside [4.9, 5.1]", *child.PNpc)
		}
		// velocity step is 4, so the window is [29.6, 30.4]
		if *child.VNpc < 29.6-tolerance || *child.VNpc > 30.4+tolerance {
			t.Fatalf("v_npc %f outside [29.6, 30.4]", *child.VNpc)
		}
	}
}

func TestMutateClampsToBounds(t *testing.T) {
	m := newTestMutator(2)
	parent := executedSeed(0, 0, 10, 60, nil)

	for i := 0; i < 1000; i++ {
		child, err := m.Mutate(parent, 1)
		if err != nil {
			t.Fatalf("Mutate failed: %v", err)
		}
		if *child.PEgo < 0 || *child.PEgo > 0.1+tolerance {
			t.Fatalf("p_ego %f outside [0, 0.1]", *child.PEgo)
		}
		if *child.PNpc < 9.9-tolerance || *child.PNpc > 10 {
			t.Fatalf("p_npc %f outside [9.9, 10]", *child.PNpc)
		}
		if *child.VNpc < 59.6-tolerance || *child.VNpc > 60 {
			t.Fatalf("v_npc %f outside [59.6, 60]", *child.VNpc)
		}
	}
}

func TestMutateOutOfBoundsParentIsClamped(t *testing.T) {
	m := newTestMutator(3)
	parent := executedSeed(0, 12, 5, 5, nil)
	child, err := m.Mutate(parent, 1)
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if *child.PEgo != 10 {
		t.Errorf("Expected p_ego clamped to 10, got %f", *child.PEgo)
	}
}

func TestMutateCarriesChainAndCapability(t *testing.T) {
	m := newTestMutator(4)
	parent := models.NewSeed(7, 5, 5, 30)
	parent.ActionCapability = 2
	parent.ActionChain = models.ActionChain{{Tick: 40, Action: models.ActionDecelerate}}
	if err := parent.Attach(models.NewRunOutcome(models.ResultTimeout)); err != nil {
		t.Fatal(err)
	}

	child, err := m.Mutate(parent, 99)
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if child.RoundID != 99 {
		t.Errorf("Expected round id 99, got %d", child.RoundID)
	}
	if child.ActionCapability != 3 {
		t.Errorf("Expected capability 3, got %d", child.ActionCapability)
	}
	if len(child.ActionChain) != 1 || child.ActionChain[0] != parent.ActionChain[0] {
		t.Errorf("Expected chain copied, got %v", child.ActionChain)
	}
	if child.Executed() {
		t.Error("Expected child to be unexecuted")
	}

	child.ActionChain[0].Tick = 0
	if parent.ActionChain[0].Tick != 40 {
		t.Error("Child chain aliases the parent's")
	}
}

func TestMutateRejectsBadParents(t *testing.T) {
	m := newTestMutator(5)

	if _, err := m.Mutate(models.NewSeed(0, 1, 1, 1), 1); !errors.Is(err, models.ErrNotExecuted) {
		t.Errorf("Expected ErrNotExecuted, got %v", err)
	}

	unresolved := &models.Seed{RoundID: 1, Outcome: models.NewRunOutcome(models.ResultArrive)}
	if _, err := m.Mutate(unresolved, 2); !errors.Is(err, ErrUnresolvedParameter) {
		t.Errorf("Expected ErrUnresolvedParameter, got %v", err)
	}
}

func TestGuideAddsSingleAccel(t *testing.T) {
	cp := &models.ConflictPoint{EgoPassIndex: 85, ObjPassIndex: 120, Loss: models.Loss{Distance: 0.5}}

	for s := int64(1); s <= 200; s++ {
		m := newTestMutator(s)
		prior := executedSeed(0, 5, 5, 30, cp)
		next, err := m.Next(prior, 1, false)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if len(next.ActionChain) != 1 {
			t.Fatalf("Expected exactly one action, got %v", next.ActionChain)
		}
		a := next.ActionChain[0]
		if a.Action != models.ActionAccelerate {
			t.Fatalf("Expected acc, got %s", a.Action)
		}
		if a.Tick < 0 || a.Tick > 80 || a.Tick%10 != 0 {
			t.Fatalf("Expected tick in [0, 80] and a multiple of 10, got %d", a.Tick)
		}
	}
}

func TestGuideDirection(t *testing.T) {
	tests := []struct {
		name     string
		cp       *models.ConflictPoint
		expected models.ActionKind
		maxTick  int
		ok       bool
	}{
		{"Ego first", &models.ConflictPoint{EgoPassIndex: 30, ObjPassIndex: 200}, models.ActionAccelerate, 30, true},
		{"NPC first", &models.ConflictPoint{EgoPassIndex: 200, ObjPassIndex: 45}, models.ActionDecelerate, 40, true},
		{"Same tick", &models.ConflictPoint{EgoPassIndex: 50, ObjPassIndex: 50}, models.ActionDecelerate, 50, true},
		{"No conflict point", nil, "", 0, false},
		{"Undefined conflict point", &models.ConflictPoint{EgoPassIndex: -1, ObjPassIndex: -1}, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMutator(9)
			prior := executedSeed(0, 5, 5, 30, tt.cp)
			next := models.NewSeed(1, 5, 5, 30)

			action, ok := m.Guide(prior, next)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				if len(next.ActionChain) != 0 {
					t.Errorf("Expected chain untouched, got %v", next.ActionChain)
				}
				return
			}
			if action.Action != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, action.Action)
			}
			if action.Tick > tt.maxTick || action.Tick%10 != 0 {
				t.Errorf("Expected tick <= %d and a multiple of 10, got %d", tt.maxTick, action.Tick)
			}
			if !next.ActionChain.Contains(action) {
				t.Errorf("Expected %v in chain %v", action, next.ActionChain)
			}
		})
	}
}

func TestGuideSkipsDuplicate(t *testing.T) {
	cp := &models.ConflictPoint{EgoPassIndex: 5, ObjPassIndex: 100}
	m := newTestMutator(11)
	prior := executedSeed(0, 5, 5, 30, cp)

	// ego index 5 floors every draw to tick 0
	next := models.NewSeed(1, 5, 5, 30)
	next.ActionChain = models.ActionChain{{Tick: 0, Action: models.ActionAccelerate}}
	if _, ok := m.Guide(prior, next); !ok {
		t.Fatal("Expected a guided action")
	}
	if len(next.ActionChain) != 1 {
		t.Errorf("Expected duplicate skipped, got %v", next.ActionChain)
	}
}

func TestNextMergesObservedActions(t *testing.T) {
	m := newTestMutator(12)
	prior := models.NewSeed(0, 5, 5, 30)
	out := models.NewRunOutcome(models.ResultArrive)
	out.ActionSequence = []models.ActionRecord{
		{Tick: 60, Action: models.ActionLaneChange, Duration: 10},
		{Tick: 80, Action: models.ActionNone},
	}
	if err := prior.Attach(out); err != nil {
		t.Fatal(err)
	}

	merged, err := m.Next(prior, 1, true)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(merged.ActionChain) != 1 || merged.ActionChain[0].Action != models.ActionLaneChange {
		t.Errorf("Expected the lane change merged, got %v", merged.ActionChain)
	}

	plain, err := m.Next(prior, 2, false)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(plain.ActionChain) != 0 {
		t.Errorf("Expected no merged actions, got %v", plain.ActionChain)
	}
}
