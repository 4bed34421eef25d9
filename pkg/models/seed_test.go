package models

import (
	"errors"
	"math"
	"testing"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

func TestSeedAttachOnce(t *testing.T) {
	s := NewSeed(3, 1, 2, 30)
	if s.Executed() {
		t.Fatal("new seed should not be executed")
	}
	if !math.IsInf(s.LossValue(), 1) {
		t.Errorf("Expected +Inf loss for unexecuted seed, got %f", s.LossValue())
	}

	out := NewRunOutcome(ResultTimeout)
	out.ActionSequence = []ActionRecord{
		{Tick: 40, Action: ActionDecelerate, Duration: 10},
		{Tick: 20, Action: ActionAccelerate, Duration: 10},
	}
	if err := s.Attach(out); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if s.Outcome.ActionSequence[0].Tick != 20 {
		t.Errorf("Expected action sequence sorted on attach, got %+v", s.Outcome.ActionSequence)
	}
	if err := s.Attach(ErrorOutcome()); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("Expected ErrAlreadyExecuted, got %v", err)
	}
}

func TestSeedAddActionDedupesAndSorts(t *testing.T) {
	s := NewSeed(0, 1, 1, 1)
	s.AddAction(ScriptedAction{Tick: 50, Action: ActionAccelerate})
	s.AddAction(ScriptedAction{Tick: 10, Action: ActionDecelerate})
	if s.AddAction(ScriptedAction{Tick: 50, Action: ActionAccelerate}) {
		t.Error("duplicate (tick, action) should not be added")
	}
	if !s.AddAction(ScriptedAction{Tick: 50, Action: ActionDecelerate}) {
		t.Error("same tick with different action should be added")
	}
	if s.AddAction(ScriptedAction{Tick: -1, Action: ActionAccelerate}) {
		t.Error("negative tick should be rejected")
	}
	if len(s.ActionChain) != 3 {
		t.Fatalf("Expected 3 actions, got %d", len(s.ActionChain))
	}
	for i := 1; i < len(s.ActionChain); i++ {
		if s.ActionChain[i].Tick < s.ActionChain[i-1].Tick {
			t.Errorf("chain not sorted: %+v", s.ActionChain)
		}
	}
}

func TestSeedMergeObservedActions(t *testing.T) {
	s := NewSeed(0, 1, 1, 1)
	if err := s.MergeObservedActions(); !errors.Is(err, ErrNotExecuted) {
		t.Fatalf("Expected ErrNotExecuted, got %v", err)
	}
	s.AddAction(ScriptedAction{Tick: 20, Action: ActionAccelerate})
	out := NewRunOutcome(ResultArrive)
	out.ActionSequence = []ActionRecord{
		{Tick: 20, Action: ActionAccelerate, Duration: 10},
		{Tick: 120, Action: ActionLaneChange, Duration: 10},
		{Tick: 140, Action: ActionNone, Duration: 10},
	}
	if err := s.Attach(out); err != nil {
		t.Fatal(err)
	}
	if err := s.MergeObservedActions(); err != nil {
		t.Fatal(err)
	}
	want := ActionChain{{Tick: 20, Action: ActionAccelerate}, {Tick: 120, Action: ActionLaneChange}}
	if len(s.ActionChain) != len(want) {
		t.Fatalf("Expected %v, got %v", want, s.ActionChain)
	}
	for i := range want {
		if s.ActionChain[i] != want[i] {
			t.Errorf("action %d: expected %+v, got %+v", i, want[i], s.ActionChain[i])
		}
	}
}

func TestSeedCloneIsDeep(t *testing.T) {
	s := NewSeed(1, 2, 3, 4)
	s.AddAction(ScriptedAction{Tick: 10, Action: ActionAccelerate})
	out := NewRunOutcome(ResultArrive)
	out.ConflictPoint = &ConflictPoint{EgoPassIndex: 1, ObjPassIndex: 2}
	if err := s.Attach(out); err != nil {
		t.Fatal(err)
	}

	c := s.Clone()
	*c.PEgo = 9
	c.ActionChain[0].Tick = 99
	c.Outcome.ConflictPoint.EgoPassIndex = 7

	if *s.PEgo != 2 || s.ActionChain[0].Tick != 10 || s.Outcome.ConflictPoint.EgoPassIndex != 1 {
		t.Errorf("clone shares state with original: %+v", s)
	}
}

func TestSeedResolveDefaults(t *testing.T) {
	rng := utils.NewRandSource(7)
	ego := utils.Interval{Low: 0, High: 10}
	vel := utils.Interval{Low: 0, High: 60}
	for i := 0; i < 200; i++ {
		s := &Seed{PNpc: Float(4.25)}
		s.ResolveDefaults(rng, ego, ego, vel)
		if !s.Resolved() {
			t.Fatal("seed should be resolved")
		}
		if *s.PNpc != 4.25 {
			t.Errorf("set parameter changed to %f", *s.PNpc)
		}
		if !ego.Contains(*s.PEgo) || *s.PEgo != math.Trunc(*s.PEgo) {
			t.Errorf("p_ego default %f not a whole number in bounds", *s.PEgo)
		}
		if !vel.Contains(*s.VNpc) {
			t.Errorf("v_npc default %f out of bounds", *s.VNpc)
		}
	}
}
