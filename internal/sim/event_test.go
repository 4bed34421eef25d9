package sim

import (
	"testing"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

func TestEventQueueOrdering(t *testing.T) {
	eq := NewEventQueue()

	eq.Schedule(&Event{Type: EventTypeActionCheck, Tick: 20})
	eq.Schedule(&Event{Type: EventTypeScriptedAction, Tick: 20, Action: models.ActionAccelerate})
	eq.Schedule(&Event{Type: EventTypeActionEnd, Tick: 20})
	eq.Schedule(&Event{Type: EventTypeScriptedAction, Tick: 10, Action: models.ActionDecelerate})
	eq.Schedule(&Event{Type: EventTypeScriptedAction, Tick: 20, Action: models.ActionLaneChange})

	if eq.Size() != 5 {
		t.Fatalf("Expected 5 events, got %d", eq.Size())
	}

	want := []struct {
		typ    EventType
		tick   int
		action models.ActionKind
	}{
		{EventTypeScriptedAction, 10, models.ActionDecelerate},
		{EventTypeActionEnd, 20, ""},
		{EventTypeScriptedAction, 20, models.ActionAccelerate},
		{EventTypeScriptedAction, 20, models.ActionLaneChange},
		{EventTypeActionCheck, 20, ""},
	}
	for i, w := range want {
		ev := eq.NextDue(20)
		if ev == nil {
			t.Fatalf("event %d: expected %s, got nil", i, w.typ)
		}
		if ev.Type != w.typ || ev.Tick != w.tick || ev.Action != w.action {
			t.Errorf("event %d: expected %s@%d %s, got %s@%d %s", i, w.typ, w.tick, w.action, ev.Type, ev.Tick, ev.Action)
		}
	}
	if eq.Size() != 0 {
		t.Errorf("Expected empty queue, got %d", eq.Size())
	}
}

func TestEventQueueNextDue(t *testing.T) {
	eq := NewEventQueue()
	eq.Schedule(&Event{Type: EventTypeActionEnd, Tick: 5})

	if ev := eq.NextDue(4); ev != nil {
		t.Fatalf("Expected no event due at tick 4, got %+v", ev)
	}
	if p := eq.Peek(); p == nil || p.Tick != 5 {
		t.Fatalf("Expected peek at tick 5, got %+v", p)
	}
	if ev := eq.NextDue(5); ev == nil {
		t.Fatal("Expected event due at tick 5")
	}
	if eq.Peek() != nil {
		t.Error("Expected empty queue after pop")
	}
}

func TestEventQueueDefaultPriority(t *testing.T) {
	eq := NewEventQueue()
	ev := &Event{Type: EventTypeActionCheck, Tick: 1}
	eq.Schedule(ev)
	if ev.Priority != 2 {
		t.Errorf("Expected action check priority 2, got %d", ev.Priority)
	}
}
