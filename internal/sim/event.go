package sim

import (
	"container/heap"
	"sync"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// EventType represents the type of world event
type EventType string

const (
	// EventTypeActionEnd releases the NPC from the action it is holding
	EventTypeActionEnd EventType = "action_end"

	// EventTypeScriptedAction fires an entry of the seed's action chain
	EventTypeScriptedAction EventType = "scripted_action"

	// EventTypeActionCheck rolls for a spontaneous action
	EventTypeActionCheck EventType = "action_check"
)

// Events at the same tick run in this order.
var eventPriority = map[EventType]int{
	EventTypeActionEnd:      0,
	EventTypeScriptedAction: 1,
	EventTypeActionCheck:    2,
}

// Event is a discrete event in the world, scheduled on a tick
type Event struct {
	Type     EventType
	Tick     int
	Priority int // Lower values = higher priority
	Action   models.ActionKind
	seq      int
}

// EventQueue is a priority queue of events ordered by tick
type EventQueue struct {
	events []*Event
	seq    int
	mu     sync.RWMutex
}

// NewEventQueue creates a new event queue
func NewEventQueue() *EventQueue {
	eq := &EventQueue{
		events: make([]*Event, 0),
	}
	heap.Init(eq)
	return eq
}

// Len returns the number of events in the queue
func (eq *EventQueue) Len() int {
	return len(eq.events)
}

// Less orders by tick, then priority, then scheduling order
func (eq *EventQueue) Less(i, j int) bool {
	a, b := eq.events[i], eq.events[j]
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.seq < b.seq
}

// Swap swaps two events in the queue
func (eq *EventQueue) Swap(i, j int) {
	eq.events[i], eq.events[j] = eq.events[j], eq.events[i]
}

// Push adds an event to the queue
func (eq *EventQueue) Push(x interface{}) {
	eq.events = append(eq.events, x.(*Event))
}

// Pop removes and returns the last event of the heap slice
func (eq *EventQueue) Pop() interface{} {
	old := eq.events
	n := len(old)
	event := old[n-1]
	old[n-1] = nil // avoid memory leak
	eq.events = old[0 : n-1]
	return event
}

// Schedule adds an event to the queue (thread-safe)
func (eq *EventQueue) Schedule(event *Event) {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if p, ok := eventPriority[event.Type]; ok && event.Priority == 0 {
		event.Priority = p
	}
	eq.seq++
	event.seq = eq.seq
	heap.Push(eq, event)
}

// NextDue removes and returns the next event at or before tick, or nil (thread-safe)
func (eq *EventQueue) NextDue(tick int) *Event {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if eq.Len() == 0 || eq.events[0].Tick > tick {
		return nil
	}
	return heap.Pop(eq).(*Event)
}

// Peek returns the next event without removing it (thread-safe)
func (eq *EventQueue) Peek() *Event {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	if eq.Len() == 0 {
		return nil
	}
	return eq.events[0]
}

// Size returns the current queue size (thread-safe)
func (eq *EventQueue) Size() int {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	return eq.Len()
}
