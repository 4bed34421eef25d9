package models

import "sort"

// ScriptedAction is one entry of a seed's action chain: fire Action at Tick.
type ScriptedAction struct {
	Tick   int        `yaml:"tick" json:"tick"`
	Action ActionKind `yaml:"action" json:"action"`
}

// ActionRecord is an action that actually fired during an episode.
type ActionRecord struct {
	Tick     int        `yaml:"tick" json:"tick"`
	Action   ActionKind `yaml:"action" json:"action"`
	Duration int        `yaml:"duration" json:"duration"`
}

// ActionChain is the ordered list of scripted actions for one seed
type ActionChain []ScriptedAction

// Contains reports whether the exact (tick, action) pair is already scheduled.
func (c ActionChain) Contains(a ScriptedAction) bool {
	for _, existing := range c {
		if existing == a {
			return true
		}
	}
	return false
}

// Sort orders the chain by tick, keeping insertion order for equal ticks.
func (c ActionChain) Sort() {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Tick < c[j].Tick })
}

// Clone returns an independent copy
func (c ActionChain) Clone() ActionChain {
	if c == nil {
		return nil
	}
	out := make(ActionChain, len(c))
	copy(out, c)
	return out
}

// Merge adds every action not already present and returns the sorted result.
func (c ActionChain) Merge(actions ...ScriptedAction) ActionChain {
	out := c.Clone()
	for _, a := range actions {
		if a.Tick < 0 || out.Contains(a) {
			continue
		}
		out = append(out, a)
	}
	out.Sort()
	return out
}

// SortActionRecords orders records ascending by (tick, action, duration).
func SortActionRecords(records []ActionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Tick != b.Tick {
			return a.Tick < b.Tick
		}
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		return a.Duration < b.Duration
	})
}
