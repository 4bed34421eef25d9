package executor

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Seeds and episodes travel as google.protobuf.Struct messages so the bridge
// on the simulator side needs no generated code.

// SeedToStruct encodes the seed's inputs. The outcome is never sent.
func SeedToStruct(seed *models.Seed) (*structpb.Struct, error) {
	chain := make([]any, 0, len(seed.ActionChain))
	for _, a := range seed.ActionChain {
		chain = append(chain, map[string]any{"tick": a.Tick, "action": string(a.Action)})
	}
	fields := map[string]any{
		"round_id":     seed.RoundID,
		"p_ego":        optionalFloat(seed.PEgo),
		"p_npc":        optionalFloat(seed.PNpc),
		"v_npc":        optionalFloat(seed.VNpc),
		"action_cap":   seed.ActionCapability,
		"action_chain": chain,
	}
	return structpb.NewStruct(fields)
}

// SeedFromStruct decodes a seed sent by SeedToStruct
func SeedFromStruct(s *structpb.Struct) (*models.Seed, error) {
	if s == nil {
		return nil, fmt.Errorf("seed message is empty")
	}
	m := s.AsMap()
	seed := &models.Seed{}
	var err error
	if seed.RoundID, err = intField(m, "round_id"); err != nil {
		return nil, err
	}
	if seed.ActionCapability, err = intField(m, "action_cap"); err != nil {
		return nil, err
	}
	if seed.PEgo, err = optionalFloatField(m, "p_ego"); err != nil {
		return nil, err
	}
	if seed.PNpc, err = optionalFloatField(m, "p_npc"); err != nil {
		return nil, err
	}
	if seed.VNpc, err = optionalFloatField(m, "v_npc"); err != nil {
		return nil, err
	}
	items, err := listField(m, "action_chain")
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("action_chain[%d]: expected object", i)
		}
		tick, err := intField(entry, "tick")
		if err != nil {
			return nil, fmt.Errorf("action_chain[%d]: %w", i, err)
		}
		action, err := actionField(entry, "action")
		if err != nil {
			return nil, fmt.Errorf("action_chain[%d]: %w", i, err)
		}
		seed.ActionChain = append(seed.ActionChain, models.ScriptedAction{Tick: tick, Action: action})
	}
	return seed, nil
}

// EpisodeToStruct encodes an episode. Samples are [t, x, y, z] arrays.
func EpisodeToStruct(ep *models.Episode) (*structpb.Struct, error) {
	actions := make([]any, 0, len(ep.Actions))
	for _, a := range ep.Actions {
		actions = append(actions, map[string]any{
			"tick":     a.Tick,
			"action":   string(a.Action),
			"duration": a.Duration,
		})
	}
	fields := map[string]any{
		"result":   string(ep.Result),
		"collided": ep.Collided,
		"ego":      trajectoryToList(ep.Ego),
		"npc":      trajectoryToList(ep.Npc),
		"actions":  actions,
	}
	return structpb.NewStruct(fields)
}

// EpisodeFromStruct decodes an episode sent by EpisodeToStruct
func EpisodeFromStruct(s *structpb.Struct) (*models.Episode, error) {
	if s == nil {
		return nil, fmt.Errorf("episode message is empty")
	}
	m := s.AsMap()
	ep := &models.Episode{}

	name, ok := m["result"].(string)
	if !ok {
		return nil, fmt.Errorf("result: expected string")
	}
	result, err := models.ParseResultKind(name)
	if err != nil {
		return nil, err
	}
	ep.Result = result
	ep.Collided, _ = m["collided"].(bool)

	if ep.Ego, err = trajectoryField(m, "ego"); err != nil {
		return nil, err
	}
	if ep.Npc, err = trajectoryField(m, "npc"); err != nil {
		return nil, err
	}

	items, err := listField(m, "actions")
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("actions[%d]: expected object", i)
		}
		rec := models.ActionRecord{}
		if rec.Tick, err = intField(entry, "tick"); err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		if rec.Duration, err = intField(entry, "duration"); err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		if rec.Action, err = actionField(entry, "action"); err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		ep.Actions = append(ep.Actions, rec)
	}
	return ep, nil
}

func optionalFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func trajectoryToList(tr models.Trajectory) []any {
	out := make([]any, 0, len(tr))
	for _, s := range tr {
		out = append(out, []any{s.T, s.X, s.Y, s.Z})
	}
	return out
}

func trajectoryField(m map[string]any, key string) (models.Trajectory, error) {
	items, err := listField(m, key)
	if err != nil {
		return nil, err
	}
	tr := make(models.Trajectory, 0, len(items))
	for i, item := range items {
		v, ok := item.([]any)
		if !ok || len(v) != 4 {
			return nil, fmt.Errorf("%s[%d]: expected [t, x, y, z]", key, i)
		}
		var nums [4]float64
		for k := range v {
			f, ok := v[k].(float64)
			if !ok {
				return nil, fmt.Errorf("%s[%d][%d]: expected number", key, i, k)
			}
			nums[k] = f
		}
		tr = append(tr, models.Sample{T: nums[0], X: nums[1], Y: nums[2], Z: nums[3]})
	}
	return tr, nil
}

func intField(m map[string]any, key string) (int, error) {
	f, ok := m[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s: expected number", key)
	}
	return int(f), nil
}

func optionalFloatField(m map[string]any, key string) (*float64, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return nil, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return nil, fmt.Errorf("%s: expected number or null", key)
	}
	return &f, nil
}

func listField(m map[string]any, key string) ([]any, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected list", key)
	}
	return items, nil
}

func actionField(m map[string]any, key string) (models.ActionKind, error) {
	name, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string", key)
	}
	return models.ParseActionKind(name)
}
