package models

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrAlreadyExecuted is returned when an outcome is attached to a seed twice.
	ErrAlreadyExecuted = errors.New("seed already has an outcome")
	// ErrNotExecuted is returned when an operation needs a seed's outcome and there is none.
	ErrNotExecuted = errors.New("seed has not been executed")
)

// UnknownEnumError indicates a string that is not a member of a closed enumeration
type UnknownEnumError struct {
	Enum  string
	Value string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Enum, e.Value)
}

// ResultKind is how an episode ended
type ResultKind string

const (
	ResultError     ResultKind = "error"
	ResultArrive    ResultKind = "arrive"
	ResultCollision ResultKind = "collision"
	ResultTimeout   ResultKind = "timeout"
)

// ResultKinds lists every result kind in a stable order.
var ResultKinds = []ResultKind{ResultError, ResultArrive, ResultCollision, ResultTimeout}

// ParseResultKind validates a result kind name
func ParseResultKind(s string) (ResultKind, error) {
	switch ResultKind(s) {
	case ResultError, ResultArrive, ResultCollision, ResultTimeout:
		return ResultKind(s), nil
	default:
		return "", &UnknownEnumError{Enum: "result kind", Value: s}
	}
}

// UnmarshalYAML rejects result kinds outside the enumeration
func (k *ResultKind) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseResultKind(value.Value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ActionKind is a control action applied to the NPC
type ActionKind string

const (
	ActionNone       ActionKind = "none"
	ActionAccelerate ActionKind = "acc"
	ActionDecelerate ActionKind = "dec"
	ActionLaneChange ActionKind = "lane"
	// ActionStop brakes to a standstill. Excluded from the default spontaneous
	// action set: a constant-velocity controller may never reach zero speed.
	ActionStop ActionKind = "stop"
)

// DefaultActionOptions is the spontaneous action set used by executors.
var DefaultActionOptions = []ActionKind{ActionNone, ActionAccelerate, ActionDecelerate, ActionLaneChange}

// ParseActionKind validates an action name
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionNone, ActionAccelerate, ActionDecelerate, ActionLaneChange, ActionStop:
		return ActionKind(s), nil
	default:
		return "", &UnknownEnumError{Enum: "action", Value: s}
	}
}

// UnmarshalYAML rejects actions outside the enumeration
func (k *ActionKind) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseActionKind(value.Value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// LossMode selects which loss component drives the search
type LossMode string

const (
	LossByDistance LossMode = "distance"
	LossByTimeGap  LossMode = "time_gap"
)

// ParseLossMode validates a loss mode name. The empty string maps to distance.
func ParseLossMode(s string) (LossMode, error) {
	switch LossMode(s) {
	case "", LossByDistance:
		return LossByDistance, nil
	case LossByTimeGap:
		return LossByTimeGap, nil
	default:
		return "", &UnknownEnumError{Enum: "loss mode", Value: s}
	}
}

// UnmarshalYAML rejects loss modes outside the enumeration
func (m *LossMode) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseLossMode(value.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
