package filter

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownAxis  = errors.New("filter: unknown axis")
	ErrInvalidState = errors.New("filter: invalid filter state")
)

// TriState is the display rule of one boolean axis.
type TriState int

const (
	All TriState = iota
	OnlyPositive
	OnlyNegative
)

// Cycle returns the next state in All -> OnlyPositive -> OnlyNegative order.
func (s TriState) Cycle() TriState {
	switch s {
	case All:
		return OnlyPositive
	case OnlyPositive:
		return OnlyNegative
	default:
		return All
	}
}

// Matches reports whether a task whose flag is on passes the state.
func (s TriState) Matches(on bool) bool {
	switch s {
	case OnlyPositive:
		return on
	case OnlyNegative:
		return !on
	default:
		return true
	}
}

func (s TriState) String() string {
	switch s {
	case All:
		return "all"
	case OnlyPositive:
		return "only"
	case OnlyNegative:
		return "none"
	default:
		return fmt.Sprintf("TriState(%d)", int(s))
	}
}

// ParseTriState accepts the String forms plus a few aliases.
func ParseTriState(raw string) (TriState, error) {
	switch raw {
	case "all", "any", "*":
		return All, nil
	case "only", "yes", "on", "+":
		return OnlyPositive, nil
	case "none", "no", "off", "-":
		return OnlyNegative, nil
	default:
		return All, fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
}

type AxisKind string

const (
	AxisCompleted AxisKind = "completed"
	AxisTracked   AxisKind = "tracked"
	AxisIgnored   AxisKind = "ignored"
)

func AxisKinds() []AxisKind {
	return []AxisKind{AxisCompleted, AxisTracked, AxisIgnored}
}

func ParseAxisKind(raw string) (AxisKind, error) {
	switch k := AxisKind(raw); k {
	case AxisCompleted, AxisTracked, AxisIgnored:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAxis, raw)
	}
}

// ConfigKey is the backend key holding the axis state.
func (k AxisKind) ConfigKey() string { return string(k) + "Filter" }

type axisDef struct {
	states [3]TriState
	names  [3]string
}

// The ordinal order is part of the persisted format. Ordinal 0 is the default.
var axisDefs = map[AxisKind]axisDef{
	AxisCompleted: {
		states: [3]TriState{All, OnlyPositive, OnlyNegative},
		names:  [3]string{"COMPLETE_AND_INCOMPLETE", "COMPLETE", "INCOMPLETE"},
	},
	AxisTracked: {
		states: [3]TriState{All, OnlyPositive, OnlyNegative},
		names:  [3]string{"TRACKED_AND_UNTRACKED", "TRACKED", "UNTRACKED"},
	},
	AxisIgnored: {
		states: [3]TriState{OnlyNegative, All, OnlyPositive},
		names:  [3]string{"NOT_IGNORED", "IGNORED_AND_NOT_IGNORED", "IGNORED"},
	},
}

// Axis is one tri-state filter button: a position in its ordinal order plus
// whether the user may change it.
type Axis struct {
	kind     AxisKind
	def      axisDef
	ordinal  int
	disabled bool
}

func NewAxis(kind AxisKind) (*Axis, error) {
	def, ok := axisDefs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAxis, kind)
	}
	return &Axis{kind: kind, def: def}, nil
}

func (a *Axis) Kind() AxisKind     { return a.kind }
func (a *Axis) Ordinal() int       { return a.ordinal }
func (a *Axis) State() TriState    { return a.def.states[a.ordinal] }
func (a *Axis) Enabled() bool      { return !a.disabled }
func (a *Axis) ConfigName() string { return a.def.names[a.ordinal] }

// Cycle advances to the next ordinal, wrapping around. It does nothing on a
// disabled axis and reports whether the state moved.
func (a *Axis) Cycle() bool {
	if a.disabled {
		return false
	}
	a.ordinal = (a.ordinal + 1) % len(a.def.states)
	return true
}

// Set jumps to state regardless of enablement.
func (a *Axis) Set(state TriState) {
	for i, s := range a.def.states {
		if s == state {
			a.ordinal = i
			return
		}
	}
}

func (a *Axis) SetOrdinal(ordinal int) error {
	if ordinal < 0 || ordinal >= len(a.def.states) {
		return fmt.Errorf("%w: %s ordinal %d", ErrInvalidState, a.kind, ordinal)
	}
	a.ordinal = ordinal
	return nil
}

// SetConfigName restores a persisted enum name.
func (a *Axis) SetConfigName(name string) error {
	for i, n := range a.def.names {
		if n == name {
			a.ordinal = i
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q", ErrInvalidState, a.kind, name)
}

func (a *Axis) setEnabled(on bool) { a.disabled = !on }
