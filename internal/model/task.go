package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidCategory = errors.New("model: invalid task category")
	ErrEmptyTaskName   = errors.New("model: task name is required")
)

type Category string

const (
	CategoryCombat  Category = "COMBAT"
	CategoryLeague3 Category = "LEAGUE_3"
	CategoryLeague4 Category = "LEAGUE_4"
	CategoryGeneric Category = "GENERIC"
)

func Categories() []Category {
	return []Category{CategoryCombat, CategoryLeague3, CategoryLeague4, CategoryGeneric}
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryCombat, CategoryLeague3, CategoryLeague4, CategoryGeneric:
		return true
	default:
		return false
	}
}

// ParseCategory accepts any casing and "-" in place of "_".
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(raw)), "-", "_"))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return c, nil
}

// Task is one catalog entry. The three timestamps are independent:
// 0 means unset, anything else is the Unix second the state was entered.
type Task struct {
	Name        string
	Category    Category
	Tier        string
	Description string
	TrackedOn   int64
	CompletedOn int64
	IgnoredOn   int64
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyTaskName
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	return nil
}

func (t *Task) IsTracked() bool   { return t.TrackedOn != 0 }
func (t *Task) IsCompleted() bool { return t.CompletedOn != 0 }
func (t *Task) IsIgnored() bool   { return t.IgnoredOn != 0 }

func (t *Task) SetTracked(on bool, now time.Time) {
	t.TrackedOn = stamp(t.TrackedOn, on, now)
}

func (t *Task) SetCompleted(on bool, now time.Time) {
	t.CompletedOn = stamp(t.CompletedOn, on, now)
}

func (t *Task) SetIgnored(on bool, now time.Time) {
	t.IgnoredOn = stamp(t.IgnoredOn, on, now)
}

// ResetState clears all three axes.
func (t *Task) ResetState() {
	t.TrackedOn = 0
	t.CompletedOn = 0
	t.IgnoredOn = 0
}

// MatchesName reports whether name identifies t, ignoring case and
// surrounding whitespace.
func (t *Task) MatchesName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(t.Name), strings.TrimSpace(name))
}

// An already-set timestamp is kept so that repeated signals do not move it.
func stamp(current int64, on bool, now time.Time) int64 {
	if !on {
		return 0
	}
	if current != 0 {
		return current
	}
	ts := now.Unix()
	if ts <= 0 {
		ts = 1
	}
	return ts
}

// FoldName is the identity key used for case-insensitive comparisons.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
