package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedRecord = errors.New("model: malformed task save record")

const saveFieldSeparator = "|"

// TaskSave is the persisted form of a task. The wire format carries a single
// timestamp shared by all three flags.
type TaskSave struct {
	Completed bool
	Tracked   bool
	Ignored   bool
	Timestamp int64
}

// NewTaskSave snapshots t. The shared timestamp is the most recent of the
// task's set timestamps.
func NewTaskSave(t *Task) TaskSave {
	return TaskSave{
		Completed: t.CompletedOn != 0,
		Tracked:   t.TrackedOn != 0,
		Ignored:   t.IgnoredOn != 0,
		Timestamp: max(t.CompletedOn, t.TrackedOn, t.IgnoredOn),
	}
}

func (s TaskSave) TrackedOn() int64   { return s.flagTime(s.Tracked) }
func (s TaskSave) CompletedOn() int64 { return s.flagTime(s.Completed) }
func (s TaskSave) IgnoredOn() int64   { return s.flagTime(s.Ignored) }

// IsEmpty reports a record with no flag set.
func (s TaskSave) IsEmpty() bool {
	return !s.Completed && !s.Tracked && !s.Ignored
}

// ApplyTo copies the saved state onto t.
func (s TaskSave) ApplyTo(t *Task) {
	t.TrackedOn = s.TrackedOn()
	t.CompletedOn = s.CompletedOn()
	t.IgnoredOn = s.IgnoredOn()
}

func (s TaskSave) flagTime(set bool) int64 {
	if !set {
		return 0
	}
	if s.Timestamp <= 0 {
		// A flag saved without a time still has to read back as set.
		return 1
	}
	return s.Timestamp
}

// EncodeTaskSave renders "<completed>|<tracked>|<ignored>|<timestamp>".
func EncodeTaskSave(s TaskSave) string {
	return strings.Join([]string{
		boolField(s.Completed),
		boolField(s.Tracked),
		boolField(s.Ignored),
		strconv.FormatInt(s.Timestamp, 10),
	}, saveFieldSeparator)
}

func DecodeTaskSave(raw string) (TaskSave, error) {
	fields := strings.Split(raw, saveFieldSeparator)
	if len(fields) != 4 {
		return TaskSave{}, fmt.Errorf("%w: expected 4 fields, got %d in %q", ErrMalformedRecord, len(fields), raw)
	}
	completed, err := parseBoolField(fields[0])
	if err != nil {
		return TaskSave{}, fmt.Errorf("%w: completed: %v", ErrMalformedRecord, err)
	}
	tracked, err := parseBoolField(fields[1])
	if err != nil {
		return TaskSave{}, fmt.Errorf("%w: tracked: %v", ErrMalformedRecord, err)
	}
	ignored, err := parseBoolField(fields[2])
	if err != nil {
		return TaskSave{}, fmt.Errorf("%w: ignored: %v", ErrMalformedRecord, err)
	}
	ts, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || ts < 0 {
		return TaskSave{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRecord, fields[3])
	}
	return TaskSave{Completed: completed, Tracked: tracked, Ignored: ignored, Timestamp: ts}, nil
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func parseBoolField(v string) (bool, error) {
	switch v {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("want 0 or 1, got %q", v)
	}
}
