package model

import (
	"errors"
	"testing"
)

func TestTaskSaveRoundTrip(t *testing.T) {
	cases := []TaskSave{
		{},
		{Completed: true, Timestamp: 1700000000},
		{Tracked: true, Ignored: true, Timestamp: 42},
		{Completed: true, Tracked: true, Ignored: true, Timestamp: 9223372036854775807},
	}
	for _, in := range cases {
		encoded := EncodeTaskSave(in)
		got, err := DecodeTaskSave(encoded)
		if err != nil {
			t.Fatalf("decode %q failed: %v", encoded, err)
		}
		if got != in {
			t.Fatalf("round trip %q got %+v want %+v", encoded, got, in)
		}
	}
}

func TestEncodeTaskSaveFormat(t *testing.T) {
	got := EncodeTaskSave(TaskSave{Completed: true, Ignored: true, Timestamp: 1700000000})
	if got != "1|0|1|1700000000" {
		t.Fatalf("unexpected encoding: %q", got)
	}
}

func TestDecodeTaskSaveRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"1|0|1",
		"1|0|1|5|extra",
		"2|0|0|5",
		"true|0|0|5",
		"1|0| 1|5",
		"1|0|0|soon",
		"1|0|0|-3",
	}
	for _, in := range cases {
		_, err := DecodeTaskSave(in)
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("decode %q: expected ErrMalformedRecord, got %v", in, err)
		}
	}
}

func TestNewTaskSaveUsesMostRecentTimestamp(t *testing.T) {
	task := &Task{Name: "A", Category: CategoryCombat, TrackedOn: 100, CompletedOn: 300, IgnoredOn: 0}
	save := NewTaskSave(task)
	if !save.Tracked || !save.Completed || save.Ignored {
		t.Fatalf("unexpected flags: %+v", save)
	}
	if save.Timestamp != 300 {
		t.Fatalf("expected shared timestamp 300, got %d", save.Timestamp)
	}

	var restored Task
	save.ApplyTo(&restored)
	if restored.TrackedOn != 300 || restored.CompletedOn != 300 || restored.IgnoredOn != 0 {
		t.Fatalf("unexpected restored timestamps: %+v", restored)
	}
}

func TestTaskSaveFlagWithoutTimestampStillReadsSet(t *testing.T) {
	save := TaskSave{Completed: true}
	if save.CompletedOn() == 0 {
		t.Fatal("expected completed flag to read back as set")
	}
	if save.TrackedOn() != 0 {
		t.Fatal("expected unset tracked flag to read 0")
	}
}
