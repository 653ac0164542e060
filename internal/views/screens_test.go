package views

import (
	"strings"
	"testing"
	"time"
)

func TestRenderFilterBar(t *testing.T) {
	out := RenderFilterBar(FilterBarData{
		Tab: "tracked",
		Axes: []AxisData{
			{Name: "completed", State: "all", Enabled: true},
			{Name: "tracked", State: "only", Enabled: false},
		},
		Search: "mole",
		Tiers:  []string{"easy", "hard"},
	})
	for _, want := range []string{"[tracked]", "completed:all", "tracked:only(locked)", `search:"mole"`, "tiers:easy,hard"} {
		if !strings.Contains(out, want) {
			t.Fatalf("filter bar %q missing %q", out, want)
		}
	}
}

func TestRenderMessageLogKeepsNewest(t *testing.T) {
	entries := []MessageData{{Text: "one"}, {Text: "two"}, {Text: "three", Color: "#007517"}}
	out := RenderMessageLog(entries, 2)
	if strings.Contains(out, "one") || !strings.Contains(out, "two") || !strings.Contains(out, "three") {
		t.Fatalf("unexpected log %q", out)
	}
}

func TestRenderTaskDetail(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).Unix()
	out := RenderTaskDetail(TaskDetailData{
		Completed: 1,
		Max:       3,
		Selected:  &TaskData{Name: "Noxious Foe", Tier: "easy", CompletedOn: stamp},
	})
	for _, want := range []string{"completed: 1/3", "task: Noxious Foe", "tier: easy", "tracked: no", "completed: 2024-03-01 12:30"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail %q missing %q", out, want)
		}
	}
	if !strings.Contains(RenderTaskDetail(TaskDetailData{}), "(no selection)") {
		t.Fatal("expected empty selection placeholder")
	}
}
