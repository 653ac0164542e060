package commands

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandeepkv93/taskstracker/internal/filter"
	"github.com/sandeepkv93/taskstracker/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/complete Noxious Foe", TypeComplete},
		{"untrack  A Slithery Encounter", TypeUntrack},
		{"ignore Whack-a-Mole", TypeIgnore},
		{"filter ignored all", TypeFilter},
		{"tab tracked", TypeTab},
		{"tier easy, hard", TypeTier},
		{"search nox", TypeSearch},
		{"category league-3", TypeCategory},
		{"progress Foo=1, Bar=0", TypeProgress},
		{"export", TypeExport},
		{"import combat.json", TypeImport},
		{"RELOAD", TypeReload},
		{"chat Congratulations, you've completed an easy combat task: Noxious Foe (1 point).", TypeChat},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseArguments(t *testing.T) {
	cmd, err := Parse("/untrack  A Slithery Encounter ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(&TaskArgs{Name: "A Slithery Encounter", On: false}, cmd.Task); diff != "" {
		t.Fatalf("task args mismatch (-want +got):\n%s", diff)
	}

	cmd, err = Parse("filter completed none")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Filter.Axis != filter.AxisCompleted || cmd.Filter.State != filter.OnlyNegative {
		t.Fatalf("unexpected filter args: %+v", cmd.Filter)
	}

	cmd, err = Parse("category league-3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Category.Category != model.CategoryLeague3 {
		t.Fatalf("unexpected category: %q", cmd.Category.Category)
	}

	cmd, err = Parse("progress Perfect Zulrah (Level=5)=1, Noxious Foe = 0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []ProgressEntry{{Name: "Perfect Zulrah (Level=5)", Completed: true}, {Name: "Noxious Foe"}}
	if diff := cmp.Diff(want, cmd.Progress.Entries); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}

	cmd, err = Parse("tier")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cmd.Tier.Tiers) != 0 {
		t.Fatalf("bare tier should clear, got %v", cmd.Tier.Tiers)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{
		"complete",
		"filter tracked",
		"filter starred all",
		"filter tracked maybe",
		"tab favourites",
		"category raids",
		"progress",
		"progress Foo=yes",
		"progress =1",
		"import",
		"chat",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if _, err := Parse(" / "); err == nil {
		t.Fatal("expected empty input error")
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/complete noxious foe")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Task: func(typ Type, a TaskArgs) (Result, error) {
			called = true
			if typ != TypeComplete || a.Name != "noxious foe" || !a.On {
				t.Fatalf("unexpected dispatch: %s %+v", typ, a)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("reload")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
