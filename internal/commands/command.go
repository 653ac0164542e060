package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/taskstracker/internal/filter"
	"github.com/sandeepkv93/taskstracker/internal/model"
)

type Type string

const (
	TypeComplete   Type = "complete"
	TypeUncomplete Type = "uncomplete"
	TypeTrack      Type = "track"
	TypeUntrack    Type = "untrack"
	TypeIgnore     Type = "ignore"
	TypeUnignore   Type = "unignore"
	TypeFilter     Type = "filter"
	TypeTab        Type = "tab"
	TypeTier       Type = "tier"
	TypeSearch     Type = "search"
	TypeCategory   Type = "category"
	TypeProgress   Type = "progress"
	TypeExport     Type = "export"
	TypeImport     Type = "import"
	TypeReload     Type = "reload"
	TypeChat       Type = "chat"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TaskArgs names one task. On is the requested flag value.
type TaskArgs struct {
	Name string
	On   bool
}

type FilterArgs struct {
	Axis  filter.AxisKind
	State filter.TriState
}

type TabArgs struct {
	Tab filter.Tab
}

// TierArgs toggles each tier; no tiers clears the tier filter.
type TierArgs struct {
	Tiers []string
}

type SearchArgs struct {
	Text string
}

type CategoryArgs struct {
	Category model.Category
}

type ProgressEntry struct {
	Name      string
	Completed bool
}

type ProgressArgs struct {
	Entries []ProgressEntry
}

// ExportArgs writes to Path, or to the clipboard when Path is empty.
type ExportArgs struct {
	Path string
}

type ImportArgs struct {
	Path string
}

// ChatArgs is one line of game chat, markup included.
type ChatArgs struct {
	Text string
}

type Command struct {
	Type     Type
	Raw      string
	Task     *TaskArgs
	Filter   *FilterArgs
	Tab      *TabArgs
	Tier     *TierArgs
	Search   *SearchArgs
	Category *CategoryArgs
	Progress *ProgressArgs
	Export   *ExportArgs
	Import   *ImportArgs
	Chat     *ChatArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	head, rest, _ := strings.Cut(raw, " ")
	head = strings.ToLower(head)
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch t := Type(head); t {
	case TypeComplete, TypeTrack, TypeIgnore:
		return parseTask(input, t, rest, true)
	case TypeUncomplete, TypeUntrack, TypeUnignore:
		return parseTask(input, t, rest, false)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeTab:
		return parseTab(input, args)
	case TypeTier:
		return Command{Type: TypeTier, Raw: input, Tier: &TierArgs{Tiers: splitList(rest)}}, nil
	case TypeSearch:
		return Command{Type: TypeSearch, Raw: input, Search: &SearchArgs{Text: rest}}, nil
	case TypeCategory:
		return parseCategory(input, rest)
	case TypeProgress:
		return parseProgress(input, rest)
	case TypeExport:
		return Command{Type: TypeExport, Raw: input, Export: &ExportArgs{Path: rest}}, nil
	case TypeImport:
		if rest == "" {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "import requires a file path"}
		}
		return Command{Type: TypeImport, Raw: input, Import: &ImportArgs{Path: rest}}, nil
	case TypeReload:
		return Command{Type: TypeReload, Raw: input}, nil
	case TypeChat:
		if rest == "" {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "chat requires a message"}
		}
		return Command{Type: TypeChat, Raw: input, Chat: &ChatArgs{Text: rest}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseTask(raw string, t Type, name string, on bool) (Command, error) {
	if name == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a task name", t)}
	}
	return Command{Type: t, Raw: raw, Task: &TaskArgs{Name: name, On: on}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires an axis and a state"}
	}
	axis, err := filter.ParseAxisKind(strings.ToLower(args[0]))
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	state, err := filter.ParseTriState(strings.ToLower(args[1]))
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Axis: axis, State: state}}, nil
}

func parseTab(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "tab requires one of tracked, all, custom"}
	}
	tab, err := filter.ParseTab(args[0])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeTab, Raw: raw, Tab: &TabArgs{Tab: tab}}, nil
}

func parseCategory(raw, rest string) (Command, error) {
	if rest == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "category requires a name"}
	}
	category, err := model.ParseCategory(rest)
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeCategory, Raw: raw, Category: &CategoryArgs{Category: category}}, nil
}

// parseProgress reads "name=1, other name=0" keeping the given order.
func parseProgress(raw, rest string) (Command, error) {
	items := splitList(rest)
	if len(items) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "progress requires name=0|1 pairs"}
	}
	entries := make([]ProgressEntry, 0, len(items))
	for _, item := range items {
		i := strings.LastIndex(item, "=")
		if i <= 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("progress entry %q is not name=0|1", item)}
		}
		name := strings.TrimSpace(item[:i])
		var completed bool
		switch strings.TrimSpace(item[i+1:]) {
		case "1":
			completed = true
		case "0":
		default:
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("progress entry %q is not name=0|1", item)}
		}
		entries = append(entries, ProgressEntry{Name: name, Completed: completed})
	}
	return Command{Type: TypeProgress, Raw: raw, Progress: &ProgressArgs{Entries: entries}}, nil
}

func splitList(rest string) []string {
	var out []string
	for _, part := range strings.Split(rest, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
