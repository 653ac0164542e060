package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Task     func(Type, TaskArgs) (Result, error)
	Filter   func(FilterArgs) (Result, error)
	Tab      func(TabArgs) (Result, error)
	Tier     func(TierArgs) (Result, error)
	Search   func(SearchArgs) (Result, error)
	Category func(CategoryArgs) (Result, error)
	Progress func(ProgressArgs) (Result, error)
	Export   func(ExportArgs) (Result, error)
	Import   func(ImportArgs) (Result, error)
	Reload   func() (Result, error)
	Chat     func(ChatArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeComplete, TypeUncomplete, TypeTrack, TypeUntrack, TypeIgnore, TypeUnignore:
		if handlers.Task == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Task(cmd.Type, *cmd.Task)
	case TypeFilter:
		if handlers.Filter == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Filter(*cmd.Filter)
	case TypeTab:
		if handlers.Tab == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Tab(*cmd.Tab)
	case TypeTier:
		if handlers.Tier == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Tier(*cmd.Tier)
	case TypeSearch:
		if handlers.Search == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Search(*cmd.Search)
	case TypeCategory:
		if handlers.Category == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Category(*cmd.Category)
	case TypeProgress:
		if handlers.Progress == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Progress(*cmd.Progress)
	case TypeExport:
		if handlers.Export == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Export(*cmd.Export)
	case TypeImport:
		if handlers.Import == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Import(*cmd.Import)
	case TypeReload:
		if handlers.Reload == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Reload()
	case TypeChat:
		if handlers.Chat == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Chat(*cmd.Chat)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
