package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskstracker/internal/commands"
	"github.com/sandeepkv93/taskstracker/internal/export"
	"github.com/sandeepkv93/taskstracker/internal/manager"
)

var (
	errNoCategory = errors.New("update: no category selected")
	errNotLoaded  = errors.New("update: no task list loaded")
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.setStatus(StatusBar{Text: "command palette closed"})
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
		} else {
			var cmd tea.Cmd
			m.commandInput, cmd = m.commandInput.Update(msg)
			_ = cmd
		}
		m.Palette.Input = m.commandInput.Value()
		m.applyLiveSearch()
	}
	return m
}

// applyLiveSearch filters the list while a search command is being typed.
func (m *Model) applyLiveSearch() {
	text, ok := liveSearchText(m.Palette.Input)
	if !ok || strings.ToLower(text) == m.filters.Text() {
		return
	}
	m.filters.SetText(text)
	m.Cursor = 0
}

func liveSearchText(input string) (string, bool) {
	input = strings.TrimPrefix(strings.TrimLeft(input, " "), "/")
	head, rest, ok := strings.Cut(input, " ")
	if !ok || !strings.EqualFold(head, string(commands.TypeSearch)) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.setError(err)
		return m
	}
	res, err := commands.Execute(cmd, m.commandHandlers())
	if err != nil {
		m.setError(err)
		return m
	}
	m.logger.Info("command executed", "command", string(cmd.Type))
	if res.Message != "" {
		m.setStatus(StatusBar{Text: res.Message})
	}
	return m
}

func (m *Model) commandHandlers() commands.Handlers {
	return commands.Handlers{
		Task: func(typ commands.Type, a commands.TaskArgs) (commands.Result, error) {
			mgr := m.registry.Selected()
			if mgr == nil {
				return commands.Result{}, errNoCategory
			}
			task := mgr.Find(a.Name)
			if task == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no %s task named %q", mgr.Category(), a.Name)}
			}
			var err error
			switch typ {
			case commands.TypeComplete:
				err = mgr.CompleteTask(m.ctx, task.Name)
			case commands.TypeUncomplete:
				err = mgr.SetCompleted(m.ctx, task.Name, false)
			case commands.TypeTrack, commands.TypeUntrack:
				err = mgr.SetTracked(m.ctx, task.Name, a.On)
			case commands.TypeIgnore, commands.TypeUnignore:
				err = mgr.SetIgnored(m.ctx, task.Name, a.On)
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s: %s [%s]", typ, task.Name, stateMarks(task))}, nil
		},
		Filter: func(a commands.FilterArgs) (commands.Result, error) {
			axis := m.filters.Axis(a.Axis)
			if !axis.Enabled() {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("%s filter is locked on this tab", a.Axis)}
			}
			if err := m.filters.SetAxis(m.ctx, a.Axis, a.State); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s: %s", a.Axis, axis.ConfigName())}, nil
		},
		Tab: func(a commands.TabArgs) (commands.Result, error) {
			if err := m.filters.ChangeTab(m.ctx, a.Tab); err != nil {
				return commands.Result{}, err
			}
			m.Cursor = 0
			return commands.Result{Message: fmt.Sprintf("tab: %s", strings.ToLower(string(a.Tab)))}, nil
		},
		Tier: func(a commands.TierArgs) (commands.Result, error) {
			if len(a.Tiers) == 0 {
				if err := m.filters.SetTiers(m.ctx, nil); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: "tier filter cleared"}, nil
			}
			for _, tier := range a.Tiers {
				if err := m.filters.ToggleTier(m.ctx, tier); err != nil {
					return commands.Result{}, err
				}
			}
			return commands.Result{Message: fmt.Sprintf("tiers: %s", strings.Join(m.filters.Tiers(), ", "))}, nil
		},
		Search: func(a commands.SearchArgs) (commands.Result, error) {
			m.filters.SetText(a.Text)
			m.Cursor = 0
			if a.Text == "" {
				return commands.Result{Message: "search cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("search: %s", a.Text)}, nil
		},
		Category: func(a commands.CategoryArgs) (commands.Result, error) {
			if err := m.selectCategory(a.Category); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("category: %s", a.Category)}, nil
		},
		Progress: func(a commands.ProgressArgs) (commands.Result, error) {
			progress := manager.NewProgress()
			for _, entry := range a.Entries {
				progress.Add(entry.Name, entry.Completed)
			}
			event := manager.WidgetLoaded{Category: m.registry.SelectedCategory(), Progress: progress}
			if err := m.registry.HandleWidgetLoaded(m.ctx, event); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{}, nil
		},
		Export: func(a commands.ExportArgs) (commands.Result, error) {
			msg, err := m.exportTasks(a.Path)
			return commands.Result{Message: msg}, err
		},
		Import: func(a commands.ImportArgs) (commands.Result, error) {
			mgr := m.registry.Selected()
			if mgr == nil {
				return commands.Result{}, errNoCategory
			}
			doc, err := export.ReadFile(a.Path)
			if err != nil {
				return commands.Result{}, err
			}
			applied, err := mgr.ImportTaskStates(m.ctx, doc)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("imported %d task states from %s", applied, a.Path)}, nil
		},
		Reload: func() (commands.Result, error) {
			mgr := m.registry.Selected()
			if mgr == nil {
				return commands.Result{}, errNoCategory
			}
			m.startLoad(mgr)
			return commands.Result{Message: fmt.Sprintf("reloading %s", mgr.Category())}, nil
		},
		Chat: func(a commands.ChatArgs) (commands.Result, error) {
			msg := manager.ChatMessage{Kind: manager.ChatKindGame, Text: a.Text}
			if err := m.registry.HandleChatMessage(m.ctx, msg); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "chat message handled"}, nil
		},
	}
}

// exportTasks writes every task of the selected category to path, or to the
// clipboard when path is empty.
func (m *Model) exportTasks(path string) (string, error) {
	mgr := m.registry.Selected()
	if mgr == nil || !mgr.Loaded() {
		return "", errNotLoaded
	}
	data, err := export.Marshal(export.Build(mgr.Category(), mgr.Tasks(), m.now()))
	if err != nil {
		return "", err
	}
	if path == "" {
		if err := m.clipboard(data); err != nil {
			return "", err
		}
		return fmt.Sprintf("copied %d %s tasks to clipboard", len(mgr.Tasks()), mgr.Category()), nil
	}
	if err := export.WriteFile(path, data); err != nil {
		return "", err
	}
	return fmt.Sprintf("exported %d %s tasks to %s", len(mgr.Tasks()), mgr.Category(), path), nil
}
