package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/taskstracker/internal/filter"
	"github.com/sandeepkv93/taskstracker/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.taskBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Tab:      string(m.filters.Tab()),
		Bindings: plain,
		Commands: commandHelp,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.TrackedTab, Action: "tracked tab"},
		{Key: m.Keys.AllTab, Action: "all tab"},
		{Key: m.Keys.CustomTab, Action: "custom tab"},
		{Key: m.Keys.PrevCategory + m.Keys.NextCategory, Action: "previous/next category"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) taskBindings() []KeyBinding {
	out := []KeyBinding{
		{Key: "j/k", Action: "move selection"},
		{Key: "space", Action: "track/untrack"},
		{Key: m.Keys.ToggleComplete, Action: "complete/uncomplete"},
		{Key: m.Keys.ToggleIgnore, Action: "ignore/unignore"},
		{Key: m.Keys.Completed, Action: "cycle completed filter"},
		{Key: m.Keys.Ignored, Action: "cycle ignored filter"},
		{Key: m.Keys.Export, Action: "copy export to clipboard"},
		{Key: m.Keys.Reload, Action: "reload catalog"},
	}
	if m.filters.Tab() != filter.TabTracked {
		out = append(out, KeyBinding{Key: m.Keys.Tracked, Action: "cycle tracked filter"})
	}
	return out
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.taskBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.taskBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}

const commandHelp = `
| command | effect |
| --- | --- |
| complete/uncomplete NAME | set completion |
| track/untrack NAME | set tracking |
| ignore/unignore NAME | set ignored |
| filter AXIS all/only/none | set a filter axis |
| tab tracked/all/custom | switch tab |
| tier [A, B] | toggle tiers, bare clears |
| search [TEXT] | name filter |
| category NAME | switch category |
| progress NAME=0/1, ... | apply scraped progress |
| chat TEXT | feed a game chat line |
| export [PATH] | export to file or clipboard |
| import PATH | import an export file |
| reload | reload the catalog |
`
