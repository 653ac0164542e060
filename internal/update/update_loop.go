package update

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskstracker/internal/filter"
	"github.com/sandeepkv93/taskstracker/internal/model"
	"github.com/sandeepkv93/taskstracker/internal/views"
)

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.scheduler != nil {
		cmds = append(cmds, waitForJobCmd(m.scheduler.C()))
	}
	if m.loading() {
		cmds = append(cmds, m.loadSpinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	wasLoading := m.loading()
	var cmd tea.Cmd

	switch typed := msg.(type) {
	case tea.KeyMsg:
		m, cmd = m.handleKey(typed)
	case JobMsg:
		if typed.Job.Fn != nil {
			typed.Job.Fn()
		}
		if m.scheduler != nil {
			cmd = waitForJobCmd(m.scheduler.C())
		}
	case spinner.TickMsg:
		if m.loading() {
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
		}
	case SetStatusMsg:
		m.setStatus(StatusBar{Text: typed.Text, IsError: typed.IsError})
	case ClearStatusMsg:
		m.Status = StatusBar{}
	case AppErrorMsg:
		if typed.Err != nil {
			m.setError(typed.Err)
		}
	}

	m.applySinkEvents()
	m.syncBubbleData()
	if !wasLoading && m.loading() {
		cmd = tea.Batch(cmd, m.loadSpinner.Tick)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Palette.Active {
		if msg.String() == m.Keys.Help {
			m.HelpVisible = !m.HelpVisible
			return m, nil
		}
		return m.handlePaletteKey(msg), nil
	}

	switch keyStr := msg.String(); keyStr {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.Focus()
		m.commandInput.SetValue("")
		m.setStatus(StatusBar{Text: "command palette active"})
	case m.Keys.TrackedTab:
		m.changeTab(filter.TabTracked)
	case m.Keys.AllTab:
		m.changeTab(filter.TabAll)
	case m.Keys.CustomTab:
		m.changeTab(filter.TabCustom)
	case m.Keys.Completed:
		m.cycleAxis(filter.AxisCompleted)
	case m.Keys.Tracked:
		m.cycleAxis(filter.AxisTracked)
	case m.Keys.Ignored:
		m.cycleAxis(filter.AxisIgnored)
	case m.Keys.ToggleTrack:
		m.toggleSelected(func(task *model.Task) error {
			return m.registry.Selected().SetTracked(m.ctx, task.Name, !task.IsTracked())
		})
	case m.Keys.ToggleComplete:
		m.toggleSelected(func(task *model.Task) error {
			if task.IsCompleted() {
				return m.registry.Selected().SetCompleted(m.ctx, task.Name, false)
			}
			return m.registry.Selected().CompleteTask(m.ctx, task.Name)
		})
	case m.Keys.ToggleIgnore:
		m.toggleSelected(func(task *model.Task) error {
			return m.registry.Selected().SetIgnored(m.ctx, task.Name, !task.IsIgnored())
		})
	case m.Keys.PrevCategory:
		m.shiftCategory(-1)
	case m.Keys.NextCategory:
		m.shiftCategory(1)
	case m.Keys.Export:
		if res, err := m.exportTasks(""); err != nil {
			m.setError(err)
		} else {
			m.setStatus(StatusBar{Text: res})
		}
	case m.Keys.Reload:
		if mgr := m.registry.Selected(); mgr != nil {
			m.startLoad(mgr)
			m.setStatus(StatusBar{Text: fmt.Sprintf("reloading %s", mgr.Category())})
		}
	case "j", "down":
		m.Cursor++
	case "k", "up":
		m.Cursor--
	case "home":
		m.Cursor = 0
	case "G", "end":
		m.Cursor = len(m.visible) - 1
	case "pgdown":
		m.detailViewport.ScrollDown(3)
	case "pgup":
		m.detailViewport.ScrollUp(3)
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) changeTab(tab filter.Tab) {
	if err := m.filters.ChangeTab(m.ctx, tab); err != nil {
		m.setError(err)
		return
	}
	m.Cursor = 0
	m.setStatus(StatusBar{Text: fmt.Sprintf("tab: %s", strings.ToLower(string(tab)))})
}

func (m *Model) cycleAxis(kind filter.AxisKind) {
	axis := m.filters.Axis(kind)
	if !axis.Enabled() {
		m.setStatus(StatusBar{Text: fmt.Sprintf("%s filter is locked on this tab", kind)})
		return
	}
	if err := m.filters.CycleAxis(m.ctx, kind); err != nil {
		m.setError(err)
		return
	}
	m.setStatus(StatusBar{Text: fmt.Sprintf("%s: %s", kind, axis.ConfigName())})
}

func (m *Model) toggleSelected(apply func(*model.Task) error) {
	task := m.selectedTask()
	if task == nil || m.registry.Selected() == nil {
		return
	}
	if err := apply(task); err != nil {
		m.setError(err)
		return
	}
	m.setStatus(StatusBar{Text: fmt.Sprintf("%s [%s]", task.Name, stateMarks(task))})
}

func (m *Model) shiftCategory(step int) {
	categories := model.Categories()
	i := slices.Index(categories, m.registry.SelectedCategory())
	next := categories[(i+step+len(categories))%len(categories)]
	if err := m.selectCategory(next); err != nil {
		m.setError(err)
		return
	}
	m.setStatus(StatusBar{Text: fmt.Sprintf("category: %s", next)})
}

func (m Model) View() string {
	category := m.registry.SelectedCategory()
	mgr := m.registry.Selected()
	total := 0
	if mgr != nil {
		total = len(mgr.Tasks())
	}

	left := views.RenderTaskPanel(views.TaskPanelData{
		Category:  string(category),
		Loading:   m.loading(),
		Spinner:   m.loadSpinner.View(),
		FilterBar: m.renderFilterBar(),
		TableView: m.taskTable.View(),
		Shown:     len(m.visible),
		Total:     total,
	})
	right := m.renderTaskDetail() + m.renderCommandPalette() + m.renderHelpIfVisible()

	return views.RenderApp(views.AppData{
		Category:   string(category),
		Tab:        string(m.filters.Tab()),
		TaskPane:   left,
		DetailPane: right,
		Status:     views.StatusData{Text: m.Status.Text, Color: m.Status.Color, IsError: m.Status.IsError},
		MessageLog: m.renderMessageLog(),
		KeyHints: []views.KeyHint{
			{Keys: m.Keys.TrackedTab + "/" + m.Keys.AllTab + "/" + m.Keys.CustomTab, Action: "tabs"},
			{Keys: m.Keys.Completed + "/" + m.Keys.Tracked + "/" + m.Keys.Ignored, Action: "filters"},
			{Keys: "space", Action: "track"},
			{Keys: m.Keys.ToggleComplete, Action: "complete"},
			{Keys: m.Keys.ToggleIgnore, Action: "ignore"},
			{Keys: m.Keys.PrevCategory + m.Keys.NextCategory, Action: "category"},
			{Keys: m.Keys.Export, Action: "export"},
			{Keys: "/", Action: "cmd"},
			{Keys: m.Keys.Help, Action: "help"},
			{Keys: m.Keys.Quit, Action: "quit"},
		},
	})
}

func (m Model) renderFilterBar() string {
	data := views.FilterBarData{
		Tab:    strings.ToLower(string(m.filters.Tab())),
		Search: m.filters.Text(),
		Tiers:  m.filters.Tiers(),
	}
	for _, kind := range filter.AxisKinds() {
		axis := m.filters.Axis(kind)
		data.Axes = append(data.Axes, views.AxisData{
			Name:    string(kind),
			State:   axis.State().String(),
			Enabled: axis.Enabled(),
		})
	}
	return views.RenderFilterBar(data)
}

func (m Model) renderTaskDetail() string {
	mgr := m.registry.Selected()
	data := views.TaskDetailData{ProgressView: m.completion.ViewAs(0)}
	if mgr != nil {
		done := 0
		for _, task := range mgr.Tasks() {
			if task.IsCompleted() {
				done++
			}
		}
		denom := mgr.MaxTaskCount()
		if denom <= 0 {
			denom = len(mgr.Tasks())
		}
		data.Completed, data.Max = done, denom
		if denom > 0 {
			data.ProgressView = m.completion.ViewAs(float64(done) / float64(denom))
		}
	}
	if task := m.selectedTask(); task != nil {
		data.Selected = &views.TaskData{
			Name:        task.Name,
			Tier:        task.Tier,
			TrackedOn:   task.TrackedOn,
			CompletedOn: task.CompletedOn,
			IgnoredOn:   task.IgnoredOn,
		}
		data.DescriptionView = m.detailViewport.View()
	}
	return views.RenderTaskDetail(data)
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
}

func (m Model) renderMessageLog() string {
	if len(m.Messages) == 0 {
		return ""
	}
	entries := make([]views.MessageData, 0, len(m.Messages))
	for _, msg := range m.Messages {
		entries = append(entries, views.MessageData{Text: messagePrefix + msg.Text, Color: string(msg.Color)})
	}
	return views.RenderMessageLog(entries, 3)
}
