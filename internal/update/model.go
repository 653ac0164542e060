package update

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskstracker/internal/export"
	"github.com/sandeepkv93/taskstracker/internal/filter"
	"github.com/sandeepkv93/taskstracker/internal/manager"
	"github.com/sandeepkv93/taskstracker/internal/model"
	"github.com/sandeepkv93/taskstracker/internal/scheduler"
	"github.com/sandeepkv93/taskstracker/internal/views"
)

const (
	messagePrefix = "Task Tracker: "
	messageLogCap = 20
	statusTTL     = 5 * time.Second
)

var (
	ErrMissingRegistry = errors.New("update: manager registry is required")
	ErrMissingFilters  = errors.New("update: filter engine is required")
	ErrMissingSink     = errors.New("update: sink is required")
)

type StatusBar struct {
	Text    string
	IsError bool
	Color   string
	Seq     uint64
}

type GlobalKeyMap struct {
	TrackedTab     string
	AllTab         string
	CustomTab      string
	Completed      string
	Tracked        string
	Ignored        string
	ToggleTrack    string
	ToggleComplete string
	ToggleIgnore   string
	PrevCategory   string
	NextCategory   string
	Export         string
	Reload         string
	Help           string
	Quit           string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Deps wires the model to the engine. Registry must have been built with
// Sink as its Refresher and Messenger and Scheduler as its Dispatcher.
type Deps struct {
	Registry      *manager.Registry
	Filters       *filter.Engine
	Scheduler     *scheduler.Engine
	Sink          *Sink
	StartCategory model.Category
	LoadTimeout   time.Duration
	Clipboard     func([]byte) error
	Logger        *slog.Logger
	Now           func() time.Time
}

type Model struct {
	Status      StatusBar
	Messages    []Message
	Palette     CommandPaletteState
	HelpVisible bool
	Keys        GlobalKeyMap
	Cursor      int
	Loading     map[model.Category]bool
	Quitting    bool
	LastError   error

	ctx         context.Context
	registry    *manager.Registry
	filters     *filter.Engine
	scheduler   *scheduler.Engine
	sink        *Sink
	clipboard   func([]byte) error
	logger      *slog.Logger
	now         func() time.Time
	loadTimeout time.Duration
	statusSeq   uint64

	visible    []*model.Task
	detailName string

	taskTable      table.Model
	commandInput   textinput.Model
	loadSpinner    spinner.Model
	helpModel      help.Model
	detailViewport viewport.Model
	completion     progress.Model
}

type JobMsg struct {
	Job scheduler.Job
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// NewModel selects the start category and begins loading its catalog.
func NewModel(ctx context.Context, deps Deps) (Model, error) {
	if deps.Registry == nil {
		return Model{}, ErrMissingRegistry
	}
	if deps.Filters == nil {
		return Model{}, ErrMissingFilters
	}
	if deps.Sink == nil {
		return Model{}, ErrMissingSink
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if deps.Clipboard == nil {
		deps.Clipboard = export.CopyToClipboard
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if !deps.StartCategory.IsValid() {
		deps.StartCategory = model.CategoryCombat
	}

	m := Model{
		Keys: GlobalKeyMap{
			TrackedTab:     "1",
			AllTab:         "2",
			CustomTab:      "3",
			Completed:      "c",
			Tracked:        "t",
			Ignored:        "i",
			ToggleTrack:    " ",
			ToggleComplete: "x",
			ToggleIgnore:   "g",
			PrevCategory:   "[",
			NextCategory:   "]",
			Export:         "e",
			Reload:         "r",
			Help:           "?",
			Quit:           "q",
		},
		Loading:     make(map[model.Category]bool),
		ctx:         ctx,
		registry:    deps.Registry,
		filters:     deps.Filters,
		scheduler:   deps.Scheduler,
		sink:        deps.Sink,
		clipboard:   deps.Clipboard,
		logger:      deps.Logger,
		now:         deps.Now,
		loadTimeout: deps.LoadTimeout,
	}
	sink := deps.Sink
	m.filters.OnChange(func() { sink.Refresh(nil) })
	m.initBubbleComponents()
	if err := m.selectCategory(deps.StartCategory); err != nil {
		return Model{}, err
	}
	m.applySinkEvents()
	m.syncBubbleData()
	return m, nil
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "State", Width: 5},
		{Title: "Tier", Width: 8},
		{Title: "Task", Width: 40},
	}
	m.taskTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(16))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailViewport = viewport.New(54, 8)
	m.completion = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.visible))
	for _, task := range m.visible {
		rows = append(rows, table.Row{stateMarks(task), task.Tier, task.Name})
	}
	m.taskTable.SetRows(rows)
	if m.Cursor >= len(rows) {
		m.Cursor = len(rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if len(rows) > 0 {
		m.taskTable.SetCursor(m.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}

	selected := m.selectedTask()
	name := ""
	if selected != nil {
		name = selected.Name
	}
	if name != m.detailName {
		m.detailName = name
		md := "_No description_"
		if selected != nil && selected.Description != "" {
			md = selected.Description
		}
		m.detailViewport.SetContent(views.RenderMarkdown(md, m.detailViewport.Width))
		m.detailViewport.GotoTop()
	}
}

// refreshVisible recomputes the filtered list of the selected category.
func (m *Model) refreshVisible() {
	mgr := m.registry.Selected()
	if mgr == nil {
		m.visible = nil
		return
	}
	m.visible = m.filters.Apply(mgr.Tasks())
}

func (m Model) selectedTask() *model.Task {
	if m.Cursor < 0 || m.Cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.Cursor]
}

func (m Model) loading() bool {
	return m.Loading[m.registry.SelectedCategory()]
}

func (m *Model) selectCategory(category model.Category) error {
	mgr, created, err := m.registry.Select(category)
	if err != nil {
		return err
	}
	m.Cursor = 0
	if created {
		m.startLoad(mgr)
	}
	m.sink.Refresh(nil)
	return nil
}

// startLoad runs the catalog load of mgr. Its completion comes back as a job
// and is reported through the sink.
func (m *Model) startLoad(mgr *manager.Manager) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.loadTimeout > 0 {
		ctx, cancel = context.WithTimeout(m.ctx, m.loadTimeout)
	} else {
		ctx, cancel = context.WithCancel(m.ctx)
	}
	category := mgr.Category()
	sink := m.sink
	m.Loading[category] = true
	mgr.LoadTaskSourceData(ctx, func(err error) {
		cancel()
		sink.loadFinished(category, err)
	})
}

func (m *Model) applySinkEvents() {
	ev := m.sink.drain()
	for _, load := range ev.loads {
		if errors.Is(load.Err, manager.ErrSuperseded) {
			continue
		}
		delete(m.Loading, load.Category)
		if load.Err != nil {
			m.setError(load.Err)
			continue
		}
		m.logger.Debug("catalog ready", "category", string(load.Category))
	}
	for _, msg := range ev.messages {
		m.Messages = append(m.Messages, msg)
		if len(m.Messages) > messageLogCap {
			m.Messages = m.Messages[len(m.Messages)-messageLogCap:]
		}
		m.setStatus(StatusBar{Text: messagePrefix + msg.Text, Color: string(msg.Color)})
	}
	for _, seq := range ev.expired {
		if seq == m.Status.Seq {
			m.Status = StatusBar{}
		}
	}
	if ev.dirty {
		m.refreshVisible()
	}
}

// setStatus shows status and arranges for it to clear after statusTTL unless
// a newer status replaces it first.
func (m *Model) setStatus(status StatusBar) {
	m.statusSeq++
	status.Seq = m.statusSeq
	m.Status = status
	if m.scheduler == nil {
		return
	}
	seq, sink := status.Seq, m.sink
	if err := m.scheduler.After(statusTTL, func() { sink.expireStatus(seq) }); err != nil {
		m.logger.Debug("status expiry not scheduled", "err", err)
	}
}

func (m *Model) setError(err error) {
	m.LastError = err
	m.logger.Error("action failed", "err", err)
	m.setStatus(StatusBar{Text: err.Error(), IsError: true})
}

func waitForJobCmd(ch <-chan scheduler.Job) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		job, ok := <-ch
		if !ok {
			return nil
		}
		return JobMsg{Job: job}
	}
}

func stateMarks(task *model.Task) string {
	marks := []byte("---")
	if task.IsTracked() {
		marks[0] = 'T'
	}
	if task.IsCompleted() {
		marks[1] = 'C'
	}
	if task.IsIgnored() {
		marks[2] = 'I'
	}
	return string(marks)
}
