package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sandeepkv93/taskstracker/internal/catalog"
	"github.com/sandeepkv93/taskstracker/internal/export"
	"github.com/sandeepkv93/taskstracker/internal/model"
	"github.com/sandeepkv93/taskstracker/internal/tracker"
)

var (
	ErrSuperseded       = errors.New("manager: catalog load superseded by a newer load")
	ErrMissingStore     = errors.New("manager: tracker store is required")
	ErrMissingLoader    = errors.New("manager: catalog loader is required")
	ErrCategoryMismatch = errors.New("manager: category mismatch")
)

const partialHint = " (remove filters to get full export)"

// Config carries the collaborators shared by every manager.
type Config struct {
	Store      *tracker.Store
	Loader     catalog.Loader
	Dispatcher Dispatcher
	Refresher  Refresher
	Messenger  Messenger
	Selection  Selection
	Logger     *slog.Logger
	Now        func() time.Time
}

// Manager owns the in-memory task list of one category. All methods except
// the loader goroutine started by LoadTaskSourceData must be called from the
// coordinating goroutine.
type Manager struct {
	category   model.Category
	store      *tracker.Store
	loader     catalog.Loader
	dispatcher Dispatcher
	refresher  Refresher
	messenger  Messenger
	selection  Selection
	logger     *slog.Logger
	now        func() time.Time

	tasks        []*model.Task
	maxTaskCount int
	loaded       bool
	generation   uint64

	chatHook   ChatHook
	widgetHook WidgetHook
}

func New(category model.Category, cfg Config) (*Manager, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidCategory, category)
	}
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.Loader == nil {
		return nil, ErrMissingLoader
	}
	m := &Manager{
		category:   category,
		store:      cfg.Store,
		loader:     cfg.Loader,
		dispatcher: cfg.Dispatcher,
		refresher:  cfg.Refresher,
		messenger:  cfg.Messenger,
		selection:  cfg.Selection,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if m.refresher == nil {
		m.refresher = nopRefresher{}
	}
	if m.messenger == nil {
		m.messenger = nopMessenger{}
	}
	if m.selection == nil {
		m.selection = fixedSelection(category)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.logger = m.logger.With("category", string(category))
	if m.now == nil {
		m.now = time.Now
	}
	m.chatHook, m.widgetHook = defaultHooks(category)
	return m, nil
}

func (m *Manager) Category() model.Category { return m.category }

// Tasks is the authoritative list. Callers must not retain it across a load.
func (m *Manager) Tasks() []*model.Task { return m.tasks }

func (m *Manager) MaxTaskCount() int { return m.maxTaskCount }

// Loaded reports whether a catalog load has ever succeeded.
func (m *Manager) Loaded() bool { return m.loaded }

// Find returns the task whose name matches ignoring case and surrounding
// whitespace, or nil.
func (m *Manager) Find(name string) *model.Task {
	for _, task := range m.tasks {
		if task.MatchesName(name) {
			return task
		}
	}
	return nil
}

// LoadTaskSourceData fetches a fresh catalog off the coordinating goroutine
// and applies it through the dispatcher. Only the most recent call can win;
// earlier ones complete with ErrSuperseded. done may be nil. Without a
// dispatcher the load runs to completion on the caller's goroutine.
func (m *Manager) LoadTaskSourceData(ctx context.Context, done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	m.generation++
	gen := m.generation
	if m.dispatcher == nil {
		loaded, err := m.loader.Load(ctx, m.category)
		done(m.applyCatalog(gen, loaded, err))
		return
	}
	go func() {
		loaded, err := m.loader.Load(ctx, m.category)
		m.dispatcher.Dispatch(func() {
			done(m.applyCatalog(gen, loaded, err))
		})
	}()
}

func (m *Manager) applyCatalog(gen uint64, loaded catalog.Catalog, err error) error {
	if gen != m.generation {
		m.logger.Debug("discard stale catalog", "generation", gen, "current", m.generation)
		return ErrSuperseded
	}
	if err != nil {
		if !errors.Is(err, catalog.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, err)
		}
		m.logger.Error("catalog load failed", "err", err)
		return err
	}
	m.tasks = loaded.Tasks
	m.maxTaskCount = loaded.MaxTaskCount
	m.loaded = true
	m.ApplyTrackerSave()
	m.logger.Info("catalog loaded", "tasks", len(m.tasks), "max", m.maxTaskCount)
	m.refresher.Refresh(nil)
	return nil
}

// ApplyTrackerSave overwrites the state of every task with its saved record.
// Tasks without a record are reset.
func (m *Manager) ApplyTrackerSave() {
	for _, task := range m.tasks {
		save, ok := m.store.Lookup(m.category, task.Name)
		if !ok {
			save, ok = m.store.LookupFold(m.category, task.Name)
		}
		if !ok {
			task.ResetState()
			continue
		}
		save.ApplyTo(task)
	}
}

// CompleteTask marks name completed and untracked. An unknown name is not an
// error.
func (m *Manager) CompleteTask(ctx context.Context, name string) error {
	return m.mutate(ctx, name, func(task *model.Task, now time.Time) {
		task.SetTracked(false, now)
		task.SetCompleted(true, now)
	})
}

func (m *Manager) SetCompleted(ctx context.Context, name string, on bool) error {
	return m.mutate(ctx, name, func(task *model.Task, now time.Time) {
		task.SetCompleted(on, now)
	})
}

func (m *Manager) SetTracked(ctx context.Context, name string, on bool) error {
	return m.mutate(ctx, name, func(task *model.Task, now time.Time) {
		task.SetTracked(on, now)
	})
}

func (m *Manager) SetIgnored(ctx context.Context, name string, on bool) error {
	return m.mutate(ctx, name, func(task *model.Task, now time.Time) {
		task.SetIgnored(on, now)
	})
}

func (m *Manager) mutate(ctx context.Context, name string, apply func(*model.Task, time.Time)) error {
	task := m.Find(name)
	if task == nil {
		m.logger.Debug("no task matches", "name", name)
		return nil
	}
	apply(task, m.now())
	if m.selection.SelectedCategory() == m.category {
		m.refresher.Refresh(task)
	}
	return m.store.SaveTask(ctx, task)
}

// UpdateTaskProgress applies a scraped completion list in order, then reports
// how many entries were received against the catalog size.
func (m *Manager) UpdateTaskProgress(ctx context.Context, progress *Progress) error {
	index := make(map[string]*model.Task, len(m.tasks))
	for _, task := range m.tasks {
		index[model.FoldName(task.Name)] = task
	}

	now := m.now()
	changed := make([]*model.Task, 0, progress.Len())
	progress.Each(func(name string, completed bool) {
		task, ok := index[model.FoldName(name)]
		if !ok {
			return
		}
		task.SetCompleted(completed, now)
		changed = append(changed, task)
	})
	err := m.store.SaveTasks(ctx, changed...)

	m.sendProgressMessage(progress.Len())
	m.refresher.Refresh(nil)
	return err
}

func (m *Manager) sendProgressMessage(received int) {
	count := strconv.Itoa(received)
	hint := partialHint
	color := ColorPartial
	if m.maxTaskCount > 0 {
		count += "/" + strconv.Itoa(m.maxTaskCount)
		if received == m.maxTaskCount {
			hint = ""
			color = ColorComplete
		}
	}
	m.messenger.SendMessage(count+" tasks stored for export"+hint, color)
}

// ImportTaskStates copies the states in doc onto matching tasks and persists
// them. It returns how many tasks were updated.
func (m *Manager) ImportTaskStates(ctx context.Context, doc export.Document) (int, error) {
	if doc.Category != m.category {
		return 0, fmt.Errorf("%w: document is %s, manager is %s", ErrCategoryMismatch, doc.Category, m.category)
	}
	entries := make(map[string]export.Entry, len(doc.Tasks))
	for name, entry := range doc.Tasks {
		entries[model.FoldName(name)] = entry
	}

	var changed []*model.Task
	for _, task := range m.tasks {
		entry, ok := entries[model.FoldName(task.Name)]
		if !ok {
			continue
		}
		task.TrackedOn = entry.TrackedOn
		task.CompletedOn = entry.CompletedOn
		task.IgnoredOn = entry.IgnoredOn
		changed = append(changed, task)
	}
	err := m.store.SaveTasks(ctx, changed...)
	m.logger.Info("imported task states", "applied", len(changed), "entries", len(doc.Tasks))
	m.refresher.Refresh(nil)
	return len(changed), err
}
