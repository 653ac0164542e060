package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sandeepkv93/taskstracker/internal/model"
	"github.com/sandeepkv93/taskstracker/internal/storage"
)

// ConfigGroup is the backend group holding the filter configuration.
const ConfigGroup = "tasks-tracker"

const (
	tabKey  = "taskListTab"
	tierKey = "tierFilter"
)

var ErrInvalidTab = errors.New("filter: invalid tab")

type Tab string

const (
	TabTracked Tab = "TRACKED"
	TabAll     Tab = "ALL"
	TabCustom  Tab = "CUSTOM"
)

func Tabs() []Tab { return []Tab{TabTracked, TabAll, TabCustom} }

func (t Tab) IsValid() bool {
	switch t {
	case TabTracked, TabAll, TabCustom:
		return true
	default:
		return false
	}
}

func ParseTab(raw string) (Tab, error) {
	t := Tab(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTab, raw)
	}
	return t, nil
}

// Snapshot is the remembered axis ordinals of one tab.
type Snapshot struct {
	Completed int
	Tracked   int
	Ignored   int
}

// Engine decides which tasks are visible. Axis states and the active tab are
// persisted in ConfigGroup; per-tab snapshots live only in memory.
type Engine struct {
	backend storage.Backend
	logger  *slog.Logger

	tab      Tab
	axes     [3]*Axis
	memory   map[Tab]Snapshot
	text     string
	tiers    []string
	onChange func()
}

func NewEngine(backend storage.Backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		backend: backend,
		logger:  logger,
		tab:     TabAll,
		memory:  make(map[Tab]Snapshot),
	}
	for i, kind := range AxisKinds() {
		// Every AxisKinds entry is in axisDefs.
		e.axes[i], _ = NewAxis(kind)
	}
	return e
}

// OnChange registers fn to run after every visible change of the filters.
func (e *Engine) OnChange(fn func()) { e.onChange = fn }

func (e *Engine) Tab() Tab { return e.tab }

func (e *Engine) Axis(kind AxisKind) *Axis {
	for _, a := range e.axes {
		if a.kind == kind {
			return a
		}
	}
	return nil
}

func (e *Engine) Text() string { return e.text }

func (e *Engine) Tiers() []string { return slices.Clone(e.tiers) }

// Load restores the persisted tab, axis states and tier filter. Missing or
// unreadable values keep their defaults.
func (e *Engine) Load(ctx context.Context) error {
	if raw, ok, err := e.get(ctx, tabKey); err != nil {
		return err
	} else if ok {
		if tab, parseErr := ParseTab(raw); parseErr == nil {
			e.tab = tab
		} else {
			e.logger.Warn("ignore stored tab", "value", raw, "err", parseErr)
		}
	}
	for _, a := range e.axes {
		raw, ok, err := e.get(ctx, a.kind.ConfigKey())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if setErr := a.SetConfigName(raw); setErr != nil {
			e.logger.Warn("ignore stored filter", "axis", a.kind, "value", raw, "err", setErr)
		}
	}
	if raw, ok, err := e.get(ctx, tierKey); err != nil {
		return err
	} else if ok {
		e.tiers = splitTiers(raw)
	}
	for _, a := range e.axes {
		a.setEnabled(true)
	}
	e.lockTrackedTab()
	e.changed()
	return nil
}

// CycleAxis advances one axis and persists it. A disabled axis is left alone.
func (e *Engine) CycleAxis(ctx context.Context, kind AxisKind) error {
	a := e.Axis(kind)
	if a == nil {
		return fmt.Errorf("%w: %q", ErrUnknownAxis, kind)
	}
	if !a.Cycle() {
		return nil
	}
	if err := e.persistAxis(ctx, a); err != nil {
		return err
	}
	e.changed()
	return nil
}

// SetAxis jumps one enabled axis to state and persists it.
func (e *Engine) SetAxis(ctx context.Context, kind AxisKind, state TriState) error {
	a := e.Axis(kind)
	if a == nil {
		return fmt.Errorf("%w: %q", ErrUnknownAxis, kind)
	}
	if !a.Enabled() {
		return nil
	}
	a.Set(state)
	if err := e.persistAxis(ctx, a); err != nil {
		return err
	}
	e.changed()
	return nil
}

// SaveFilters remembers the current axis ordinals as tab's snapshot.
func (e *Engine) SaveFilters(tab Tab) {
	e.memory[tab] = Snapshot{
		Completed: e.Axis(AxisCompleted).Ordinal(),
		Tracked:   e.Axis(AxisTracked).Ordinal(),
		Ignored:   e.Axis(AxisIgnored).Ordinal(),
	}
}

// LoadAndApplyFilters restores tab's snapshot and persists the resulting
// axis states. Without a snapshot nothing changes.
func (e *Engine) LoadAndApplyFilters(ctx context.Context, tab Tab) error {
	snap, ok := e.memory[tab]
	if !ok {
		return nil
	}
	ordinals := map[AxisKind]int{
		AxisCompleted: snap.Completed,
		AxisTracked:   snap.Tracked,
		AxisIgnored:   snap.Ignored,
	}
	for _, a := range e.axes {
		if err := a.SetOrdinal(ordinals[a.kind]); err != nil {
			return err
		}
	}
	return e.persistAxes(ctx)
}

// ChangeTab switches tabs, remembering the filters of the tab being left.
func (e *Engine) ChangeTab(ctx context.Context, tab Tab) error {
	if !tab.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTab, tab)
	}
	e.SaveFilters(e.tab)
	for _, a := range e.axes {
		a.setEnabled(true)
	}
	if err := e.LoadAndApplyFilters(ctx, tab); err != nil {
		return err
	}
	e.tab = tab
	if e.lockTrackedTab() {
		if err := e.persistAxis(ctx, e.Axis(AxisTracked)); err != nil {
			return err
		}
	}
	if err := e.set(ctx, tabKey, string(tab)); err != nil {
		return err
	}
	e.changed()
	return nil
}

// SetText sets the live name filter. It is not persisted.
func (e *Engine) SetText(text string) {
	e.text = strings.ToLower(text)
	e.changed()
}

// SetTiers restricts visible tasks to the given tiers. No tiers means all.
func (e *Engine) SetTiers(ctx context.Context, tiers []string) error {
	e.tiers = normalizeTiers(tiers)
	if err := e.set(ctx, tierKey, strings.Join(e.tiers, ",")); err != nil {
		return err
	}
	e.changed()
	return nil
}

// ToggleTier adds tier to the tier filter or removes it when present.
func (e *Engine) ToggleTier(ctx context.Context, tier string) error {
	tier = strings.ToLower(strings.TrimSpace(tier))
	next := slices.Clone(e.tiers)
	if i := slices.Index(next, tier); i >= 0 {
		next = slices.Delete(next, i, i+1)
	} else {
		next = append(next, tier)
	}
	return e.SetTiers(ctx, next)
}

func (e *Engine) Visible(task *model.Task) bool {
	if !e.Axis(AxisCompleted).State().Matches(task.IsCompleted()) {
		return false
	}
	if !e.Axis(AxisTracked).State().Matches(task.IsTracked()) {
		return false
	}
	if !e.Axis(AxisIgnored).State().Matches(task.IsIgnored()) {
		return false
	}
	if e.text != "" && !strings.Contains(strings.ToLower(task.Name), e.text) {
		return false
	}
	if len(e.tiers) > 0 && !slices.Contains(e.tiers, strings.ToLower(task.Tier)) {
		return false
	}
	return true
}

// Apply returns the visible tasks in their original order.
func (e *Engine) Apply(tasks []*model.Task) []*model.Task {
	out := make([]*model.Task, 0, len(tasks))
	for _, task := range tasks {
		if e.Visible(task) {
			out = append(out, task)
		}
	}
	return out
}

// lockTrackedTab pins the tracked axis to tracked-only while the tracked tab
// is active. It reports whether the tab is the tracked one.
func (e *Engine) lockTrackedTab() bool {
	if e.tab != TabTracked {
		return false
	}
	tracked := e.Axis(AxisTracked)
	tracked.Set(OnlyPositive)
	tracked.setEnabled(false)
	return true
}

func (e *Engine) persistAxes(ctx context.Context) error {
	for _, a := range e.axes {
		if err := e.persistAxis(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) persistAxis(ctx context.Context, a *Axis) error {
	return e.set(ctx, a.kind.ConfigKey(), a.ConfigName())
}

func (e *Engine) get(ctx context.Context, key string) (string, bool, error) {
	value, err := e.backend.Get(ctx, ConfigGroup, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("filter: read %s: %w", key, err)
	}
	return value, true, nil
}

func (e *Engine) set(ctx context.Context, key, value string) error {
	if err := e.backend.Set(ctx, ConfigGroup, key, value); err != nil {
		return fmt.Errorf("filter: write %s: %w", key, err)
	}
	return nil
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

func splitTiers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalizeTiers(strings.Split(raw, ","))
}

func normalizeTiers(tiers []string) []string {
	out := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		tier = strings.ToLower(strings.TrimSpace(tier))
		if tier == "" || slices.Contains(out, tier) {
			continue
		}
		out = append(out, tier)
	}
	slices.Sort(out)
	return out
}
