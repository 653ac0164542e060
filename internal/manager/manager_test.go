package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandeepkv93/taskstracker/internal/catalog"
	"github.com/sandeepkv93/taskstracker/internal/export"
	"github.com/sandeepkv93/taskstracker/internal/model"
	"github.com/sandeepkv93/taskstracker/internal/storage"
	"github.com/sandeepkv93/taskstracker/internal/tracker"
)

var fixedNow = time.Unix(1700000000, 0)

type recordedMessage struct {
	Text  string
	Color MessageColor
}

type recorder struct {
	refreshed []string
	messages  []recordedMessage
	onRefresh func()
}

func (r *recorder) Refresh(task *model.Task) {
	if r.onRefresh != nil {
		r.onRefresh()
	}
	if task == nil {
		r.refreshed = append(r.refreshed, "*")
		return
	}
	r.refreshed = append(r.refreshed, task.Name)
}

func (r *recorder) SendMessage(text string, color MessageColor) {
	r.messages = append(r.messages, recordedMessage{Text: text, Color: color})
}

// queue collects dispatched work so the test goroutine can run it.
type queue chan func()

func (q queue) Dispatch(fn func()) { q <- fn }

func (q queue) runOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q:
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for dispatched work")
	}
}

func staticLoader(names ...string) catalog.Loader {
	return catalog.LoaderFunc(func(_ context.Context, category model.Category) (catalog.Catalog, error) {
		tasks := make([]*model.Task, 0, len(names))
		for _, name := range names {
			tasks = append(tasks, &model.Task{Name: name, Category: category})
		}
		return catalog.Catalog{Category: category, Tasks: tasks, MaxTaskCount: len(names)}, nil
	})
}

type fixture struct {
	manager *Manager
	store   *tracker.Store
	backend *storage.MemoryBackend
	rec     *recorder
}

func newFixture(t *testing.T, loader catalog.Loader) fixture {
	t.Helper()
	backend := storage.NewMemoryBackend()
	store := tracker.New(backend, nil)
	rec := &recorder{}
	m, err := New(model.CategoryCombat, Config{
		Store:     store,
		Loader:    loader,
		Refresher: rec,
		Messenger: rec,
		Now:       func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return fixture{manager: m, store: store, backend: backend, rec: rec}
}

func load(t *testing.T, m *Manager) {
	t.Helper()
	done := make(chan error, 1)
	m.LoadTaskSourceData(context.Background(), func(err error) { done <- err })
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("load: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for load")
	}
}

func states(m *Manager) map[string][3]int64 {
	out := make(map[string][3]int64, len(m.Tasks()))
	for _, task := range m.Tasks() {
		out[task.Name] = [3]int64{task.TrackedOn, task.CompletedOn, task.IgnoredOn}
	}
	return out
}

func TestNewRequiresCollaborators(t *testing.T) {
	store := tracker.New(storage.NewMemoryBackend(), nil)
	if _, err := New(model.CategoryCombat, Config{Loader: staticLoader()}); !errors.Is(err, ErrMissingStore) {
		t.Fatalf("expected ErrMissingStore, got: %v", err)
	}
	if _, err := New(model.CategoryCombat, Config{Store: store}); !errors.Is(err, ErrMissingLoader) {
		t.Fatalf("expected ErrMissingLoader, got: %v", err)
	}
	if _, err := New("BOGUS", Config{Store: store, Loader: staticLoader()}); !errors.Is(err, model.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got: %v", err)
	}
}

func TestLoadAppliesSavedStateAndRefreshes(t *testing.T) {
	f := newFixture(t, staticLoader("Foo", "Bar", "Baz"))
	ctx := context.Background()
	if err := f.store.SaveTask(ctx, &model.Task{Name: "foo", Category: model.CategoryCombat, CompletedOn: 50}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := f.store.SaveTask(ctx, &model.Task{Name: "Bar", Category: model.CategoryCombat, TrackedOn: 60, IgnoredOn: 70}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	load(t, f.manager)

	want := map[string][3]int64{
		"Foo": {0, 50, 0},
		"Bar": {70, 0, 70},
		"Baz": {0, 0, 0},
	}
	if diff := cmp.Diff(want, states(f.manager)); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	if f.manager.MaxTaskCount() != 3 || !f.manager.Loaded() {
		t.Fatalf("unexpected max=%d loaded=%v", f.manager.MaxTaskCount(), f.manager.Loaded())
	}
	if diff := cmp.Diff([]string{"*"}, f.rec.refreshed); diff != "" {
		t.Fatalf("refresh mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyTrackerSaveIsIdempotentAndResets(t *testing.T) {
	f := newFixture(t, staticLoader("Foo", "Bar"))
	ctx := context.Background()
	if err := f.store.SaveTask(ctx, &model.Task{Name: "Foo", Category: model.CategoryCombat, TrackedOn: 9}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	load(t, f.manager)

	bar := f.manager.Find("Bar")
	bar.TrackedOn, bar.CompletedOn, bar.IgnoredOn = 1, 2, 3

	f.manager.ApplyTrackerSave()
	first := states(f.manager)
	f.manager.ApplyTrackerSave()
	second := states(f.manager)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("merge not idempotent (-first +second):\n%s", diff)
	}
	if first["Bar"] != [3]int64{} {
		t.Fatalf("task without a record should be reset, got %v", first["Bar"])
	}
	if first["Foo"] != [3]int64{9, 0, 0} {
		t.Fatalf("unexpected Foo state: %v", first["Foo"])
	}
}

func TestCompleteTaskMatchesTrimmedCaseInsensitive(t *testing.T) {
	f := newFixture(t, staticLoader("foo", "bar"))
	load(t, f.manager)
	ctx := context.Background()
	if err := f.manager.SetTracked(ctx, "foo", true); err != nil {
		t.Fatalf("track: %v", err)
	}

	if err := f.manager.CompleteTask(ctx, "Foo "); err != nil {
		t.Fatalf("complete: %v", err)
	}

	foo := f.manager.Find("foo")
	if foo.IsTracked() || !foo.IsCompleted() || foo.CompletedOn != fixedNow.Unix() {
		t.Fatalf("unexpected foo state: %#v", foo)
	}
	save, ok := f.store.Lookup(model.CategoryCombat, "foo")
	if !ok {
		t.Fatal("expected saved record")
	}
	if diff := cmp.Diff(model.TaskSave{Completed: true, Timestamp: fixedNow.Unix()}, save); diff != "" {
		t.Fatalf("saved record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"*", "foo", "foo"}, f.rec.refreshed); diff != "" {
		t.Fatalf("refresh mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteTaskUnknownNameIsNoop(t *testing.T) {
	f := newFixture(t, staticLoader("foo"))
	load(t, f.manager)

	if err := f.manager.CompleteTask(context.Background(), "Somebody else's task"); err != nil {
		t.Fatalf("expected silent no-op, got: %v", err)
	}
	if entries, _ := f.backend.List(context.Background(), storage.ListFilter{Group: tracker.DataGroup}); len(entries) != 0 {
		t.Fatalf("nothing should be persisted, got %#v", entries)
	}
}

func TestCompleteTaskSkipsRefreshWhenCategoryHidden(t *testing.T) {
	backend := storage.NewMemoryBackend()
	rec := &recorder{}
	m, err := New(model.CategoryCombat, Config{
		Store:     tracker.New(backend, nil),
		Loader:    staticLoader("foo"),
		Refresher: rec,
		Selection: fixedSelection(model.CategoryLeague3),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	load(t, m)
	rec.refreshed = nil

	if err := m.CompleteTask(context.Background(), "foo"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(rec.refreshed) != 0 {
		t.Fatalf("expected no refresh, got %v", rec.refreshed)
	}
}

func TestCompleteTaskSurfacesStoreFailure(t *testing.T) {
	f := newFixture(t, staticLoader("foo"))
	load(t, f.manager)
	f.backend.WriteErr = errors.New("disk full")

	if err := f.manager.CompleteTask(context.Background(), "foo"); !errors.Is(err, f.backend.WriteErr) {
		t.Fatalf("expected store error, got: %v", err)
	}
}

func TestUpdateTaskProgressPartial(t *testing.T) {
	f := newFixture(t, staticLoader("A", "B", "C", "D", "E"))
	load(t, f.manager)

	progress := NewProgress()
	progress.Add("a", true)
	progress.Add("B", false)
	if err := f.manager.UpdateTaskProgress(context.Background(), progress); err != nil {
		t.Fatalf("update: %v", err)
	}

	want := []recordedMessage{{Text: "2/5 tasks stored for export (remove filters to get full export)", Color: ColorPartial}}
	if diff := cmp.Diff(want, f.rec.messages); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
	if !f.manager.Find("A").IsCompleted() || f.manager.Find("B").IsCompleted() {
		t.Fatalf("unexpected states: %v", states(f.manager))
	}
	if got := f.rec.refreshed[len(f.rec.refreshed)-1]; got != "*" {
		t.Fatalf("expected full refresh last, got %q", got)
	}
}

func TestUpdateTaskProgressComplete(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E"}
	f := newFixture(t, staticLoader(names...))
	load(t, f.manager)

	progress := NewProgress()
	for _, name := range names {
		progress.Add(name, true)
	}
	if err := f.manager.UpdateTaskProgress(context.Background(), progress); err != nil {
		t.Fatalf("update: %v", err)
	}

	want := []recordedMessage{{Text: "5/5 tasks stored for export", Color: ColorComplete}}
	if diff := cmp.Diff(want, f.rec.messages); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
	if got := len(f.store.Snapshot(model.CategoryCombat)); got != 5 {
		t.Fatalf("expected 5 saved records, got %d", got)
	}
}

func TestUpdateTaskProgressWritesCategoryOnce(t *testing.T) {
	backend := &countingBackend{MemoryBackend: storage.NewMemoryBackend()}
	store := tracker.New(backend, nil)
	m, err := New(model.CategoryCombat, Config{Store: store, Loader: staticLoader("A", "B", "C", "D")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	load(t, m)

	progress := NewProgress()
	for _, name := range []string{"A", "B", "C", "D"} {
		progress.Add(name, true)
	}
	if err := m.UpdateTaskProgress(context.Background(), progress); err != nil {
		t.Fatalf("update: %v", err)
	}
	if backend.replaces != 1 {
		t.Fatalf("expected a single category write, got %d", backend.replaces)
	}
	if got := len(store.Snapshot(model.CategoryCombat)); got != 4 {
		t.Fatalf("expected 4 saved records, got %d", got)
	}
}

type countingBackend struct {
	*storage.MemoryBackend
	replaces int
}

func (b *countingBackend) ReplacePrefix(ctx context.Context, group, prefix string, values map[string]string) error {
	b.replaces++
	return b.MemoryBackend.ReplacePrefix(ctx, group, prefix, values)
}

func TestUpdateTaskProgressWithoutMaxCount(t *testing.T) {
	loader := catalog.LoaderFunc(func(_ context.Context, category model.Category) (catalog.Catalog, error) {
		return catalog.Catalog{Category: category, Tasks: []*model.Task{{Name: "A", Category: category}}}, nil
	})
	f := newFixture(t, loader)
	load(t, f.manager)

	progress := NewProgress()
	progress.Add("A", true)
	progress.Add("Unknown", true)
	if err := f.manager.UpdateTaskProgress(context.Background(), progress); err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []recordedMessage{{Text: "2 tasks stored for export (remove filters to get full export)", Color: ColorPartial}}
	if diff := cmp.Diff(want, f.rec.messages); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFailureKeepsExistingList(t *testing.T) {
	fail := false
	loader := catalog.LoaderFunc(func(ctx context.Context, category model.Category) (catalog.Catalog, error) {
		if fail {
			return catalog.Catalog{}, errors.New("network down")
		}
		return staticLoader("Foo").Load(ctx, category)
	})
	f := newFixture(t, loader)
	load(t, f.manager)

	fail = true
	done := make(chan error, 1)
	f.manager.LoadTaskSourceData(context.Background(), func(err error) { done <- err })
	err := <-done
	if !errors.Is(err, catalog.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got: %v", err)
	}
	if len(f.manager.Tasks()) != 1 || f.manager.Find("Foo") == nil {
		t.Fatalf("existing list should be kept, got %d tasks", len(f.manager.Tasks()))
	}
}

func TestStaleLoadIsSuperseded(t *testing.T) {
	release := make(chan struct{})
	calls := make(chan int, 2)
	n := 0
	loader := catalog.LoaderFunc(func(_ context.Context, category model.Category) (catalog.Catalog, error) {
		n++
		call := n
		calls <- call
		if call == 1 {
			<-release
			return catalog.Catalog{Category: category, Tasks: []*model.Task{{Name: "Old", Category: category}}}, nil
		}
		return catalog.Catalog{Category: category, Tasks: []*model.Task{{Name: "New", Category: category}}}, nil
	})

	q := make(queue, 2)
	m, err := New(model.CategoryCombat, Config{
		Store:      tracker.New(storage.NewMemoryBackend(), nil),
		Loader:     loader,
		Dispatcher: q,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var first, second error
	m.LoadTaskSourceData(context.Background(), func(err error) { first = err })
	<-calls
	m.LoadTaskSourceData(context.Background(), func(err error) { second = err })
	<-calls

	q.runOne(t)
	close(release)
	q.runOne(t)

	if second != nil {
		t.Fatalf("newest load should win, got: %v", second)
	}
	if !errors.Is(first, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for stale load, got: %v", first)
	}
	if len(m.Tasks()) != 1 || m.Tasks()[0].Name != "New" {
		t.Fatalf("expected the newest catalog, got %v", m.Tasks())
	}
}

func TestLoadWithoutDispatcherRunsOnCaller(t *testing.T) {
	f := newFixture(t, staticLoader("Foo", "Bar"))

	inCall := true
	f.rec.onRefresh = func() {
		if !inCall {
			t.Error("refresh ran after LoadTaskSourceData returned")
		}
	}
	var done bool
	var loadErr error
	f.manager.LoadTaskSourceData(context.Background(), func(err error) {
		if !inCall {
			t.Error("done ran after LoadTaskSourceData returned")
		}
		done, loadErr = true, err
	})
	inCall = false

	if !done || loadErr != nil {
		t.Fatalf("expected load to finish inside the call, done=%v err=%v", done, loadErr)
	}
	if len(f.manager.Tasks()) != 2 || len(f.rec.refreshed) != 1 {
		t.Fatalf("unexpected state after load: tasks=%d refreshed=%v", len(f.manager.Tasks()), f.rec.refreshed)
	}
}

func TestLoadWithDispatcherWaitsForCoordinator(t *testing.T) {
	q := make(queue, 1)
	rec := &recorder{}
	m, err := New(model.CategoryCombat, Config{
		Store:      tracker.New(storage.NewMemoryBackend(), nil),
		Loader:     staticLoader("Foo"),
		Dispatcher: q,
		Refresher:  rec,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var done bool
	m.LoadTaskSourceData(context.Background(), func(error) { done = true })
	fn := <-q
	if done || len(m.Tasks()) != 0 || len(rec.refreshed) != 0 {
		t.Fatal("load must not touch the list before the dispatched work runs")
	}
	fn()
	if !done || len(m.Tasks()) != 1 || len(rec.refreshed) != 1 {
		t.Fatalf("expected dispatched work to apply the catalog, done=%v tasks=%d", done, len(m.Tasks()))
	}
}

func TestImportTaskStates(t *testing.T) {
	f := newFixture(t, staticLoader("Foo", "Bar"))
	load(t, f.manager)

	doc := export.Document{
		Category: model.CategoryCombat,
		Tasks: map[string]export.Entry{
			"foo":     {TrackedOn: 10, CompletedOn: 20},
			"Missing": {IgnoredOn: 5},
		},
	}
	applied, err := f.manager.ImportTaskStates(context.Background(), doc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied, got %d", applied)
	}
	if got := states(f.manager)["Foo"]; got != [3]int64{10, 20, 0} {
		t.Fatalf("unexpected Foo state: %v", got)
	}

	doc.Category = model.CategoryLeague3
	if _, err := f.manager.ImportTaskStates(context.Background(), doc); !errors.Is(err, ErrCategoryMismatch) {
		t.Fatalf("expected ErrCategoryMismatch, got: %v", err)
	}
}
