package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sandeepkv93/taskstracker/internal/model"
	"github.com/sandeepkv93/taskstracker/internal/storage"
)

// DataGroup is the backend group holding one entry per saved task.
const DataGroup = "tasks-tracker-data"

const keySeparator = "."

var ErrNilTask = errors.New("tracker: task is required")

// SkippedRecord describes a persisted entry that could not be read back.
type SkippedRecord struct {
	Key    string
	Reason string
}

type LoadReport struct {
	Loaded  int
	Skipped []SkippedRecord
}

// Store is the persistent map of category -> task name -> saved state.
// Every mutation is written through to the backend for the whole category.
type Store struct {
	backend storage.Backend
	logger  *slog.Logger

	mu   sync.Mutex
	data map[model.Category]map[string]model.TaskSave
}

func New(backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		backend: backend,
		logger:  logger,
		data:    make(map[model.Category]map[string]model.TaskSave),
	}
}

// Load replaces the in-memory data with the backend contents. Unreadable
// records are skipped and reported; a backend failure leaves the store empty.
func (s *Store) Load(ctx context.Context) (LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[model.Category]map[string]model.TaskSave)
	entries, err := s.backend.List(ctx, storage.ListFilter{Group: DataGroup})
	if err != nil {
		return LoadReport{}, fmt.Errorf("tracker: load: %w", err)
	}

	var report LoadReport
	for _, entry := range entries {
		category, name, err := splitKey(entry.Key)
		if err == nil {
			var save model.TaskSave
			save, err = model.DecodeTaskSave(entry.Value)
			if err == nil {
				s.categoryLocked(category)[name] = save
				report.Loaded++
				continue
			}
		}
		s.logger.Warn("skip saved task", "key", entry.Key, "err", err)
		report.Skipped = append(report.Skipped, SkippedRecord{Key: entry.Key, Reason: err.Error()})
	}
	s.logger.Info("tracker data loaded", "records", report.Loaded, "skipped", len(report.Skipped))
	return report, nil
}

// SaveTask records the current state of task and persists its category.
func (s *Store) SaveTask(ctx context.Context, task *model.Task) error {
	return s.SaveTasks(ctx, task)
}

// SaveTasks records several tasks and persists each affected category once.
// A category whose write fails keeps its previous in-memory records.
func (s *Store) SaveTasks(ctx context.Context, tasks ...*model.Task) error {
	byCategory := make(map[model.Category][]*model.Task)
	var order []model.Category
	for _, task := range tasks {
		if task == nil {
			return ErrNilTask
		}
		if err := task.Validate(); err != nil {
			return err
		}
		if _, ok := byCategory[task.Category]; !ok {
			order = append(order, task.Category)
		}
		byCategory[task.Category] = append(byCategory[task.Category], task)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, category := range order {
		next := make(map[string]model.TaskSave, len(s.data[category])+len(byCategory[category]))
		for name, save := range s.data[category] {
			next[name] = save
		}
		for _, task := range byCategory[category] {
			putFolded(next, task)
		}

		prefix := string(category) + keySeparator
		values := make(map[string]string, len(next))
		for name, save := range next {
			values[prefix+name] = model.EncodeTaskSave(save)
		}
		if err := s.backend.ReplacePrefix(ctx, DataGroup, prefix, values); err != nil {
			errs = append(errs, fmt.Errorf("tracker: save %s (%d tasks): %w", category, len(byCategory[category]), err))
			continue
		}
		s.data[category] = next
	}
	return errors.Join(errs...)
}

// putFolded stores task under its exact name, dropping records whose name
// differs only by case.
func putFolded(records map[string]model.TaskSave, task *model.Task) {
	folded := model.FoldName(task.Name)
	for name := range records {
		if name != task.Name && model.FoldName(name) == folded {
			delete(records, name)
		}
	}
	records[task.Name] = model.NewTaskSave(task)
}

// Lookup returns the record stored under exactly name.
func (s *Store) Lookup(category model.Category, name string) (model.TaskSave, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	save, ok := s.data[category][name]
	return save, ok
}

// LookupFold is Lookup ignoring case and surrounding whitespace.
func (s *Store) LookupFold(category model.Category, name string) (model.TaskSave, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	folded := model.FoldName(name)
	for stored, save := range s.data[category] {
		if model.FoldName(stored) == folded {
			return save, true
		}
	}
	return model.TaskSave{}, false
}

// Snapshot copies the records of one category.
func (s *Store) Snapshot(category model.Category) map[string]model.TaskSave {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.TaskSave, len(s.data[category]))
	for name, save := range s.data[category] {
		out[name] = save
	}
	return out
}

func (s *Store) categoryLocked(category model.Category) map[string]model.TaskSave {
	records, ok := s.data[category]
	if !ok {
		records = make(map[string]model.TaskSave)
		s.data[category] = records
	}
	return records
}

func splitKey(key string) (model.Category, string, error) {
	head, name, ok := strings.Cut(key, keySeparator)
	if !ok || name == "" {
		return "", "", fmt.Errorf("tracker: key %q has no task name", key)
	}
	category := model.Category(head)
	if !category.IsValid() {
		return "", "", fmt.Errorf("%w: %q", model.ErrInvalidCategory, head)
	}
	return category, name, nil
}
