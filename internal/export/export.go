package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/natefinch/atomic"

	"github.com/sandeepkv93/taskstracker/internal/model"
)

var ErrInvalidDocument = errors.New("export: invalid document")

const filePerms = 0o644

// Entry is the exported state of one task. Unlike the save record it keeps
// one timestamp per axis.
type Entry struct {
	TrackedOn   int64 `json:"tracked_on"`
	CompletedOn int64 `json:"completed_on"`
	IgnoredOn   int64 `json:"ignored_on"`
}

type Document struct {
	Category   model.Category   `json:"category"`
	ExportedAt time.Time        `json:"exported_at"`
	Tasks      map[string]Entry `json:"tasks"`
}

func Build(category model.Category, tasks []*model.Task, now time.Time) Document {
	doc := Document{
		Category:   category,
		ExportedAt: now.UTC().Truncate(time.Second),
		Tasks:      make(map[string]Entry, len(tasks)),
	}
	for _, task := range tasks {
		doc.Tasks[task.Name] = Entry{
			TrackedOn:   task.TrackedOn,
			CompletedOn: task.CompletedOn,
			IgnoredOn:   task.IgnoredOn,
		}
	}
	return doc
}

func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if !doc.Category.IsValid() {
		return Document{}, fmt.Errorf("%w: %w: %q", ErrInvalidDocument, model.ErrInvalidCategory, doc.Category)
	}
	for name, entry := range doc.Tasks {
		if name == "" {
			return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, model.ErrEmptyTaskName)
		}
		if entry.TrackedOn < 0 || entry.CompletedOn < 0 || entry.IgnoredOn < 0 {
			return Document{}, fmt.Errorf("%w: negative timestamp for %q", ErrInvalidDocument, name)
		}
	}
	if doc.Tasks == nil {
		doc.Tasks = map[string]Entry{}
	}
	return doc, nil
}

// WriteFile replaces path with data in one rename.
func WriteFile(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	// atomic.WriteFile does not set permissions on new files.
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("chmod export: %w", err)
	}
	return nil
}

func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read export: %w", err)
	}
	return Parse(data)
}

func CopyToClipboard(data []byte) error {
	if err := clipboard.WriteAll(string(data)); err != nil {
		return fmt.Errorf("copy export to clipboard: %w", err)
	}
	return nil
}
