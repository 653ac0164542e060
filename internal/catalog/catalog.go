package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/taskstracker/internal/model"
)

var ErrCatalogUnavailable = errors.New("catalog: unavailable")

// Catalog is a freshly loaded task list. Tasks carry no state; the manager
// merges saved state onto them.
type Catalog struct {
	Category     model.Category
	Tasks        []*model.Task
	MaxTaskCount int
}

type Loader interface {
	Load(ctx context.Context, category model.Category) (Catalog, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, category model.Category) (Catalog, error)

func (f LoaderFunc) Load(ctx context.Context, category model.Category) (Catalog, error) {
	return f(ctx, category)
}

// document is the on-disk catalog shape shared by the JSON and YAML forms.
type document struct {
	MaxTaskCount int            `json:"max_task_count" yaml:"max_task_count"`
	Tasks        []taskDocument `json:"tasks" yaml:"tasks"`
}

type taskDocument struct {
	Name        string `json:"name" yaml:"name"`
	Tier        string `json:"tier" yaml:"tier"`
	Description string `json:"description" yaml:"description"`
}

var extensions = []string{".json", ".jsonc", ".yaml", ".yml"}

// FileLoader reads <dir>/<category>.{json,jsonc,yaml,yml}, category in lower
// case. JSON files may carry comments and trailing commas.
type FileLoader struct {
	Dir string
}

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

func (l *FileLoader) Load(ctx context.Context, category model.Category) (Catalog, error) {
	if !category.IsValid() {
		return Catalog{}, fmt.Errorf("%w: %w: %q", ErrCatalogUnavailable, model.ErrInvalidCategory, category)
	}
	base := strings.ToLower(string(category))
	for _, ext := range extensions {
		if err := ctx.Err(); err != nil {
			return Catalog{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
		path := filepath.Join(l.Dir, base+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Catalog{}, fmt.Errorf("%w: read %s: %w", ErrCatalogUnavailable, path, err)
		}
		doc, err := decode(ext, data)
		if err != nil {
			return Catalog{}, fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, path, err)
		}
		out, err := build(category, doc)
		if err != nil {
			return Catalog{}, fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, path, err)
		}
		return out, nil
	}
	return Catalog{}, fmt.Errorf("%w: no catalog file for %s in %s", ErrCatalogUnavailable, category, l.Dir)
}

func decode(ext string, data []byte) (document, error) {
	var doc document
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return document{}, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return document{}, fmt.Errorf("invalid JSONC: %w", err)
		}
		if err := json.Unmarshal(standardized, &doc); err != nil {
			return document{}, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return doc, nil
}

// build checks structural well-formedness only: names must be present and
// unique ignoring case.
func build(category model.Category, doc document) (Catalog, error) {
	if doc.MaxTaskCount < 0 {
		return Catalog{}, fmt.Errorf("max_task_count must not be negative, got %d", doc.MaxTaskCount)
	}
	seen := make(map[string]int, len(doc.Tasks))
	tasks := make([]*model.Task, 0, len(doc.Tasks))
	for i, td := range doc.Tasks {
		name := strings.TrimSpace(td.Name)
		if name == "" {
			return Catalog{}, fmt.Errorf("task %d: %w", i, model.ErrEmptyTaskName)
		}
		folded := model.FoldName(name)
		if prev, ok := seen[folded]; ok {
			return Catalog{}, fmt.Errorf("task %d: duplicate name %q (first at %d)", i, name, prev)
		}
		seen[folded] = i
		tasks = append(tasks, &model.Task{
			Name:        name,
			Category:    category,
			Tier:        strings.TrimSpace(td.Tier),
			Description: td.Description,
		})
	}
	return Catalog{Category: category, Tasks: tasks, MaxTaskCount: doc.MaxTaskCount}, nil
}
