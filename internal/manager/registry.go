package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/taskstracker/internal/model"
)

// Registry creates managers on first selection and remembers which category
// is on screen. It serves as the Selection of every manager it creates.
type Registry struct {
	cfg      Config
	managers map[model.Category]*Manager
	order    []model.Category
	selected model.Category
}

func NewRegistry(cfg Config) *Registry {
	r := &Registry{cfg: cfg, managers: make(map[model.Category]*Manager)}
	r.cfg.Selection = r
	return r
}

func (r *Registry) SelectedCategory() model.Category { return r.selected }

// Selected returns the manager on screen, or nil before the first Select.
func (r *Registry) Selected() *Manager { return r.managers[r.selected] }

func (r *Registry) Get(category model.Category) (*Manager, bool) {
	m, ok := r.managers[category]
	return m, ok
}

// Select puts category on screen. created is true when the manager did not
// exist yet; the caller is expected to start its catalog load.
func (r *Registry) Select(category model.Category) (m *Manager, created bool, err error) {
	if existing, ok := r.managers[category]; ok {
		r.selected = category
		return existing, false, nil
	}
	m, err = New(category, r.cfg)
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", category, err)
	}
	r.managers[category] = m
	r.order = append(r.order, category)
	r.selected = category
	return m, true, nil
}

// HandleChatMessage forwards msg to every manager in creation order.
func (r *Registry) HandleChatMessage(ctx context.Context, msg ChatMessage) error {
	var errs []error
	for _, category := range r.order {
		if err := r.managers[category].HandleChatMessage(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) HandleWidgetLoaded(ctx context.Context, event WidgetLoaded) error {
	var errs []error
	for _, category := range r.order {
		if err := r.managers[category].HandleWidgetLoaded(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
