package manager

import (
	"context"
	"regexp"
	"strings"

	"github.com/sandeepkv93/taskstracker/internal/model"
)

type ChatKind string

const (
	ChatKindGame  ChatKind = "GAME"
	ChatKindOther ChatKind = "OTHER"
)

// ChatMessage is a free-text notification from the host.
type ChatMessage struct {
	Kind ChatKind
	Text string
}

// WidgetLoaded reports that a host interface finished loading. Progress is
// set when a scraper already turned the interface into the task states of
// Category.
type WidgetLoaded struct {
	GroupID  int
	Category model.Category
	Progress *Progress
}

type ChatHook func(ctx context.Context, m *Manager, msg ChatMessage) error

type WidgetHook func(ctx context.Context, m *Manager, event WidgetLoaded) error

var (
	colorTag         = regexp.MustCompile(`<[^>]*>`)
	combatCompletion = regexp.MustCompile(`^Congratulations, you've completed an? (\w+) combat task: (.+) \(\d+ points?\)\.$`)
)

func defaultHooks(category model.Category) (ChatHook, WidgetHook) {
	chat := ignoreChat
	if category == model.CategoryCombat {
		chat = combatChat
	}
	return chat, forwardProgress
}

// WithHooks replaces the signal hooks. A nil hook keeps the current one.
func (m *Manager) WithHooks(chat ChatHook, widget WidgetHook) *Manager {
	if chat != nil {
		m.chatHook = chat
	}
	if widget != nil {
		m.widgetHook = widget
	}
	return m
}

func (m *Manager) HandleChatMessage(ctx context.Context, msg ChatMessage) error {
	return m.chatHook(ctx, m, msg)
}

func (m *Manager) HandleWidgetLoaded(ctx context.Context, event WidgetLoaded) error {
	return m.widgetHook(ctx, m, event)
}

func ignoreChat(context.Context, *Manager, ChatMessage) error { return nil }

func combatChat(ctx context.Context, m *Manager, msg ChatMessage) error {
	if msg.Kind != ChatKindGame {
		return nil
	}
	name, ok := ParseCombatCompletion(msg.Text)
	if !ok {
		return nil
	}
	return m.CompleteTask(ctx, name)
}

// ParseCombatCompletion extracts the task name from a combat task completion
// notification. Colour tags are ignored.
func ParseCombatCompletion(text string) (string, bool) {
	plain := strings.TrimSpace(colorTag.ReplaceAllString(text, ""))
	match := combatCompletion.FindStringSubmatch(plain)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[2]), true
}

func forwardProgress(ctx context.Context, m *Manager, event WidgetLoaded) error {
	if event.Progress == nil || event.Category != m.category {
		return nil
	}
	return m.UpdateTaskProgress(ctx, event.Progress)
}
