package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type TaskPanelData struct {
	Category  string
	Loading   bool
	Spinner   string
	FilterBar string
	TableView string
	Shown     int
	Total     int
}

type AxisData struct {
	Name    string
	State   string
	Enabled bool
}

type FilterBarData struct {
	Tab    string
	Axes   []AxisData
	Search string
	Tiers  []string
}

type TaskData struct {
	Name        string
	Tier        string
	TrackedOn   int64
	CompletedOn int64
	IgnoredOn   int64
}

type TaskDetailData struct {
	Selected        *TaskData
	DescriptionView string
	ProgressView    string
	Completed       int
	Max             int
}

type MessageData struct {
	Text  string
	Color string
}

type HelpPanelData struct {
	Tab      string
	Bindings []string
	Commands string
	HelpView string
}

var lockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

func RenderTaskPanel(data TaskPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s tasks: %d/%d shown\n", strings.ToLower(data.Category), data.Shown, data.Total))
	b.WriteString(data.FilterBar + "\n")
	if data.Loading {
		b.WriteString(fmt.Sprintf("%s loading catalog\n", data.Spinner))
	}
	if data.Shown == 0 && !data.Loading {
		b.WriteString("(no tasks match the current filters)")
		return strings.TrimSpace(b.String())
	}
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderFilterBar(data FilterBarData) string {
	parts := make([]string, 0, len(data.Axes)+2)
	for _, axis := range data.Axes {
		part := fmt.Sprintf("%s:%s", axis.Name, axis.State)
		if !axis.Enabled {
			part = lockedStyle.Render(part + "(locked)")
		}
		parts = append(parts, part)
	}
	if data.Search != "" {
		parts = append(parts, fmt.Sprintf("search:%q", data.Search))
	}
	if len(data.Tiers) > 0 {
		parts = append(parts, "tiers:"+strings.Join(data.Tiers, ","))
	}
	return fmt.Sprintf("[%s] %s", data.Tab, strings.Join(parts, " "))
}

func RenderTaskDetail(data TaskDetailData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("completed: %d/%d\n%s\n", data.Completed, data.Max, data.ProgressView))
	if data.Selected == nil {
		b.WriteString("\ntask:\n(no selection)")
		return b.String()
	}
	t := data.Selected
	b.WriteString(fmt.Sprintf("\ntask: %s\n", t.Name))
	if t.Tier != "" {
		b.WriteString(fmt.Sprintf("tier: %s\n", t.Tier))
	}
	b.WriteString(fmt.Sprintf("tracked: %s\n", formatStamp(t.TrackedOn)))
	b.WriteString(fmt.Sprintf("completed: %s\n", formatStamp(t.CompletedOn)))
	b.WriteString(fmt.Sprintf("ignored: %s\n", formatStamp(t.IgnoredOn)))
	b.WriteString("\n" + data.DescriptionView)
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("\n\ncommand: %s", inputView)
}

// RenderMessageLog shows the newest limit messages, oldest first.
func RenderMessageLog(entries []MessageData, limit int) string {
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := e.Text
		if e.Color != "" {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("\n\nhelp (%s tab):\n%s\n%s\n%s",
		strings.ToLower(data.Tab),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
		RenderMarkdown(data.Commands, detailPaneWidth),
	)
}

func formatStamp(unix int64) string {
	if unix == 0 {
		return "no"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}
