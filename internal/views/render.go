package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	taskPaneWidth   = 62
	detailPaneWidth = 58
)

// StatusData is the one-line status under the panes. Color is a lipgloss
// colour and applies only to non-error lines.
type StatusData struct {
	Text    string
	Color   string
	IsError bool
}

type KeyHint struct {
	Keys   string
	Action string
}

type AppData struct {
	Category   string
	Tab        string
	TaskPane   string
	DetailPane string
	Status     StatusData
	MessageLog string
	KeyHints   []KeyHint
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	logStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderApp(data AppData) string {
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(taskPaneWidth).Render(data.TaskPane),
		paneStyle.Width(detailPaneWidth).Render(data.DetailPane),
	)

	sections := []string{RenderHeader(data.Category, data.Tab), panes}
	if status := RenderStatus(data.Status); status != "" {
		sections = append(sections, status)
	}
	if data.MessageLog != "" {
		sections = append(sections, logStyle.Width(taskPaneWidth+detailPaneWidth).Render(data.MessageLog))
	}
	if hints := RenderKeyHints(data.KeyHints); hints != "" {
		sections = append(sections, hints)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func RenderHeader(category, tab string) string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("tasks tracker"),
		" ",
		badgeStyle.Render("category: "+category),
		" ",
		badgeStyle.Render("tab: "+strings.ToLower(tab)),
	)
}

func RenderStatus(s StatusData) string {
	switch {
	case s.Text == "":
		return ""
	case s.IsError:
		return errorStyle.Render("status: error: " + s.Text)
	case s.Color != "":
		return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("status: " + s.Text)
	default:
		return statusStyle.Render("status: " + s.Text)
	}
}

func RenderKeyHints(hints []KeyHint) string {
	if len(hints) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, fmt.Sprintf("%s %s", h.Keys, h.Action))
	}
	return hintStyle.Render("keys: " + strings.Join(parts, " | "))
}

// RenderMarkdown wraps md to width columns. Invalid markdown is returned as is.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
