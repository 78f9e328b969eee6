package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	dirtyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	cleanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	errorStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("196")).Padding(0, 1)
	infoStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	keyHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type documentStatus struct {
	title  string
	path   string
	loaded bool
	dirty  bool
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("tilecfg"))
	if m.observed >= 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  %d monitor(s) detected", m.observed)))
	}
	b.WriteString("\n\n")

	for _, st := range []documentStatus{
		{m.settings.store.Kind().Title(), m.settings.store.Path(), m.settings.loaded, m.settings.dirty()},
		{m.wm.store.Kind().Title(), m.wm.store.Path(), m.wm.loaded, m.wm.dirty()},
		{m.hotkeys.store.Kind().Title(), m.hotkeys.store.Path(), m.hotkeys.loaded, m.hotkeys.dirty()},
	} {
		b.WriteString(renderStatus(st))
		b.WriteByte('\n')
	}

	if m.wm.loaded {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  %d monitor entries configured", len(m.wm.working.Monitors))))
		b.WriteByte('\n')
	}

	if m.notice != nil {
		b.WriteByte('\n')
		b.WriteString(renderNotice(m.notice, m.width))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.prompting {
		b.WriteString(m.prompt.View())
	} else {
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

func renderStatus(st documentStatus) string {
	var mark string
	switch {
	case !st.loaded:
		mark = faintStyle.Render("…")
	case st.dirty:
		mark = dirtyStyle.Render("●")
	default:
		mark = cleanStyle.Render("✓")
	}
	return fmt.Sprintf("%s %-22s %s", mark, st.title, faintStyle.Render(st.path))
}

func renderNotice(n *Notification, width int) string {
	style := errorStyle
	if n.Level == LevelInfo {
		style = infoStyle
	}
	if width > 4 {
		style = style.Width(width - 4)
	}
	body := titleStyle.Render(n.Title)
	if n.Description != "" {
		body += "\n" + n.Description
	}
	return style.Render(body)
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return keyHelpStyle.Render(strings.Join(parts, "  "))
}
