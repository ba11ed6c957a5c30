package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35"))
	styleSubtitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	stylePrompt    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleLabel     = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(28)
	styleValue     = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleBarFull   = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	styleBarEmpty  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

const (
	defaultWidth  = 64
	defaultHeight = 14
	barWidth      = 30
)

type optionItem struct {
	title string
	desc  string
	value string
}

func (i optionItem) Title() string       { return i.title }
func (i optionItem) Description() string { return i.desc }
func (i optionItem) FilterValue() string { return i.title }

func newList(title string, items []list.Item, width, height int) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("252"))
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(lipgloss.Color("42")).Bold(true)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.Foreground(lipgloss.Color("244")).Italic(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(lipgloss.Color("35")).Italic(true)

	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	l := list.New(items, delegate, width, height)
	l.Title = title
	l.Styles.Title = styleTitle
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	return l
}

// progressBar renders a fixed-width bar for percent in [0, 100].
func progressBar(percent int) string {
	filled := barWidth * percent / 100
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return styleBarFull.Render(strings.Repeat("█", filled)) +
		styleBarEmpty.Render(strings.Repeat("░", barWidth-filled))
}

func row(label, value string) string {
	return styleLabel.Render(label) + styleValue.Render(value)
}
