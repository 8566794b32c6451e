package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pomo/internal/session"
)

// HelpOverlay renders a help screen
type HelpOverlay struct {
	width  int
	height int
	styles *Styles
	keys   KeyMap
	input  InputKeyMap
}

// NewHelpOverlay creates a new help overlay
func NewHelpOverlay(styles *Styles, keys KeyMap, input InputKeyMap) *HelpOverlay {
	return &HelpOverlay{
		styles: styles,
		keys:   keys,
		input:  input,
	}
}

// SetSize sets the overlay dimensions
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help overlay. Commands that do not apply right now are
// marked unavailable.
func (h *HelpOverlay) View(commands []session.Command) string {
	overlayWidth := 60
	if h.width > 0 {
		overlayWidth = min(60, max(20, h.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorPrimary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorAccent).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorWarning).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorText)

	mutedStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorTextMuted).
		Italic(true)

	var b strings.Builder

	b.WriteString(titleStyle.Render("🍅 pomo - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Timer"))
	b.WriteString("\n")
	for _, group := range h.keys.FullHelp() {
		for _, binding := range group {
			help := binding.Help()
			b.WriteString(keyStyle.Render(help.Key) + descStyle.Render(help.Desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Commands"))
	b.WriteString("\n")
	for _, cmd := range commands {
		mark := "✓"
		if !cmd.Run(true) {
			mark = "–"
		}
		b.WriteString(keyStyle.Render(mark) + descStyle.Render(cmd.Name) + mutedStyle.Render("  "+cmd.ID) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Description Prompt"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render(h.input.Confirm.Help().Key) + descStyle.Render("Start with description") + "\n")
	b.WriteString(keyStyle.Render(h.input.Cancel.Help().Key) + descStyle.Render("Dismiss") + "\n")

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press ? or Esc to close"))

	content := overlayStyle.Render(b.String())

	return lipgloss.Place(
		h.width,
		h.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}
