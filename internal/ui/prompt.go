package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PromptOverlay is the modal that asks for an interval description.
type PromptOverlay struct {
	input  textinput.Model
	keys   InputKeyMap
	styles *Styles
	width  int
	height int

	open  bool
	id    uint64
	reply chan<- promptReply
}

// NewPromptOverlay creates a closed prompt.
func NewPromptOverlay(styles *Styles, keys InputKeyMap) *PromptOverlay {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 50
	return &PromptOverlay{
		input:  ti,
		keys:   keys,
		styles: styles,
	}
}

// SetSize sets the overlay dimensions.
func (p *PromptOverlay) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, min(60, width-12))
}

// IsOpen reports whether the prompt is showing.
func (p *PromptOverlay) IsOpen() bool {
	return p.open
}

// Open shows the prompt for req. A prompt that is already open is
// dismissed first.
func (p *PromptOverlay) Open(req promptMsg) tea.Cmd {
	if p.open {
		p.Dismiss()
	}
	p.open = true
	p.id = req.id
	p.reply = req.reply
	p.input.Reset()
	p.input.Placeholder = req.placeholder
	return p.input.Focus()
}

// Close hides the prompt without answering, for a caller that has stopped
// waiting. Stale ids are ignored.
func (p *PromptOverlay) Close(id uint64) {
	if !p.open || p.id != id {
		return
	}
	p.reset()
}

// Dismiss answers the open prompt as canceled.
func (p *PromptOverlay) Dismiss() {
	p.answer(promptReply{})
}

// Update handles keys while the prompt is open.
func (p *PromptOverlay) Update(msg tea.Msg) tea.Cmd {
	if !p.open {
		return nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, p.keys.Confirm):
			p.answer(promptReply{text: p.input.Value(), ok: true})
			return nil
		case key.Matches(msg, p.keys.Cancel):
			p.Dismiss()
			return nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *PromptOverlay) answer(r promptReply) {
	if !p.open {
		return
	}
	// reply is buffered and receives at most one answer.
	p.reply <- r
	p.reset()
}

func (p *PromptOverlay) reset() {
	p.open = false
	p.id = 0
	p.reply = nil
	p.input.Blur()
	p.input.Reset()
}

// View renders the prompt centered on screen.
func (p *PromptOverlay) View() string {
	overlayWidth := 64
	if p.width > 0 {
		overlayWidth = min(64, max(20, p.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(p.styles.ColorPrimary).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("What are you working on?"))
	b.WriteString("\n\n")
	b.WriteString(p.styles.InputPromptStyle.Render("> ") + p.input.View())
	b.WriteString("\n\n")
	b.WriteString(p.styles.RenderHelp(
		p.keys.Confirm.Help().Key, "start",
		p.keys.Cancel.Help().Key, "cancel",
	))

	content := overlayStyle.Render(b.String())
	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, content)
}
