// Package ui provides the terminal user interface for pomo.
// This file defines key bindings using the Bubble Tea key package for
// type-safe key matching, help text generation and user customization.
package ui

import (
	"strings"

	"pomo/internal/config"

	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// Helpers
// =============================================================================

// parseKeys splits a comma-separated string into individual keys.
// If the input is empty, returns the default keys. The name "space" stands
// for the space bar since a literal space cannot survive trimming.
func parseKeys(customKeys string, defaultKeys ...string) []string {
	if customKeys == "" {
		return defaultKeys
	}
	keys := strings.Split(customKeys, ",")
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		trimmed := strings.TrimSpace(k)
		if trimmed == "space" {
			trimmed = " "
		}
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultKeys
	}
	return result
}

// =============================================================================
// Timer Keys
// =============================================================================

// KeyMap defines the keys available while no overlay is open.
type KeyMap struct {
	Start  key.Binding
	Toggle key.Binding
	Quit   key.Binding
	Ribbon key.Binding
	Help   key.Binding
	Exit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return NewKeyMap(&config.KeysConfig{})
}

// NewKeyMap creates key bindings from config.
func NewKeyMap(cfg *config.KeysConfig) KeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Start, "s")...),
			key.WithHelp("s", "start pomodoro"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Toggle, "p", " ")...),
			key.WithHelp("p/space", "toggle pause"),
		),
		Quit: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Quit, "x")...),
			key.WithHelp("x", "quit timer"),
		),
		Ribbon: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Ribbon, "enter")...),
			key.WithHelp("enter", "start or pause"),
		),
		Help: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Help, "?")...),
			key.WithHelp("?", "help"),
		),
		Exit: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Exit, "q", "ctrl+c")...),
			key.WithHelp("q", "exit"),
		),
	}
}

// ShortHelp returns the bindings shown in the help bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Toggle, k.Quit, k.Help, k.Exit}
}

// FullHelp returns the bindings shown in the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Toggle, k.Quit, k.Ribbon},
		{k.Help, k.Exit},
	}
}

// =============================================================================
// Input Keys
// =============================================================================

// InputKeyMap defines keys for the description prompt.
type InputKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultInputKeyMap returns the default input key bindings.
func DefaultInputKeyMap() InputKeyMap {
	return NewInputKeyMap(&config.KeysConfig{})
}

// NewInputKeyMap creates input key bindings from config.
func NewInputKeyMap(cfg *config.KeysConfig) InputKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return InputKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Confirm, "enter")...),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Cancel, "esc")...),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// =============================================================================
// Help Overlay Keys
// =============================================================================

// HelpKeyMap defines keys for the help overlay.
type HelpKeyMap struct {
	Close key.Binding
}

// DefaultHelpKeyMap returns the default help overlay key bindings.
func DefaultHelpKeyMap() HelpKeyMap {
	return HelpKeyMap{
		Close: key.NewBinding(
			key.WithKeys("?", "esc", "q", "enter", " "),
			key.WithHelp("any key", "close"),
		),
	}
}
