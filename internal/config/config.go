// Package config handles configuration loading and defaults for pomo.
// Configuration is loaded from XDG-compliant paths (typically ~/.config/pomo/config.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pomo/internal/fsutil"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Vault is the notes directory the timer logs into (defaults to the working directory)
	Vault string `yaml:"vault,omitempty"`

	// DataDir overrides the default data directory (~/.local/share/pomo)
	DataDir string `yaml:"data_dir,omitempty"`

	// Log configures the application log (not the pomodoro log note)
	Log LogConfig `yaml:"log,omitempty"`

	// Timer holds the timer settings
	Timer Settings `yaml:"timer,omitempty"`

	// Daily configures how daily notes are located and created
	Daily DailyConfig `yaml:"daily,omitempty"`

	// Sounds configures chime and ambient audio
	Sounds SoundConfig `yaml:"sounds,omitempty"`

	// Notifications configures desktop notifications
	Notifications NotificationConfig `yaml:"notifications,omitempty"`

	// Sync configures git synchronization of the vault
	Sync SyncConfig `yaml:"sync,omitempty"`

	// Theme customizes the visual appearance
	Theme ThemeConfig `yaml:"theme,omitempty"`

	// Keys customizes keyboard shortcuts
	Keys KeysConfig `yaml:"keys,omitempty"`
}

// Settings are the timer settings. Key names match the settings keys of the
// note-taking plugin this timer follows.
type Settings struct {
	// Interval lengths in minutes, fractions allowed. A value of exactly 1
	// runs a 2 second interval.
	Pomo       float64 `yaml:"pomo,omitempty"`
	ShortBreak float64 `yaml:"shortBreak,omitempty"`
	LongBreak  float64 `yaml:"longBreak,omitempty"`

	// LongBreakInterval is the number of focus intervals per long break
	LongBreakInterval int `yaml:"longBreakInterval,omitempty"`

	// AutostartTimer keeps cycling without pausing; when false the timer
	// pauses after NumAutoCycles breaks
	AutostartTimer bool `yaml:"autostartTimer"`
	NumAutoCycles  int  `yaml:"numAutoCycles,omitempty"`

	NotificationSound bool `yaml:"notificationSound"`
	WhiteNoise        bool `yaml:"whiteNoise"`

	// Logging appends an entry to a note after each focus interval
	Logging       bool   `yaml:"logging"`
	LogToDaily    bool   `yaml:"logToDaily"`
	LogFile       string `yaml:"logFile,omitempty"`
	LogText       string `yaml:"logText,omitempty"`
	LogActiveNote bool   `yaml:"logActiveNote"`

	// RibbonIcon shows the clickable start/pause icon in the title bar
	RibbonIcon bool `yaml:"ribbonIcon"`
}

// LogConfig defines application log settings.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error, off
	Level string `yaml:"level,omitempty"`

	// File is where the TUI writes its log (defaults to <data_dir>/pomo.log)
	File string `yaml:"file,omitempty"`
}

// DailyConfig defines where daily notes live.
type DailyConfig struct {
	// Folder is relative to the vault
	Folder string `yaml:"folder,omitempty"`

	// Format is a Go time layout used for the note name
	Format string `yaml:"format,omitempty"`

	// Template is a vault-relative note copied into new daily notes
	Template string `yaml:"template,omitempty"`
}

// SoundConfig defines audio files and the player used to play them.
type SoundConfig struct {
	// Chime is played once when an interval ends
	Chime string `yaml:"chime,omitempty"`

	// Ambient is looped while an interval runs and white noise is enabled
	Ambient string `yaml:"ambient,omitempty"`

	// Player overrides the platform audio player command (e.g. "ffplay -nodisp -autoexit")
	Player string `yaml:"player,omitempty"`
}

// NotificationConfig defines desktop notification settings.
type NotificationConfig struct {
	// Desktop mirrors timer notices as desktop notifications
	Desktop bool `yaml:"desktop,omitempty"`

	// Sound asks the notification daemon to play its own sound
	Sound bool `yaml:"sound,omitempty"`
}

// SyncConfig defines git synchronization settings for the vault.
type SyncConfig struct {
	// Enabled enables/disables git sync
	Enabled bool `yaml:"enabled,omitempty"`

	// AutoCommit commits log notes after each write
	AutoCommit bool `yaml:"auto_commit,omitempty"`

	// AutoPush pushes after each commit
	AutoPush bool `yaml:"auto_push,omitempty"`

	// PullOnStartup pulls latest changes when the app starts
	PullOnStartup bool `yaml:"pull_on_startup,omitempty"`

	// CommitMessage is the commit message ("auto" for generated)
	CommitMessage string `yaml:"commit_message,omitempty"`
}

// ThemeConfig defines color settings.
type ThemeConfig struct {
	Primary string `yaml:"primary,omitempty"`
	Accent  string `yaml:"accent,omitempty"`
	Muted   string `yaml:"muted,omitempty"`
	Text    string `yaml:"text,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings.
type KeysConfig struct {
	Start   string `yaml:"start,omitempty"`   // default: "s"
	Toggle  string `yaml:"toggle,omitempty"`  // default: "p,space"
	Quit    string `yaml:"quit,omitempty"`    // default: "x"
	Ribbon  string `yaml:"ribbon,omitempty"`  // default: "enter"
	Help    string `yaml:"help,omitempty"`    // default: "?"
	Exit    string `yaml:"exit,omitempty"`    // default: "q,ctrl+c"
	Confirm string `yaml:"confirm,omitempty"` // default: "enter"
	Cancel  string `yaml:"cancel,omitempty"`  // default: "esc"
}

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid timer settings")

// DefaultSettings returns the default timer settings.
func DefaultSettings() Settings {
	return Settings{
		Pomo:              25,
		ShortBreak:        5,
		LongBreak:         15,
		LongBreakInterval: 4,
		AutostartTimer:    true,
		NumAutoCycles:     1,
		NotificationSound: true,
		WhiteNoise:        false,
		Logging:           false,
		LogToDaily:        false,
		LogFile:           "Pomodoro Log.md",
		LogText:           "[🍅] {DATE} {TIME} {DESC}",
		LogActiveNote:     false,
		RibbonIcon:        true,
	}
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Vault:   "",
		DataDir: defaultDataDir(),
		Log: LogConfig{
			Level: "info",
		},
		Timer: DefaultSettings(),
		Daily: DailyConfig{
			Folder: "",
			Format: "2006-01-02",
		},
		Notifications: NotificationConfig{
			Desktop: false,
			Sound:   false,
		},
		Sync: SyncConfig{
			Enabled:       false,
			AutoCommit:    true,
			AutoPush:      false,
			PullOnStartup: false,
			CommitMessage: "auto",
		},
		Theme: ThemeConfig{
			Primary: "#E4572E", // Tomato
			Accent:  "#10B981", // Emerald
			Muted:   "#6B7280", // Gray
		},
	}
}

// Validate checks that the timer settings are usable.
func (s Settings) Validate() error {
	var problems []string
	if s.Pomo <= 0 {
		problems = append(problems, "pomo must be positive")
	}
	if s.ShortBreak <= 0 {
		problems = append(problems, "shortBreak must be positive")
	}
	if s.LongBreak <= 0 {
		problems = append(problems, "longBreak must be positive")
	}
	if s.LongBreakInterval <= 0 {
		problems = append(problems, "longBreakInterval must be positive")
	}
	if s.NumAutoCycles <= 0 {
		problems = append(problems, "numAutoCycles must be positive")
	}
	if s.Logging && !s.LogToDaily && strings.TrimSpace(s.LogFile) == "" {
		problems = append(problems, "logFile is required when logging to a file")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// defaultDataDir returns the default data directory path.
func defaultDataDir() string {
	return filepath.Join(XDGDataHome(), "pomo")
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultPath returns the path to the config file.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), "pomo", "config.yaml")
}

// Load reads configuration from the default path, merging with defaults.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads configuration from path, merging with defaults.
// If no config file exists, returns default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var userCfg Config
	if err := yaml.Unmarshal(data, &userCfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	var doc yaml.Node
	_ = yaml.Unmarshal(data, &doc) // best-effort; fall back to conservative merge if this fails

	cfg.mergeFromYAML(&userCfg, &doc)

	if err := cfg.Timer.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeNonEmpty applies non-empty values from other to c.
// Booleans are left alone; they need presence-aware merging.
func (c *Config) mergeNonEmpty(other *Config) {
	if other.Vault != "" {
		c.Vault = other.Vault
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}

	// Timer numbers and strings
	if other.Timer.Pomo > 0 {
		c.Timer.Pomo = other.Timer.Pomo
	}
	if other.Timer.ShortBreak > 0 {
		c.Timer.ShortBreak = other.Timer.ShortBreak
	}
	if other.Timer.LongBreak > 0 {
		c.Timer.LongBreak = other.Timer.LongBreak
	}
	if other.Timer.LongBreakInterval > 0 {
		c.Timer.LongBreakInterval = other.Timer.LongBreakInterval
	}
	if other.Timer.NumAutoCycles > 0 {
		c.Timer.NumAutoCycles = other.Timer.NumAutoCycles
	}
	if other.Timer.LogFile != "" {
		c.Timer.LogFile = other.Timer.LogFile
	}
	if other.Timer.LogText != "" {
		c.Timer.LogText = other.Timer.LogText
	}

	if other.Daily.Folder != "" {
		c.Daily.Folder = other.Daily.Folder
	}
	if other.Daily.Format != "" {
		c.Daily.Format = other.Daily.Format
	}
	if other.Daily.Template != "" {
		c.Daily.Template = other.Daily.Template
	}

	if other.Sounds.Chime != "" {
		c.Sounds.Chime = other.Sounds.Chime
	}
	if other.Sounds.Ambient != "" {
		c.Sounds.Ambient = other.Sounds.Ambient
	}
	if other.Sounds.Player != "" {
		c.Sounds.Player = other.Sounds.Player
	}

	if other.Sync.CommitMessage != "" {
		c.Sync.CommitMessage = other.Sync.CommitMessage
	}

	if other.Theme.Primary != "" {
		c.Theme.Primary = other.Theme.Primary
	}
	if other.Theme.Accent != "" {
		c.Theme.Accent = other.Theme.Accent
	}
	if other.Theme.Muted != "" {
		c.Theme.Muted = other.Theme.Muted
	}
	if other.Theme.Text != "" {
		c.Theme.Text = other.Theme.Text
	}

	mergeKey(&c.Keys.Start, other.Keys.Start)
	mergeKey(&c.Keys.Toggle, other.Keys.Toggle)
	mergeKey(&c.Keys.Quit, other.Keys.Quit)
	mergeKey(&c.Keys.Ribbon, other.Keys.Ribbon)
	mergeKey(&c.Keys.Help, other.Keys.Help)
	mergeKey(&c.Keys.Exit, other.Keys.Exit)
	mergeKey(&c.Keys.Confirm, other.Keys.Confirm)
	mergeKey(&c.Keys.Cancel, other.Keys.Cancel)
}

func mergeKey(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)

	// Without a parsed document we can't tell absent booleans from false ones.
	if doc == nil || len(doc.Content) == 0 {
		return
	}

	boolPaths := []struct {
		dst  *bool
		src  bool
		path []string
	}{
		{&c.Timer.AutostartTimer, other.Timer.AutostartTimer, []string{"timer", "autostartTimer"}},
		{&c.Timer.NotificationSound, other.Timer.NotificationSound, []string{"timer", "notificationSound"}},
		{&c.Timer.WhiteNoise, other.Timer.WhiteNoise, []string{"timer", "whiteNoise"}},
		{&c.Timer.Logging, other.Timer.Logging, []string{"timer", "logging"}},
		{&c.Timer.LogToDaily, other.Timer.LogToDaily, []string{"timer", "logToDaily"}},
		{&c.Timer.LogActiveNote, other.Timer.LogActiveNote, []string{"timer", "logActiveNote"}},
		{&c.Timer.RibbonIcon, other.Timer.RibbonIcon, []string{"timer", "ribbonIcon"}},
		{&c.Notifications.Desktop, other.Notifications.Desktop, []string{"notifications", "desktop"}},
		{&c.Notifications.Sound, other.Notifications.Sound, []string{"notifications", "sound"}},
		{&c.Sync.Enabled, other.Sync.Enabled, []string{"sync", "enabled"}},
		{&c.Sync.AutoCommit, other.Sync.AutoCommit, []string{"sync", "auto_commit"}},
		{&c.Sync.AutoPush, other.Sync.AutoPush, []string{"sync", "auto_push"}},
		{&c.Sync.PullOnStartup, other.Sync.PullOnStartup, []string{"sync", "pull_on_startup"}},
	}
	for _, b := range boolPaths {
		if yamlHasPath(doc, b.path...) {
			*b.dst = b.src
		}
	}

	// An explicitly empty logText is allowed (it logs blank entries).
	if yamlHasPath(doc, "timer", "logText") {
		c.Timer.LogText = other.Timer.LogText
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultPath())
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return fsutil.WriteFileAtomic(path, data, 0600)
}

// GetDataDir returns the resolved data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	return defaultDataDir()
}

// GetVaultDir returns the resolved vault directory, defaulting to the
// working directory.
func (c *Config) GetVaultDir() string {
	if c.Vault != "" {
		return expandHome(c.Vault)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// GetLogFile returns the application log path used by the TUI.
func (c *Config) GetLogFile() string {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	return filepath.Join(c.GetDataDir(), "pomo.log")
}

// GetHistoryPath returns the path of the interval history database.
func (c *Config) GetHistoryPath() string {
	return filepath.Join(c.GetDataDir(), "history.db")
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}

	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
