// Package config provides configuration types, defaults, loading and hot
// reload for the headless console.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	console "github.com/danielgatis/go-headless-console"
	"github.com/danielgatis/go-headless-console/internal/log"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// LocalConfigFile is looked up in the current directory before the user config.
const LocalConfigFile = ".headless-console.yaml"

// Config holds all configuration options.
type Config struct {
	Console   ConsoleConfig   `mapstructure:"console" yaml:"console"`
	Terminal  TerminalConfig  `mapstructure:"terminal" yaml:"terminal"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
	SSH       SSHConfig       `mapstructure:"ssh" yaml:"ssh"`
	Web       WebConfig       `mapstructure:"web" yaml:"web"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Exec      ExecConfig      `mapstructure:"exec" yaml:"exec"`
}

// ConsoleConfig holds line editing options.
type ConsoleConfig struct {
	Prompt            string `mapstructure:"prompt" yaml:"prompt"`
	InsertMode        bool   `mapstructure:"insert_mode" yaml:"insert_mode"`
	KeyboardSelection bool   `mapstructure:"keyboard_selection" yaml:"keyboard_selection"`
	EscapeEnabled     bool   `mapstructure:"escape_enabled" yaml:"escape_enabled"`
}

// TerminalConfig holds the screen size used when the host does not report one.
type TerminalConfig struct {
	Rows int `mapstructure:"rows" yaml:"rows"`
	Cols int `mapstructure:"cols" yaml:"cols"`
}

// HistoryConfig holds line history options.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	MaxSize int    `mapstructure:"max_size" yaml:"max_size"` // 0 keeps every line
	Path    string `mapstructure:"path" yaml:"path"`         // SQLite file; empty keeps history in memory
}

// ClipboardConfig holds clipboard options.
type ClipboardConfig struct {
	Mode         string `mapstructure:"mode" yaml:"mode"` // "none", "write" (default) or "readwrite"
	CopyOnSelect bool   `mapstructure:"copy_on_select" yaml:"copy_on_select"`
}

// SSHConfig holds the serve command options.
type SSHConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	HostKey string `mapstructure:"host_key" yaml:"host_key"` // PEM file; empty generates a key per run
}

// WebConfig holds the web command options.
type WebConfig struct {
	Addr   string `mapstructure:"addr" yaml:"addr"`
	Static string `mapstructure:"static" yaml:"static"` // directory served at /; empty serves only /ws
}

// LogConfig holds logging options.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"` // empty disables logging
	Level string `mapstructure:"level" yaml:"level"`
}

// ExecConfig holds the child process a session fronts.
type ExecConfig struct {
	Command []string `mapstructure:"command" yaml:"command"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Console: ConsoleConfig{
			Prompt:            "> ",
			InsertMode:        true,
			KeyboardSelection: true,
		},
		Terminal: TerminalConfig{
			Rows: console.DEFAULT_ROWS,
			Cols: console.DEFAULT_COLS,
		},
		History: HistoryConfig{
			Enabled: true,
			MaxSize: 1000,
		},
		Clipboard: ClipboardConfig{
			Mode: string(console.ClipboardWrite),
		},
		SSH: SSHConfig{
			Addr: ":2222",
		},
		Web: WebConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers the defaults with v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("console.prompt", d.Console.Prompt)
	v.SetDefault("console.insert_mode", d.Console.InsertMode)
	v.SetDefault("console.keyboard_selection", d.Console.KeyboardSelection)
	v.SetDefault("console.escape_enabled", d.Console.EscapeEnabled)
	v.SetDefault("terminal.rows", d.Terminal.Rows)
	v.SetDefault("terminal.cols", d.Terminal.Cols)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_size", d.History.MaxSize)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("clipboard.mode", d.Clipboard.Mode)
	v.SetDefault("clipboard.copy_on_select", d.Clipboard.CopyOnSelect)
	v.SetDefault("ssh.addr", d.SSH.Addr)
	v.SetDefault("ssh.host_key", d.SSH.HostKey)
	v.SetDefault("web.addr", d.Web.Addr)
	v.SetDefault("web.static", d.Web.Static)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("exec.command", d.Exec.Command)
}

// Locate points v at the config file. An explicit path wins; otherwise the
// lookup order is:
//  1. ./.headless-console.yaml
//  2. $XDG_CONFIG_HOME/headless-console/config.yaml
//  3. ~/.config/headless-console/config.yaml
func Locate(v *viper.Viper, path string) {
	if path != "" {
		v.SetConfigFile(path)
		return
	}
	if _, err := os.Stat(LocalConfigFile); err == nil {
		v.SetConfigFile(LocalConfigFile)
		return
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "headless-console"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "headless-console"))
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// Load reads the configuration into v and decodes it. A missing config file
// is not an error; the defaults apply.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	Locate(v, path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "No config file found, using defaults")
	} else {
		log.Info(log.CatConfig, "Loaded config", "path", v.ConfigFileUsed())
	}

	return Decode(v)
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the console cannot use.
func (c Config) Validate() error {
	if c.Terminal.Rows <= 0 || c.Terminal.Cols <= 0 {
		return fmt.Errorf("%w: terminal size %dx%d must be positive", ErrInvalid, c.Terminal.Rows, c.Terminal.Cols)
	}
	if c.History.MaxSize < 0 {
		return fmt.Errorf("%w: history.max_size must not be negative", ErrInvalid)
	}
	if _, err := console.ParseClipboardMode(c.Clipboard.Mode); err != nil {
		return fmt.Errorf("%w: clipboard.mode: %v", ErrInvalid, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if console.StringWidth(c.Console.Prompt) >= c.Terminal.Cols {
		return fmt.Errorf("%w: console.prompt is wider than the terminal", ErrInvalid)
	}
	if strings.ContainsAny(c.Console.Prompt, "\x1b\r\n") {
		return fmt.Errorf("%w: console.prompt must not contain control characters", ErrInvalid)
	}
	return nil
}

// ClipboardMode returns the parsed clipboard mode.
func (c Config) ClipboardMode() console.ClipboardMode {
	m, err := console.ParseClipboardMode(c.Clipboard.Mode)
	if err != nil {
		return console.ClipboardWrite
	}
	return m
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() log.Level {
	l, _ := log.ParseLevel(c.Log.Level)
	return l
}

const defaultHeader = `# headless-console configuration
#
# Lookup order: ./.headless-console.yaml, $XDG_CONFIG_HOME/headless-console/config.yaml,
# ~/.config/headless-console/config.yaml. Changes to console.* apply while running.
`

// WriteDefault creates a config file at path holding the defaults.
// Creates the parent directory if it doesn't exist.
func WriteDefault(path string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", path)

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", path)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", path)
	return nil
}

// Watch calls fn with the new configuration each time the config file changes.
// Changes that fail to decode or validate are logged and skipped.
func Watch(v *viper.Viper, fn func(Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Decode(v)
		if err != nil {
			log.ErrorErr(log.CatConfig, "Ignoring config change", err, "path", e.Name)
			return
		}
		log.Info(log.CatConfig, "Config reloaded", "path", e.Name)
		fn(cfg)
	})
	v.WatchConfig()
}
