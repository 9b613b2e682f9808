// ABOUTME: Configuration loading and parsing for the edi-chat widget
// ABOUTME: Supports YAML or TOML files with environment variable expansion, defaults, and overrides

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults for the hosted MSc EDI assistant.
const (
	DefaultEndpointURL = "https://msc-edi-ai-agent.onrender.com/ask"
	DefaultTitle       = "MSc EDI Programme Assistant"
	DefaultAccent      = "#0b5fff"
	DefaultGreeting    = "Hi! You can ask me about admissions, courses, or graduation requirements for MSc EDI."
	DefaultHint        = "Answers are based on official MSc EDI programme documents."
)

// DefaultSuggestions are the example questions shown when none are configured.
var DefaultSuggestions = []string{
	"What are the admission requirements?",
	"What courses are taught in the MSc EDI programme?",
	"Do I need a visa to study at NUS?",
	"What is the GPA requirement to graduate?",
	"I am an engineer. Am I suitable for EDI?",
	"I have a design background. Am I suitable for EDI?",
	"I have a degree in Business and Management. Am I suitable for EDI?",
}

// Environment variables that override file values, the way an embedding
// page overrides the widget defaults.
const (
	EnvEndpointURL = "EDI_CHAT_API_URL"
	EnvTitle       = "EDI_CHAT_TITLE"
	EnvAccent      = "EDI_CHAT_ACCENT"
)

var accentPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Config represents the complete widget configuration
type Config struct {
	Widget  WidgetConfig  `yaml:"widget" toml:"widget"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	HTTP    HTTPConfig    `yaml:"http" toml:"http"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// WidgetConfig holds the values the hosting page supplies to the widget
type WidgetConfig struct {
	EndpointURL string   `yaml:"endpoint_url" toml:"endpoint_url"`
	Title       string   `yaml:"title" toml:"title"`
	Accent      string   `yaml:"accent" toml:"accent"` // #rgb or #rrggbb
	Suggestions []string `yaml:"suggestions" toml:"suggestions"`
	Greeting    string   `yaml:"greeting" toml:"greeting"`
	Hint        string   `yaml:"hint" toml:"hint"`
}

// StorageConfig selects the durable key/value backend
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // sqlite, sqlite3, file, memory
	Path   string `yaml:"path" toml:"path"`
}

// HTTPConfig holds transport settings for the exchange client
type HTTPConfig struct {
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Widget: WidgetConfig{
			EndpointURL: DefaultEndpointURL,
			Title:       DefaultTitle,
			Accent:      DefaultAccent,
			Suggestions: append([]string(nil), DefaultSuggestions...),
			Greeting:    DefaultGreeting,
			Hint:        DefaultHint,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   filepath.Join(DataPath(), "widget.db"),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Path returns the path to the widget config file.
// Priority: EDI_CHAT_CONFIG env var > XDG_CONFIG_HOME/edi-chat/widget.yaml > ~/.config/edi-chat/widget.yaml
func Path() string {
	if envPath := os.Getenv("EDI_CHAT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "widget.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "edi-chat", "widget.yaml")
}

// DataPath returns the edi-chat data directory.
// Priority: XDG_DATA_HOME/edi-chat > ~/.local/share/edi-chat
func DataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "edi-chat")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Values missing from the file keep their defaults. Environment variables in
// the format ${VAR_NAME} are expanded, and EDI_CHAT_* overrides are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return parse(path, data)
}

// LoadOrDefault behaves like Load but returns the defaults (with environment
// overrides applied) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnv(os.LookupEnv)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validating config: %w", err)
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return parse(path, data)
}

func parse(path string, data []byte) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides widget values from EDI_CHAT_API_URL, EDI_CHAT_TITLE and
// EDI_CHAT_ACCENT when they are set and non-empty.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEndpointURL); ok && v != "" {
		c.Widget.EndpointURL = v
	}
	if v, ok := lookup(EnvTitle); ok && v != "" {
		c.Widget.Title = v
	}
	if v, ok := lookup(EnvAccent); ok && v != "" {
		c.Widget.Accent = v
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Widget.EndpointURL == "" {
		return fmt.Errorf("widget.endpoint_url is required")
	}
	u, err := url.Parse(c.Widget.EndpointURL)
	if err != nil {
		return fmt.Errorf("widget.endpoint_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("widget.endpoint_url must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("widget.endpoint_url must include a host")
	}

	if !accentPattern.MatchString(c.Widget.Accent) {
		return fmt.Errorf("widget.accent must be a hex colour like #0b5fff, got %q", c.Widget.Accent)
	}

	for i, s := range c.Widget.Suggestions {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("widget.suggestions[%d] is empty", i)
		}
	}

	switch c.Storage.Driver {
	case "sqlite", "sqlite3", "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for driver %q", c.Storage.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver must be one of sqlite, sqlite3, file, memory, got %q", c.Storage.Driver)
	}

	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.HTTP.TimeoutRaw != "" {
		cfg.HTTP.Timeout, err = time.ParseDuration(cfg.HTTP.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.HTTP.TimeoutRaw, err)
		}
	}

	return nil
}
