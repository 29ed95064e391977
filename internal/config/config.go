// internal/config/config.go
//
// This package handles configuration and the CreatorFlow home directory.
// The home directory (~/.creatorflow unless CREATORFLOW_HOME is set) holds the
// config file, the persisted board and the log file.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HomeDirName is the directory created under the user's home.
	HomeDirName = ".creatorflow"

	DriverFile   = "file"
	DriverSQLite = "sqlite"

	defaultModel     = "gemini-2.0-flash"
	defaultAPIKeyEnv = "GEMINI_API_KEY"
	legacyAPIKeyEnv  = "API_KEY"
	defaultTone      = "Engaging and punchy"
	defaultTimeout   = 30 * time.Second
	defaultToastTime = 4 * time.Second
)

const defaultConfigYAML = `# creatorflow configuration
version: 1

storage:
  # file keeps the board in data/<key>.json; sqlite keeps it in data/creatorflow.db
  driver: file
  # path: /absolute/or/relative/to/home

assistant:
  model: gemini-2.0-flash
  # Name of the environment variable holding the Gemini API key.
  api_key_env: GEMINI_API_KEY
  timeout: 30s
  tone: Engaging and punchy

ui:
  toast_duration: 4s
  show_log: true
`

// StorageConfig selects the blob store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
}

// AssistantConfig configures the text-generation helper.
type AssistantConfig struct {
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Endpoint  string        `yaml:"endpoint,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	Tone      string        `yaml:"tone"`
}

// UIConfig holds presentation preferences for the TUI.
type UIConfig struct {
	ToastDuration time.Duration `yaml:"toast_duration"`
	ShowLog       *bool         `yaml:"show_log,omitempty"`
}

// FileConfig models config.yaml.
type FileConfig struct {
	Version   int             `yaml:"version"`
	Storage   StorageConfig   `yaml:"storage"`
	Assistant AssistantConfig `yaml:"assistant"`
	UI        UIConfig        `yaml:"ui"`
}

// Config holds the runtime configuration.
type Config struct {
	// HomeDir is the CreatorFlow home directory
	HomeDir string

	File FileConfig

	// APIKey is resolved from the environment at load time; it is never
	// written back to disk.
	APIKey string
}

// DefaultHome returns CREATORFLOW_HOME or ~/.creatorflow.
func DefaultHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("CREATORFLOW_HOME")); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: locate home directory: %w", err)
	}
	return filepath.Join(userHome, HomeDirName), nil
}

// InitHomeDir creates the directory structure inside dir:
//
// dir/
// ├── config.yaml
// ├── data/   <- persisted board
// └── logs/   <- creatorflow.log
func InitHomeDir(dir string) error {
	for _, sub := range []string{"data", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", sub, err)
		}
	}
	return ensureConfigFile(filepath.Join(dir, "config.yaml"))
}

// NewConfig loads config.yaml from dir (defaults when absent) and applies
// environment overrides.
func NewConfig(dir string) (*Config, error) {
	cfg := &Config{
		HomeDir: dir,
		File:    defaultFileConfig(),
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.HomeDir, "config.yaml")
}

// DataDir returns the directory holding persisted board data.
func (c *Config) DataDir() string {
	return filepath.Join(c.HomeDir, "data")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.HomeDir, "logs")
}

// StorageDriver returns the configured blob store backend.
func (c *Config) StorageDriver() string {
	return c.File.Storage.Driver
}

// StoragePath returns where the selected backend keeps its data: a directory
// for the file driver, a database file for sqlite.
func (c *Config) StoragePath() string {
	if c.File.Storage.Path != "" {
		return c.File.Storage.Path
	}
	if c.File.Storage.Driver == DriverSQLite {
		return filepath.Join(c.DataDir(), "creatorflow.db")
	}
	return c.DataDir()
}

// AssistantEnabled reports whether an API key is available.
func (c *Config) AssistantEnabled() bool {
	return c.APIKey != ""
}

// ShowLog reports whether the TUI renders the log panel.
func (c *Config) ShowLog() bool {
	if c.File.UI.ShowLog == nil {
		return true
	}
	return *c.File.UI.ShowLog
}

// SetStorageDriver switches the backend and records it in config.yaml. Only
// storage.driver is rewritten; environment overrides and resolved paths stay
// out of the file, and its comments survive.
func (c *Config) SetStorageDriver(driver string) error {
	next := c.File
	next.Storage.Driver = normalizeDriver(driver)
	if err := next.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.writeStorageDriver(next.Storage.Driver); err != nil {
		return err
	}
	c.File = next
	return nil
}

func (c *Config) loadFile() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := FileConfig{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.HomeDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.File = parsed
	return nil
}

func (c *Config) writeStorageDriver(driver string) error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = []byte(defaultConfigYAML), nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("config: %s: top level must be a mapping", path)
	}
	storage := mappingValue(root, "storage")
	if storage.Kind != yaml.MappingNode {
		*storage = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	value := mappingValue(storage, "driver")
	value.Kind, value.Tag, value.Value, value.Content = yaml.ScalarNode, "!!str", driver, nil

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.MkdirAll(c.HomeDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure home dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}

// mappingValue returns the value node for key in m, appending an empty
// mapping entry when the key is absent.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = append(m.Content, k, v)
	return v
}

func (c *Config) applyEnvOverrides() {
	if driver := strings.TrimSpace(os.Getenv("CREATORFLOW_STORAGE_DRIVER")); driver != "" {
		c.File.Storage.Driver = normalizeDriver(driver)
	}
	if model := strings.TrimSpace(os.Getenv("CREATORFLOW_MODEL")); model != "" {
		c.File.Assistant.Model = model
	}
	c.APIKey = strings.TrimSpace(os.Getenv(c.File.Assistant.APIKeyEnv))
	if c.APIKey == "" {
		c.APIKey = strings.TrimSpace(os.Getenv(legacyAPIKeyEnv))
	}
}

func defaultFileConfig() FileConfig {
	fc := FileConfig{}
	fc.applyDefaults()
	return fc
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if strings.TrimSpace(fc.Storage.Driver) == "" {
		fc.Storage.Driver = DriverFile
	}
	if strings.TrimSpace(fc.Assistant.Model) == "" {
		fc.Assistant.Model = defaultModel
	}
	if strings.TrimSpace(fc.Assistant.APIKeyEnv) == "" {
		fc.Assistant.APIKeyEnv = defaultAPIKeyEnv
	}
	if fc.Assistant.Timeout <= 0 {
		fc.Assistant.Timeout = defaultTimeout
	}
	if strings.TrimSpace(fc.Assistant.Tone) == "" {
		fc.Assistant.Tone = defaultTone
	}
	if fc.UI.ToastDuration <= 0 {
		fc.UI.ToastDuration = defaultToastTime
	}
}

func (fc *FileConfig) normalize(base string) {
	fc.Storage.Driver = normalizeDriver(fc.Storage.Driver)
	fc.Storage.Path = resolvePath(base, fc.Storage.Path)
	fc.Assistant.Model = strings.TrimSpace(fc.Assistant.Model)
	fc.Assistant.APIKeyEnv = strings.TrimSpace(fc.Assistant.APIKeyEnv)
	fc.Assistant.Endpoint = strings.TrimRight(strings.TrimSpace(fc.Assistant.Endpoint), "/")
	fc.Assistant.Tone = strings.TrimSpace(fc.Assistant.Tone)
}

func (fc *FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch fc.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("storage.driver must be %q or %q", DriverFile, DriverSQLite)
	}
	if fc.Assistant.Model == "" {
		return fmt.Errorf("assistant.model is required")
	}
	return nil
}

func normalizeDriver(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
