// Package config loads and saves lark's YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a string ("1s", "150ms") in YAML.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Capture switches individual clipboard types on or off.
type Capture struct {
	Text  bool `yaml:"text"`
	Image bool `yaml:"image"`
	File  bool `yaml:"file"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config represents the lark configuration
type Config struct {
	MaxRecordCount      int      `yaml:"max_record_count"`
	RetentionHysteresis int      `yaml:"retention_hysteresis"`
	PollInterval        Duration `yaml:"poll_interval"`
	ReadTimeout         Duration `yaml:"read_timeout"`
	PreviewTextLimit    int      `yaml:"preview_text_limit"`
	PreviewQuality      int      `yaml:"preview_quality"`
	PreviewMaxDimension int      `yaml:"preview_max_dimension"`
	PageSize            int      `yaml:"page_size"`
	DBPath              string   `yaml:"db_path,omitempty"`
	IconDir             string   `yaml:"icon_dir,omitempty"`
	APIAddr             string   `yaml:"api_addr,omitempty"`
	Capture             Capture  `yaml:"capture"`
	Log                 Log      `yaml:"log"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRecordCount:      100,
		RetentionHysteresis: 10,
		PollInterval:        Duration(time.Second),
		ReadTimeout:         Duration(150 * time.Millisecond),
		PreviewTextLimit:    1000,
		PreviewQuality:      75,
		PreviewMaxDimension: 512,
		PageSize:            50,
		Capture:             Capture{Text: true, Image: true, File: true},
		Log:                 Log{Level: "info", Format: "auto"},
	}
}

// Dir returns lark's configuration directory, ~/.config/lark.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "lark"), nil
}

// ResolveDBPath returns the configured database path or the default one in
// the configuration directory.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "clipboard.db"), nil
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a configuration manager for ~/.config/lark/config.yaml
func NewConfigManager() (*ConfigManager, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		configPath: filepath.Join(dir, "config.yaml"),
	}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't
// exist. Keys missing from the file keep their default values.
func (cm *ConfigManager) Load() (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(cm.configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads the configuration, falling back to defaults with a
// warning when the file cannot be read or is invalid.
func (cm *ConfigManager) LoadOrDefault(log *slog.Logger) *Config {
	config, err := cm.Load()
	if err != nil {
		if log == nil {
			log = slog.Default()
		}
		log.Warn("using default configuration", "path", cm.configPath, "err", err)
		return DefaultConfig()
	}
	return config
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validate checks ranges. A max_record_count of 0 disables retention.
func validate(config *Config) error {
	switch {
	case config.MaxRecordCount < 0:
		return fmt.Errorf("max_record_count cannot be negative")
	case config.RetentionHysteresis < 0:
		return fmt.Errorf("retention_hysteresis cannot be negative")
	case config.PollInterval.Std() < 50*time.Millisecond:
		return fmt.Errorf("poll_interval must be at least 50ms")
	case config.ReadTimeout.Std() <= 0 || config.ReadTimeout.Std() > 5*time.Second:
		return fmt.Errorf("read_timeout must be between 0 and 5s")
	case config.PreviewTextLimit <= 0:
		return fmt.Errorf("preview_text_limit must be greater than 0")
	case config.PreviewQuality < 1 || config.PreviewQuality > 100:
		return fmt.Errorf("preview_quality must be between 1 and 100")
	case config.PreviewMaxDimension < 16:
		return fmt.Errorf("preview_max_dimension must be at least 16")
	case config.PageSize <= 0:
		return fmt.Errorf("page_size must be greater than 0")
	}
	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// field binds a command-line key to a config value.
type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

var fields = map[string]field{
	"max-record-count":      intField(func(c *Config) *int { return &c.MaxRecordCount }),
	"retention-hysteresis":  intField(func(c *Config) *int { return &c.RetentionHysteresis }),
	"preview-text-limit":    intField(func(c *Config) *int { return &c.PreviewTextLimit }),
	"preview-quality":       intField(func(c *Config) *int { return &c.PreviewQuality }),
	"preview-max-dimension": intField(func(c *Config) *int { return &c.PreviewMaxDimension }),
	"page-size":             intField(func(c *Config) *int { return &c.PageSize }),
	"poll-interval":         durationField(func(c *Config) *Duration { return &c.PollInterval }),
	"read-timeout":          durationField(func(c *Config) *Duration { return &c.ReadTimeout }),
	"db-path":               stringField(func(c *Config) *string { return &c.DBPath }),
	"icon-dir":              stringField(func(c *Config) *string { return &c.IconDir }),
	"api-addr":              stringField(func(c *Config) *string { return &c.APIAddr }),
	"log-level":             stringField(func(c *Config) *string { return &c.Log.Level }),
	"log-format":            stringField(func(c *Config) *string { return &c.Log.Format }),
	"capture-text":          boolField(func(c *Config) *bool { return &c.Capture.Text }),
	"capture-image":         boolField(func(c *Config) *bool { return &c.Capture.Image }),
	"capture-file":          boolField(func(c *Config) *bool { return &c.Capture.File }),
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	config, err := cm.Load()
	if err != nil {
		return err
	}
	if err := f.set(config, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}

	config, err := cm.Load()
	if err != nil {
		return "", err
	}
	return f.get(config), nil
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(fields))
	for key, f := range fields {
		result[key] = f.get(config)
	}
	return result, nil
}

func intField(ptr func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("not an integer: %s", v)
			}
			*ptr(c) = n
			return nil
		},
	}
}

func durationField(ptr func(*Config) *Duration) field {
	return field{
		get: func(c *Config) string { return ptr(c).Std().String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*ptr(c) = Duration(d)
			return nil
		},
	}
}

func boolField(ptr func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*ptr(c)) },
		set: func(c *Config, v string) error {
			switch v {
			case "true":
				*ptr(c) = true
			case "false":
				*ptr(c) = false
			default:
				return fmt.Errorf("must be 'true' or 'false', got %s", v)
			}
			return nil
		},
	}
}

func stringField(ptr func(*Config) *string) field {
	return field{
		get: func(c *Config) string {
			if *ptr(c) == "" {
				return "[default]"
			}
			return *ptr(c)
		},
		set: func(c *Config, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}
