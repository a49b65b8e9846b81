package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Polling  PollingConfig  `toml:"polling"`
	UI       UIConfig       `toml:"ui"`
	Database DatabaseConfig `toml:"database"`
	Stub     StubConfig     `toml:"stub"`
}

// BackendConfig locates the fetch/link backend.
type BackendConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// PollingConfig holds the scheduling intervals of the engine.
type PollingConfig struct {
	StatusInterval Duration `toml:"status_interval"`
	JobLogInterval Duration `toml:"job_log_interval"`
	SearchDebounce Duration `toml:"search_debounce"`
	JobLogMaxLines int      `toml:"job_log_max_lines"`
	ExistenceRate  float64  `toml:"existence_rate"`
}

// UIConfig holds notification lifetimes and listing sizes.
type UIConfig struct {
	ToastTTL  Duration `toml:"toast_ttl"`
	BannerTTL Duration `toml:"banner_ttl"`
	PageSize  int      `toml:"page_size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StubConfig contains the listen address of the stub backend.
type StubConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s StubConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Duration is a [time.Duration] written as a string ("5s", "500ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.url %q is not an absolute URL", ErrInvalidConfig, c.Backend.URL)
	}

	durations := []struct {
		key string
		val Duration
	}{
		{"backend.timeout", c.Backend.Timeout},
		{"polling.status_interval", c.Polling.StatusInterval},
		{"polling.job_log_interval", c.Polling.JobLogInterval},
		{"polling.search_debounce", c.Polling.SearchDebounce},
		{"ui.toast_ttl", c.UI.ToastTTL},
		{"ui.banner_ttl", c.UI.BannerTTL},
	}
	for _, d := range durations {
		if d.val.Duration <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, d.key)
		}
	}

	if c.Polling.JobLogMaxLines < 0 {
		return fmt.Errorf("%w: polling.job_log_max_lines must not be negative", ErrInvalidConfig)
	}
	if c.Polling.ExistenceRate <= 0 {
		return fmt.Errorf("%w: polling.existence_rate must be positive", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
