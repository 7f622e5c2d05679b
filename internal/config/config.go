// Package config loads tab2md settings from defaults, an optional YAML file
// and TAB2MD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the remote debugging address of the user's browser.
// A literal IPv4 loopback avoids localhost resolving to ::1 first.
const DefaultEndpoint = "127.0.0.1:9222"

// Output formats
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

const envPrefix = "TAB2MD_"

// Config holds every setting of a single invocation.
type Config struct {
	Endpoint       string        `yaml:"endpoint"`
	OutputDir      string        `yaml:"output_dir"`
	MaxNameLength  int           `yaml:"max_name_length"`
	Format         string        `yaml:"format"`
	MinWordCount   int           `yaml:"min_word_count"` // 0 keeps the strategy default
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	EvalTimeout    time.Duration `yaml:"eval_timeout"`
	ExtractTimeout time.Duration `yaml:"extract_timeout"`
	WindowTitles   bool          `yaml:"window_titles"`
	SnapshotDir    string        `yaml:"snapshot_dir"`
	KeepSnapshot   bool          `yaml:"keep_snapshot"`
	Open           bool          `yaml:"open"`
	SkipInstall    bool          `yaml:"skip_install"`
	BrowserBin     string        `yaml:"browser_bin"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		OutputDir:      "exports",
		MaxNameLength:  50,
		Format:         FormatMarkdown,
		ConnectTimeout: 10 * time.Second,
		EvalTimeout:    3 * time.Second,
		ExtractTimeout: 60 * time.Second,
		WindowTitles:   true,
		SnapshotDir:    ".",
		LogLevel:       "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty and no tab2md.yaml exists) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = "tab2md.yaml"
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// A missing .env is normal; system environment still applies.
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v := getenv(envPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(envPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := getenv(envPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("ENDPOINT", &c.Endpoint)
	str("OUTPUT_DIR", &c.OutputDir)
	integer("MAX_NAME_LENGTH", &c.MaxNameLength)
	str("FORMAT", &c.Format)
	integer("MIN_WORD_COUNT", &c.MinWordCount)
	duration("CONNECT_TIMEOUT", &c.ConnectTimeout)
	duration("EVAL_TIMEOUT", &c.EvalTimeout)
	duration("EXTRACT_TIMEOUT", &c.ExtractTimeout)
	boolean("WINDOW_TITLES", &c.WindowTitles)
	str("SNAPSHOT_DIR", &c.SnapshotDir)
	boolean("KEEP_SNAPSHOT", &c.KeepSnapshot)
	boolean("OPEN", &c.Open)
	boolean("SKIP_INSTALL", &c.SkipInstall)
	str("BROWSER_BIN", &c.BrowserBin)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)

	return errors.Join(errs...)
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := ParseEndpoint(c.Endpoint); err != nil {
		return err
	}
	if c.MaxNameLength <= 0 {
		return fmt.Errorf("max_name_length must be positive, got %d", c.MaxNameLength)
	}
	if c.MinWordCount < 0 {
		return fmt.Errorf("min_word_count must not be negative, got %d", c.MinWordCount)
	}
	switch c.Format {
	case FormatMarkdown, FormatJSON:
	default:
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	return nil
}

// ParseEndpoint normalizes endpoint to host:port and requires the host to be
// a literal IPv4 loopback address. An http:// or ws:// prefix is accepted.
func ParseEndpoint(endpoint string) (string, error) {
	raw := strings.TrimSpace(endpoint)
	if i := strings.Index(raw, "://"); i >= 0 {
		raw = raw[i+3:]
	}
	raw = strings.TrimSuffix(raw, "/")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil || !ip.IsLoopback() {
		return "", fmt.Errorf("invalid endpoint %q: host must be a literal IPv4 loopback address such as 127.0.0.1", endpoint)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("invalid endpoint %q: bad port", endpoint)
	}
	return net.JoinHostPort(host, port), nil
}
