package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings bookshelf reads at startup.
type Config struct {
	APIURL            string
	PageSize          int
	Debounce          time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	LogFile           string
}

const (
	defaultConfigPath        = "~/.config/bookshelf/config.toml"
	defaultAPIURL            = "http://localhost:4730"
	defaultPageSize          = 10
	defaultDebounce          = 300 * time.Millisecond
	defaultRequestTimeout    = 10 * time.Second
	defaultRequestsPerSecond = 10
	defaultLogFile           = "~/.local/state/bookshelf/bookshelf.log"
	maxPageSize              = 100
)

// Environment overrides, applied after the config file.
const (
	EnvAPIURL   = "BOOKSHELF_API_URL"
	EnvPageSize = "BOOKSHELF_PAGE_SIZE"
	EnvLogFile  = "BOOKSHELF_LOG_FILE"
)

// envFile is read from the working directory when present.
var envFile = ".env"

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:            defaultAPIURL,
		PageSize:          defaultPageSize,
		Debounce:          defaultDebounce,
		RequestTimeout:    defaultRequestTimeout,
		RequestsPerSecond: defaultRequestsPerSecond,
		LogFile:           mustExpand(defaultLogFile),
	}
}

// Load parses the config file at path (or the default location), falling
// back to defaults when it is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return applyEnv(cfg)
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL            string  `toml:"api_url"`
		PageSize          int     `toml:"page_size"`
		DebounceMS        int     `toml:"debounce_ms"`
		RequestTimeout    string  `toml:"request_timeout"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
		LogFile           string  `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIURL = withDefault(raw.APIURL, defaultAPIURL)
	if raw.PageSize != 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.DebounceMS > 0 {
		cfg.Debounce = time.Duration(raw.DebounceMS) * time.Millisecond
	}
	if timeout := strings.TrimSpace(raw.RequestTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if raw.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = raw.RequestsPerSecond
	}
	cfg.LogFile = mustExpand(withDefault(raw.LogFile, defaultLogFile))

	return applyEnv(cfg)
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPageSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		cfg.PageSize = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d, got %d", maxPageSize, c.PageSize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

func withDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
