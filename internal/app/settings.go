package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/tracekit/pkg/throwable"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DBPath          string `yaml:"db_path"`
	Extended        *bool  `yaml:"extended"`
	MaxDepth        int    `yaml:"max_depth"`
	Color           bool   `yaml:"color"`
	WatchDebounceMS int    `yaml:"watch_debounce_ms"`
}

// CodecSettings are the effective runtime values used by the parse/format commands.
type CodecSettings struct {
	Extended      bool          `json:"extended"`
	MaxDepth      int           `json:"max_depth"`
	Color         bool          `json:"color"`
	WatchDebounce time.Duration `json:"watch_debounce"`
}

const (
	defaultWatchDebounce = 300 * time.Millisecond
	minWatchDebounce     = 50 * time.Millisecond
	maxWatchDebounce     = 10 * time.Second
	maxParserDepth       = 10000
)

// EffectiveCodecSettings returns validated codec settings with defaults.
// Invalid or missing config values fall back to safe defaults.
func EffectiveCodecSettings() CodecSettings {
	cfg := CodecSettings{
		Extended:      true,
		MaxDepth:      throwable.DefaultMaxDepth,
		WatchDebounce: defaultWatchDebounce,
	}

	s, err := LoadSettings()
	if err != nil {
		return cfg
	}

	if s.Extended != nil {
		cfg.Extended = *s.Extended
	}
	if s.MaxDepth > 0 {
		cfg.MaxDepth = s.MaxDepth
	}
	cfg.Color = s.Color
	if s.WatchDebounceMS > 0 {
		cfg.WatchDebounce = time.Duration(s.WatchDebounceMS) * time.Millisecond
	}

	cfg.MaxDepth = min(cfg.MaxDepth, maxParserDepth)
	cfg.WatchDebounce = min(max(cfg.WatchDebounce, minWatchDebounce), maxWatchDebounce)
	return cfg
}

// Process-wide config state: settings are read once per process, and the
// --db-path flag is stored separately because it is applied before any
// command opens the trace store.
//
//nolint:gochecknoglobals // lazily loaded config and CLI override
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	dbPathOverrideMu sync.RWMutex
	dbPathOverride   string
)

// SetDBPathOverride records the --db-path flag value. An empty path clears it.
func SetDBPathOverride(path string) {
	dbPathOverrideMu.Lock()
	defer dbPathOverrideMu.Unlock()
	dbPathOverride = path
}

func getDBPathOverride() string {
	dbPathOverrideMu.RLock()
	defer dbPathOverrideMu.RUnlock()
	return dbPathOverride
}

// settingsPaths lists config files from highest to lowest priority:
// the user config dir, /etc/tracekit, then the working directory.
func settingsPaths() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(string(os.PathSeparator), "etc", "tracekit", "config.yaml"),
		"config.yaml",
	}, nil
}

// LoadSettings returns the first config file found in settingsPaths order.
// The result, including any parse error, is cached for the process. No config
// file at all yields zero Settings.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings, settingsErr = findSettings()
	})
	return settings, settingsErr
}

func findSettings() (Settings, error) {
	paths, err := settingsPaths()
	if err != nil {
		return Settings{}, err
	}
	for _, p := range paths {
		s, err := loadSettingsFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Settings{}, fmt.Errorf("config %s: %w", p, err)
		}
		return s, nil
	}
	return Settings{}, nil
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: config lookup paths are fixed
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	err = yaml.Unmarshal(b, &s)
	return s, err
}
