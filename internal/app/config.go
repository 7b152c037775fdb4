package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/tracekit/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tracekit"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# tracekit configuration
# Run: tracekit --help

# Optional: override the SQLite database location.
# Can also be set via TRACEKIT_DB_PATH or --db-path.
# db_path: ~/.config/tracekit/tracekit.db

# Render frame provenance ([jar:version]) by default.
# extended: true

# Maximum cause/suppressed nesting accepted by the parser.
# max_depth: 512

# Colorize trace text written to a terminal.
# color: false

# Delay before a watched file is re-read after it changes.
# watch_debounce_ms: 300
`
