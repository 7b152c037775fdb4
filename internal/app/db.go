package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dbFileName = "tracekit.db"
	dbPathEnv  = "TRACEKIT_DB_PATH"
)

// GetDBPath resolves the trace store path and creates its parent directory.
// See ResolveDBPathDetailed for the precedence order.
func GetDBPath() (string, error) {
	path, _, err := ResolveDBPathDetailed()
	return path, err
}

// ResolveDBPathDetailed returns the trace store path and a label naming where
// it came from, for `tracekit status`. Precedence:
//
//  1. --db-path
//  2. $TRACEKIT_DB_PATH
//  3. db_path in the first config file that sets it
//  4. ~/.config/tracekit/tracekit.db
func ResolveDBPathDetailed() (path string, source string, err error) {
	path, source, err = lookupDBPath()
	if err != nil {
		return "", "", err
	}
	path, err = EnsureDBDir(path)
	return path, source, err
}

func lookupDBPath() (path, source string, err error) {
	if p := getDBPathOverride(); p != "" {
		return p, "cli(--db-path)", nil
	}
	if p := os.Getenv(dbPathEnv); p != "" {
		return p, "env(" + dbPathEnv + ")", nil
	}

	configPaths, err := settingsPaths()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	for _, cfg := range configPaths {
		s, loadErr := loadSettingsFile(cfg)
		switch {
		case errors.Is(loadErr, os.ErrNotExist):
			continue
		case loadErr != nil:
			return "", "", fmt.Errorf("failed to load config %s: %w", cfg, loadErr)
		case s.DBPath != "":
			return expandHome(s.DBPath), "config(" + cfg + ")", nil
		}
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, dbFileName), "default(~/.config/tracekit/" + dbFileName + ")", nil
}

// EnsureDBDir creates the parent directory of dbPath. In-memory databases are
// returned untouched.
func EnsureDBDir(dbPath string) (string, error) {
	if dbPath == ":memory:" {
		return dbPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return dbPath, nil
}

func expandHome(path string) string {
	rest, ok := cutHomePrefix(path)
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func cutHomePrefix(path string) (string, bool) {
	if len(path) < 2 || path[0] != '~' || path[1] != '/' {
		return "", false
	}
	return path[2:], true
}
