package config

import (
	"os"
	"path/filepath"
)

// TaskerPath returns the root directory for tasker settings.
// It uses $TASKER_PATH if set, otherwise defaults to ~/.tasker.
func TaskerPath() string {
	if v := os.Getenv("TASKER_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tasker")
	}
	return filepath.Join(home, ".tasker")
}

// ConfigPath returns the path to the tasker config file.
func ConfigPath() string {
	return filepath.Join(TaskerPath(), "config.jsonc")
}

// DotenvPath returns the path to the tasker .env file.
func DotenvPath() string {
	return filepath.Join(TaskerPath(), ".env")
}
