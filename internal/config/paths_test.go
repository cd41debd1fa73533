package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTaskerPath_Default(t *testing.T) {
	t.Setenv("TASKER_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	got := TaskerPath()
	want := filepath.Join(home, ".tasker")
	if got != want {
		t.Errorf("TaskerPath() = %q, want %q", got, want)
	}
}

func TestTaskerPath_EnvOverride(t *testing.T) {
	t.Setenv("TASKER_PATH", "/tmp/custom-tasker")

	got := TaskerPath()
	want := "/tmp/custom-tasker"
	if got != want {
		t.Errorf("TaskerPath() = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("TASKER_PATH", "/tmp/test-tasker")

	got := ConfigPath()
	want := "/tmp/test-tasker/config.jsonc"
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestDotenvPath(t *testing.T) {
	t.Setenv("TASKER_PATH", "/tmp/test-tasker")

	got := DotenvPath()
	want := "/tmp/test-tasker/.env"
	if got != want {
		t.Errorf("DotenvPath() = %q, want %q", got, want)
	}
}
