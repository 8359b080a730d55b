package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/config"
)

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	stdout, _, err := executeCommand(t, NewConfigCmd(), "--config", path, "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(stdout, path) {
		t.Errorf("Expected path in output, got %q", stdout)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Defaults.Horizon != config.NewConfig().Defaults.Horizon {
		t.Errorf("Expected default horizon, got %d", cfg.Defaults.Horizon)
	}

	stdout, _, err = executeCommand(t, NewConfigCmd(), "--config", path, "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(stdout, "# source: "+path) {
		t.Errorf("Expected source line, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "horizon: 30000") {
		t.Errorf("Expected YAML body, got:\n%s", stdout)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir)

	_, _, err := executeCommand(t, NewConfigCmd(), "--config", path, "init")
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("Expected overwrite refusal, got %v", err)
	}

	if _, _, err := executeCommand(t, NewConfigCmd(), "--config", path, "init", "--force"); err != nil {
		t.Fatalf("config init --force failed: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("Expected backup of previous config: %v", err)
	}
}

func TestConfigShowDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	stdout, _, err := executeCommand(t, NewConfigCmd(), "--config", path, "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(stdout, "# source: built-in defaults") {
		t.Errorf("Expected defaults source, got:\n%s", stdout)
	}
}
