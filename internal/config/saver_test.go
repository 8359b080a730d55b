package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "config.yaml")

	// Test successful atomic write
	data := []byte("defaults:\n  horizon: 10\n")
	if err := atomicWrite(testPath, data); err != nil {
		t.Fatalf("atomicWrite failed: %v", err)
	}

	// Verify temp file was cleaned up
	if _, err := os.Stat(testPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up")
	}

	readData, err := os.ReadFile(testPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(readData) != string(data) {
		t.Errorf("content mismatch: got %q, want %q", string(readData), string(data))
	}
}

func TestAtomicWriteCreatesDir(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "subdir", "config.yaml")

	if err := atomicWrite(testPath, []byte("storage: {}\n")); err != nil {
		t.Fatalf("atomicWrite failed: %v", err)
	}

	if _, err := os.Stat(testPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
}

func TestBackupConfig(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "config.yaml")

	originalData := []byte("defaults:\n  seed: 1\n")
	if err := os.WriteFile(testPath, originalData, 0644); err != nil {
		t.Fatalf("failed to create original config: %v", err)
	}

	if err := backupConfig(testPath); err != nil {
		t.Fatalf("backupConfig failed: %v", err)
	}

	bakData, err := os.ReadFile(testPath + ".bak")
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(bakData) != string(originalData) {
		t.Errorf("backup content mismatch: got %q, want %q", string(bakData), string(originalData))
	}
}

func TestBackupConfigFirstRun(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "config.yaml")

	// No original config - should not error
	if err := backupConfig(testPath); err != nil {
		t.Fatalf("backupConfig failed on first run: %v", err)
	}

	if _, err := os.Stat(testPath + ".bak"); !os.IsNotExist(err) {
		t.Error("backup should not exist on first run")
	}
}

func TestSaveCreatesBackup(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewConfig()
	cfg.Defaults.Seed = 1111

	if err := Save(cfg, testPath); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	cfg.Defaults.Seed = 2222
	if err := Save(cfg, testPath); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	bakData, err := os.ReadFile(testPath + ".bak")
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if !strings.Contains(string(bakData), "1111") || strings.Contains(string(bakData), "2222") {
		t.Error("backup should contain old config, not new config")
	}
}

func TestSaveValidatesBeforeWrite(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewConfig()
	cfg.Defaults.Probs = []float64{0.5, 1.5}

	err := Save(cfg, testPath)
	if err == nil {
		t.Fatal("Save should fail validation for probability above 1")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error should mention invalid config, got: %v", err)
	}

	if _, err := os.Stat(testPath); !os.IsNotExist(err) {
		t.Error("config file should not exist after failed validation")
	}
}

func TestSaveReadOnlyFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	testPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(testPath, []byte("{}\n"), 0444); err != nil {
		t.Fatalf("failed to create read-only config: %v", err)
	}

	err := Save(NewConfig(), testPath)
	if _, ok := err.(*PermissionError); !ok {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "chmod u+w") {
		t.Errorf("error should suggest chmod fix, got: %v", err)
	}
}
