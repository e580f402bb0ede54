package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/runner"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Database defaults
	if cfg.Database.Driver != db.DriverPostgres {
		t.Errorf("expected driver %s, got %s", db.DriverPostgres, cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		t.Error("expected a default DSN")
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Errorf("expected max_open_conns 10, got %d", cfg.Database.MaxOpenConns)
	}

	// Workload defaults
	if cfg.Workload.Mode != runner.ModeInsert {
		t.Errorf("expected mode insert, got %s", cfg.Workload.Mode)
	}
	if cfg.Workload.TotalRecords != 1000000 {
		t.Errorf("expected total_records 1000000, got %d", cfg.Workload.TotalRecords)
	}
	if cfg.Workload.InsertBatchSize != 10000 {
		t.Errorf("expected insert_batch_size 10000, got %d", cfg.Workload.InsertBatchSize)
	}
	if cfg.Workload.UpdateBatchSize != 5000 {
		t.Errorf("expected update_batch_size 5000, got %d", cfg.Workload.UpdateBatchSize)
	}
	if !cfg.Workload.ResetTable {
		t.Error("expected reset_table enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[database]
driver = "sqlite3"
dsn = "bench.db"
max_open_conns = 1

[workload]
mode = "update"
update_strategy = "staging-join"
total_records = 50000
update_batch_size = 2500

[logging]
level = "debug"
format = "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Check overridden values
	if cfg.Database.Driver != db.DriverSQLite {
		t.Errorf("expected driver sqlite3, got %s", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 1 {
		t.Errorf("expected max_open_conns 1, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Workload.Mode != runner.ModeUpdate {
		t.Errorf("expected mode update, got %s", cfg.Workload.Mode)
	}
	if cfg.Workload.UpdateStrategy != "staging-join" {
		t.Errorf("expected update_strategy staging-join, got %s", cfg.Workload.UpdateStrategy)
	}
	if cfg.Workload.TotalRecords != 50000 {
		t.Errorf("expected total_records 50000, got %d", cfg.Workload.TotalRecords)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format json, got %s", cfg.Logging.Format)
	}

	// Check default values still present
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("expected max_idle_conns default 5, got %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Workload.InsertBatchSize != 10000 {
		t.Errorf("expected insert_batch_size default 10000, got %d", cfg.Workload.InsertBatchSize)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.toml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error for empty config path, got %v", err)
	}

	// Should return defaults
	if cfg.Database.Driver != db.DriverPostgres {
		t.Errorf("expected default driver, got %s", cfg.Database.Driver)
	}
}

func TestValidate_Success(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_InvalidDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "invalid"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid driver")
	}
}

func TestValidate_EmptyDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty DSN")
	}
}

func TestValidate_InvalidWorkload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workload.Mode = "bench"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid workload mode")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "invalid"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "yaml"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid log format")
	}
}
