package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jo-hoe/arconverter/internal/backend/database"
)

func TestLoadConfig_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `port: 9090
logLevel: debug
thumbnailWidth: 128
database:
  type: redis
  connectionString: "redis://localhost:6379/0"
  sessionTTL: 2h
upload:
  maxBytes: 2048
processing:
  commands:
    - name: AdjustCommand
      contrast: 1.5
      brightness: 5
scanner:
  brightnessThreshold: 90
  contrastThreshold: 20
viewer:
  mappingPath: ./mapping.json
  targetPath: ./targets.mind
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.LogLevel != "debug" {
		t.Errorf("Expected logLevel debug, got %s", config.LogLevel)
	}
	if config.ThumbnailWidth != 128 {
		t.Errorf("Expected thumbnailWidth 128, got %d", config.ThumbnailWidth)
	}
	if config.Database.Type != database.TypeRedis || config.Database.ConnectionString != "redis://localhost:6379/0" {
		t.Errorf("Unexpected database config: %+v", config.Database)
	}
	if config.Database.SessionTTL != 2*time.Hour {
		t.Errorf("Expected sessionTTL 2h, got %s", config.Database.SessionTTL)
	}
	if config.Upload.MaxBytes != 2048 {
		t.Errorf("Expected maxBytes 2048, got %d", config.Upload.MaxBytes)
	}
	if len(config.Processing.Commands) != 1 {
		t.Fatalf("Expected 1 command, got %d", len(config.Processing.Commands))
	}
	cmd := config.Processing.Commands[0]
	if cmd.Name != "AdjustCommand" {
		t.Errorf("Expected AdjustCommand, got %s", cmd.Name)
	}
	if cmd.Params["contrast"] != 1.5 {
		t.Errorf("Expected contrast param 1.5, got %v", cmd.Params["contrast"])
	}
	if _, ok := cmd.Params["name"]; ok {
		t.Error("Expected name not to leak into the inline params")
	}
	if config.Scanner.BrightnessThreshold != 90 || config.Scanner.ContrastThreshold != 20 {
		t.Errorf("Unexpected scanner thresholds: %+v", config.Scanner)
	}
	if config.Viewer.MappingPath != "./mapping.json" || config.Viewer.TargetPath != "./targets.mind" {
		t.Errorf("Unexpected viewer paths: %+v", config.Viewer)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	config, err := ParseConfig([]byte(""))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if config.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, config.Port)
	}
	if config.Database.Type != database.TypeSQLite || config.Database.ConnectionString != ":memory:" {
		t.Errorf("Expected in-memory sqlite by default, got %+v", config.Database)
	}
	if config.Database.SessionTTL != DefaultSessionTTL {
		t.Errorf("Expected default TTL, got %s", config.Database.SessionTTL)
	}
	if config.Upload.MaxBytes != 10*1024*1024 {
		t.Errorf("Expected 10 MiB upload limit, got %d", config.Upload.MaxBytes)
	}
	if config.Upload.MaxPixels != DefaultMaxUploadPixels {
		t.Errorf("Expected %d pixel limit, got %d", DefaultMaxUploadPixels, config.Upload.MaxPixels)
	}
	if len(config.Processing.Commands) != 1 || config.Processing.Commands[0].Name != "AdjustCommand" {
		t.Errorf("Expected AdjustCommand as the default adjustment, got %+v", config.Processing.Commands)
	}
	if config.Scanner.BrightnessThreshold != 100 || config.Scanner.ContrastThreshold != 30 {
		t.Errorf("Unexpected default thresholds: %+v", config.Scanner)
	}

	defaults := DefaultConfig()
	if defaults.Port != config.Port || defaults.Viewer != config.Viewer {
		t.Errorf("Expected DefaultConfig to match an empty file, got %+v", defaults)
	}
}

func TestParseConfig_EmptyCommandListIsKept(t *testing.T) {
	config, err := ParseConfig([]byte("processing:\n  commands: []\n"))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if len(config.Processing.Commands) != 0 {
		t.Errorf("Expected an explicit empty command list to disable adjustments, got %+v", config.Processing.Commands)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"malformed yaml", "port: [", "failed to parse config"},
		{"port out of range", "port: 70000", "port must be between"},
		{"unknown log level", "logLevel: loud", "unknown log level"},
		{"unknown database", "database:\n  type: postgres", "unsupported database type"},
		{"redis without connection", "database:\n  type: redis", "connectionString"},
		{"negative upload limit", "upload:\n  maxBytes: -1", "maxBytes"},
		{"negative pixel limit", "upload:\n  maxPixels: -1", "maxPixels"},
		{"negative threshold", "scanner:\n  contrastThreshold: -5", "thresholds"},
		{"command without name", "processing:\n  commands:\n    - contrast: 1", "empty name"},
		{"unregistered command", "processing:\n  commands:\n    - name: DitherCommand", "unknown command"},
		{"duplicate command", "processing:\n  commands:\n    - name: AdjustCommand\n    - name: AdjustCommand", "duplicate command name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.input)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
