package core

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
	"github.com/jo-hoe/arconverter/internal/backend/database"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                = 8080
	DefaultMaxUploadBytes      = 10 * 1024 * 1024
	DefaultMaxUploadPixels     = 40_000_000
	DefaultThumbnailWidth      = 256
	DefaultSessionTTL          = 24 * time.Hour
	DefaultBrightnessThreshold = 100.0
	DefaultContrastThreshold   = 30.0
	DefaultMappingPath         = "./assets/photo-video-mapping.json"
	DefaultTargetPath          = "./assets/targets.mind"
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string        `yaml:"type"`
	ConnectionString string        `yaml:"connectionString"`
	SessionTTL       time.Duration `yaml:"sessionTTL"`
}

type Upload struct {
	MaxBytes  int64 `yaml:"maxBytes"`
	MaxPixels int64 `yaml:"maxPixels"`
}

// Processing holds the commands run between scaling and encoding
type Processing struct {
	Commands []CommandConfig `yaml:"commands"`
}

type Scanner struct {
	BrightnessThreshold float64 `yaml:"brightnessThreshold"`
	ContrastThreshold   float64 `yaml:"contrastThreshold"`
}

type Viewer struct {
	MappingPath string `yaml:"mappingPath"`
	TargetPath  string `yaml:"targetPath"`
}

type ServiceConfig struct {
	Port           int        `yaml:"port"`
	LogLevel       string     `yaml:"logLevel"`
	ThumbnailWidth int        `yaml:"thumbnailWidth"`
	Database       Database   `yaml:"database"`
	Upload         Upload     `yaml:"upload"`
	Processing     Processing `yaml:"processing"`
	Scanner        Scanner    `yaml:"scanner"`
	Viewer         Viewer     `yaml:"viewer"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML, fills defaults and validates the result
func ParseConfig(data []byte) (*ServiceConfig, error) {
	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// DefaultConfig is what an empty config file yields
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = DefaultThumbnailWidth
	}
	if c.Database.Type == "" {
		c.Database.Type = database.TypeSQLite
	}
	if c.Database.Type == database.TypeSQLite && c.Database.ConnectionString == "" {
		c.Database.ConnectionString = ":memory:"
	}
	if c.Database.SessionTTL == 0 {
		c.Database.SessionTTL = DefaultSessionTTL
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = DefaultMaxUploadBytes
	}
	if c.Upload.MaxPixels == 0 {
		c.Upload.MaxPixels = DefaultMaxUploadPixels
	}
	if c.Processing.Commands == nil {
		c.Processing.Commands = []CommandConfig{{Name: "AdjustCommand", Params: map[string]any{}}}
	}
	if c.Scanner.BrightnessThreshold == 0 {
		c.Scanner.BrightnessThreshold = DefaultBrightnessThreshold
	}
	if c.Scanner.ContrastThreshold == 0 {
		c.Scanner.ContrastThreshold = DefaultContrastThreshold
	}
	if c.Viewer.MappingPath == "" {
		c.Viewer.MappingPath = DefaultMappingPath
	}
	if c.Viewer.TargetPath == "" {
		c.Viewer.TargetPath = DefaultTargetPath
	}
}

func (c *ServiceConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ThumbnailWidth < 0 {
		return fmt.Errorf("thumbnailWidth must be positive, got %d", c.ThumbnailWidth)
	}
	switch c.Database.Type {
	case database.TypeSQLite:
	case database.TypeRedis:
		if c.Database.ConnectionString == "" {
			return fmt.Errorf("redis database needs a connectionString")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.SessionTTL < 0 {
		return fmt.Errorf("sessionTTL must not be negative, got %s", c.Database.SessionTTL)
	}
	if c.Upload.MaxBytes < 0 {
		return fmt.Errorf("upload maxBytes must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Upload.MaxPixels < 0 {
		return fmt.Errorf("upload maxPixels must be positive, got %d", c.Upload.MaxPixels)
	}
	if c.Scanner.BrightnessThreshold < 0 || c.Scanner.ContrastThreshold < 0 {
		return fmt.Errorf("scanner thresholds must not be negative")
	}
	if err := validateCommands(c.Processing.Commands); err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}
	return nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
		if !commandstructure.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("unknown command: %s", cmd.Name)
		}
	}

	return nil
}

func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
