// Package config loads botly settings.
//
// Values are layered in this order, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a config file: YAML (.yaml, .yml) or JSON with comments (.json, .jsonc)
//  3. a dotenv file, which only fills variables not already set
//  4. BOTLY_* environment variables
//
// The package also defines [Entry], the entry document that tells
// "botly serve" how to obtain the agent executable.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is named explicitly.
const DefaultPath = "botly.yaml"

// EnvPrefix prefixes every environment variable the package reads.
const EnvPrefix = "BOTLY_"

// Default deployment and build names.
const (
	DefaultBinary     = "checkmate_engine"
	DefaultDeployPath = "/kaggle_simulations/agent/checkmate_engine"
	DefaultEntryName  = "main.yaml"
)

// Config is the complete botly configuration.
type Config struct {
	Agent     AgentConfig     `yaml:"agent" json:"agent" envPrefix:"AGENT_"`
	Build     BuildConfig     `yaml:"build" json:"build" envPrefix:"BUILD_"`
	Package   PackageConfig   `yaml:"package" json:"package" envPrefix:"PACKAGE_"`
	Log       LogConfig       `yaml:"log" json:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry" envPrefix:"TELEMETRY_"`
}

// AgentConfig controls how the agent process is launched.
type AgentConfig struct {
	// Entry is the entry document consulted when Executable is empty.
	Entry string `yaml:"entry" json:"entry" env:"ENTRY"`
	// Executable overrides the entry document when set.
	Executable   string   `yaml:"executable" json:"executable" env:"EXECUTABLE"`
	Args         []string `yaml:"args" json:"args" env:"ARGS"`
	Dir          string   `yaml:"dir" json:"dir" env:"DIR"`
	Sentinel     string   `yaml:"sentinel" json:"sentinel" env:"SENTINEL"`
	MaxLineBytes int      `yaml:"max_line_bytes" json:"max_line_bytes" env:"MAX_LINE_BYTES"`
	GracePeriod  Duration `yaml:"grace_period" json:"grace_period" env:"GRACE_PERIOD"`
}

// BuildConfig locates the agent sources and toolchain.
type BuildConfig struct {
	ProjectDir string `yaml:"project_dir" json:"project_dir" env:"PROJECT_DIR"`
	Binary     string `yaml:"binary" json:"binary" env:"BINARY"`
	Cargo      string `yaml:"cargo" json:"cargo" env:"CARGO"`
}

// PackageConfig controls submission bundle layout.
type PackageConfig struct {
	DistDir     string  `yaml:"dist_dir" json:"dist_dir" env:"DIST_DIR"`
	Archive     string  `yaml:"archive" json:"archive" env:"ARCHIVE"`
	Compression string  `yaml:"compression" json:"compression" env:"COMPRESSION"`
	EntryName   string  `yaml:"entry_name" json:"entry_name" env:"ENTRY_NAME"`
	DeployPath  string  `yaml:"deploy_path" json:"deploy_path" env:"DEPLOY_PATH"`
	Variant     Variant `yaml:"variant" json:"variant" env:"VARIANT"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" env:"LEVEL"`
	Format string `yaml:"format" json:"format" env:"FORMAT"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" json:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" json:"service_name" env:"SERVICE_NAME"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Entry:        DefaultEntryName,
			Sentinel:     "ready",
			MaxLineBytes: 1 << 20,
			GracePeriod:  Duration(5 * time.Second),
		},
		Build: BuildConfig{
			ProjectDir: ".",
			Binary:     DefaultBinary,
			Cargo:      "cargo",
		},
		Package: PackageConfig{
			DistDir:     "kaggle_submissions",
			Archive:     "submission.tar",
			Compression: "gzip",
			EntryName:   DefaultEntryName,
			DeployPath:  DefaultDeployPath,
			Variant:     VariantProduction,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "botly",
		},
	}
}

// Load builds a Config from defaults, the file at path, the dotenv file at
// envFile and the process environment. An empty path skips the config file;
// an empty or missing envFile skips dotenv loading.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := loadDotenv(envFile); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), cfg)
	default:
		return fmt.Errorf("config: %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Agent.Executable == "" && c.Agent.Entry == "":
		return errors.New("config: agent.entry or agent.executable is required")
	case c.Agent.Sentinel == "":
		return errors.New("config: agent.sentinel must not be empty")
	case c.Agent.MaxLineBytes <= 0:
		return fmt.Errorf("config: agent.max_line_bytes must be positive, got %d", c.Agent.MaxLineBytes)
	case c.Agent.GracePeriod <= 0:
		return fmt.Errorf("config: agent.grace_period must be positive, got %s", c.Agent.GracePeriod)
	case c.Build.Binary == "":
		return errors.New("config: build.binary must not be empty")
	case c.Package.DistDir == "" || c.Package.Archive == "" || c.Package.EntryName == "":
		return errors.New("config: package.dist_dir, package.archive and package.entry_name are required")
	}
	if !c.Package.Variant.Valid() {
		return fmt.Errorf("config: package.variant: unknown variant %q", c.Package.Variant)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		return fmt.Errorf("config: log.format must be text or json, got %q", f)
	}
	return nil
}

// ParseLevel converts a log level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
