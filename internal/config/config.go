// Package config loads pkrec settings from the global config file and an
// optional per-project file, project values taking precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/report"
	"github.com/trackinspect/pkrec/internal/sensor"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds all configurable pkrec settings.
type Config struct {
	HistoryBackend    string                 `json:"history_backend"` // "json" | "sqlite"
	DataDir           string                 `json:"data_dir"`        // overrides the XDG data directory
	ExportDir         string                 `json:"export_dir"`
	DefaultFormat     string                 `json:"default_format"` // csv | json | markdown | png | html
	Thresholds        *kinematics.Thresholds `json:"thresholds,omitempty"`
	AnalysisEndpoint  string                 `json:"analysis_endpoint"`
	AnalysisAPIKeyEnv string                 `json:"analysis_api_key_env"` // name of the env var holding the key
	Serial            sensor.PortOptions     `json:"serial"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	t := kinematics.DefaultThresholds()
	return Config{
		HistoryBackend:    BackendJSON,
		ExportDir:         ".",
		DefaultFormat:     string(report.FormatMarkdown),
		Thresholds:        &t,
		AnalysisAPIKeyEnv: "PKREC_ANALYSIS_KEY",
	}
}

// Dir returns the pkrec config directory, ~/.config/pkrec.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pkrec"), nil
}

// LoadGlobal reads ~/.config/pkrec/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .pkrecconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".pkrecconfig", false)
}

func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c == nil {
			continue
		}
		if c.HistoryBackend != "" {
			result.HistoryBackend = c.HistoryBackend
		}
		if c.DataDir != "" {
			result.DataDir = c.DataDir
		}
		if c.ExportDir != "" {
			result.ExportDir = c.ExportDir
		}
		if c.DefaultFormat != "" {
			result.DefaultFormat = c.DefaultFormat
		}
		if c.Thresholds != nil {
			t := *c.Thresholds
			result.Thresholds = &t
		}
		if c.AnalysisEndpoint != "" {
			result.AnalysisEndpoint = c.AnalysisEndpoint
		}
		if c.AnalysisAPIKeyEnv != "" {
			result.AnalysisAPIKeyEnv = c.AnalysisAPIKeyEnv
		}
		if c.Serial.BaudRate != 0 {
			result.Serial.BaudRate = c.Serial.BaudRate
		}
		if c.Serial.DataBits != 0 {
			result.Serial.DataBits = c.Serial.DataBits
		}
		if c.Serial.StopBits != 0 {
			result.Serial.StopBits = c.Serial.StopBits
		}
		if c.Serial.Parity != "" {
			result.Serial.Parity = c.Serial.Parity
		}
	}
	return result
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.HistoryBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("invalid history_backend %q: must be json or sqlite", c.HistoryBackend)
	}
	if _, err := report.ParseFormat(c.DefaultFormat); err != nil {
		return fmt.Errorf("default_format: %w", err)
	}
	if err := c.Limits().Validate(); err != nil {
		return err
	}
	if _, err := c.Serial.Normalize(); err != nil {
		return fmt.Errorf("serial: %w", err)
	}
	return nil
}

// Limits returns the configured thresholds, or the defaults when unset.
func (c Config) Limits() kinematics.Thresholds {
	if c.Thresholds == nil {
		return kinematics.DefaultThresholds()
	}
	return *c.Thresholds
}

// APIKey reads the analysis key from the environment variable named in the
// config. Keys are never stored in config files.
func (c Config) APIKey() string {
	if c.AnalysisAPIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.AnalysisAPIKeyEnv)
}

// ResolveDataDir returns where history and the event log live:
// data_dir when set, else $XDG_DATA_HOME/pkrec, else ~/.local/share/pkrec.
func (c Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "pkrec"), nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
