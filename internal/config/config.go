// Package config loads the optional pgplan.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vvka-141/pgplan/pkg/pgplan"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = pgplan.ErrConfigNotFound

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`

	// Definitions is a manifest file or a directory of annotated SQL files,
	// relative to the directory holding pgplan.yaml.
	Definitions string `yaml:"definitions"`

	// Timeout bounds a whole command, e.g. "5m".
	Timeout string `yaml:"timeout"`

	// Journal is the SQLite file execution reports are appended to.
	Journal string `yaml:"journal,omitempty"`

	// Output is the report format: text, json or yaml.
	Output string `yaml:"output,omitempty"`

	dir string
}

const ConfigFileName = pgplan.ConfigFileName

// Load reads pgplan.yaml from dir. Unknown keys are rejected.
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %v: %w", configPath, err, pgplan.ErrInvalidConfig)
	}
	cfg.dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return &cfg, nil
}

// Validate checks values that yaml decoding cannot.
func (c *ProjectConfig) Validate() error {
	var errs []error

	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := pgplan.ParseAuthMethod(c.Connection.AuthMethod); err != nil {
		errs = append(errs, fmt.Errorf("connection.auth_method: %w", err))
	}
	switch c.Output {
	case "", "text", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("output %q must be text, json or yaml: %w", c.Output, pgplan.ErrInvalidConfig))
	}
	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		errs = append(errs, fmt.Errorf("connection.port %d out of range: %w", c.Connection.Port, pgplan.ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout. An empty value yields 0.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("timeout %q is not a valid duration: %w", c.Timeout, pgplan.ErrInvalidConfig)
	}
	return d, nil
}

// DefinitionsPath resolves Definitions against the config directory.
// Returns "" when no definitions are configured.
func (c *ProjectConfig) DefinitionsPath() string {
	if c.Definitions == "" {
		return ""
	}
	if filepath.IsAbs(c.Definitions) {
		return c.Definitions
	}
	return filepath.Join(c.dir, c.Definitions)
}

// JournalPath resolves Journal against the config directory.
func (c *ProjectConfig) JournalPath() string {
	if c.Journal == "" || filepath.IsAbs(c.Journal) {
		return c.Journal
	}
	return filepath.Join(c.dir, c.Journal)
}
