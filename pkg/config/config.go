// Package config loads and validates orchestrator configuration from YAML
// files, with environment variable overrides and optional hot reload.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

// validRegions lists the deployment regions an orchestrator may be pinned to.
var validRegions = map[string]bool{
	"us-east-1":      true,
	"us-east-2":      true,
	"us-west-1":      true,
	"us-west-2":      true,
	"eu-west-1":      true,
	"eu-central-1":   true,
	"ap-southeast-1": true,
	"ap-northeast-1": true,
}

// Config is the on-disk orchestrator configuration.
type Config struct {
	Name               string          `yaml:"name" json:"name"`
	Region             string          `yaml:"region" json:"region"`
	Agents             []AgentConfig   `yaml:"agents" json:"agents"`
	Guardrails         GuardrailConfig `yaml:"guardrails" json:"guardrails"`
	MaxConcurrentTasks int             `yaml:"max_concurrent_tasks" json:"max_concurrent_tasks"`
	DefaultTimeout     int             `yaml:"default_timeout" json:"default_timeout"`
	EnableCaching      bool            `yaml:"enable_caching" json:"enable_caching"`
	LogLevel           string          `yaml:"log_level" json:"log_level"`
	Telemetry          TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// AgentConfig describes one agent entry in the configuration file. Timeouts
// are whole seconds, matching the operator-facing format. Pointer fields
// distinguish "unset" from an explicit false/zero.
type AgentConfig struct {
	Name          string            `yaml:"name" json:"name"`
	Type          string            `yaml:"type" json:"type"`
	Description   string            `yaml:"description" json:"description"`
	Endpoint      string            `yaml:"endpoint" json:"endpoint"`
	Timeout       int               `yaml:"timeout" json:"timeout"`
	RetryAttempts *int              `yaml:"retry_attempts" json:"retry_attempts"`
	Enabled       *bool             `yaml:"enabled" json:"enabled"`
	Metadata      map[string]string `yaml:"metadata" json:"metadata"`
}

// GuardrailConfig mirrors domain.GuardrailConfig in the file format.
type GuardrailConfig struct {
	Enabled          *bool    `yaml:"enabled" json:"enabled"`
	PIIDetection     *bool    `yaml:"pii_detection" json:"pii_detection"`
	EncryptionAtRest *bool    `yaml:"encryption_at_rest" json:"encryption_at_rest"`
	AuditLogging     *bool    `yaml:"audit_logging" json:"audit_logging"`
	IAMPolicies      []string `yaml:"iam_policies" json:"iam_policies"`
}

// TelemetryConfig holds configuration for OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure" json:"insecure"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Name:               "default-orchestrator",
		Region:             "us-east-1",
		MaxConcurrentTasks: 10,
		DefaultTimeout:     30,
		EnableCaching:      true,
		LogLevel:           "info",
	}
}

// Load reads configuration from a YAML (or JSON) file and applies environment
// variable overrides. An empty path loads the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := parse(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("TASKMESH_NAME"); val != "" {
		cfg.Name = val
	}
	if val := os.Getenv("TASKMESH_REGION"); val != "" {
		cfg.Region = val
	}
	if val := os.Getenv("TASKMESH_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("TASKMESH_MAX_CONCURRENT_TASKS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.MaxConcurrentTasks = n
		}
	}
	if val := os.Getenv("TASKMESH_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("TASKMESH_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}
}

// Validate checks scalar bounds and normalises defaults. Agent entries are
// validated separately by Descriptors, which applies the domain rules.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = "default-orchestrator"
	}

	if !validRegions[c.Region] {
		return fmt.Errorf("invalid region %q", c.Region)
	}

	if c.MaxConcurrentTasks < 1 || c.MaxConcurrentTasks > 100 {
		return fmt.Errorf("max_concurrent_tasks must be between 1 and 100, got %d", c.MaxConcurrentTasks)
	}

	if c.DefaultTimeout < 1 || c.DefaultTimeout > 900 {
		return fmt.Errorf("default_timeout must be between 1 and 900 seconds, got %d", c.DefaultTimeout)
	}

	level := strings.TrimSpace(strings.ToLower(c.LogLevel))
	switch level {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
		c.LogLevel = level
	default:
		return fmt.Errorf("invalid log level %q, supported levels: debug, info, warn, error", c.LogLevel)
	}

	return nil
}

// Descriptors converts the configured agent entries into validated domain
// descriptors, preserving file order.
func (c *Config) Descriptors() ([]domain.AgentDescriptor, error) {
	descs := make([]domain.AgentDescriptor, 0, len(c.Agents))
	for i, a := range c.Agents {
		agentType, err := domain.ParseAgentType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("agent %d (%s): %w", i, a.Name, err)
		}

		opts := []domain.AgentOption{domain.WithDescription(a.Description)}
		if a.Timeout > 0 {
			opts = append(opts, domain.WithTimeout(time.Duration(a.Timeout)*time.Second))
		}
		if a.RetryAttempts != nil {
			opts = append(opts, domain.WithRetryAttempts(*a.RetryAttempts))
		}
		if a.Enabled != nil {
			opts = append(opts, domain.WithEnabled(*a.Enabled))
		}
		if a.Metadata != nil {
			opts = append(opts, domain.WithMetadata(a.Metadata))
		}

		desc, err := domain.NewAgentDescriptor(a.Name, agentType, a.Endpoint, opts...)
		if err != nil {
			return nil, fmt.Errorf("agent %d (%s): %w", i, a.Name, err)
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// GuardrailConfig converts the file-level guardrail section to the domain
// form. Unset flags fall back to the enforced defaults.
func (c *Config) GuardrailConfig() domain.GuardrailConfig {
	out := domain.DefaultGuardrailConfig()
	g := c.Guardrails
	if g.Enabled != nil {
		out.Enabled = *g.Enabled
	}
	if g.PIIDetection != nil {
		out.PIIDetection = *g.PIIDetection
	}
	if g.EncryptionAtRest != nil {
		out.EncryptionAtRest = *g.EncryptionAtRest
	}
	if g.AuditLogging != nil {
		out.AuditLogging = *g.AuditLogging
	}
	out.PolicyRefs = append([]string(nil), g.IAMPolicies...)
	return out
}

// DefaultTimeoutDuration returns the default timeout as a duration.
func (c *Config) DefaultTimeoutDuration() time.Duration {
	return time.Duration(c.DefaultTimeout) * time.Second
}
