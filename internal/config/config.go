package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Port           string `yaml:"port"`
	DataDir        string `yaml:"dataDir"`
	AllowedOrigins string `yaml:"allowedOrigins"`

	// Entry lifecycle
	RetentionDays  int           `yaml:"retentionDays"`  // recently_deleted -> hidden after this many days
	UndoWindow     time.Duration `yaml:"undoWindow"`     // how long a soft-delete undo token stays valid
	SweepCron      string        `yaml:"sweepCron"`      // cron expression for the expiry sweep
	AuditSweepCron string        `yaml:"auditSweepCron"` // cron expression for audit retention cleanup

	// Audit log
	AuditMaxRecords    int `yaml:"auditMaxRecords"`
	AuditRetentionDays int `yaml:"auditRetentionDays"`

	// AI analysis (off by default - the app is fully offline unless opted in)
	AIEnabled  bool   `yaml:"aiEnabled"`
	GroqAPIKey string `yaml:"-"`
	GroqAPIURL string `yaml:"groqApiUrl"`
}

// Load loads configuration from environment variables with defaults,
// then applies overrides from an optional config.yaml in the data dir
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "3001"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),

		RetentionDays:  getIntEnv("RETENTION_DAYS", 30),
		UndoWindow:     time.Duration(getIntEnv("UNDO_WINDOW_SECONDS", 7)) * time.Second,
		SweepCron:      getEnv("SWEEP_CRON", "0 * * * *"),
		AuditSweepCron: getEnv("AUDIT_SWEEP_CRON", "0 2 * * *"),

		AuditMaxRecords:    getIntEnv("AUDIT_MAX_RECORDS", 1000),
		AuditRetentionDays: getIntEnv("AUDIT_RETENTION_DAYS", 7),

		AIEnabled:  getBoolEnv("AI_ENABLED", false),
		GroqAPIKey: getEnv("GROQ_API_KEY", ""),
		GroqAPIURL: getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
	}

	cfg.applyFileOverrides()
	return cfg
}

// Validate checks values that would otherwise fail at an awkward time,
// like a sweep cron expression that the scheduler would reject on registration
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.SweepCron); err != nil {
		return fmt.Errorf("invalid SWEEP_CRON %q: %w", c.SweepCron, err)
	}
	if _, err := cron.ParseStandard(c.AuditSweepCron); err != nil {
		return fmt.Errorf("invalid AUDIT_SWEEP_CRON %q: %w", c.AuditSweepCron, err)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	if c.AuditMaxRecords <= 0 {
		return fmt.Errorf("AUDIT_MAX_RECORDS must be positive, got %d", c.AuditMaxRecords)
	}
	if c.AIEnabled && c.GroqAPIKey == "" {
		return fmt.Errorf("AI_ENABLED is set but GROQ_API_KEY is empty")
	}
	return nil
}

// Retention returns the lifecycle retention window as a duration
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// AuditRetention returns the audit log retention window as a duration
func (c *Config) AuditRetention() time.Duration {
	return time.Duration(c.AuditRetentionDays) * 24 * time.Hour
}

// applyFileOverrides merges settings from <dataDir>/config.yaml if present.
// File values win over environment values so a user can carry their
// configuration with their data directory.
func (c *Config) applyFileOverrides() {
	path := c.DataDir + "/config.yaml"
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		fmt.Fprintf(os.Stderr, "ignoring malformed %s: %v\n", path, err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
