// Package config resolves portal settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
)

// DefaultMCPSessions bounds the MCP session registry.
const DefaultMCPSessions = 256

type Config struct {
	LogLevel    string
	LogFormat   string
	Trace       string // JSONL audit path; empty disables tracing
	MCPSessions int
	Enrich      EnrichConfig
}

type EnrichConfig struct {
	Delay time.Duration
	Min   int
	Max   int
}

// Analyzer builds the simulated analyzer these settings describe.
func (c EnrichConfig) Analyzer() *enrich.Simulated {
	return &enrich.Simulated{Delay: c.Delay, Min: c.Min, Max: c.Max}
}

// Load reads envFile (or ./.env when empty) into the process environment
// without overriding variables already set, then resolves the config. A
// missing default .env is not an error; a missing explicit file is.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv resolves the config through getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &Config{
		LogLevel:    firstNonEmpty(get("PORTAL_LOG_LEVEL"), "info"),
		LogFormat:   firstNonEmpty(get("PORTAL_LOG_FORMAT"), "text"),
		Trace:       get("PORTAL_TRACE"),
		MCPSessions: DefaultMCPSessions,
		Enrich: EnrichConfig{
			Delay: enrich.DefaultDelay,
			Min:   enrich.DefaultMin,
			Max:   enrich.DefaultMax,
		},
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("PORTAL_LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}

	if raw := get("PORTAL_ENRICH_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("PORTAL_ENRICH_DELAY: invalid duration %q", raw)
		}
		cfg.Enrich.Delay = d
	}
	if err := parseInt(get("PORTAL_ENRICH_MIN"), "PORTAL_ENRICH_MIN", &cfg.Enrich.Min); err != nil {
		return nil, err
	}
	if err := parseInt(get("PORTAL_ENRICH_MAX"), "PORTAL_ENRICH_MAX", &cfg.Enrich.Max); err != nil {
		return nil, err
	}
	if cfg.Enrich.Min > cfg.Enrich.Max {
		return nil, fmt.Errorf("enrichment score range [%d,%d] is inverted", cfg.Enrich.Min, cfg.Enrich.Max)
	}
	if err := parseInt(get("PORTAL_MCP_SESSIONS"), "PORTAL_MCP_SESSIONS", &cfg.MCPSessions); err != nil {
		return nil, err
	}
	if cfg.MCPSessions < 1 {
		return nil, fmt.Errorf("PORTAL_MCP_SESSIONS must be positive, got %d", cfg.MCPSessions)
	}
	return cfg, nil
}

func parseInt(raw, key string, dst *int) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	*dst = v
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
