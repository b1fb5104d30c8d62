package app

import (
	"fmt"

	"github.com/davidsauntson/spidr/internal/agent"
	"github.com/davidsauntson/spidr/internal/saver"
	"github.com/davidsauntson/spidr/internal/session"
	"github.com/davidsauntson/spidr/internal/slogx"
)

// ProvideConfig loads and validates config from environment (for Wire).
func ProvideConfig() (*Config, error) {
	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideSessionCache constructs the per-destination session cache,
// capturing the process-wide proxy/timeout defaults (for Wire).
func ProvideSessionCache(cfg *Config) (*session.Cache, error) {
	return session.New(cfg.SessionOptions())
}

// ProvidePageSaver creates a PageSaver from config (for Wire).
// Returns an error if SaveFormat is not supported.
func ProvidePageSaver(cfg *Config) (saver.PageSaver, error) {
	ps := saver.NewPageSaver(cfg.SaveFormat)
	if ps == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return ps, nil
}

// ProvideAgent wires a crawl agent with the cache and saver (for Wire).
func ProvideAgent(cfg *Config, cache *session.Cache, ps saver.PageSaver) *agent.Agent {
	a := agent.New(cache)
	a.MaxDepth = cfg.MaxDepth
	a.MaxPages = cfg.MaxPages
	a.Workers = cfg.Workers
	a.Delay = cfg.Delay
	a.Saver = ps
	a.OutDir = cfg.DataDir
	a.Logger = slogx.NewDefault(cfg.LogLevel)
	if cfg.UserAgent != "" {
		a.UserAgent = cfg.UserAgent
	}
	return a
}
