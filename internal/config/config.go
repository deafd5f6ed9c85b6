// Package config loads anchor's settings: built-in defaults, then
// .anchor/config.yaml, then ANCHOR_* environment variables, with CLI flags
// bound last so an explicit flag always wins. Rewritten from
// daydemir-ralph/internal/config/config.go's viper+mapstructure shape.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is anchor's resolved settings for one invocation.
type Config struct {
	LLM           LLMConfig   `mapstructure:"llm"`
	Codex         CodexConfig `mapstructure:"codex"`
	Seed          SeedConfig  `mapstructure:"seed"`
	Live          LiveConfig  `mapstructure:"live"`
	Memo          MemoConfig  `mapstructure:"memo"`
	GitSince      string      `mapstructure:"git_since"`
	GitWindowDays int         `mapstructure:"git_window_days"`
}

// LLMConfig contains reasoning-service settings.
type LLMConfig struct {
	Model           string `mapstructure:"model"`
	ReasoningEffort string `mapstructure:"reasoning_effort"`
	ServiceTier     string `mapstructure:"service_tier"`
}

// CodexConfig contains Codex dispatcher settings.
type CodexConfig struct {
	Binary  string `mapstructure:"binary"`
	Retries int    `mapstructure:"retries"`
	Workers int    `mapstructure:"workers"`
}

// SeedConfig contains seed-selector settings.
type SeedConfig struct {
	HotspotsOn        bool     `mapstructure:"hotspots"`
	HotspotCategories []string `mapstructure:"hotspot_categories"`
	AutoLensOn        bool     `mapstructure:"auto_lens"`
	PlanDiversityOn   bool     `mapstructure:"plan_diversity"`
	BFSBudget         int      `mapstructure:"bfs_budget"`
}

// LiveConfig contains live-reporter settings.
type LiveConfig struct {
	On     bool   `mapstructure:"on"`
	Format string `mapstructure:"format"` // "text" | "json"
}

// MemoConfig contains response-memoization settings.
type MemoConfig struct {
	Dir string `mapstructure:"dir"` // LLM_MEMO_DIR; empty disables memoization
}

// DefaultConfig returns a Config with anchor's built-in defaults, per
// spec.md §6's environment-flag defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:           "claude-sonnet-4-5",
			ReasoningEffort: "medium",
			ServiceTier:     "default",
		},
		Codex: CodexConfig{
			Binary:  "codex",
			Retries: 3,
			Workers: 4,
		},
		Seed: SeedConfig{
			HotspotsOn:      true,
			AutoLensOn:      true,
			PlanDiversityOn: true,
			BFSBudget:       10,
		},
		Live: LiveConfig{
			On:     false,
			Format: "text",
		},
		GitWindowDays: 14,
	}
}

// Load reads settings from workspaceDir's .anchor/config.yaml (if present),
// overlays ANCHOR_* environment variables, and fills in built-in defaults
// for anything neither source set. It never reads CLI flags: callers bind
// flags onto the returned Config themselves, after Load, so an explicit
// flag always wins over both the file and the environment.
func Load(workspaceDir string) (*Config, error) {
	v := viper.New()
	setViperDefaults(v, DefaultConfig())
	v.SetEnvPrefix("anchor")
	v.AutomaticEnv()
	bindEnv(v)

	configPath := filepath.Join(workspaceDir, ".anchor", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// setViperDefaults registers defaults through viper's own default layer
// (rather than a post-unmarshal pass) so a bool field whose correct default
// is true is not indistinguishable from an explicit `false` in
// config.yaml/the environment.
func setViperDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.reasoning_effort", d.LLM.ReasoningEffort)
	v.SetDefault("llm.service_tier", d.LLM.ServiceTier)
	v.SetDefault("codex.binary", d.Codex.Binary)
	v.SetDefault("codex.retries", d.Codex.Retries)
	v.SetDefault("codex.workers", d.Codex.Workers)
	v.SetDefault("seed.hotspots", d.Seed.HotspotsOn)
	v.SetDefault("seed.auto_lens", d.Seed.AutoLensOn)
	v.SetDefault("seed.plan_diversity", d.Seed.PlanDiversityOn)
	v.SetDefault("seed.bfs_budget", d.Seed.BFSBudget)
	v.SetDefault("live.on", d.Live.On)
	v.SetDefault("live.format", d.Live.Format)
	v.SetDefault("git_window_days", d.GitWindowDays)
}

// bindEnv wires each ANCHOR_* flag spec.md §6 names onto the mapstructure
// key viper's AutomaticEnv would otherwise miss, since the env names do not
// mechanically match the nested config.yaml keys (e.g. ANCHOR_BFS_BUDGET
// vs. seed.bfs_budget).
func bindEnv(v *viper.Viper) {
	binds := map[string]string{
		"codex.retries":           "ANCHOR_OPENAI_RETRIES",
		"codex.workers":           "ANCHOR_WORKERS",
		"seed.hotspots":           "ANCHOR_HOTSPOTS",
		"seed.hotspot_categories": "ANCHOR_HOTSPOT_CATEGORIES",
		"seed.auto_lens":          "ANCHOR_AUTO_LENS",
		"seed.plan_diversity":     "ANCHOR_PLAN_DIVERSITY",
		"seed.bfs_budget":         "ANCHOR_BFS_BUDGET",
		"live.on":                 "ANCHOR_LIVE",
		"live.format":             "ANCHOR_LIVE_FORMAT",
		"git_since":               "ANCHOR_GIT_SINCE",
		"git_window_days":         "ANCHOR_GIT_WINDOW",
		"memo.dir":                "LLM_MEMO_DIR",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, env)
	}
}
