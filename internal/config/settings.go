package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/stow/internal/common"
	"github.com/spf13/viper"
)

// Defaults for every tunable.
const (
	DefaultAutoThreshold    = 0.85
	DefaultSuggestThreshold = 0.4
	DefaultBatchWindow      = 8 * time.Second
	DefaultMaxRetries       = 5
	DefaultMaxUndoHistory   = 10
	DefaultLoopTick         = time.Second
	DefaultLLMTimeout       = 30 * time.Second
	DefaultLLMRateLimit     = 30
	DefaultContentMaxChars  = 500
)

// DefaultPartialSuffixes are in-progress download extensions that are never processed.
var DefaultPartialSuffixes = []string{".crdownload", ".part", ".download", ".tmp"}

// Settings is the typed view over the viper configuration.
type Settings struct {
	DatabasePath     string
	LLMProvider      string
	LLMAPIKey        string
	LLMModel         string
	WatchDirs        []string
	Scopes           []string
	PartialSuffixes  []string
	AutoThreshold    float64
	SuggestThreshold float64
	BatchWindow      time.Duration
	LoopTick         time.Duration
	LLMTimeout       time.Duration
	MaxRetries       int
	MaxUndoHistory   int
	LLMRateLimit     int
	ContentMaxChars  int
	LLMEnabled       bool
	IgnoreHidden     bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("watch.directories", []string{filepath.Join(home, "Downloads")})
	v.SetDefault("scopes", []string{filepath.Join(home, "Documents")})
	v.SetDefault("thresholds.auto", DefaultAutoThreshold)
	v.SetDefault("thresholds.suggest", DefaultSuggestThreshold)
	v.SetDefault("batch.window", DefaultBatchWindow)
	v.SetDefault("retry.max_attempts", DefaultMaxRetries)
	v.SetDefault("undo.max_history", DefaultMaxUndoHistory)
	v.SetDefault("loop.tick", DefaultLoopTick)
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "stow", "stow.db"))
	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("llm.rate_limit", DefaultLLMRateLimit)
	v.SetDefault("content.max_chars", DefaultContentMaxChars)
	v.SetDefault("ignore.hidden", true)
	v.SetDefault("ignore.partial_suffixes", DefaultPartialSuffixes)
}

// Load builds Settings from v. Path settings are expanded.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		WatchDirs:        ExpandPaths(v.GetStringSlice("watch.directories")),
		Scopes:           ExpandPaths(v.GetStringSlice("scopes")),
		AutoThreshold:    v.GetFloat64("thresholds.auto"),
		SuggestThreshold: v.GetFloat64("thresholds.suggest"),
		BatchWindow:      v.GetDuration("batch.window"),
		MaxRetries:       v.GetInt("retry.max_attempts"),
		MaxUndoHistory:   v.GetInt("undo.max_history"),
		LoopTick:         v.GetDuration("loop.tick"),
		DatabasePath:     ExpandPath(v.GetString("database.path")),
		LLMEnabled:       v.GetBool("llm.enabled"),
		LLMProvider:      v.GetString("llm.provider"),
		LLMAPIKey:        v.GetString("llm.api_key"),
		LLMModel:         v.GetString("llm.model"),
		LLMTimeout:       v.GetDuration("llm.timeout"),
		LLMRateLimit:     v.GetInt("llm.rate_limit"),
		ContentMaxChars:  v.GetInt("content.max_chars"),
		IgnoreHidden:     v.GetBool("ignore.hidden"),
		PartialSuffixes:  v.GetStringSlice("ignore.partial_suffixes"),
	}

	if s.LLMAPIKey == "" {
		s.LLMAPIKey = providerKeyFromEnv(s.LLMProvider)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects settings the engine cannot run with.
func (s *Settings) Validate() error {
	if s.AutoThreshold < 0 || s.AutoThreshold > 1 || s.SuggestThreshold < 0 || s.SuggestThreshold > 1 {
		return fmt.Errorf("%w: thresholds must be within [0,1]", common.ErrInvalidConfig)
	}
	if s.AutoThreshold <= s.SuggestThreshold {
		return fmt.Errorf("%w: thresholds.auto (%.2f) must exceed thresholds.suggest (%.2f)",
			common.ErrInvalidConfig, s.AutoThreshold, s.SuggestThreshold)
	}
	if s.BatchWindow <= 0 {
		return fmt.Errorf("%w: batch.window must be positive", common.ErrInvalidConfig)
	}
	if s.LoopTick <= 0 {
		return fmt.Errorf("%w: loop.tick must be positive", common.ErrInvalidConfig)
	}
	if s.MaxRetries <= 0 {
		return fmt.Errorf("%w: retry.max_attempts must be positive", common.ErrInvalidConfig)
	}
	if s.MaxUndoHistory <= 0 {
		return fmt.Errorf("%w: undo.max_history must be positive", common.ErrInvalidConfig)
	}
	if len(s.Scopes) == 0 {
		return fmt.Errorf("%w: at least one scope is required", common.ErrMissingConfig)
	}
	return nil
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
