package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config captures all tunables for the research service. Values come from
// config/seeker.yaml (CONFIG_PATH overrides the location), then environment
// variables, then the defaults below.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Budget   BudgetConfig   `mapstructure:"budget"`
	Research ResearchConfig `mapstructure:"research"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Safety   SafetyConfig   `mapstructure:"safety"`
}

type ServerConfig struct {
	Addr              string  `mapstructure:"addr"`
	RateLimitPerSec   float64 `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst    int     `mapstructure:"rate_limit_burst"`
	ShutdownTimeoutMs int     `mapstructure:"shutdown_timeout_ms"`
}

// BudgetConfig bounds cost and response size for a single request.
type BudgetConfig struct {
	// MaxTokens is the synthesis prompt ceiling, prompt overhead included.
	MaxTokens int `mapstructure:"max_tokens"`
	// MaxTotalSources caps distinct source URLs across the whole request.
	MaxTotalSources int `mapstructure:"max_total_sources"`
	// MinTailTokens is the smallest budget remainder worth a truncated
	// finding block; below it the block is dropped.
	MinTailTokens int `mapstructure:"min_tail_tokens"`
}

type ResearchConfig struct {
	MaxSubQuestions int `mapstructure:"max_sub_questions"`
	// PerQueryResults caps search results requested per sub-question.
	PerQueryResults int `mapstructure:"per_query_results"`
	// FindingMaxChars caps extracted content per finding, independent of
	// token budgeting.
	FindingMaxChars int `mapstructure:"finding_max_chars"`
	// AnalysisContentChars caps the content slice sent to the per-question
	// analysis prompt.
	AnalysisContentChars int `mapstructure:"analysis_content_chars"`
}

type LLMConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type SearchConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	EngineID string        `mapstructure:"engine_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// FetchTimeout bounds a single page fetch during extraction.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type SafetyConfig struct {
	// TaxonomyPath points at the harmful-pattern / moderation-category data
	// file. The file is hot-reloadable.
	TaxonomyPath string `mapstructure:"taxonomy_path"`
}

// Load reads configuration from CONFIG_PATH (default config/seeker.yaml),
// applies environment overrides and fills defaults. A missing config file is
// not an error; defaults plus env are enough to run.
func Load() (*Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/seeker.yaml"
	}

	cfg := defaults()
	if _, err := os.Stat(cfgPath); err == nil {
		v := viper.New()
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.RateLimitPerSec = 1
	cfg.Server.RateLimitBurst = 10
	cfg.Server.ShutdownTimeoutMs = 10000

	cfg.Budget.MaxTokens = 7000
	cfg.Budget.MaxTotalSources = 6
	cfg.Budget.MinTailTokens = 100

	cfg.Research.MaxSubQuestions = 3
	cfg.Research.PerQueryResults = 3
	cfg.Research.FindingMaxChars = 3000
	cfg.Research.AnalysisContentChars = 2000

	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4"
	cfg.LLM.Timeout = 60 * time.Second
	cfg.LLM.MaxRetries = 3
	cfg.LLM.RetryDelay = 2 * time.Second

	cfg.Search.Timeout = 15 * time.Second
	cfg.Search.FetchTimeout = 10 * time.Second

	cfg.Safety.TaxonomyPath = "config/safety.yaml"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.LLM.Timeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.LLM.MaxRetries = n
		}
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CSE_ID"); v != "" {
		cfg.Search.EngineID = v
	}
	if v := os.Getenv("SAFETY_TAXONOMY_PATH"); v != "" {
		cfg.Safety.TaxonomyPath = v
	}
	if v := os.Getenv("MAX_TOTAL_SOURCES"); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.Budget.MaxTotalSources = n
		}
	}
	if v := os.Getenv("MAX_PROMPT_TOKENS"); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.Budget.MaxTokens = n
		}
	}
}
