package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenAIModel       string `yaml:"gpt_model"`
	OpenAIBaseURL     string `yaml:"openai_base_url"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	AnthropicModel    string `yaml:"anthropic_model"`
	LeadJudgeProvider string `yaml:"lead_judge_provider"`

	BlacklistFile    string        `yaml:"blacklist_file"`
	OutputDir        string        `yaml:"output_dir"`
	MaxConcurrent    int           `yaml:"max_concurrent"`
	BatchSize        int           `yaml:"batch_size"`
	CandidateTimeout time.Duration `yaml:"candidate_timeout"`
	ValidateReplies  bool          `yaml:"validate_replies"`

	RetrievalBackend   string  `yaml:"retrieval_backend"`
	RetrievalDSN       string  `yaml:"retrieval_dsn"`
	RetrievalTopK      int     `yaml:"retrieval_top_k"`
	RetrievalThreshold float64 `yaml:"retrieval_score_threshold"`

	DatabaseURL   string `yaml:"database_url"`
	NatsURL       string `yaml:"nats_url"`
	NatsToken     string `yaml:"nats_token"`
	SlackBotToken string `yaml:"slack_bot_token"`
	SlackChannel  string `yaml:"slack_leads_channel"`
	APIToken      string `yaml:"api_token"`
}

const (
	RetrievalNone     = "none"
	RetrievalPostgres = "postgres"
	RetrievalSQLite   = "sqlite"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

func defaults() Config {
	return Config{
		Port:               8760,
		LogLevel:           "info",
		OpenAIModel:        "gpt-4.1-nano",
		AnthropicModel:     "claude-sonnet-4-20250514",
		LeadJudgeProvider:  ProviderAnthropic,
		BlacklistFile:      "blacklist.json",
		OutputDir:          ".",
		MaxConcurrent:      15,
		BatchSize:          20,
		CandidateTimeout:   90 * time.Second,
		RetrievalBackend:   RetrievalNone,
		RetrievalTopK:      3,
		RetrievalThreshold: 0.5,
	}
}

// Load builds the config from defaults, then the YAML file named by
// SCOUT_CONFIG if set, then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("SCOUT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envInt("SCOUT_PORT", cfg.Port)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)

	cfg.OpenAIAPIKey = envStr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = envStr("GPT_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = envStr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.AnthropicAPIKey = envStr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envStr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.LeadJudgeProvider = envStr("LEAD_JUDGE_PROVIDER", cfg.LeadJudgeProvider)

	cfg.BlacklistFile = envStr("SCOUT_BLACKLIST_FILE", cfg.BlacklistFile)
	cfg.OutputDir = envStr("SCOUT_OUTPUT_DIR", cfg.OutputDir)
	cfg.MaxConcurrent = envInt("SCOUT_MAX_CONCURRENT", cfg.MaxConcurrent)
	cfg.BatchSize = envInt("SCOUT_BATCH_SIZE", cfg.BatchSize)
	cfg.CandidateTimeout = envDuration("SCOUT_CANDIDATE_TIMEOUT", cfg.CandidateTimeout)
	cfg.ValidateReplies = envBool("SCOUT_VALIDATE_REPLIES", cfg.ValidateReplies)

	cfg.RetrievalBackend = envStr("RETRIEVAL_BACKEND", cfg.RetrievalBackend)
	cfg.RetrievalDSN = envStr("RETRIEVAL_DSN", cfg.RetrievalDSN)
	cfg.RetrievalTopK = envInt("RETRIEVAL_TOP_K", cfg.RetrievalTopK)
	cfg.RetrievalThreshold = envFloat("RETRIEVAL_SCORE_THRESHOLD", cfg.RetrievalThreshold)

	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.SlackBotToken = envStr("SLACK_BOT_TOKEN", cfg.SlackBotToken)
	cfg.SlackChannel = envStr("SLACK_LEADS_CHANNEL", cfg.SlackChannel)
	cfg.APIToken = envStr("SCOUT_API_TOKEN", cfg.APIToken)

	return cfg, cfg.Validate()
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.RetrievalBackend {
	case RetrievalNone, "":
	case RetrievalPostgres, RetrievalSQLite:
		if c.RetrievalDSN == "" {
			return fmt.Errorf("RETRIEVAL_DSN is required for backend %q", c.RetrievalBackend)
		}
	default:
		return fmt.Errorf("unknown retrieval backend %q", c.RetrievalBackend)
	}
	switch c.LeadJudgeProvider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown lead judge provider %q", c.LeadJudgeProvider)
	}
	if c.RetrievalThreshold < 0 || c.RetrievalThreshold >= 1 {
		return fmt.Errorf("retrieval score threshold must be in [0,1), got %v", c.RetrievalThreshold)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
