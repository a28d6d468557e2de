package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// secretKeys may only come from the environment.
var secretKeys = []string{"hmac_secret", "server.hmac_secret", "llm.api_key", "api_key"}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"rules-root":   "rules.root",
	"llm-provider": "llm.provider",
	"llm-model":    "llm.model",
	"host":         "server.host",
	"port":         "server.port",
	"metrics-port": "server.metrics_port",
	"db-url":       "database.url",
}

// LoadConfig loads configuration using viper.
// CLI flags > environment > config file > defaults precedence. flags may be
// nil; only flags named in flagKeys are bound.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	d := Default()

	v.SetDefault("rules.root", d.Rules.Root)
	v.SetDefault("rules.extensions", d.Rules.Extensions)
	v.SetDefault("rules.reference_categories", d.Rules.ReferenceCategories)
	v.SetDefault("rules.watch", d.Rules.Watch)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_url", d.LLM.APIURL)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.streaming_timeout", d.LLM.StreamingTimeout.String())
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.metrics_port", d.Server.MetricsPort)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("server.max_submission_fields", d.Server.MaxSubmissionFields)
	v.SetDefault("server.require_auth", d.Server.RequireAuth)
	v.SetDefault("database.url", d.Database.URL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Rules: RulesConfig{
			Root:                v.GetString("rules.root"),
			Extensions:          v.GetStringSlice("rules.extensions"),
			ReferenceCategories: v.GetStringSlice("rules.reference_categories"),
			Watch:               v.GetBool("rules.watch"),
		},
		LLM: LLMConfig{
			Provider:         strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			Model:            v.GetString("llm.model"),
			APIURL:           v.GetString("llm.api_url"),
			Temperature:      v.GetFloat64("llm.temperature"),
			MaxTokens:        v.GetInt("llm.max_tokens"),
			StreamingTimeout: v.GetDuration("llm.streaming_timeout"),
		},
		Server: ServerConfig{
			Host:                v.GetString("server.host"),
			Port:                v.GetInt("server.port"),
			MetricsPort:         v.GetInt("server.metrics_port"),
			RequestTimeout:      v.GetDuration("server.request_timeout"),
			MaxSubmissionFields: v.GetInt("server.max_submission_fields"),
			RequireAuth:         v.GetBool("server.require_auth"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks required paths, port ranges and positive limits.
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Rules.Root) == "" {
		return fmt.Errorf("rules.root must be set")
	}
	switch cfg.LLM.Provider {
	case "local", "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be one of local, openai, anthropic, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.StreamingTimeout <= 0 {
		return fmt.Errorf("llm.streaming_timeout must be positive, got %v", cfg.LLM.StreamingTimeout)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 0 and 65535, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxSubmissionFields <= 0 {
		return fmt.Errorf("max_submission_fields must be positive, got %d", cfg.Server.MaxSubmissionFields)
	}
	return nil
}

// validateNoSecretsInConfig rejects secrets written into the config file.
// InConfig ignores the environment, so EC_HMAC_SECRET and EC_LLM_API_KEY
// remain usable.
func validateNoSecretsInConfig(v *viper.Viper) error {
	for _, key := range secretKeys {
		if !v.InConfig(key) {
			continue
		}
		if strings.HasSuffix(key, "hmac_secret") {
			return fmt.Errorf("HMAC secrets not allowed in config files (use EC_HMAC_SECRET environment variable)")
		}
		return fmt.Errorf("API keys not allowed in config files (use EC_LLM_API_KEY environment variable)")
	}
	return nil
}
