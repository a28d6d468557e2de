// Package config provides configuration management for editcheck.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm"
)

// EnvPrefix prefixes every environment variable read by editcheck.
const EnvPrefix = "EC"

// Config is the process-wide configuration. Built once by LoadConfig and
// passed down; never mutated afterwards.
type Config struct {
	Rules    RulesConfig
	LLM      LLMConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// RulesConfig locates the rule corpus.
type RulesConfig struct {
	Root                string
	Extensions          []string
	ReferenceCategories []string
	Watch               bool
}

// LLMConfig selects and tunes the collaborator. The API key is read from
// EC_LLM_API_KEY only.
type LLMConfig struct {
	Provider         string
	Model            string
	APIURL           string
	Temperature      float64
	MaxTokens        int
	StreamingTimeout time.Duration
}

// ServerConfig holds configuration for the gRPC validation service.
type ServerConfig struct {
	Host                string
	Port                int
	MetricsPort         int
	RequestTimeout      time.Duration
	MaxSubmissionFields int
	RequireAuth         bool
}

// DatabaseConfig points at the API key store.
type DatabaseConfig struct {
	URL string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Rules: RulesConfig{
			Root:       "./rule_set",
			Extensions: []string{".txt"},
			ReferenceCategories: []string{
				"generated_rules_derivations",
				"generated_rules_editchecks",
				"generated_rules_protocol",
			},
		},
		LLM: LLMConfig{
			Provider:         "local",
			Temperature:      0.2,
			MaxTokens:        4096,
			StreamingTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                50061,
			MetricsPort:         9464,
			RequestTimeout:      60 * time.Second,
			MaxSubmissionFields: 512,
			RequireAuth:         true,
		},
		Database: DatabaseConfig{
			URL: "sqlite://editcheck.db",
		},
	}
}

// LLMService combines the LLM settings with the API key from the
// environment.
func (c *Config) LLMService() llm.ServiceConfig {
	return llm.ServiceConfig{
		Type:             c.LLM.Provider,
		APIKey:           LLMAPIKey(),
		APIURL:           c.LLM.APIURL,
		DefaultModel:     c.LLM.Model,
		OutputTokenLimit: c.LLM.MaxTokens,
		Temperature:      c.LLM.Temperature,
		StreamingTimeout: c.LLM.StreamingTimeout,
	}
}

// LLMAPIKey returns EC_LLM_API_KEY.
func LLMAPIKey() string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + "_LLM_API_KEY"))
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports EC_HMAC_SECRET (single) and EC_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
// Secret IDs are 32 hex chars (UUIDv7 without hyphens) matching API key format.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)
	single := EnvPrefix + "_HMAC_SECRET"

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check %s and %s_* for conflicts)", secretID, single, single)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv(single); val != "" {
		if err := add(single, val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s_%d", single, i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecret decodes a base64-encoded HMAC secret.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(parts[1])
	if err != nil {
		return "", nil, err
	}
	return secretID, secret, nil
}
