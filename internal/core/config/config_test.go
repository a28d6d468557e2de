package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

const (
	testSecret1 = "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
	testSecret2 = "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHMACSecrets(t *testing.T) {
	// Clean environment
	os.Unsetenv("EC_HMAC_SECRET")
	os.Unsetenv("EC_HMAC_SECRET_1")
	os.Unsetenv("EC_HMAC_SECRET_2")

	t.Run("single secret", func(t *testing.T) {
		t.Setenv("EC_HMAC_SECRET", testSecret1)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		t.Setenv("EC_HMAC_SECRET_1", testSecret1)
		t.Setenv("EC_HMAC_SECRET_2", testSecret2)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	t.Run("numbering stops at first gap", func(t *testing.T) {
		t.Setenv("EC_HMAC_SECRET_1", testSecret1)
		t.Setenv("EC_HMAC_SECRET_3", testSecret2)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Setenv("EC_HMAC_SECRET", "invalid_format")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for invalid format")
		}
	})

	t.Run("duplicate secret_id between single and numbered", func(t *testing.T) {
		t.Setenv("EC_HMAC_SECRET", testSecret1)
		t.Setenv("EC_HMAC_SECRET_1", "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for duplicate secret_id between EC_HMAC_SECRET and EC_HMAC_SECRET_1")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("", nil)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Rules.Root != "./rule_set" {
			t.Errorf("expected rules root ./rule_set, got %s", cfg.Rules.Root)
		}
		if len(cfg.Rules.Extensions) != 1 || cfg.Rules.Extensions[0] != ".txt" {
			t.Errorf("expected extensions [.txt], got %v", cfg.Rules.Extensions)
		}
		if len(cfg.Rules.ReferenceCategories) != 3 {
			t.Errorf("expected 3 reference categories, got %v", cfg.Rules.ReferenceCategories)
		}
		if cfg.LLM.Provider != "local" {
			t.Errorf("expected provider local, got %s", cfg.LLM.Provider)
		}
		if cfg.LLM.Temperature != 0.2 {
			t.Errorf("expected temperature 0.2, got %v", cfg.LLM.Temperature)
		}
		if cfg.LLM.StreamingTimeout != 30*time.Second {
			t.Errorf("expected streaming timeout 30s, got %v", cfg.LLM.StreamingTimeout)
		}
		if cfg.Server.Port != 50061 {
			t.Errorf("expected port 50061, got %d", cfg.Server.Port)
		}
		if cfg.Server.MetricsPort != 9464 {
			t.Errorf("expected metrics port 9464, got %d", cfg.Server.MetricsPort)
		}
		if cfg.Server.MaxSubmissionFields != 512 {
			t.Errorf("expected max_submission_fields 512, got %d", cfg.Server.MaxSubmissionFields)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("EC_SERVER_PORT", "9999")
		t.Setenv("EC_RULES_ROOT", "/srv/rules")
		t.Setenv("EC_LLM_PROVIDER", "OpenAI")

		cfg, err := LoadConfig("", nil)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.Port)
		}
		if cfg.Rules.Root != "/srv/rules" {
			t.Errorf("expected rules root /srv/rules, got %s", cfg.Rules.Root)
		}
		if cfg.LLM.Provider != "openai" {
			t.Errorf("expected provider openai, got %s", cfg.LLM.Provider)
		}
	})

	t.Run("config file", func(t *testing.T) {
		path := writeConfig(t, `rules:
  root: ./corpus
  watch: true
  reference_categories: [generated_rules_editchecks]
llm:
  provider: anthropic
  model: claude-3-5-haiku-latest
`)
		cfg, err := LoadConfig(path, nil)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Rules.Root != "./corpus" || !cfg.Rules.Watch {
			t.Errorf("unexpected rules config: %+v", cfg.Rules)
		}
		if len(cfg.Rules.ReferenceCategories) != 1 || cfg.Rules.ReferenceCategories[0] != "generated_rules_editchecks" {
			t.Errorf("unexpected reference categories: %v", cfg.Rules.ReferenceCategories)
		}
		if cfg.LLM.Provider != "anthropic" || cfg.LLM.Model != "claude-3-5-haiku-latest" {
			t.Errorf("unexpected llm config: %+v", cfg.LLM)
		}
	})

	t.Run("flag precedence", func(t *testing.T) {
		t.Setenv("EC_SERVER_PORT", "8080")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("port", 0, "")
		flags.String("rules-root", "", "")
		if err := flags.Parse([]string{"--port", "7070"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig("", flags)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 7070 {
			t.Errorf("expected flag port 7070, got %d", cfg.Server.Port)
		}
		if cfg.Rules.Root != "./rule_set" {
			t.Errorf("unset flag must not override default, got %s", cfg.Rules.Root)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		t.Setenv("EC_SERVER_PORT", "70000")

		if _, err := LoadConfig("", nil); err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("EC_LLM_PROVIDER", "bedrock")

		if _, err := LoadConfig("", nil); err == nil {
			t.Error("expected error for unknown provider")
		}
	})

	t.Run("invalid negative values", func(t *testing.T) {
		t.Setenv("EC_SERVER_MAX_SUBMISSION_FIELDS", "-1")

		if _, err := LoadConfig("", nil); err == nil {
			t.Error("expected error for negative max_submission_fields")
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestLLMService(t *testing.T) {
	t.Setenv("EC_LLM_API_KEY", " sk-test ")

	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o"

	svc := cfg.LLMService()
	if svc.Type != "openai" || svc.DefaultModel != "gpt-4o" {
		t.Errorf("unexpected service config: %+v", svc)
	}
	if svc.APIKey != "sk-test" {
		t.Errorf("expected trimmed api key, got %q", svc.APIKey)
	}
	if svc.OutputTokenLimit != 4096 || svc.StreamingTimeout != 30*time.Second {
		t.Errorf("unexpected limits: %+v", svc)
	}
}

func TestParseHMACSecret(t *testing.T) {
	t.Run("valid base64", func(t *testing.T) {
		secret, err := ParseHMACSecret("dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err != nil {
			t.Fatalf("ParseHMACSecret failed: %v", err)
		}
		if len(secret) < 32 {
			t.Errorf("secret too short: %d bytes", len(secret))
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		if _, err := ParseHMACSecret("not-valid-base64!!!"); err == nil {
			t.Error("expected error for invalid base64")
		}
	})

	t.Run("secret too short", func(t *testing.T) {
		if _, err := ParseHMACSecret("c2hvcnQ="); err == nil { // "short" in base64
			t.Error("expected error for secret < 32 bytes")
		}
	})
}

func TestParseHMACSecretWithID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid format", testSecret1, false},
		{"missing colon", "0123456789abcdef0123456789abcdef", true},
		{"invalid secret_id length", "tooshort:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", true},
		{"non-hex chars in secret_id", "0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", true},
		{"short secret", "0123456789abcdef0123456789abcdef:c2hvcnQ=", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, secret, err := ParseHMACSecretWithID(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHMACSecretWithID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (secretID != "0123456789abcdef0123456789abcdef" || len(secret) == 0) {
				t.Errorf("unexpected result: %q, %d bytes", secretID, len(secret))
			}
		})
	}
}
