package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func defaultTestConfig(t *testing.T) *Config {
	t.Helper()

	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults: %v", err)
	}
	cfg.AI.APIKey = "test-gemini-key"
	cfg.Store.APIKey = "test-store-key"
	cfg.Store.BaseID = "appTESTBASE"
	return &cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := defaultTestConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults with keys set should validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing AI key",
			mutate:  func(c *Config) { c.AI.APIKey = "" },
			wantErr: "AI API key",
		},
		{
			name:    "missing store key",
			mutate:  func(c *Config) { c.Store.APIKey = "" },
			wantErr: "store API key",
		},
		{
			name:    "missing base ID",
			mutate:  func(c *Config) { c.Store.BaseID = "" },
			wantErr: "base ID",
		},
		{
			name:    "missing table",
			mutate:  func(c *Config) { c.Store.Table = "" },
			wantErr: "table",
		},
		{
			name:    "accept threshold out of range",
			mutate:  func(c *Config) { c.Mapper.AcceptThreshold = 1.5 },
			wantErr: "acceptThreshold",
		},
		{
			name:    "auto apply below accept",
			mutate:  func(c *Config) { c.Mapper.AutoApplyThreshold = 0.5 },
			wantErr: "autoApplyThreshold",
		},
		{
			name:    "missing mapping file",
			mutate:  func(c *Config) { c.Mapper.MappingFile = "" },
			wantErr: "mappingFile",
		},
		{
			name:    "missing server port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "port",
		},
		{
			name:    "invalid default format",
			mutate:  func(c *Config) { c.App.DefaultFormat = "xml" },
			wantErr: "format",
		},
		{
			name:    "non-positive rate limit",
			mutate:  func(c *Config) { c.Store.RequestsPerSec = 0 },
			wantErr: "requestsPerSec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateMockModeSkipsStoreCredentials(t *testing.T) {
	cfg := defaultTestConfig(t)
	cfg.Store.MockMode = true
	cfg.Store.APIKey = ""
	cfg.Store.BaseID = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("mock mode must not require store credentials: %v", err)
	}
}

func TestGetExtractConfigFallbacks(t *testing.T) {
	cfg := defaultTestConfig(t)
	cfg.AI.Model = "gemini-2.0-flash"
	cfg.AI.Extract.Model = ""
	cfg.AI.Extract.APIKey = ""
	cfg.AI.Extract.Timeout = nil
	cfg.AI.Extract.MaxRetries = nil
	cfg.AI.Extract.Temperature = nil
	cfg.AI.Extract.UseSystemPrompts = nil

	op := cfg.GetExtractConfig()

	if op.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q, want global fallback", op.Model)
	}
	if op.APIKey != cfg.AI.APIKey {
		t.Errorf("api key did not fall back to global")
	}
	if op.Timeout == nil || *op.Timeout != cfg.AI.Timeout {
		t.Errorf("timeout did not fall back to global")
	}
	if op.MaxRetries == nil || *op.MaxRetries != cfg.AI.MaxRetries {
		t.Errorf("max retries did not fall back to global")
	}
	if op.Temperature == nil || op.UseSystemPrompts == nil {
		t.Error("temperature and useSystemPrompts must be populated")
	}
}

func TestGetExtractConfigOverrides(t *testing.T) {
	cfg := defaultTestConfig(t)
	timeout := 42 * time.Second
	cfg.AI.Extract.Model = "gemini-2.5-pro"
	cfg.AI.Extract.APIKey = "operation-key"
	cfg.AI.Extract.Timeout = &timeout

	op := cfg.GetExtractConfig()

	if op.Model != "gemini-2.5-pro" {
		t.Errorf("operation model override lost: %q", op.Model)
	}
	if op.APIKey != "operation-key" {
		t.Errorf("operation api key override lost: %q", op.APIKey)
	}
	if *op.Timeout != timeout {
		t.Errorf("operation timeout override lost: %v", *op.Timeout)
	}
}

func TestApplyFallbacksLegacyEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "legacy-gemini")
	t.Setenv("AIRTABLE_API_KEY", "legacy-store")
	t.Setenv("AIRTABLE_BASE_ID", "appLEGACY")
	t.Setenv("AIRTABLE_TABLE_NAME", "LegacyCandidates")

	cfg := defaultTestConfig(t)
	cfg.AI.APIKey = ""
	cfg.Store.APIKey = ""
	cfg.Store.BaseID = ""
	cfg.applyFallbacks()

	if cfg.AI.APIKey != "legacy-gemini" {
		t.Errorf("AI key = %q, want legacy env fallback", cfg.AI.APIKey)
	}
	if cfg.Store.APIKey != "legacy-store" {
		t.Errorf("store key = %q, want legacy env fallback", cfg.Store.APIKey)
	}
	if cfg.Store.BaseID != "appLEGACY" {
		t.Errorf("base ID = %q, want legacy env fallback", cfg.Store.BaseID)
	}
	if cfg.Store.Table != "LegacyCandidates" {
		t.Errorf("table = %q, want legacy env fallback", cfg.Store.Table)
	}
}

func TestApplyFallbacksServerAPIKeys(t *testing.T) {
	t.Setenv("CVSYNC_SERVER_APIKEYS", "key-a, key-b ,key-c")

	cfg := defaultTestConfig(t)
	cfg.Server.APIKeys = nil
	cfg.applyFallbacks()

	want := []string{"key-a", "key-b", "key-c"}
	if len(cfg.Server.APIKeys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(cfg.Server.APIKeys), len(want))
	}
	for i, key := range want {
		if cfg.Server.APIKeys[i] != key {
			t.Errorf("key[%d] = %q, want %q", i, cfg.Server.APIKeys[i], key)
		}
	}
}

func TestApplyFallbacksServiceInstance(t *testing.T) {
	cfg := defaultTestConfig(t)
	cfg.Observability.ServiceInstance = ""
	cfg.applyFallbacks()

	if cfg.Observability.ServiceInstance == "" {
		t.Error("service instance must be auto-generated")
	}
	if !strings.HasPrefix(cfg.Observability.ServiceInstance, cfg.Observability.ServiceName) {
		t.Errorf("service instance %q should start with service name", cfg.Observability.ServiceInstance)
	}
}
