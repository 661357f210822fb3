package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cvsync/internal/config"
	"cvsync/internal/errors"
	"cvsync/internal/observability"
	"cvsync/internal/schema"
)

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

func testServer(apiKeys []string) *Server {
	appCfg := &config.Config{
		Mapper: config.MapperConfig{
			MappingFile:        "schema_mapping.json",
			AutoApplyThreshold: 0.85,
			AcceptThreshold:    0.65,
		},
	}
	return NewServer(appCfg, ServerConfig{
		Host:           "localhost",
		Port:           "8080",
		Version:        "test",
		APIKeys:        apiKeys,
		MaxRequestSize: 1 << 20,
	}, testLogger())
}

func disabledObservability(t *testing.T) *observability.ObservabilityManager {
	t.Helper()
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager failed: %v", err)
	}
	return om
}

func TestAuthMiddleware(t *testing.T) {
	s := testServer([]string{"valid-key-12345"})
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		apiKey     string
		authHeader string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "wrong-key", "", http.StatusUnauthorized},
		{"valid key", "valid-key-12345", "", http.StatusOK},
		{"valid bearer token", "", "Bearer valid-key-12345", http.StatusOK},
		{"invalid bearer token", "", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/mapping", nil)
			if tt.apiKey != "" {
				r.Header.Set("X-API-Key", tt.apiKey)
			}
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			handler(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddlewareSkippedWithoutKeys(t *testing.T) {
	s := testServer(nil)
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/mapping", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d when no keys configured", w.Code, http.StatusOK)
	}
}

func TestMappingHandler(t *testing.T) {
	s := testServer(nil)
	handler := s.createMappingHandler(disabledObservability(t))

	body := `{"internalKeys":["Email","Phone"],"remoteFields":["Email","Phone Number"]}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/mapping", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var result schema.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.FinalMapping["Email"] != "Email" {
		t.Errorf("FinalMapping[Email] = %q, want Email", result.FinalMapping["Email"])
	}
	if result.FinalMapping["Phone"] != "Phone Number" {
		t.Errorf("FinalMapping[Phone] = %q, want Phone Number", result.FinalMapping["Phone"])
	}
}

func TestMappingHandlerMissingKeys(t *testing.T) {
	s := testServer(nil)
	handler := s.createMappingHandler(disabledObservability(t))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/mapping", strings.NewReader(`{"remoteFields":["Email"]}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestMappingHandlerInvalidThresholds(t *testing.T) {
	s := testServer(nil)
	handler := s.createMappingHandler(disabledObservability(t))

	// autoApply below accept
	body := `{"internalKeys":["Email"],"remoteFields":["Email"],"acceptThreshold":0.9,"autoApplyThreshold":0.5}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/mapping", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name    string
		opts    schema.Options
		wantErr bool
	}{
		{"valid", schema.Options{AcceptThreshold: 0.65, AutoApplyThreshold: 0.85}, false},
		{"equal thresholds", schema.Options{AcceptThreshold: 0.7, AutoApplyThreshold: 0.7}, false},
		{"accept out of range", schema.Options{AcceptThreshold: 1.5, AutoApplyThreshold: 1.5}, true},
		{"negative", schema.Options{AcceptThreshold: -0.1, AutoApplyThreshold: 0.5}, true},
		{"auto apply below accept", schema.Options{AcceptThreshold: 0.8, AutoApplyThreshold: 0.6}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateThresholds(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateThresholds() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemapPayload(t *testing.T) {
	payload := map[string]any{
		"Candidate Name": "Ada",
		"Email":          "ada@example.com",
		"Skills":         "Go, SQL",
	}
	mapping := map[string]string{
		"Candidate Name": "Full Name",
		"Email":          "", // Empty target keeps internal name
	}

	got := remapPayload(payload, mapping)

	if got["Full Name"] != "Ada" {
		t.Errorf("Full Name = %v, want Ada", got["Full Name"])
	}
	if got["Email"] != "ada@example.com" {
		t.Errorf("Email = %v, want ada@example.com", got["Email"])
	}
	if got["Skills"] != "Go, SQL" {
		t.Errorf("Skills = %v, want unchanged", got["Skills"])
	}
	if _, exists := got["Candidate Name"]; exists {
		t.Error("Candidate Name should have been renamed")
	}
}

func TestParseJSONRequest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"documentText":"hello"}`))
		r.Header.Set("Content-Type", "application/json")

		var req ExtractRequest
		if err := parseJSONRequest(r, &req); err != nil {
			t.Fatalf("parseJSONRequest failed: %v", err)
		}
		if req.DocumentText != "hello" {
			t.Errorf("DocumentText = %q, want hello", req.DocumentText)
		}
	})

	t.Run("wrong content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")

		var req ExtractRequest
		if err := parseJSONRequest(r, &req); err == nil {
			t.Error("expected error for non-JSON content type")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
		r.Header.Set("Content-Type", "application/json")

		var req ExtractRequest
		if err := parseJSONRequest(r, &req); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		apiKey string
		want   string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"123456789abcdef", "12345678****"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.apiKey); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.apiKey, got, tt.want)
		}
	}
}

func TestVersionHandler(t *testing.T) {
	s := testServer(nil)

	r := httptest.NewRequest(http.MethodGet, "/version", nil)
	w := httptest.NewRecorder()
	s.versionHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["service"] != "cvsync" || resp["version"] != "test" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestStatsHandlerWithoutRateLimiting(t *testing.T) {
	s := testServer(nil)

	r := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	s.statsHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	rl, ok := resp["rate_limiting"].(map[string]any)
	if !ok {
		t.Fatalf("rate_limiting missing from response: %v", resp)
	}
	if rl["enabled"] != false {
		t.Errorf("rate_limiting.enabled = %v, want false", rl["enabled"])
	}
}

func TestStatsHandlerRejectsPost(t *testing.T) {
	s := testServer(nil)

	r := httptest.NewRequest(http.MethodPost, "/stats", nil)
	w := httptest.NewRecorder()
	s.statsHandler(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
