package extract

import (
	"errors"
	"net"
	"net/http"
	"testing"

	"cvsync/internal/types"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestNormalizeProfile(t *testing.T) {
	got := normalizeProfile(types.CandidateProfile{
		CandidateName: "  Jane Doe ",
		Email:         " Jane.Doe@Example.COM ",
		Phone:         "+1 (555) 010-2030",
		Skills:        "Go; Python\nSQL",
		ExpYears:      5,
		JobRole:       " Backend Engineer ",
	})

	if got.CandidateName != "Jane Doe" {
		t.Errorf("candidate name = %q", got.CandidateName)
	}
	if got.Email != "jane.doe@example.com" {
		t.Errorf("email = %q", got.Email)
	}
	if got.Phone != "+15550102030" {
		t.Errorf("phone = %q", got.Phone)
	}
	if got.Skills != "go, python, sql" {
		t.Errorf("skills = %q", got.Skills)
	}
	if got.JobRole != "Backend Engineer" {
		t.Errorf("job role = %q", got.JobRole)
	}
	if got.Source != "CV Upload" {
		t.Errorf("source = %q, want default CV Upload", got.Source)
	}
	if got.Status != "New" {
		t.Errorf("status = %q, want default New", got.Status)
	}
}

func TestNormalizeProfileKeepsExplicitValues(t *testing.T) {
	got := normalizeProfile(types.CandidateProfile{
		Source: "LinkedIn",
		Status: "Screened",
	})

	if got.Source != "LinkedIn" {
		t.Errorf("source = %q, explicit value must survive", got.Source)
	}
	if got.Status != "Screened" {
		t.Errorf("status = %q, explicit value must survive", got.Status)
	}
}

func TestNormalizeProfileInvalidEmailDropped(t *testing.T) {
	got := normalizeProfile(types.CandidateProfile{Email: "not-an-email"})
	if got.Email != "" {
		t.Errorf("email = %q, invalid address must collapse to empty", got.Email)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	g := &GeminiProvider{}

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil error", err: nil, retryable: false},
		{name: "network timeout", err: net.Error(timeoutErr{}), retryable: true},
		{name: "rate limited", err: &googleapi.Error{Code: http.StatusTooManyRequests}, retryable: true},
		{name: "server error", err: &googleapi.Error{Code: http.StatusInternalServerError}, retryable: true},
		{name: "bad gateway", err: &googleapi.Error{Code: http.StatusBadGateway}, retryable: true},
		{name: "unauthorized", err: &googleapi.Error{Code: http.StatusUnauthorized}, retryable: false},
		{name: "bad request", err: &googleapi.Error{Code: http.StatusBadRequest}, retryable: false},
		{name: "plain error", err: errors.New("boom"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.isRetryableError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestPromptTemplateHasSinglePlaceholder(t *testing.T) {
	formatted := len(DefaultUserPromptTemplate)
	if formatted == 0 {
		t.Fatal("user prompt template must not be empty")
	}

	// One %s for the resume text, nothing else format-sensitive.
	count := 0
	for i := 0; i+1 < len(DefaultUserPromptTemplate); i++ {
		if DefaultUserPromptTemplate[i] == '%' {
			if DefaultUserPromptTemplate[i+1] == 's' {
				count++
				i++
			} else {
				t.Fatalf("unexpected format verb %%%c in prompt template", DefaultUserPromptTemplate[i+1])
			}
		}
	}
	if count != 1 {
		t.Errorf("prompt template has %d %%s placeholders, want 1", count)
	}
}

func TestCircuitBreakerDisabledPassthrough(t *testing.T) {
	var cb *AICircuitBreaker

	called := false
	_, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		called = true
		return nil, nil
	})
	if err != nil {
		t.Fatalf("nil breaker Execute: %v", err)
	}
	if !called {
		t.Error("nil breaker must execute the function directly")
	}
	if !cb.IsHealthy() {
		t.Error("nil breaker reports healthy")
	}
}
