package extract

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"cvsync/internal/config"
	cvsyncErrors "cvsync/internal/errors"
	"cvsync/internal/types"
	"cvsync/internal/validators"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *cvsyncErrors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *cvsyncErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, cvsyncErrors.NewAIError(cvsyncErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: circuitBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// ExtractProfile implements Provider for structured resume field extraction
func (g *GeminiProvider) ExtractProfile(ctx context.Context, resumeText string) (types.CandidateProfile, *TokenUsage, error) {
	tracer := otel.Tracer("cvsync.extract.gemini")
	ctx, span := tracer.Start(ctx, "gemini.extract_profile")
	defer span.End()

	if len(resumeText) > maxResumeChars {
		resumeText = resumeText[:maxResumeChars]
	}

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Int("input.resume_length", len(resumeText)),
	)

	genaiConfig := g.buildExtractSchema()
	if *g.config.UseSystemPrompts {
		genaiConfig.SystemInstruction = genai.NewContentFromText(DefaultSystemPrompt, genai.RoleUser)
	}
	userPrompt := fmt.Sprintf(DefaultUserPromptTemplate, resumeText)

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, "extract_profile", func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.CandidateProfile{}, nil, cvsyncErrors.NewAIError(cvsyncErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for extract_profile", err)
	}

	var profile types.CandidateProfile
	if err := DecodeJSONObject(result.Text(), &profile); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.CandidateProfile{}, nil, cvsyncErrors.NewAIError(cvsyncErrors.ErrCodeAIResponseParse,
			"Failed to parse AI response for extract_profile", err)
	}

	profile = normalizeProfile(profile)

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("output.candidate_name", profile.CandidateName),
		attribute.Bool("output.has_email", profile.Email != ""),
	)

	return profile, tokenUsage, nil
}

// normalizeProfile cleans up model output with the same normalization the
// importer applies to manual input: canonical email and phone forms,
// lowercased comma-joined skills, and default source/status values.
func normalizeProfile(p types.CandidateProfile) types.CandidateProfile {
	p.CandidateName = strings.TrimSpace(p.CandidateName)
	p.Email = validators.NormalizeEmail(p.Email)
	p.Phone = validators.NormalizePhone(p.Phone)
	p.Skills = validators.NormalizeSkills(p.Skills)
	p.ResumeURL = strings.TrimSpace(p.ResumeURL)
	p.Salary = strings.TrimSpace(p.Salary)
	p.NoticePeriod = strings.TrimSpace(p.NoticePeriod)
	p.CurrentLocation = strings.TrimSpace(p.CurrentLocation)
	p.CandidateStatus = strings.TrimSpace(p.CandidateStatus)
	p.JobRole = strings.TrimSpace(p.JobRole)

	p.Source = strings.TrimSpace(p.Source)
	if p.Source == "" {
		p.Source = "CV Upload"
	}
	p.Status = strings.TrimSpace(p.Status)
	if p.Status == "" {
		p.Status = "New"
	}

	return p
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
		// Consider other network errors retryable (e.g., connection refused)
		return true
	}

	// Check for Google API errors (HTTP status codes)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// buildExtractSchema creates the response schema for profile extraction
func (g *GeminiProvider) buildExtractSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"candidateName":   {Type: genai.TypeString},
				"email":           {Type: genai.TypeString},
				"phone":           {Type: genai.TypeString},
				"skills":          {Type: genai.TypeString},
				"expYears":        {Type: genai.TypeInteger},
				"source":          {Type: genai.TypeString},
				"resumeUrl":       {Type: genai.TypeString},
				"salary":          {Type: genai.TypeString},
				"noticePeriod":    {Type: genai.TypeString},
				"currentLocation": {Type: genai.TypeString},
				"status":          {Type: genai.TypeString},
				"candidateStatus": {Type: genai.TypeString},
				"jobRole":         {Type: genai.TypeString},
			},
			Required: []string{
				"candidateName", "email", "phone", "skills", "expYears",
				"source", "resumeUrl", "salary", "noticePeriod",
				"currentLocation", "status", "candidateStatus", "jobRole",
			},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - both breakers must be healthy
	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements Provider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
