package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"cvsync/internal/extract"
	"cvsync/internal/importer"
	"cvsync/internal/observability"
	"cvsync/internal/schema"
	"cvsync/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// ExtractResponse carries the extracted profile plus the coerced store
// payload with any configured field-name overrides applied
type ExtractResponse struct {
	Profile types.CandidateProfile `json:"profile"`
	Payload map[string]any         `json:"payload"`
}

// createMappingHandler wraps the mapping handler with observability
func (s *Server) createMappingHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvsync.api")
		ctx, span := tracer.Start(ctx, "api.mapping")
		defer span.End()

		var req MappingRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if len(req.InternalKeys) == 0 {
			err := fmt.Errorf("missing internal keys")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing internal keys", "internalKeys field is required", http.StatusBadRequest)
			return
		}

		opts := schema.Options{
			AutoApplyThreshold: s.AppConfig.Mapper.AutoApplyThreshold,
			AcceptThreshold:    s.AppConfig.Mapper.AcceptThreshold,
		}
		if req.AcceptThreshold != nil {
			opts.AcceptThreshold = *req.AcceptThreshold
		}
		if req.AutoApplyThreshold != nil {
			opts.AutoApplyThreshold = *req.AutoApplyThreshold
		}
		if err := validateThresholds(opts); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid thresholds", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.internal_keys", len(req.InternalKeys)),
			attribute.Int("request.remote_fields", len(req.RemoteFields)),
			attribute.String("operation", "mapping"),
		)

		result := schema.GenerateMapping(req.InternalKeys, req.RemoteFields, opts)

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(ctx, "mapping_generated", true,
			attribute.Int("mapped_keys", len(result.FinalMapping)),
			attribute.Bool("all_mapped", result.Summary.AllMapped))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.mapped_keys", len(result.FinalMapping)),
			attribute.Float64("response.avg_score", result.Summary.AvgScore),
			attribute.Bool("response.all_mapped", result.Summary.AllMapped),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createExtractHandler wraps the extract handler with observability
func (s *Server) createExtractHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvsync.api")
		ctx, span := tracer.Start(ctx, "api.extract")
		defer span.End()

		var req ExtractRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.DocumentText) == "" {
			err := fmt.Errorf("missing document text")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing document text", "documentText field is required", http.StatusBadRequest)
			return
		}
		if s.MaxRequestSize > 0 && len(req.DocumentText) > int(s.MaxRequestSize) {
			err := fmt.Errorf("document too large: %d chars", len(req.DocumentText))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Document too large",
				fmt.Sprintf("documentText exceeds size limit of %d characters", s.MaxRequestSize), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.document_length", len(req.DocumentText)),
			attribute.String("operation", "extract"),
		)

		// Create extraction service for this request
		extractConfig := s.AppConfig.GetExtractConfig()
		extractService, err := extract.NewService(&extractConfig, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create extraction service", err.Error(), http.StatusInternalServerError)
			return
		}
		defer func() {
			if closeErr := extractService.Close(); closeErr != nil {
				s.Logger.Warn("Failed to close extraction service", "error", closeErr)
			}
		}()

		// Track extraction with observability and token usage
		metrics := om.GetMetrics()
		var profile types.CandidateProfile
		err = metrics.TrackExtraction(ctx, "extract", func(ctx context.Context) *observability.ExtractionResult {
			output, tokenUsage, extractErr := extractService.Provider.ExtractProfile(ctx, req.DocumentText)
			profile = output
			return &observability.ExtractionResult{
				Error:      extractErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		})

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			writeErrorResponse(w, "Failed to extract profile", err.Error(), http.StatusInternalServerError)
			return
		}

		payload := importer.CoerceFields(profile)
		if mapping := s.Mapping.Get(); len(mapping) > 0 {
			payload = remapPayload(payload, mapping)
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("response.dedupe_key", importer.DedupeKey(profile, "")),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ExtractResponse{Profile: profile, Payload: payload}); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// remapPayload renames payload keys using the hot-reloaded schema mapping
func remapPayload(payload map[string]any, mapping map[string]string) map[string]any {
	mapped := make(map[string]any, len(payload))
	for field, value := range payload {
		if remote, ok := mapping[field]; ok && remote != "" {
			mapped[remote] = value
			continue
		}
		mapped[field] = value
	}
	return mapped
}

// validateThresholds checks request-supplied thresholds
func validateThresholds(opts schema.Options) error {
	if opts.AcceptThreshold < 0 || opts.AcceptThreshold > 1 {
		return fmt.Errorf("acceptThreshold must be between 0.0 and 1.0, got %v", opts.AcceptThreshold)
	}
	if opts.AutoApplyThreshold < 0 || opts.AutoApplyThreshold > 1 {
		return fmt.Errorf("autoApplyThreshold must be between 0.0 and 1.0, got %v", opts.AutoApplyThreshold)
	}
	if opts.AutoApplyThreshold < opts.AcceptThreshold {
		return fmt.Errorf("autoApplyThreshold must not be below acceptThreshold")
	}
	return nil
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
