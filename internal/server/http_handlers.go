package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"cvsync/internal/extract"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "cvsync",
		"version": s.Version,
	}

	// Check AI model availability for the extract operation
	aiStatus := s.checkAIModelHealth()
	response["ai_models"] = aiStatus

	// Report store mode so operators can spot a mock-mode deployment
	response["store"] = map[string]any{
		"mock_mode": s.AppConfig.Store.MockMode,
		"table":     s.AppConfig.Store.Table,
	}

	// Report mapping watcher state
	response["mapping"] = s.mappingStatus()

	// Determine overall health status
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		switch info := modelStatus.(type) {
		case *extract.ModelInfo:
			if !info.Available {
				overallHealthy = false
			}
		case map[string]any:
			if avail, ok := info["available"].(bool); ok && !avail {
				overallHealthy = false
			}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelHealth checks the health of the extraction model
func (s *Server) checkAIModelHealth() map[string]any {
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)

	extractConfig := s.AppConfig.GetExtractConfig()
	if extractService, err := extract.NewService(&extractConfig, s.Logger); err == nil {
		aiStatus["extract"] = extractService.GetModelInfo(ctx)
		if closeErr := extractService.Close(); closeErr != nil {
			s.Logger.Warn("Failed to close extraction service", "error", closeErr)
		}
	} else {
		aiStatus["extract"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create extraction service: %v", err),
		}
	}

	return aiStatus
}

// mappingStatus reports the state of the schema mapping override
func (s *Server) mappingStatus() map[string]any {
	status := map[string]any{
		"file":    s.AppConfig.Mapper.MappingFile,
		"entries": len(s.Mapping.Get()),
	}
	if s.mappingWatcher != nil {
		status["watcher_running"] = s.mappingWatcher.IsRunning()
	} else {
		status["watcher_running"] = false
	}
	return status
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "cvsync",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// versionHandler reports the service version
func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]string{
		"service": "cvsync",
		"version": s.Version,
	})
	if err != nil {
		log.Printf("Failed to encode version response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
