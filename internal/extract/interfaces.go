package extract

import (
	"context"

	"cvsync/internal/types"
)

// Provider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type Provider interface {
	ExtractProfile(ctx context.Context, resumeText string) (types.CandidateProfile, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
