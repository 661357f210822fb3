package extract

import (
	"testing"

	"cvsync/internal/types"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "no fence passthrough",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{}\n```  \n",
			expected: `{}`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.input); got != tt.expected {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDecodeJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  bool
	}{
		{
			name:     "plain object",
			input:    `{"candidateName": "Jane Doe"}`,
			wantName: "Jane Doe",
		},
		{
			name:     "fenced object",
			input:    "```json\n{\"candidateName\": \"Jane Doe\"}\n```",
			wantName: "Jane Doe",
		},
		{
			name:     "prose around object",
			input:    `Here is the data: {"candidateName": "Jane Doe"} hope that helps`,
			wantName: "Jane Doe",
		},
		{
			name:     "braces inside string values",
			input:    `{"candidateName": "Jane {Doe}", "skills": "go"}`,
			wantName: "Jane {Doe}",
		},
		{
			name:    "no json at all",
			input:   "sorry, I cannot help with that",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"candidateName": "Jane Doe"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var profile types.CandidateProfile
			err := DecodeJSONObject(tt.input, &profile)
			if tt.wantErr {
				if err == nil {
					t.Error("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSONObject: %v", err)
			}
			if profile.CandidateName != tt.wantName {
				t.Errorf("candidateName = %q, want %q", profile.CandidateName, tt.wantName)
			}
		})
	}
}
