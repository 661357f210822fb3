package schema

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase passthrough",
			input:    "email",
			expected: "email",
		},
		{
			name:     "mixed case",
			input:    "Candidate Name",
			expected: "candidatename",
		},
		{
			name:     "underscores and punctuation stripped",
			input:    "Exp_Years (total)",
			expected: "expyearstotal",
		},
		{
			name:     "digits kept",
			input:    "Phone 2",
			expected: "phone2",
		},
		{
			name:     "all punctuation collapses to empty",
			input:    "-- __ !!",
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "unicode letters kept",
			input:    "Résumé URL",
			expected: "résuméurl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func BenchmarkNormalize(b *testing.B) {
	for b.Loop() {
		Normalize("Candidate Name (Primary Contact)")
	}
}
