package schema

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical strings",
			a:        "email",
			b:        "email",
			expected: 1.0,
		},
		{
			name:     "disjoint strings",
			a:        "abc",
			b:        "xyz",
			expected: 0.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "one empty",
			a:        "email",
			b:        "",
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			a:        "fullname",
			b:        "name",
			expected: 2.0 * 4 / 12,
		},
		{
			name:     "single shared block",
			a:        "phone",
			b:        "phonenumber",
			expected: 2.0 * 5 / 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"candidatename", "name"},
		{"expyears", "yearsofexperience"},
		{"salary", "payamount"},
		{"", "phone"},
	}

	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Similarity not symmetric for (%q, %q): %v vs %v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q, %q) = %v, out of [0,1]", p[0], p[1], ab)
		}
	}
}

func TestKeywordBonus(t *testing.T) {
	tests := []struct {
		name     string
		internal string
		remote   string
		expected float64
	}{
		{
			name:     "email trigger on both sides",
			internal: "Email",
			remote:   "Email Address",
			expected: 0.25,
		},
		{
			name:     "phone matched through mobile synonym",
			internal: "Phone",
			remote:   "Contact Mobile",
			expected: 0.25,
		},
		{
			name:     "mobile matched through phone synonym",
			internal: "Mobile No",
			remote:   "Phone Number",
			expected: 0.25,
		},
		{
			name:     "accumulating triggers",
			internal: "Exp Years Experience",
			remote:   "Years of Experience",
			expected: 0.20 + 0.20,
		},
		{
			name:     "salary against pay amount",
			internal: "Salary",
			remote:   "Pay Amount",
			expected: 0.20,
		},
		{
			name:     "no shared concept",
			internal: "Status",
			remote:   "Job Role",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeywordBonus(tt.internal, tt.remote)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("KeywordBonus(%q, %q) = %v, want %v", tt.internal, tt.remote, got, tt.expected)
			}
		})
	}
}

func BenchmarkSimilarity(b *testing.B) {
	for b.Loop() {
		Similarity("candidatename", "fullcandidatename")
	}
}
