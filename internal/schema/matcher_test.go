package schema

import "testing"

func TestFindBestCandidate(t *testing.T) {
	tests := []struct {
		name           string
		internal       string
		remoteFields   []string
		expectedField  string
		expectedMethod string
		expectedScore  float64 // checked when >= 0
	}{
		{
			name:           "exact beats normalized and fuzzy",
			internal:       "Email",
			remoteFields:   []string{"email", "Email Address"},
			expectedField:  "email",
			expectedMethod: MethodExact,
			expectedScore:  1.0,
		},
		{
			name:           "exact first occurrence wins",
			internal:       "Status",
			remoteFields:   []string{"STATUS", "status"},
			expectedField:  "STATUS",
			expectedMethod: MethodExact,
			expectedScore:  1.0,
		},
		{
			name:           "normalized match strips spaces and case",
			internal:       "Exp Years",
			remoteFields:   []string{"ExpYears"},
			expectedField:  "ExpYears",
			expectedMethod: MethodNormalized,
			expectedScore:  0.98,
		},
		{
			name:           "empty normalized forms never match",
			internal:       "---",
			remoteFields:   []string{"___"},
			expectedField:  "",
			expectedMethod: MethodNone,
			expectedScore:  0.0,
		},
		{
			name:           "keyword synonym boost picks related column",
			internal:       "Phone",
			remoteFields:   []string{"Contact Mobile", "Random Field"},
			expectedField:  "Contact Mobile",
			expectedMethod: MethodKeyword,
			expectedScore:  -1,
		},
		{
			name:           "keyword token containment",
			internal:       "Candidate Name",
			remoteFields:   []string{"Name", "Department"},
			expectedField:  "Name",
			expectedMethod: MethodKeyword,
			expectedScore:  -1,
		},
		{
			name:           "fuzzy fallback when no token overlaps",
			internal:       "Role",
			remoteFields:   []string{"Position Held"},
			expectedField:  "Position Held",
			expectedMethod: MethodFuzzy,
			expectedScore:  -1,
		},
		{
			name:           "no match when nothing is shared",
			internal:       "abc",
			remoteFields:   []string{"xyz"},
			expectedField:  "",
			expectedMethod: MethodNone,
			expectedScore:  0.0,
		},
		{
			name:           "empty remote field list",
			internal:       "Email",
			remoteFields:   nil,
			expectedField:  "",
			expectedMethod: MethodNone,
			expectedScore:  0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindBestCandidate(tt.internal, tt.remoteFields)
			if got.Field != tt.expectedField {
				t.Errorf("field = %q, want %q", got.Field, tt.expectedField)
			}
			if got.Method != tt.expectedMethod {
				t.Errorf("method = %q, want %q", got.Method, tt.expectedMethod)
			}
			if tt.expectedScore >= 0 && got.Score != tt.expectedScore {
				t.Errorf("score = %v, want %v", got.Score, tt.expectedScore)
			}
		})
	}
}

// The zero-value relationships callers rely on: an empty method always comes
// with an empty field and zero score, and an exact method always scores 1.0.
func TestCandidateMatchConsistency(t *testing.T) {
	internals := []string{"Email", "Phone", "Skills", "Exp Years", "---", "zzz", "Candidate Name"}
	remotes := []string{"email", "Contact Mobile", "Skillset", "Years of Experience", "Name"}

	for _, ik := range internals {
		match := FindBestCandidate(ik, remotes)

		noMethod := match.Method == MethodNone
		noField := match.Field == ""
		zeroScore := match.Score == 0.0
		if noMethod != noField || noField != zeroScore {
			t.Errorf("inconsistent no-match for %q: %+v", ik, match)
		}
		if match.Method == MethodExact && match.Score != 1.0 {
			t.Errorf("exact match for %q must score 1.0, got %v", ik, match.Score)
		}
		if match.Score < 0 || match.Score > 1 {
			t.Errorf("score for %q out of [0,1]: %v", ik, match.Score)
		}
	}
}

func TestKeywordBeatsFuzzyBaseline(t *testing.T) {
	// The synonym boost must lift "Contact Mobile" above its raw similarity.
	match := FindBestCandidate("Phone", []string{"Contact Mobile", "Random Field"})
	baseline := Similarity(Normalize("Phone"), Normalize("Contact Mobile"))
	if match.Score <= baseline {
		t.Errorf("boosted score %v not above fuzzy baseline %v", match.Score, baseline)
	}
}

func BenchmarkFindBestCandidate(b *testing.B) {
	remotes := []string{
		"Full Name", "Email Address", "Contact Mobile", "Skillset",
		"Years of Experience", "Expected Pay", "Current City", "Notice Period",
	}
	for b.Loop() {
		FindBestCandidate("Candidate Name", remotes)
	}
}
