package schema

import (
	"math"
	"strings"
)

// Match methods, in precedence order. An empty method signals no usable
// candidate; "conflict" marks a candidate discarded during collision
// resolution.
const (
	MethodExact      = "exact"
	MethodNormalized = "normalized"
	MethodKeyword    = "keyword"
	MethodFuzzy      = "fuzzy"
	MethodConflict   = "conflict"
	MethodNone       = ""
)

// CandidateMatch is the best remote field found for one internal key.
// Field is empty and Score zero when no candidate was usable.
type CandidateMatch struct {
	Field  string  `json:"field"`
	Score  float64 `json:"score"`
	Method string  `json:"method"`
}

// matcher is one strategy in the selection chain. It reports whether it
// produced a match; strategies are evaluated in fixed priority order and the
// first success wins.
type matcher interface {
	tryMatch(internal string, remoteFields []string) (CandidateMatch, bool)
}

// matcherChain is the fixed strategy order: exact, normalized, keyword,
// fuzzy.
var matcherChain = []matcher{
	exactMatcher{},
	normalizedMatcher{},
	keywordMatcher{},
	fuzzyMatcher{},
}

// FindBestCandidate selects the best remote field for an internal key. With
// no remote fields, or when every strategy comes up empty, it returns the
// zero match rather than an error.
func FindBestCandidate(internal string, remoteFields []string) CandidateMatch {
	for _, m := range matcherChain {
		if match, ok := m.tryMatch(internal, remoteFields); ok {
			match.Score = round3(match.Score)
			return match
		}
	}
	return CandidateMatch{Field: "", Score: 0.0, Method: MethodNone}
}

// exactMatcher matches on case-insensitive equality. First occurrence in
// input order wins.
type exactMatcher struct{}

func (exactMatcher) tryMatch(internal string, remoteFields []string) (CandidateMatch, bool) {
	internalLower := strings.ToLower(internal)
	for _, rf := range remoteFields {
		if strings.ToLower(rf) == internalLower {
			return CandidateMatch{Field: rf, Score: 1.0, Method: MethodExact}, true
		}
	}
	return CandidateMatch{}, false
}

// normalizedMatcher matches on equal normalized forms. An empty normalized
// form (all-punctuation names) never matches.
type normalizedMatcher struct{}

func (normalizedMatcher) tryMatch(internal string, remoteFields []string) (CandidateMatch, bool) {
	internalNorm := Normalize(internal)
	for _, rf := range remoteFields {
		if rn := Normalize(rf); rn == internalNorm && rn != "" {
			return CandidateMatch{Field: rf, Score: 0.98, Method: MethodNormalized}, true
		}
	}
	return CandidateMatch{}, false
}

// keywordMatcher considers only remote fields sharing a whitespace token
// with the internal key, or carrying a synonym-group bonus against it. Each
// candidate scores similarity plus keyword bonus, capped at 1.0. Ties keep
// the earliest candidate in input order.
type keywordMatcher struct{}

func (keywordMatcher) tryMatch(internal string, remoteFields []string) (CandidateMatch, bool) {
	tokens := strings.Fields(strings.ToLower(internal))
	internalNorm := Normalize(internal)

	best := CandidateMatch{}
	found := false
	for _, rf := range remoteFields {
		bonus := KeywordBonus(internal, rf)
		if bonus == 0 && !containsAnyToken(strings.ToLower(rf), tokens) {
			continue
		}
		score := min(1.0, Similarity(internalNorm, Normalize(rf))+bonus)
		if !found || score > best.Score {
			best = CandidateMatch{Field: rf, Score: score, Method: MethodKeyword}
			found = true
		}
	}
	return best, found
}

// fuzzyMatcher is the fallback: similarity plus keyword bonus over every
// remote field, uncapped during comparison. Only a strictly positive best
// score counts as a match; the reported score is clamped back into [0,1].
type fuzzyMatcher struct{}

func (fuzzyMatcher) tryMatch(internal string, remoteFields []string) (CandidateMatch, bool) {
	internalNorm := Normalize(internal)

	bestField := ""
	bestScore := 0.0
	for _, rf := range remoteFields {
		remoteNorm := Normalize(rf)
		score := KeywordBonus(internal, rf)
		// An empty normalized form carries no signal; two all-punctuation
		// names are not similar, mirroring the normalized-stage guard.
		if internalNorm != "" || remoteNorm != "" {
			score += Similarity(internalNorm, remoteNorm)
		}
		if score > bestScore {
			bestField = rf
			bestScore = score
		}
	}
	if bestScore <= 0 {
		return CandidateMatch{}, false
	}
	return CandidateMatch{Field: bestField, Score: min(1.0, bestScore), Method: MethodFuzzy}, true
}

func containsAnyToken(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// round3 rounds a score to three decimals, the precision reported in results.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
