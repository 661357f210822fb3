package schema

// Options configures mapping generation thresholds.
//
// AcceptThreshold is the minimum (inclusive) confidence for a suggestion to
// enter the final mapping. AutoApplyThreshold is a configuration surface for
// a stricter apply-without-review policy layered by callers; generation
// accepts and carries it but does not consult it.
type Options struct {
	AutoApplyThreshold float64 `json:"autoApplyThreshold"`
	AcceptThreshold    float64 `json:"acceptThreshold"`
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		AutoApplyThreshold: 0.85,
		AcceptThreshold:    0.65,
	}
}

// Summary aggregates confidence across all suggestions, including zeroed
// conflicts and true non-matches.
type Summary struct {
	MinScore  float64 `json:"minScore"`
	AvgScore  float64 `json:"avgScore"`
	AllMapped bool    `json:"allMapped"`
}

// Result is the outcome of one mapping generation run. Keys preserves the
// caller's internal-key order for deterministic iteration over Suggestions.
type Result struct {
	Keys         []string                  `json:"keys"`
	Suggestions  map[string]CandidateMatch `json:"suggestions"`
	FinalMapping map[string]string         `json:"finalMapping"`
	Summary      Summary                   `json:"summary"`
}

// fieldClaim records one internal key's claim on a remote field during
// collision resolution.
type fieldClaim struct {
	key   string
	score float64
}

// GenerateMapping reconciles the internal key vocabulary against the remote
// field names. It never fails: missing or ambiguous matches are encoded in
// the result, and the function is pure so identical inputs always produce
// identical output.
//
// Collision resolution keeps, for each remote field claimed by several keys,
// only the claim with the strictly highest score; on exactly equal scores
// the key seen first in internalKeys order survives. Losers keep their
// suggestion entry but with an empty field, zero score and method "conflict"
// (no fallback to a second-best remote field).
func GenerateMapping(internalKeys, remoteFields []string, opts Options) Result {
	keys := make([]string, 0, len(internalKeys))
	suggestions := make(map[string]CandidateMatch, len(internalKeys))
	for _, ik := range internalKeys {
		if _, seen := suggestions[ik]; !seen {
			keys = append(keys, ik)
		}
		suggestions[ik] = FindBestCandidate(ik, remoteFields)
	}

	resolveCollisions(keys, suggestions)

	finalMapping := make(map[string]string)
	var scoreSum float64
	minScore := 0.0
	// Vacuously true with no keys; every key that misses the floor (or loses
	// a collision) falsifies it.
	allMapped := true
	for i, ik := range keys {
		match := suggestions[ik]
		scoreSum += match.Score
		if i == 0 || match.Score < minScore {
			minScore = match.Score
		}
		if match.Field != "" && match.Score >= opts.AcceptThreshold {
			finalMapping[ik] = match.Field
		} else {
			allMapped = false
		}
	}

	avgScore := 0.0
	if len(keys) > 0 {
		avgScore = round3(scoreSum / float64(len(keys)))
	}

	return Result{
		Keys:         keys,
		Suggestions:  suggestions,
		FinalMapping: finalMapping,
		Summary: Summary{
			MinScore:  minScore,
			AvgScore:  avgScore,
			AllMapped: allMapped,
		},
	}
}

// resolveCollisions enforces that each remote field survives in at most one
// suggestion. Grouping iterates keys in their original order, so tie-breaks
// are deterministic and independent of map iteration.
func resolveCollisions(keys []string, suggestions map[string]CandidateMatch) {
	claimOrder := make([]string, 0, len(keys))
	claims := make(map[string][]fieldClaim)
	for _, ik := range keys {
		match := suggestions[ik]
		if match.Field == "" {
			continue
		}
		if _, seen := claims[match.Field]; !seen {
			claimOrder = append(claimOrder, match.Field)
		}
		claims[match.Field] = append(claims[match.Field], fieldClaim{key: ik, score: match.Score})
	}

	for _, field := range claimOrder {
		contenders := claims[field]
		if len(contenders) <= 1 {
			continue
		}
		winner := 0
		for i := 1; i < len(contenders); i++ {
			if contenders[i].score > contenders[winner].score {
				winner = i
			}
		}
		for i, claim := range contenders {
			if i == winner {
				continue
			}
			suggestions[claim.key] = CandidateMatch{Field: "", Score: 0.0, Method: MethodConflict}
		}
	}
}
