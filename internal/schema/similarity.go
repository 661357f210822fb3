package schema

import "strings"

// Similarity computes a symmetric longest-matching-subsequence ratio between
// two normalized names. 1.0 means identical, 0.0 means no characters in
// common. The measure is 2*M/T where M is the total size of the matching
// blocks and T the combined length of both inputs.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matches := matchingRunes(ra, rb)
	return 2 * float64(matches) / float64(total)
}

// matchingRunes counts characters covered by matching blocks: it finds the
// longest common block, then recurses on the pieces to its left and right.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return matchingRunes(a[:i], b[:j]) + size + matchingRunes(a[i+size:], b[j+size:])
}

// longestMatch locates the longest block common to a and b. Ties resolve to
// the earliest block in a, keeping the recursion deterministic.
func longestMatch(a, b []rune) (besti, bestj, bestsize int) {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	j2len := make(map[int]int)
	for i, r := range a {
		newj2len := make(map[int]int)
		for _, j := range b2j[r] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}

// Domain synonym groups. Differently-named columns frequently denote the
// same concept (phone vs mobile, email vs contact), so a trigger contributes
// its bonus when it appears in the internal key and any member of its group
// appears in the remote field name.
var (
	contactChannelGroup = []string{"email", "contact"}
	phoneGroup          = []string{"phone", "mobile"}
	skillGroup          = []string{"skill", "skillset"}
	experienceGroup     = []string{"experience", "year", "yrs"}
	salaryGroup         = []string{"salary", "pay", "amount"}
)

// keywordTriggers is the fixed bonus table. Bonuses accumulate across
// triggers; callers clamp the combined score where it is used as
// authoritative.
var keywordTriggers = []struct {
	trigger string
	bonus   float64
	group   []string
}{
	{"email", 0.25, contactChannelGroup},
	{"phone", 0.25, phoneGroup},
	{"mobile", 0.25, phoneGroup},
	{"contact", 0.20, contactChannelGroup},
	{"skill", 0.20, skillGroup},
	{"skillset", 0.20, skillGroup},
	{"year", 0.20, experienceGroup},
	{"yrs", 0.18, experienceGroup},
	{"experience", 0.20, experienceGroup},
	{"salary", 0.20, salaryGroup},
	{"pay", 0.15, salaryGroup},
	{"amount", 0.12, salaryGroup},
}

// KeywordBonus returns the accumulated synonym bonus for a pair of raw
// (un-normalized) names.
func KeywordBonus(internal, remote string) float64 {
	internalLower := strings.ToLower(internal)
	remoteLower := strings.ToLower(remote)

	var bonus float64
	for _, kw := range keywordTriggers {
		if !strings.Contains(internalLower, kw.trigger) {
			continue
		}
		if containsAnyOf(remoteLower, kw.group) {
			bonus += kw.bonus
		}
	}
	return bonus
}

func containsAnyOf(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
