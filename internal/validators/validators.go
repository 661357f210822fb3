package validators

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneStripper = regexp.MustCompile(`[^\d+]`)
	digitRun      = regexp.MustCompile(`\d+`)
	skillSplitter = regexp.MustCompile(`[,;\n]`)
)

// NormalizeEmail lowercases and trims an email address. Anything that does
// not look like local@domain.tld collapses to the empty string.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if emailPattern.MatchString(email) {
		return email
	}
	return ""
}

// IsValidEmail reports whether the address survives normalization.
func IsValidEmail(email string) bool {
	return NormalizeEmail(email) != ""
}

// NormalizePhone keeps only digits and plus signs, so "+1 (555) 010-2030"
// becomes "+15550102030".
func NormalizePhone(phone string) string {
	return phoneStripper.ReplaceAllString(phone, "")
}

// NormalizeSkills splits a free-text skill blob on commas, semicolons and
// newlines, lowercases each entry and rejoins with ", ". Empty entries are
// dropped.
func NormalizeSkills(skills string) string {
	return joinSkills(skillSplitter.Split(skills, -1))
}

// NormalizeSkillList normalizes an already-split skill list the same way
// NormalizeSkills treats free text.
func NormalizeSkillList(skills []string) string {
	return joinSkills(skills)
}

func joinSkills(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// ToInt parses an integer out of loosely formatted input. A clean integer
// string parses directly; otherwise the first digit run is used, so "5 years"
// yields 5. Input with no digits yields the fallback.
func ToInt(value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if run := digitRun.FindString(value); run != "" {
		if n, err := strconv.Atoi(run); err == nil {
			return n
		}
	}
	return fallback
}
