package extract

import (
	"encoding/json"
	"strings"
)

// StripCodeFences removes a leading ```json (or bare ```) fence and a
// trailing ``` fence from model output. Content without fences passes
// through trimmed.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if rest, ok := strings.CutPrefix(s, "json"); ok {
			s = rest
		} else if rest, ok := strings.CutPrefix(s, "JSON"); ok {
			s = rest
		}
		s = strings.TrimLeft(s, " \t\r\n")
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimRight(s[:len(s)-3], " \t\r\n")
	}

	return strings.TrimSpace(s)
}

// DecodeJSONObject unmarshals the first balanced JSON object found in text
// into out. Models occasionally wrap the object in prose or fences; scanning
// for the first balanced {...} recovers it. Falls back to decoding the whole
// text when no balanced candidate parses.
func DecodeJSONObject(text string, out any) error {
	cleaned := StripCodeFences(text)

	start := strings.IndexByte(cleaned, '{')
	if start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(cleaned); i++ {
			ch := cleaned[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := cleaned[start : i+1]
					if err := json.Unmarshal([]byte(candidate), out); err == nil {
						return nil
					}
				}
			}
		}
	}

	return json.Unmarshal([]byte(cleaned), out)
}
