package gemini

import (
	"fmt"
	"strings"
)

// extractJSON pulls a JSON array or object out of a free-text model
// response. Fenced code blocks are stripped first; if the remainder
// still isn't bare JSON, the first balanced bracket or brace substring
// wins.
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(stripFences(raw))
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	if text[0] == '[' || text[0] == '{' {
		if candidate := balancedFrom(text, 0); candidate != "" {
			return candidate, nil
		}
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		if candidate := balancedFrom(text, i); candidate != "" {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no json payload in model response")
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the language tag line (```json).
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return text
}

// balancedFrom returns the substring starting at start up to the
// matching close bracket, skipping brackets inside string literals.
func balancedFrom(text string, start int) string {
	open := text[start]
	var close byte
	switch open {
	case '[':
		close = ']'
	case '{':
		close = '}'
	default:
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
