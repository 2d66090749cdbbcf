package parse

import (
	"encoding/json"
	"strings"
)

// extractCandidates pulls the most plausible JSON value out of raw
// collaborator text. The strategies form an ordered chain: whole-input parse,
// fenced code block, balanced-bracket scan. The first strategy producing
// valid JSON wins; a map result is unwrapped through its "jobs" key.
func extractCandidates(raw string) ([]any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	strategies := []func(string) (any, bool){
		parseDirect,
		parseFencedBlock,
		parseBalancedBracket,
	}

	for _, strategy := range strategies {
		value, ok := strategy(raw)
		if !ok {
			continue
		}
		if items, ok := unwrapJobs(value); ok {
			return items, true
		}
	}

	return nil, false
}

// parseDirect treats the whole trimmed input as JSON.
func parseDirect(raw string) (any, bool) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false
	}
	return value, true
}

// parseFencedBlock locates the first ``` fence, skips an optional language
// tag, and parses the block contents.
func parseFencedBlock(raw string) (any, bool) {
	start := strings.Index(raw, "```")
	if start == -1 {
		return nil, false
	}
	rest := raw[start+3:]

	// An optional language tag ends at the first newline.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isLanguageTag(tag) {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end == -1 {
		end = len(rest)
	}

	return parseDirect(strings.TrimSpace(rest[:end]))
}

func isLanguageTag(tag string) bool {
	if len(tag) > 10 {
		return false
	}
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// parseBalancedBracket scans for the first top-level bracket and parses the
// substring up to its balanced match. Strings and escapes are honored so
// brackets inside values do not end the scan early.
func parseBalancedBracket(raw string) (any, bool) {
	start := strings.IndexAny(raw, "[{")
	if start == -1 {
		return nil, false
	}

	open := raw[start]
	var closer byte = ']'
	if open == '{' {
		closer = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return parseDirect(raw[start : i+1])
			}
		}
	}

	return nil, false
}

// unwrapJobs accepts either a bare array or an object wrapping an array under
// a "jobs" key.
func unwrapJobs(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case map[string]any:
		if items, ok := v["jobs"].([]any); ok {
			return items, true
		}
	}
	return nil, false
}
