package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// ParseStructured extracts a JSON object from arbitrary model text. Models
// wrap their answers in prose, code fences, or double-encode them, so
// extraction cascades through increasingly forgiving strategies and the
// first success wins:
//
//  1. the whole text as JSON (unwrapping a double-encoded string result)
//  2. the inside of a fenced code block
//  3. the substring from the first "{" to the last "}", with a
//     jsonrepair pass as the last chance
//
// A nil return means no structured data was found. That is not an error:
// prose-only answers are a normal outcome for read-only actions.
func ParseStructured(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if obj := tryParseObject(raw); obj != nil {
		return obj
	}

	if inner, ok := fencedBlock(raw); ok {
		if obj := tryParseObject(inner); obj != nil {
			return obj
		}
	}

	if span, ok := braceSpan(raw); ok {
		if obj := tryParseObject(span); obj != nil {
			return obj
		}
		// The span often fails on LLM quirks (trailing commas, comments,
		// single quotes). Run it through jsonrepair before giving up.
		if repaired, err := jsonrepair.JSONRepair(span); err == nil {
			if obj := tryParseObject(repaired); obj != nil {
				log.Debug().
					Int("original_bytes", len(span)).
					Int("repaired_bytes", len(repaired)).
					Msg("Recovered structured output via JSON repair")
				return obj
			}
		}
	}

	return nil
}

// tryParseObject parses candidate as JSON and returns it only when it
// yields a plain object. A string result is parsed once more to detect a
// double-encoded response. Arrays and scalars yield nil.
func tryParseObject(candidate string) map[string]any {
	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil
	}
	if inner, ok := parsed.(string); ok {
		if err := json.Unmarshal([]byte(inner), &parsed); err != nil {
			return nil
		}
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil
	}
	return obj
}

// fencedBlock returns the content of the first ``` fence, tolerating an
// optional language tag on the opening line.
func fencedBlock(raw string) (string, bool) {
	open := strings.Index(raw, "```")
	if open < 0 {
		return "", false
	}
	rest := raw[open+3:]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		// Skip a tag like "json" on the fence line.
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{}") {
			rest = rest[nl+1:]
		}
	}
	closing := strings.Index(rest, "```")
	if closing < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:closing]), true
}

// braceSpan returns the substring from the first "{" to the last "}".
func braceSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
