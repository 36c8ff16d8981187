package studyai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// jsonArrayBlockPattern matches JSON arrays inside markdown code blocks.
	jsonArrayBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*?\\])\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// jsonArrayCandidates returns the JSON arrays found in free text in the order
// they appear, with fenced code blocks first.
func jsonArrayCandidates(content string) []string {
	var candidates []string
	for _, m := range jsonArrayBlockPattern.FindAllStringSubmatch(content, -1) {
		if c := cleanArray(m[1]); c != "" {
			candidates = append(candidates, c)
		}
	}

	for i := strings.IndexByte(content, '['); i >= 0; {
		dec := json.NewDecoder(strings.NewReader(content[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			candidates = append(candidates, string(raw))
		} else if end := strings.LastIndexByte(content, ']'); end > i {
			// LLMs often leave trailing commas.
			if c := cleanArray(content[i : end+1]); c != "" {
				candidates = append(candidates, c)
			}
		}
		next := strings.IndexByte(content[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return candidates
}

func cleanArray(raw string) string {
	cleaned := trailingCommaPattern.ReplaceAllString(raw, "$1")
	if !json.Valid([]byte(cleaned)) {
		return ""
	}
	return cleaned
}

// decodeItems decodes structured output into items, keeping those valid reports
// as complete. A constrained response arrives as an object holding the array
// under field; anything else is searched for a bracket-delimited array.
func decodeItems[T any](content, field string, valid func(T) bool) ([]T, error) {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		if raw, ok := wrapped[field]; ok {
			if items := decodeValid(raw, valid); len(items) > 0 {
				return items, nil
			}
		}
	}

	for _, candidate := range jsonArrayCandidates(content) {
		if items := decodeValid(json.RawMessage(candidate), valid); len(items) > 0 {
			return items, nil
		}
	}
	return nil, ErrMalformedResponse
}

func decodeValid[T any](raw json.RawMessage, valid func(T) bool) []T {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	kept := items[:0]
	for _, item := range items {
		if valid(item) {
			kept = append(kept, item)
		}
	}
	return kept
}
