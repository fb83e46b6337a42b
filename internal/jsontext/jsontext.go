// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jsontext narrows model output down to the JSON array it carries.
package jsontext

import (
	"encoding/json"
	"regexp"
	"strings"
)

// EmptyArray is returned for empty input.
const EmptyArray = "[]"

// fencePattern matches the first fenced block, optionally tagged json.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractArray returns the substring of text most likely to parse as a
// single JSON array. It tries, in order: the trimmed interior of the first
// fenced block; the span from the first '[' to the last ']'; the trimmed
// text. It does not parse anything, so callers still validate the result.
func ExtractArray(text string) string {
	if strings.TrimSpace(text) == "" {
		return EmptyArray
	}

	if m := fencePattern.FindStringSubmatch(text); m != nil && m[1] != "" {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		return text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// DecodeObjects extracts the array from text and decodes each element on
// its own. Elements that are not JSON objects come back as nil maps, so
// callers can treat them as absent by position. The error is non-nil only
// when the extracted text is not a JSON array.
func DecodeObjects(text string) ([]map[string]any, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(ExtractArray(text)), &raw); err != nil {
		return nil, err
	}

	items := make([]map[string]any, len(raw))
	for i, r := range raw {
		var item map[string]any
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		items[i] = item
	}
	return items, nil
}
