// Package jsonx decodes JSON payloads embedded in generative model
// responses. Models wrap JSON in prose or markdown fences often enough
// that every call site goes through ExtractObject first.
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNoObject = errors.New("no JSON object found in response")

// ExtractObject returns the first top-level JSON object embedded in
// raw text, tolerating markdown code fences and surrounding prose.
func ExtractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	// Strip a ```json ... ``` fence if present.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return "", errNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
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
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoObject
}

// DecodeStrict extracts the embedded object and decodes it into v,
// rejecting unknown fields so a shape drift in the model's output is
// caught instead of silently half-filling the value.
func DecodeStrict(raw string, v interface{}) error {
	obj, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Decode extracts the embedded object and decodes it into v, allowing
// unknown fields. Used where the model may legitimately add extras.
func Decode(raw string, v interface{}) error {
	obj, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(obj), v)
}
