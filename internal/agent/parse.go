package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse indicates the model's tool selection could not be understood.
var ErrParse = errors.New("unparsable tool selection")

// ParseError carries the raw model output that failed to parse.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s", ErrParse, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Selection is a parsed tool-call intent.
type Selection struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// ParseSelection extracts a tool selection from model output. The whole text is
// tried as JSON first; failing that, each balanced {...} block in order, and the
// first that holds an object with a non-empty "tool" wins. Objects nested inside a
// well-formed JSON object are never candidates. Parameters may be given under
// "parameters" or "arguments" and must be an object when present.
func ParseSelection(text string) (Selection, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Selection{}, &ParseError{Raw: text, Reason: "empty response"}
	}

	sel, reason := decodeSelection(trimmed)
	if reason == "" {
		return sel, nil
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		from := start + 1
		if end := closingBrace(text, start); end > start {
			s, r := decodeSelection(text[start : end+1])
			if r == "" {
				return s, nil
			}
			if r != reasonNotObject {
				// report the first object that looked like a selection
				if reason == reasonNotObject {
					reason = r
				}
				from = end + 1
			}
		}
		next := strings.IndexByte(text[from:], '{')
		if next < 0 {
			break
		}
		start = from + next
	}

	if reason == reasonNotObject {
		reason = "no JSON object with a \"tool\" field found"
	}
	return Selection{}, &ParseError{Raw: text, Reason: reason}
}

const reasonNotObject = "not a JSON object"

// decodeSelection returns the selection in s, or a non-empty reason.
func decodeSelection(s string) (Selection, string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Selection{}, reasonNotObject
	}

	toolRaw, ok := raw["tool"]
	if !ok {
		return Selection{}, "missing \"tool\" field"
	}
	var tool string
	if err := json.Unmarshal(toolRaw, &tool); err != nil {
		return Selection{}, "\"tool\" must be a string"
	}
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return Selection{}, "\"tool\" is empty"
	}

	params, ok := raw["parameters"]
	if !ok {
		params = raw["arguments"]
	}
	sel := Selection{Tool: tool, Parameters: map[string]any{}}
	if len(params) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		return sel, ""
	}
	if err := json.Unmarshal(params, &sel.Parameters); err != nil {
		return Selection{}, "parameters must be a JSON object"
	}
	if sel.Parameters == nil {
		sel.Parameters = map[string]any{}
	}
	return sel, ""
}

// closingBrace returns the index of the brace closing the one at start, skipping
// braces inside JSON strings, or -1.
func closingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
