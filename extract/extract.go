// Package extract cleans up model output before it is trusted as JSON.
// Chat models frequently wrap their answers in markdown code fences even
// when told not to, so everything coming back from the AI provider goes
// through StripFences and Parse before any field is read.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatError reports text that could not be turned into structured data.
// It keeps the underlying parse error so callers can surface it.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("response is not valid JSON: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// StripFences removes markdown code-fence markers, language-tagged
// (```json) or bare (```), and trims surrounding whitespace. Text without
// fences passes through unchanged apart from the trim. Empty input yields
// the empty string.
func StripFences(raw string) string {
	if raw == "" {
		return ""
	}

	s := raw
	for _, marker := range []string{"```json", "```JSON", "```Json"} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

// Parse decodes cleaned text into a generic value. It fails with a
// *FormatError when the text is not valid JSON or when the root is a
// scalar rather than an object or array.
func Parse(cleaned string) (any, error) {
	if cleaned == "" {
		return nil, &FormatError{Err: fmt.Errorf("empty input")}
	}

	var v any
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, &FormatError{Err: err}
	}

	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	default:
		return nil, &FormatError{Err: fmt.Errorf("root is not an object or array")}
	}
}
