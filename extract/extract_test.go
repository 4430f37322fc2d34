package extract

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"no fences trims", "  {\"a\":1}\n", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", "[1,2]"},
		{"uppercase tag", "```JSON\n{}\n```", "{}"},
		{"leading prose kept", "here you go ```json\n{}\n```", "here you go {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	v, err := Parse(`{"a":1}`)
	if err != nil {
		t.Fatalf("parsing valid object: %v", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object root, got %T", v)
	}
	if n, ok := obj["a"].(json.Number); !ok || n.String() != "1" {
		t.Fatalf("expected a=1, got %v", obj["a"])
	}

	if _, err := Parse(`[{"a":1}]`); err != nil {
		t.Fatalf("parsing valid array: %v", err)
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"trailing comma", `{"a":1,}`},
		{"prose", "sorry, I cannot do that"},
		{"scalar root", `42`},
		{"string root", `"a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want *FormatError", tt.in)
			}

			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Parse(%q) returned %T, want *FormatError", tt.in, err)
			}
		})
	}
}

func TestStripThenParseRoundTrip(t *testing.T) {
	v, err := Parse(StripFences("```json\n{\"a\":1}\n```"))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if _, ok := v.(map[string]any); !ok {
		t.Fatalf("expected object, got %T", v)
	}
}
