package weberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestResponseSurvivesWrapping(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("handling request: %w", NotFound(base))

	body, status, ok := Response(err)
	if !ok {
		t.Fatal("wrapped error lost its response")
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}

	er, ok := body.(*ErrorResponse)
	if !ok {
		t.Fatalf("body type = %T", body)
	}
	if er.Error == "" {
		t.Error("response message is empty")
	}

	if !errors.Is(err, base) {
		t.Error("wrapping broke the error chain")
	}
}

func TestWithFields(t *testing.T) {
	err := Wrap(errors.New("boom"), WithFields(map[string]interface{}{"course_id": "abc"}))

	fields, ok := Fields(err)
	if !ok {
		t.Fatal("fields not found")
	}
	if fields["course_id"] != "abc" {
		t.Errorf("fields = %v", fields)
	}
}

func TestCustomResponseBody(t *testing.T) {
	type failure struct {
		Error        string `json:"error"`
		ChapterIndex int    `json:"chapterIndex"`
	}

	err := Wrap(errors.New("boom"), WithResponse(&failure{"bad chapter", 2}, http.StatusBadGateway))

	body, status, ok := Response(err)
	if !ok {
		t.Fatal("response not found")
	}
	if status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", status)
	}
	if f := body.(*failure); f.ChapterIndex != 2 {
		t.Errorf("body = %+v", f)
	}
}
