// Package outline turns a free-text course description into a normalized
// course layout by way of the AI provider. Nothing here persists; the
// caller stores the outline as part of course creation.
package outline

import (
	"context"
	"fmt"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/core/course"
	"github.com/learnforge/coursegen/extract"
)

// promptSuffix is appended to every layout prompt. It reduces, but does
// not guarantee, formatting drift; normalization below handles the rest.
const promptSuffix = "\n\nIMPORTANT: Return ONLY raw JSON. No markdown. No ```. " +
	"The JSON must include CourseName, Description, and Chapters array with " +
	"ChapterName, About, and Duration fields."

// ValidationError reports a parsed outline missing required pieces.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid outline: " + e.Reason
}

type Generator struct {
	AI     ai.Client
	Params ai.ModelParams
}

// Generate sends the prompt and normalizes the response into an Outline.
// Failures map onto the provider error (unreachable or non-success), a
// *extract.FormatError (unparseable text), or a *ValidationError (no
// usable course name or empty chapter list).
func (g Generator) Generate(ctx context.Context, prompt string) (course.Outline, error) {
	text, err := g.AI.Complete(ctx, ai.Request{
		Params: g.Params,
		Prompt: prompt + promptSuffix,
	})
	if err != nil {
		return course.Outline{}, fmt.Errorf("generating outline: %w", err)
	}

	parsed, err := extract.Parse(extract.StripFences(text))
	if err != nil {
		return course.Outline{}, err
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return course.Outline{}, &ValidationError{Reason: "response root is not an object"}
	}

	o := normalize(obj)

	if o.CourseName == "" {
		return course.Outline{}, &ValidationError{Reason: "missing course name"}
	}
	if len(o.Chapters) == 0 {
		return course.Outline{}, &ValidationError{Reason: "missing or empty chapter list"}
	}

	return o, nil
}

// variants maps each canonical field to the key spellings the upstream
// model is known to produce, tried in order.
var variants = map[string][]string{
	"courseName":  {"CourseName", "courseName", "name"},
	"description": {"Description", "description"},
	"chapters":    {"Chapters", "chapters"},
	"chapterName": {"ChapterName", "chapterName"},
	"about":       {"About", "about"},
	"duration":    {"Duration", "duration"},
}

func pickString(m map[string]any, field string) string {
	for _, key := range variants[field] {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func pickSlice(m map[string]any, field string) []any {
	for _, key := range variants[field] {
		if s, ok := m[key].([]any); ok {
			return s
		}
	}
	return nil
}

func normalize(obj map[string]any) course.Outline {
	o := course.Outline{
		CourseName:  pickString(obj, "courseName"),
		Description: pickString(obj, "description"),
	}

	for i, raw := range pickSlice(obj, "chapters") {
		ch, ok := raw.(map[string]any)
		if !ok {
			ch = map[string]any{}
		}

		name := pickString(ch, "chapterName")
		if name == "" {
			name = fmt.Sprintf("Chapter %d", i+1)
		}

		o.Chapters = append(o.Chapters, course.ChapterPlan{
			ChapterName: name,
			About:       pickString(ch, "about"),
			Duration:    pickString(ch, "duration"),
		})
	}

	return o
}
