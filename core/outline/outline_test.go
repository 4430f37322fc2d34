package outline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/core/course"
	"github.com/learnforge/coursegen/extract"
)

type fakeAI struct {
	text string
	err  error

	gotPrompt string
}

func (f *fakeAI) Configured() bool { return true }

func (f *fakeAI) Complete(ctx context.Context, req ai.Request) (string, error) {
	f.gotPrompt = req.Prompt
	return f.text, f.err
}

func TestGenerateNormalizesVariants(t *testing.T) {
	tests := map[string]struct {
		text string
		want course.Outline
	}{
		"canonical keys": {
			text: `{"CourseName":"Go Basics","Description":"intro","Chapters":[
				{"ChapterName":"Setup","About":"tooling","Duration":"30 min"}]}`,
			want: course.Outline{
				CourseName:  "Go Basics",
				Description: "intro",
				Chapters: []course.ChapterPlan{
					{ChapterName: "Setup", About: "tooling", Duration: "30 min"},
				},
			},
		},
		"lowercase keys": {
			text: `{"courseName":"Go Basics","description":"intro","chapters":[
				{"chapterName":"Setup","about":"tooling","duration":"30 min"}]}`,
			want: course.Outline{
				CourseName:  "Go Basics",
				Description: "intro",
				Chapters: []course.ChapterPlan{
					{ChapterName: "Setup", About: "tooling", Duration: "30 min"},
				},
			},
		},
		"name fallback and missing chapter names": {
			text: `{"name":"Go Basics","chapters":[{"about":"tooling"},{"duration":"1 h"}]}`,
			want: course.Outline{
				CourseName: "Go Basics",
				Chapters: []course.ChapterPlan{
					{ChapterName: "Chapter 1", About: "tooling"},
					{ChapterName: "Chapter 2", Duration: "1 h"},
				},
			},
		},
		"fenced response": {
			text: "```json\n{\"CourseName\":\"Go Basics\",\"Chapters\":[{\"ChapterName\":\"Setup\"}]}\n```",
			want: course.Outline{
				CourseName: "Go Basics",
				Chapters:   []course.ChapterPlan{{ChapterName: "Setup"}},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gen := Generator{AI: &fakeAI{text: tt.text}}

			got, err := gen.Generate(context.Background(), "teach me go")
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("outline mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerateAppendsFormatInstruction(t *testing.T) {
	fake := &fakeAI{text: `{"CourseName":"x","Chapters":[{}]}`}
	gen := Generator{AI: fake}

	if _, err := gen.Generate(context.Background(), "teach me go"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(fake.gotPrompt, "teach me go") {
		t.Errorf("prompt does not start with user text: %q", fake.gotPrompt)
	}
	if !strings.Contains(fake.gotPrompt, "Return ONLY raw JSON") {
		t.Errorf("prompt missing format instruction: %q", fake.gotPrompt)
	}
}

func TestGenerateFailures(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		gen := Generator{AI: &fakeAI{text: "here is your course: not json"}}

		_, err := gen.Generate(context.Background(), "p")
		var fe *extract.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("got %v, want *extract.FormatError", err)
		}
	})

	t.Run("array root", func(t *testing.T) {
		gen := Generator{AI: &fakeAI{text: `[{"CourseName":"x"}]`}}

		_, err := gen.Generate(context.Background(), "p")
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("got %v, want *ValidationError", err)
		}
	})

	t.Run("missing course name", func(t *testing.T) {
		gen := Generator{AI: &fakeAI{text: `{"Chapters":[{"ChapterName":"x"}]}`}}

		_, err := gen.Generate(context.Background(), "p")
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("got %v, want *ValidationError", err)
		}
	})

	t.Run("empty chapters", func(t *testing.T) {
		gen := Generator{AI: &fakeAI{text: `{"CourseName":"x","Chapters":[]}`}}

		_, err := gen.Generate(context.Background(), "p")
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("got %v, want *ValidationError", err)
		}
	})

	t.Run("upstream error passes through", func(t *testing.T) {
		up := &ai.UpstreamError{StatusCode: 429, Detail: "rate limited"}
		gen := Generator{AI: &fakeAI{err: up}}

		_, err := gen.Generate(context.Background(), "p")
		var ue *ai.UpstreamError
		if !errors.As(err, &ue) || ue.StatusCode != 429 {
			t.Fatalf("got %v, want wrapped 429 upstream error", err)
		}
	})
}
