package content

import (
	"context"
	"errors"
	"testing"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/core/chapter"
	"github.com/learnforge/coursegen/core/course"
)

type fakeStore struct {
	cleared   []string
	inserted  []chapter.Chapter
	published []string

	insertErr error
}

func (s *fakeStore) ClearChapters(ctx context.Context, courseID string) error {
	s.cleared = append(s.cleared, courseID)
	return nil
}

func (s *fakeStore) InsertChapter(ctx context.Context, ch chapter.Chapter) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, ch)
	return nil
}

func (s *fakeStore) Publish(ctx context.Context, courseID string) error {
	s.published = append(s.published, courseID)
	return nil
}

// scriptedAI returns one canned result per call, in order.
type scriptedAI struct {
	configured bool
	calls      int
	texts      []string
	errs       []error
}

func (a *scriptedAI) Configured() bool { return a.configured }

func (a *scriptedAI) Complete(ctx context.Context, req ai.Request) (string, error) {
	i := a.calls
	a.calls++
	if i < len(a.errs) && a.errs[i] != nil {
		return "", a.errs[i]
	}
	if i < len(a.texts) {
		return a.texts[i], nil
	}
	return `{"title":"t","chapters":[]}`, nil
}

type fakeVideos struct {
	ids     []string
	err     error
	queries []string
}

func (v *fakeVideos) Search(ctx context.Context, query string) ([]string, error) {
	v.queries = append(v.queries, query)
	return v.ids, v.err
}

func testCourse() *course.Course {
	return &course.Course{
		ID:           "11111111-1111-1111-1111-111111111111",
		Name:         "Go Basics",
		IncludeVideo: course.IncludeVideoYes,
		Outline: course.Outline{
			CourseName: "Go Basics",
			Chapters: []course.ChapterPlan{
				{ChapterName: "Setup"},
				{ChapterName: "Syntax"},
			},
		},
	}
}

func TestGenerateSuccess(t *testing.T) {
	store := &fakeStore{}
	videos := &fakeVideos{ids: []string{"v1", "v2", "v3", "v4"}}
	gen := Generator{
		Store:  store,
		AI:     &scriptedAI{configured: true},
		Videos: videos,
	}

	c := testCourse()
	res, err := gen.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(store.cleared) != 1 || store.cleared[0] != c.ID {
		t.Errorf("cleared = %v, want one clear of %s", store.cleared, c.ID)
	}
	if len(store.inserted) != 2 {
		t.Fatalf("inserted %d chapters, want 2", len(store.inserted))
	}
	if store.inserted[0].Index != "0" || store.inserted[1].Index != "1" {
		t.Errorf("chapter indexes = %s, %s; want 0, 1",
			store.inserted[0].Index, store.inserted[1].Index)
	}
	if got := len(store.inserted[0].VideoIDs); got != 3 {
		t.Errorf("chapter 0 has %d videos, want capped at 3", got)
	}
	if len(store.published) != 1 {
		t.Errorf("published = %v, want one publish", store.published)
	}

	if len(res.Chapters) != 2 || res.Chapters[1].ChapterName != "Syntax" {
		t.Errorf("result chapters = %+v", res.Chapters)
	}
	if videos.queries[0] != "Go Basics:Setup" {
		t.Errorf("video query = %q", videos.queries[0])
	}
}

func TestGenerateAbortsOnChapterFailure(t *testing.T) {
	store := &fakeStore{}
	gen := Generator{
		Store: store,
		AI: &scriptedAI{
			configured: true,
			texts:      []string{`{"title":"t","chapters":[]}`},
			errs:       []error{nil, &ai.UpstreamError{StatusCode: 429, Detail: "quota"}},
		},
		Videos: &fakeVideos{},
	}

	_, err := gen.Generate(context.Background(), testCourse())

	var ce *ChapterError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want *ChapterError", err)
	}
	if ce.Index != 1 || ce.Name != "Syntax" {
		t.Errorf("failed chapter = %d (%s), want 1 (Syntax)", ce.Index, ce.Name)
	}

	// The chapter generated before the failure stays; the course must
	// not be published.
	if len(store.inserted) != 1 || store.inserted[0].Index != "0" {
		t.Errorf("inserted = %+v, want only chapter 0", store.inserted)
	}
	if len(store.published) != 0 {
		t.Errorf("course was published after a failed run")
	}
}

func TestGenerateMalformedChapterJSON(t *testing.T) {
	store := &fakeStore{}
	gen := Generator{
		Store:  store,
		AI:     &scriptedAI{configured: true, texts: []string{"sure! here it is"}},
		Videos: &fakeVideos{},
	}

	_, err := gen.Generate(context.Background(), testCourse())

	var ce *ChapterError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want *ChapterError", err)
	}
	if ce.Index != 0 {
		t.Errorf("failed chapter index = %d, want 0", ce.Index)
	}
	if len(store.inserted) != 0 {
		t.Errorf("malformed chapter was inserted: %+v", store.inserted)
	}
}

func TestGenerateVideoFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	gen := Generator{
		Store:  store,
		AI:     &scriptedAI{configured: true},
		Videos: &fakeVideos{err: errors.New("youtube down")},
	}

	if _, err := gen.Generate(context.Background(), testCourse()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, ch := range store.inserted {
		if len(ch.VideoIDs) != 0 {
			t.Errorf("chapter %s has videos %v, want empty list", ch.Index, ch.VideoIDs)
		}
	}
	if len(store.published) != 1 {
		t.Errorf("course was not published")
	}
}

func TestGenerateSkipsVideosWhenExcluded(t *testing.T) {
	videos := &fakeVideos{ids: []string{"v1"}}
	gen := Generator{
		Store:  &fakeStore{},
		AI:     &scriptedAI{configured: true},
		Videos: videos,
	}

	c := testCourse()
	c.IncludeVideo = "No"

	if _, err := gen.Generate(context.Background(), c); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(videos.queries) != 0 {
		t.Errorf("video search was called for includeVideo=No: %v", videos.queries)
	}
}

func TestGenerateNotConfiguredKeepsChapters(t *testing.T) {
	store := &fakeStore{}
	gen := Generator{
		Store:  store,
		AI:     &scriptedAI{configured: false},
		Videos: &fakeVideos{},
	}

	_, err := gen.Generate(context.Background(), testCourse())
	if !errors.Is(err, ai.ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
	if len(store.cleared) != 0 {
		t.Errorf("existing chapters were cleared before the preflight check")
	}
}
