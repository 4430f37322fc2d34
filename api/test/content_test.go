package test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/learnforge/coursegen/core/chapter"
)

type contentTest struct {
	*TestEnv
}

func TestContentGeneration(t *testing.T) {
	env, err := NewTestEnv(t, "content_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{env}
	gt := &contentTest{env}

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	o := ct.generateOutlineOK(t)
	c := ct.createCourseOK(t, "Test Course", o)
	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}

	gt.generateStatus(t, c.ID, http.StatusUnauthorized)

	if err := env.Signup("Other", "other2@test.io", env.UserPass); err != nil {
		t.Fatal(err)
	}
	gt.generateStatus(t, c.ID, http.StatusForbidden)
	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	res := gt.generateOK(t, c.ID)
	if res.Message != "Course content generated successfully" {
		t.Errorf("message = %q", res.Message)
	}
	if len(res.Chapters) != 2 || res.Chapters[1].ChapterName != "Beta" {
		t.Errorf("chapter statuses = %+v", res.Chapters)
	}

	// Generation publishes the course, so the chapters are now public.
	if got := ct.showOK(t, c.ID); !got.Published {
		t.Error("course was not published after generation")
	}
	chapters := gt.listChaptersOK(t, c.ID)
	if len(chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(chapters))
	}
	if chapters[0].Index != "0" || chapters[1].Index != "1" {
		t.Errorf("chapter indexes = %s, %s", chapters[0].Index, chapters[1].Index)
	}
	if len(chapters[0].VideoIDs) != 3 {
		t.Errorf("chapter 0 videos = %v, want 3 ids", chapters[0].VideoIDs)
	}

	// A failing chapter aborts the run: the provider status passes
	// through, the failed chapter is identified, and the chapters
	// generated before the failure stay.
	env.AI.FailChapter("Beta", http.StatusTooManyRequests)

	body := gt.generateFail(t, c.ID, http.StatusTooManyRequests)
	if body.ChapterIndex != 1 || body.ChapterName != "Beta" {
		t.Errorf("failed chapter = %d (%s), want 1 (Beta)", body.ChapterIndex, body.ChapterName)
	}

	chapters = gt.listChaptersOK(t, c.ID)
	if len(chapters) != 1 || chapters[0].Index != "0" {
		t.Errorf("chapters after failed run = %+v, want only chapter 0", chapters)
	}

	// Video lookup failures must not abort a run.
	env.AI.FailChapter("", 0)
	env.Videos.Fail(true)

	res = gt.generateOK(t, c.ID)
	if len(res.Chapters) != 2 {
		t.Fatalf("chapter statuses = %+v", res.Chapters)
	}
	for _, ch := range gt.listChaptersOK(t, c.ID) {
		if len(ch.VideoIDs) != 0 {
			t.Errorf("chapter %s has videos %v after lookup failure", ch.Index, ch.VideoIDs)
		}
	}
}

func (gt *contentTest) generateStatus(t *testing.T, id string, want int) {
	t.Helper()

	w, err := gt.postJSON("/courses/"+id+"/content", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != want {
		t.Fatalf("generating content: status %s, want %d", w.Status, want)
	}
}

func (gt *contentTest) generateOK(t *testing.T, id string) struct {
	Message  string `json:"message"`
	Chapters []struct {
		ChapterIndex int    `json:"chapterIndex"`
		ChapterName  string `json:"chapterName"`
		Status       string `json:"status"`
	} `json:"chapters"`
} {
	t.Helper()

	var res struct {
		Message  string `json:"message"`
		Chapters []struct {
			ChapterIndex int    `json:"chapterIndex"`
			ChapterName  string `json:"chapterName"`
			Status       string `json:"status"`
		} `json:"chapters"`
	}

	w, err := gt.postJSON("/courses/"+id+"/content", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("generating content: status %s", w.Status)
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decoding content result: %v", err)
	}
	return res
}

func (gt *contentTest) generateFail(t *testing.T, id string, want int) struct {
	Error        string `json:"error"`
	ChapterIndex int    `json:"chapterIndex"`
	ChapterName  string `json:"chapterName"`
} {
	t.Helper()

	var body struct {
		Error        string `json:"error"`
		ChapterIndex int    `json:"chapterIndex"`
		ChapterName  string `json:"chapterName"`
	}

	w, err := gt.postJSON("/courses/"+id+"/content", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != want {
		t.Fatalf("generating content: status %s, want %d", w.Status, want)
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

func (gt *contentTest) listChaptersOK(t *testing.T, id string) []chapter.Chapter {
	t.Helper()

	w, err := gt.Client().Get(gt.URL + "/courses/" + id + "/chapters")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("listing chapters: status %s", w.Status)
	}

	var chapters []chapter.Chapter
	if err := json.NewDecoder(w.Body).Decode(&chapters); err != nil {
		t.Fatalf("decoding chapters: %v", err)
	}
	return chapters
}
