// Package content generates the per-chapter body of a course from its
// stored outline, chapter by chapter, and flips the course to published
// once every chapter succeeded.
package content

import "fmt"

// ChapterStatus reports the outcome for one chapter of a run.
type ChapterStatus struct {
	ChapterIndex int    `json:"chapterIndex"`
	ChapterName  string `json:"chapterName"`
	Status       string `json:"status"`
}

// Result is the payload of a fully successful run.
type Result struct {
	Message  string          `json:"message"`
	Chapters []ChapterStatus `json:"chapters"`
}

// ChapterError pins a generation failure to the chapter it happened in.
// The run aborts at the first one; earlier chapters keep their rows.
type ChapterError struct {
	Index int
	Name  string
	Err   error
}

func (e *ChapterError) Error() string {
	return fmt.Sprintf("chapter %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *ChapterError) Unwrap() error { return e.Err }
