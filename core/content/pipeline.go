package content

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/core/chapter"
	"github.com/learnforge/coursegen/core/course"
	"github.com/learnforge/coursegen/extract"
)

// maxVideos caps the enrichment list per chapter.
const maxVideos = 3

const chapterPromptFmt = `Generate detailed content for the following topic in strict JSON format:
- Topic: %s
- Chapter: %s

The response must be a valid JSON object containing an array of objects with the following fields:
1. "title": A short and descriptive title for the subtopic.
2. "explanation": A detailed explanation of the subtopic.
3. "codeExample": A code example (if applicable) wrapped in <precode> tags, or an empty string if no code example is available.

Ensure:
- The JSON is valid and follows the specified format.
- The JSON is properly formatted with no syntax errors.
- The JSON contains the required fields.
- The JSON contains the correct data types.
- Proper escaping of special characters.
- No trailing commas or malformed syntax.
- The JSON is properly nested and structured.

Example format:
{
  "title": "Topic Title",
  "chapters": [
    {
      "title": "Subtopic Title",
      "explanation": "Detailed explanation here.",
      "codeExample": "<precode>Code example here</precode>"
    }
  ]
}

IMPORTANT: Return ONLY raw JSON. No markdown. No ` + "```" + `.`

// VideoSearcher finds candidate video IDs for a search query.
type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

type Generator struct {
	Store  Store
	AI     ai.Client
	Videos VideoSearcher
	Params ai.ModelParams
	Log    logrus.FieldLogger
}

// Generate rebuilds all chapter bodies of the course from its outline.
// Previous chapters are cleared first, so an aborted run leaves only the
// chapters generated before the failure and the course unpublished.
// Failures inside the loop come back as a *ChapterError.
func (g Generator) Generate(ctx context.Context, c *course.Course) (Result, error) {
	// Check the provider before destroying anything: a misconfigured
	// key must not wipe existing content.
	if !g.AI.Configured() {
		return Result{}, ai.ErrNotConfigured
	}

	if err := g.Store.ClearChapters(ctx, c.ID); err != nil {
		return Result{}, fmt.Errorf("clearing chapters of course[%s]: %w", c.ID, err)
	}

	statuses := make([]ChapterStatus, 0, len(c.Outline.Chapters))

	for i, plan := range c.Outline.Chapters {
		body, err := g.generateChapter(ctx, c.Name, plan.ChapterName)
		if err != nil {
			return Result{}, &ChapterError{Index: i, Name: plan.ChapterName, Err: err}
		}

		videoIDs := pq.StringArray{}
		if c.IncludeVideo == course.IncludeVideoYes {
			videoIDs = g.searchVideos(ctx, c.Name+":"+plan.ChapterName)
		}

		ch := chapter.Chapter{
			CourseID:  c.ID,
			Index:     strconv.Itoa(i),
			Content:   body,
			VideoIDs:  videoIDs,
			CreatedAt: time.Now().UTC(),
		}
		if err := g.Store.InsertChapter(ctx, ch); err != nil {
			return Result{}, &ChapterError{Index: i, Name: plan.ChapterName, Err: err}
		}

		statuses = append(statuses, ChapterStatus{
			ChapterIndex: i,
			ChapterName:  plan.ChapterName,
			Status:       "success",
		})
	}

	if err := g.Store.Publish(ctx, c.ID); err != nil {
		return Result{}, err
	}

	return Result{
		Message:  "Course content generated successfully",
		Chapters: statuses,
	}, nil
}

func (g Generator) generateChapter(ctx context.Context, courseName, chapterName string) (chapter.Body, error) {
	text, err := g.AI.Complete(ctx, ai.Request{
		Params: g.Params,
		Prompt: fmt.Sprintf(chapterPromptFmt, courseName, chapterName),
	})
	if err != nil {
		return nil, err
	}

	cleaned := extract.StripFences(text)
	if _, err := extract.Parse(cleaned); err != nil {
		return nil, err
	}

	return chapter.Body(cleaned), nil
}

// searchVideos enriches a chapter with video IDs. Enrichment is best
// effort: a lookup failure logs and yields an empty list rather than
// aborting the run.
func (g Generator) searchVideos(ctx context.Context, query string) pq.StringArray {
	ids, err := g.Videos.Search(ctx, query)
	if err != nil {
		if g.Log != nil {
			g.Log.WithError(err).WithField("query", query).Warn("video search failed")
		}
		return pq.StringArray{}
	}
	if len(ids) > maxVideos {
		ids = ids[:maxVideos]
	}
	return pq.StringArray(ids)
}
