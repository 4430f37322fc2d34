package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/core/course"
	"github.com/learnforge/coursegen/extract"
	"github.com/learnforge/coursegen/validate"
)

// chapterErrorResponse tells the caller exactly which chapter broke the
// run so the client can surface or retry it.
type chapterErrorResponse struct {
	Error        string `json:"error"`
	ChapterIndex int    `json:"chapterIndex"`
	ChapterName  string `json:"chapterName"`
	Details      string `json:"details,omitempty"`
}

// HandleGenerate regenerates the full chapter content of an owned
// course and publishes it on success.
func HandleGenerate(db *sqlx.DB, gen Generator) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		c, _, err := course.AuthorizeOwner(ctx, db, courseID)
		if err != nil {
			switch {
			case errors.Is(err, course.ErrUnauthenticated):
				return weberr.NotAuthorized(err)
			case errors.Is(err, course.ErrNotOwner):
				return weberr.Forbidden(err)
			default:
				return err
			}
		}

		result, err := gen.Generate(ctx, c)
		if err != nil {
			return weberrFromGenerate(err)
		}

		return web.Respond(ctx, w, result, http.StatusOK)
	}
}

func weberrFromGenerate(err error) error {
	if errors.Is(err, ai.ErrNotConfigured) {
		return weberr.NewError(err, "AI service is not configured", http.StatusInternalServerError)
	}

	var ce *ChapterError
	if !errors.As(err, &ce) {
		return err
	}

	body := chapterErrorResponse{
		ChapterIndex: ce.Index,
		ChapterName:  ce.Name,
	}
	status := http.StatusInternalServerError

	var ue *ai.UpstreamError
	var fe *extract.FormatError
	switch {
	case errors.As(ce.Err, &ue):
		body.Error = fmt.Sprintf("failed to generate chapter %d content: %s", ce.Index+1, ue.Detail)
		if ue.StatusCode >= 400 && ue.StatusCode < 500 {
			status = ue.StatusCode
		}
	case errors.As(ce.Err, &fe):
		body.Error = fmt.Sprintf("AI returned invalid JSON for chapter %d", ce.Index+1)
		body.Details = fe.Error()
	default:
		body.Error = fmt.Sprintf("failed to generate chapter %d content", ce.Index+1)
	}

	return weberr.Wrap(err, weberr.WithResponse(&body, status))
}
