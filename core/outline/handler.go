package outline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/extract"
	"github.com/learnforge/coursegen/validate"
)

type generateInput struct {
	Prompt string `json:"prompt" validate:"required"`
}

// HandleGenerate produces a course outline from a free-text prompt. The
// outline is returned to the caller, not stored; course creation takes
// it back as part of the course payload.
func HandleGenerate(gen Generator) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in generateInput
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding outline input: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		o, err := gen.Generate(ctx, in.Prompt)
		if err != nil {
			return weberrFromGenerate(err)
		}

		return web.Respond(ctx, w, o, http.StatusOK)
	}
}

// weberrFromGenerate maps generation failures onto responses. Provider
// 4xx statuses pass through so quota and auth problems stay visible to
// the caller; everything else is the server's fault.
func weberrFromGenerate(err error) error {
	if errors.Is(err, ai.ErrNotConfigured) {
		return weberr.NewError(err, "AI service is not configured", http.StatusInternalServerError)
	}

	var ue *ai.UpstreamError
	if errors.As(err, &ue) {
		status := http.StatusInternalServerError
		if ue.StatusCode >= 400 && ue.StatusCode < 500 {
			status = ue.StatusCode
		}
		return weberr.NewError(err, ue.Detail, status)
	}

	var fe *extract.FormatError
	if errors.As(err, &fe) {
		body := struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}{"AI returned malformed JSON", fe.Error()}
		return weberr.Wrap(err, weberr.WithResponse(&body, http.StatusInternalServerError))
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return weberr.NewError(err, "AI returned an invalid course outline", http.StatusInternalServerError)
	}

	return err
}
