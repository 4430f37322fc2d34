package chapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/core/claims"
	"github.com/learnforge/coursegen/validate"
)

// courseAccess is the slice of the course record the read policy needs.
// Queried here directly to keep this package independent of core/course.
type courseAccess struct {
	CreatedBy string `db:"created_by"`
	Published bool   `db:"published"`
}

func fetchAccess(ctx context.Context, db *sqlx.DB, courseID string) (courseAccess, error) {
	const q = `SELECT created_by, published FROM courses WHERE course_id = $1`

	var ca courseAccess
	if err := db.GetContext(ctx, &ca, q, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return courseAccess{}, weberr.NotFound(errors.New("course not found"))
		}
		return courseAccess{}, fmt.Errorf("selecting course access[%s]: %w", courseID, err)
	}
	return ca, nil
}

// HandleListByCourse returns the chapters of a course under the same
// three-way policy as the course itself: public when published,
// owner-only otherwise. An index query parameter narrows the response
// to a single chapter.
func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		ca, err := fetchAccess(ctx, db, courseID)
		if err != nil {
			return err
		}

		if !ca.Published {
			clm, err := claims.Get(ctx)
			if err != nil || clm.Email != ca.CreatedBy {
				return weberr.Forbidden(errors.New("course is not published"))
			}
		}

		if index := r.URL.Query().Get("index"); index != "" {
			ch, err := Fetch(ctx, db, courseID, index)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return weberr.NotFound(err)
				}
				return err
			}
			return web.Respond(ctx, w, ch, http.StatusOK)
		}

		chapters, err := FetchByCourse(ctx, db, courseID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, chapters, http.StatusOK)
	}
}
