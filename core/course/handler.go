package course

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/learnforge/coursegen/api/background"
	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/core/chapter"
	"github.com/learnforge/coursegen/core/claims"
	"github.com/learnforge/coursegen/database"
	"github.com/learnforge/coursegen/random"
	"github.com/learnforge/coursegen/validate"
)

// BannerStore is the object-storage surface the banner handlers need.
type BannerStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

// weberrFromAuthorize maps the ownership gate's outcomes to responses:
// no caller is 401, everything else that isn't ownership is 403. A 403
// deliberately does not reveal whether the course exists.
func weberrFromAuthorize(err error) error {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return weberr.NotAuthorized(err)
	case errors.Is(err, ErrNotOwner):
		return weberr.Forbidden(err)
	default:
		return err
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var cn CourseNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding course: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		include := cn.IncludeVideo
		if include == "" {
			include = IncludeVideoYes
		}

		now := time.Now().UTC()
		c := Course{
			ID:           validate.GenerateID(),
			Name:         cn.Name,
			Level:        cn.Level,
			Category:     cn.Category,
			CreatedBy:    clm.Email,
			Outline:      cn.Outline,
			IncludeVideo: include,
			Banner:       PlaceholderBanner,
			Published:    false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := Create(ctx, db, c); err != nil {
			return fmt.Errorf("creating course: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var f Filter
		q := r.URL.Query()

		f.CreatedBy = q.Get("created_by")
		if v := q.Get("published"); v != "" {
			published, err := strconv.ParseBool(v)
			if err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing published filter: %w", err))
			}
			f.Published = &published
		}

		courses, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing courses: %w", err)
		}

		return web.Respond(ctx, w, courses, http.StatusOK)
	}
}

func HandleListOwned(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courses, err := List(ctx, db, Filter{CreatedBy: clm.Email})
		if err != nil {
			return fmt.Errorf("listing owned courses: %w", err)
		}

		return web.Respond(ctx, w, courses, http.StatusOK)
	}
}

// HandleShow applies the three-way read policy: published courses are
// public, unpublished ones are visible to their owner only.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		c, err := Fetch(ctx, db, courseID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !c.Published {
			clm, err := claims.Get(ctx)
			if err != nil || clm.Email != c.CreatedBy {
				return weberr.Forbidden(errors.New("course is not published"))
			}
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		c, _, err := AuthorizeOwner(ctx, db, courseID)
		if err != nil {
			return weberrFromAuthorize(err)
		}

		var up CourseUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding course update: %w", err))
		}

		if up.Name != nil {
			c.Name = *up.Name
		}
		if up.Level != nil {
			c.Level = *up.Level
		}
		if up.Category != nil {
			c.Category = *up.Category
		}
		if up.Outline != nil {
			c.Outline = *up.Outline
		}
		c.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, *c); err != nil {
			return fmt.Errorf("updating course: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandlePublish(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		c, _, err := AuthorizeOwner(ctx, db, courseID)
		if err != nil {
			return weberrFromAuthorize(err)
		}

		var up PublishUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding publish update: %w", err))
		}
		if up.Published == nil {
			return weberr.BadRequest(errors.New("published must be a boolean"))
		}

		if err := UpdatePublished(ctx, db, courseID, *up.Published); err != nil {
			return fmt.Errorf("updating publish flag: %w", err)
		}

		c.Published = *up.Published
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleBanner(db *sqlx.DB, uploads BannerStore, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		c, _, err := AuthorizeOwner(ctx, db, courseID)
		if err != nil {
			return weberrFromAuthorize(err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			return weberr.BadRequest(errors.New("no file provided"))
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		key := fmt.Sprintf("banners/%d-%s%s",
			time.Now().UnixMilli(), random.String(8), filepath.Ext(header.Filename))

		url, err := uploads.Upload(ctx, key, file, contentType)
		if err != nil {
			return fmt.Errorf("uploading banner: %w", err)
		}

		if err := UpdateBanner(ctx, db, courseID, url); err != nil {
			return fmt.Errorf("updating banner: %w", err)
		}

		// The replaced object is cleaned up off the request path; a
		// failed delete must not undo a successful upload.
		if old := c.Banner; old != PlaceholderBanner {
			bg.Go("delete-old-banner", func() error {
				return uploads.Delete(context.Background(), old)
			})
		}

		return web.Respond(ctx, w, struct {
			Message string `json:"message"`
			Banner  string `json:"banner"`
		}{"banner updated successfully", url}, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB, uploads BannerStore, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		c, _, err := AuthorizeOwner(ctx, db, courseID)
		if err != nil {
			return weberrFromAuthorize(err)
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := chapter.DeleteByCourse(ctx, tx, courseID); err != nil {
				return fmt.Errorf("deleting chapters: %w", err)
			}
			if err := Delete(ctx, tx, courseID); err != nil {
				return fmt.Errorf("deleting course: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("deleting course[%s]: %w", courseID, err)
		}

		if banner := c.Banner; banner != PlaceholderBanner {
			bg.Go("delete-banner", func() error {
				return uploads.Delete(context.Background(), banner)
			})
		}

		return web.Respond(ctx, w, struct {
			Message string `json:"message"`
		}{"course deleted successfully"}, http.StatusOK)
	}
}
