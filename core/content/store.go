package content

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/learnforge/coursegen/core/chapter"
	"github.com/learnforge/coursegen/core/course"
)

// Store is the persistence surface the pipeline drives. Split out so
// pipeline tests can run against a recorder instead of postgres.
type Store interface {
	ClearChapters(ctx context.Context, courseID string) error
	InsertChapter(ctx context.Context, ch chapter.Chapter) error
	Publish(ctx context.Context, courseID string) error
}

type DBStore struct {
	DB *sqlx.DB
}

func (s DBStore) ClearChapters(ctx context.Context, courseID string) error {
	return chapter.DeleteByCourse(ctx, s.DB, courseID)
}

func (s DBStore) InsertChapter(ctx context.Context, ch chapter.Chapter) error {
	return chapter.Create(ctx, s.DB, ch)
}

func (s DBStore) Publish(ctx context.Context, courseID string) error {
	if err := course.UpdatePublished(ctx, s.DB, courseID, true); err != nil {
		return fmt.Errorf("publishing course[%s]: %w", courseID, err)
	}
	return nil
}
