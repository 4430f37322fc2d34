package chapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("chapter not found")

func Create(ctx context.Context, db sqlx.ExtContext, c Chapter) error {
	const q = `
	INSERT INTO chapters
		(course_id, chapter_index, content, video_ids, created_at)
	VALUES
		(:course_id, :chapter_index, :content, :video_ids, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting chapter[%s/%s]: %w", c.CourseID, c.Index, err)
	}
	return nil
}

// FetchByCourse returns all chapters of a course in outline order. The
// index is stored as text, so ordering casts it back to an integer.
func FetchByCourse(ctx context.Context, db *sqlx.DB, courseID string) ([]Chapter, error) {
	const q = `
	SELECT course_id, chapter_index, content, video_ids, created_at
	FROM chapters
	WHERE course_id = $1
	ORDER BY chapter_index::int`

	chapters := []Chapter{}
	if err := db.SelectContext(ctx, &chapters, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting chapters of course[%s]: %w", courseID, err)
	}
	return chapters, nil
}

func Fetch(ctx context.Context, db *sqlx.DB, courseID string, index string) (Chapter, error) {
	const q = `
	SELECT course_id, chapter_index, content, video_ids, created_at
	FROM chapters
	WHERE course_id = $1 AND chapter_index = $2`

	var ch Chapter
	if err := db.GetContext(ctx, &ch, q, courseID, index); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chapter{}, ErrNotFound
		}
		return Chapter{}, fmt.Errorf("selecting chapter[%s/%s]: %w", courseID, index, err)
	}
	return ch, nil
}

func DeleteByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	const q = `DELETE FROM chapters WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, courseID); err != nil {
		return fmt.Errorf("deleting chapters of course[%s]: %w", courseID, err)
	}
	return nil
}

func CountByCourse(ctx context.Context, db *sqlx.DB, courseID string) (int, error) {
	const q = `SELECT count(*) FROM chapters WHERE course_id = $1`

	var n int
	if err := db.GetContext(ctx, &n, q, courseID); err != nil {
		return 0, fmt.Errorf("counting chapters of course[%s]: %w", courseID, err)
	}
	return n, nil
}
