package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("course not found")

const courseColumns = `
	course_id, name, level, category, created_by, outline,
	include_video, banner, published, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, name, level, category, created_by, outline,
		include_video, banner, published, created_at, updated_at)
	VALUES
		(:course_id, :name, :level, :category, :created_by, :outline,
		:include_video, :banner, :published, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db *sqlx.DB, courseID string) (Course, error) {
	q := `SELECT` + courseColumns + ` FROM courses WHERE course_id = $1`

	var c Course
	if err := db.GetContext(ctx, &c, q, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, fmt.Errorf("selecting course[%s]: %w", courseID, err)
	}
	return c, nil
}

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	CreatedBy string
	Published *bool
}

func List(ctx context.Context, db *sqlx.DB, f Filter) ([]Course, error) {
	q := `SELECT` + courseColumns + ` FROM courses`

	var clauses []string
	var args []any
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if f.Published != nil {
		args = append(args, *f.Published)
		clauses = append(clauses, fmt.Sprintf("published = $%d", len(args)))
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY created_at DESC"

	courses := []Course{}
	if err := db.SelectContext(ctx, &courses, q, args...); err != nil {
		return nil, fmt.Errorf("selecting courses: %w", err)
	}
	return courses, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		name = :name,
		level = :level,
		category = :category,
		outline = :outline,
		updated_at = :updated_at
	WHERE course_id = :course_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating course[%s]: %w", c.ID, err)
	}
	return nil
}

func UpdateBanner(ctx context.Context, db sqlx.ExtContext, courseID string, banner string) error {
	const q = `UPDATE courses SET banner = $1, updated_at = now() WHERE course_id = $2`

	if _, err := db.ExecContext(ctx, q, banner, courseID); err != nil {
		return fmt.Errorf("updating banner of course[%s]: %w", courseID, err)
	}
	return nil
}

func UpdatePublished(ctx context.Context, db sqlx.ExtContext, courseID string, published bool) error {
	const q = `UPDATE courses SET published = $1, updated_at = now() WHERE course_id = $2`

	if _, err := db.ExecContext(ctx, q, published, courseID); err != nil {
		return fmt.Errorf("updating publish flag of course[%s]: %w", courseID, err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	const q = `DELETE FROM courses WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, courseID); err != nil {
		return fmt.Errorf("deleting course[%s]: %w", courseID, err)
	}
	return nil
}
