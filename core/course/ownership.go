package course

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/learnforge/coursegen/core/claims"
)

// CheckOwnership looks a course up and compares its owner against email.
// Not-found and not-owned both come back as owns=false; callers tell them
// apart by whether the course is nil.
func CheckOwnership(ctx context.Context, db *sqlx.DB, courseID string, email string) (bool, *Course, error) {
	if courseID == "" || email == "" {
		return false, nil, nil
	}

	c, err := Fetch(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}

	return c.CreatedBy == email, &c, nil
}

// AuthorizeOwner gates every mutating course operation: the caller must
// resolve and must own the course. The three return states are
// distinguished by the error sentinels below.
func AuthorizeOwner(ctx context.Context, db *sqlx.DB, courseID string) (*Course, claims.Claims, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return nil, claims.Claims{}, ErrUnauthenticated
	}

	owns, c, err := CheckOwnership(ctx, db, courseID, clm.Email)
	if err != nil {
		return nil, clm, err
	}
	if !owns {
		return c, clm, ErrNotOwner
	}

	return c, clm, nil
}

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrNotOwner        = errors.New("user does not own this course")
)

// IsPublished reports whether the course exists and is publicly visible.
// Nonexistent courses are simply not visible; no error is raised.
func IsPublished(ctx context.Context, db *sqlx.DB, courseID string) (bool, error) {
	c, err := Fetch(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return c.Published, nil
}
