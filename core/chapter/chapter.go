package chapter

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Body is a raw JSON document column. It round-trips through the API
// untouched and is stored as text so the driver does not send it as
// bytea, which the jsonb column would reject.
type Body []byte

func (b Body) Value() (driver.Value, error) {
	if len(b) == 0 {
		return "null", nil
	}
	return string(b), nil
}

func (b *Body) Scan(src any) error {
	switch s := src.(type) {
	case []byte:
		*b = append((*b)[0:0], s...)
		return nil
	case string:
		*b = Body(s)
		return nil
	default:
		return fmt.Errorf("unsupported body source type %T", src)
	}
}

func (b Body) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

func (b *Body) UnmarshalJSON(data []byte) error {
	if b == nil {
		return errors.New("chapter.Body: UnmarshalJSON on nil pointer")
	}
	*b = append((*b)[0:0], data...)
	return nil
}

// Chapter is a wholly owned child of a course, keyed by (course id,
// outline position). Chapters are never updated in place: regeneration
// deletes the whole set and recreates it.
type Chapter struct {
	CourseID  string         `json:"courseId" db:"course_id"`
	Index     string         `json:"chapterIndex" db:"chapter_index"`
	Content   Body           `json:"content" db:"content"`
	VideoIDs  pq.StringArray `json:"videoIds" db:"video_ids"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}
