package course

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlaceholderBanner marks a course that never had a banner uploaded.
// It is a sentinel, never an object in the store.
const PlaceholderBanner = "/placeholder.png"

// IncludeVideoYes enables video enrichment during content generation.
// The flag is a tri-state string for compatibility with stored records.
const IncludeVideoYes = "Yes"

// Outline is the AI-generated course layout: lightweight chapter
// descriptors, not content. It is stored as a single JSON document.
type Outline struct {
	CourseName  string        `json:"courseName"`
	Description string        `json:"description"`
	Chapters    []ChapterPlan `json:"chapters"`
}

type ChapterPlan struct {
	ChapterName string `json:"chapterName"`
	About       string `json:"about"`
	Duration    string `json:"duration"`
}

// Value serializes the outline as a string so the driver sends it as
// text, which postgres parses into the jsonb column. A []byte value
// would be sent as bytea and rejected.
func (o Outline) Value() (driver.Value, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *Outline) Scan(src any) error {
	switch s := src.(type) {
	case []byte:
		return json.Unmarshal(s, o)
	case string:
		return json.Unmarshal([]byte(s), o)
	default:
		return fmt.Errorf("unsupported outline source type %T", src)
	}
}

type Course struct {
	ID           string    `json:"id" db:"course_id"`
	Name         string    `json:"name" db:"name"`
	Level        string    `json:"level" db:"level"`
	Category     string    `json:"category" db:"category"`
	CreatedBy    string    `json:"createdBy" db:"created_by"`
	Outline      Outline   `json:"outline" db:"outline"`
	IncludeVideo string    `json:"includeVideo" db:"include_video"`
	Banner       string    `json:"banner" db:"banner"`
	Published    bool      `json:"published" db:"published"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type CourseNew struct {
	Name         string  `json:"name" validate:"required"`
	Level        string  `json:"level" validate:"required"`
	Category     string  `json:"category" validate:"required"`
	Outline      Outline `json:"outline" validate:"required"`
	IncludeVideo string  `json:"includeVideo" validate:"omitempty,oneof=Yes No"`
}

// CourseUp carries the owner-editable fields. CreatedBy and Published are
// deliberately absent: ownership is immutable and publishing has its own
// operation.
type CourseUp struct {
	Name     *string  `json:"name"`
	Level    *string  `json:"level"`
	Category *string  `json:"category"`
	Outline  *Outline `json:"outline"`
}

type PublishUp struct {
	Published *bool `json:"published" validate:"required"`
}
