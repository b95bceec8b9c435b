package catalog

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
)

// CourseInput is the admin form payload for a new course.
type CourseInput struct {
	Title           string
	Description     string
	Price           decimal.Decimal
	Thumbnail       string
	Instructor      string
	Duration        string
	Lessons         int
	Level           enums.CourseLevel
	Category        string
	Features        []string
	PreviewVideoURL *string
}

// CoursePatch carries the fields to change; nil fields are left alone.
type CoursePatch struct {
	Title           *string
	Description     *string
	Price           *decimal.Decimal
	Thumbnail       *string
	Instructor      *string
	Duration        *string
	Lessons         *int
	Level           *enums.CourseLevel
	Category        *string
	Features        *[]string
	PreviewVideoURL *string
}

func (p CoursePatch) columns() map[string]any {
	out := map[string]any{}
	setIf(out, "title", p.Title)
	setIf(out, "description", p.Description)
	setIf(out, "thumbnail", p.Thumbnail)
	setIf(out, "instructor", p.Instructor)
	setIf(out, "duration", p.Duration)
	setIf(out, "lessons", p.Lessons)
	setIf(out, "category", p.Category)
	setIf(out, "preview_video_url", p.PreviewVideoURL)
	if p.Price != nil {
		out["price"] = *p.Price
	}
	if p.Level != nil {
		out["level"] = p.Level.String()
	}
	if p.Features != nil {
		out["features"] = pq.StringArray(*p.Features)
	}
	return out
}

func setIf[T any](m map[string]any, column string, v *T) {
	if v != nil {
		m[column] = *v
	}
}

// Stats feeds the admin dashboard.
type Stats struct {
	TotalCourses int `json:"total_courses"`
}
