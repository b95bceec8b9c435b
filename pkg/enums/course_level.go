package enums

import (
	"fmt"
	"strings"
)

// CourseLevel is the difficulty tier shown on a course card.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "Beginner"
	CourseLevelIntermediate CourseLevel = "Intermediate"
	CourseLevelAdvanced     CourseLevel = "Advanced"
)

var validCourseLevels = []CourseLevel{
	CourseLevelBeginner,
	CourseLevelIntermediate,
	CourseLevelAdvanced,
}

// String implements fmt.Stringer.
func (l CourseLevel) String() string {
	return string(l)
}

// IsValid reports whether the value is a known CourseLevel.
func (l CourseLevel) IsValid() bool {
	for _, candidate := range validCourseLevels {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseCourseLevel accepts any casing of a known level.
func ParseCourseLevel(value string) (CourseLevel, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validCourseLevels {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid course level %q", value)
}

// CourseLevels returns the levels in ascending difficulty.
func CourseLevels() []CourseLevel {
	out := make([]CourseLevel, len(validCourseLevels))
	copy(out, validCourseLevels)
	return out
}
