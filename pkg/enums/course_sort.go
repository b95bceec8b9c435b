package enums

import (
	"fmt"
	"strings"
)

// CourseSort selects the ordering used by the catalog browse view.
type CourseSort string

const (
	CourseSortPopular   CourseSort = "popular"
	CourseSortPriceLow  CourseSort = "price-low"
	CourseSortPriceHigh CourseSort = "price-high"
	CourseSortRating    CourseSort = "rating"
)

var validCourseSorts = []CourseSort{
	CourseSortPopular,
	CourseSortPriceLow,
	CourseSortPriceHigh,
	CourseSortRating,
}

// String implements fmt.Stringer.
func (s CourseSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CourseSort.
func (s CourseSort) IsValid() bool {
	for _, candidate := range validCourseSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCourseSort converts raw input into a CourseSort; blank input yields popular.
func ParseCourseSort(value string) (CourseSort, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return CourseSortPopular, nil
	}
	for _, candidate := range validCourseSorts {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid course sort %q", value)
}
