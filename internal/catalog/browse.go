package catalog

import (
	"sort"
	"strings"

	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
)

// AllFilter disables the category or level filter.
const AllFilter = "All"

// BrowseOptions narrows an already fetched course list.
type BrowseOptions struct {
	// Query is matched case-insensitively against title and description.
	Query    string
	Category string
	Level    string
	Sort     enums.CourseSort
}

// Browse filters and sorts courses without touching the backend. The input
// slice is not modified.
func Browse(courses []models.Course, opts BrowseOptions) []models.Course {
	needle := strings.ToLower(strings.TrimSpace(opts.Query))
	category := strings.TrimSpace(opts.Category)
	level := strings.TrimSpace(opts.Level)

	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Title), needle) &&
			!strings.Contains(strings.ToLower(c.Description), needle) {
			continue
		}
		if category != "" && category != AllFilter && c.Category != category {
			continue
		}
		if level != "" && level != AllFilter && !strings.EqualFold(c.Level.String(), level) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, less(out, opts.Sort))
	return out
}

func less(cs []models.Course, by enums.CourseSort) func(i, j int) bool {
	switch by {
	case enums.CourseSortPriceLow:
		return func(i, j int) bool { return cs[i].Price.LessThan(cs[j].Price) }
	case enums.CourseSortPriceHigh:
		return func(i, j int) bool { return cs[i].Price.GreaterThan(cs[j].Price) }
	case enums.CourseSortRating:
		return func(i, j int) bool { return cs[i].Rating > cs[j].Rating }
	default:
		return func(i, j int) bool { return cs[i].Students > cs[j].Students }
	}
}

// Categories returns "All" followed by the distinct categories in first-seen order.
func Categories(courses []models.Course) []string {
	out := []string{AllFilter}
	seen := map[string]struct{}{}
	for _, c := range courses {
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		out = append(out, c.Category)
	}
	return out
}

// ParseFeatures splits comma-separated admin input, dropping blanks.
func ParseFeatures(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
