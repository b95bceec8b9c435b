package controllers

import (
	"net/http"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/api/validators"
	"github.com/angelmondragon/skillhunter-backend/internal/catalog"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

const maxSearchTermLength = 200

// CourseList returns the catalog by popularity. q, category, level and sort
// narrow the list the same way the browse page does.
func CourseList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}

		query := r.URL.Query()
		sort, err := enums.ParseCourseSort(query.Get("sort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
				WithDetails(map[string]any{"field": "sort"}))
			return
		}

		courses, err := app.Catalog.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := catalog.BrowseOptions{
			Query:    validators.SanitizeString(query.Get("q"), maxSearchTermLength),
			Category: query.Get("category"),
			Level:    query.Get("level"),
			Sort:     sort,
		}
		responses.WriteSuccess(w, catalog.Browse(courses, opts))
	}
}

// CourseSearch runs the full-text search. A blank q lists everything.
func CourseSearch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		term := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchTermLength)
		courses, err := app.Catalog.Search(r.Context(), term)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, courses)
	}
}

// CourseSuggest feeds the global search box.
func CourseSuggest(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		term := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchTermLength)
		courses, err := app.Catalog.Suggest(r.Context(), term)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, courses)
	}
}

func CourseDetail(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "courseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCourseID(ctx, id.String())
		}

		course, err := app.Catalog.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if course == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "course not found"))
			return
		}
		responses.WriteSuccess(w, course)
	}
}

// CourseCategories lists the category filter options, "All" first.
func CourseCategories(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		courses, err := app.Catalog.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.Categories(courses))
	}
}
