package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/api/validators"
	"github.com/angelmondragon/skillhunter-backend/internal/catalog"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// Features arrive comma separated, exactly as typed into the admin form.
type courseCreateRequest struct {
	Title           string           `json:"title" validate:"required,max=200"`
	Description     string           `json:"description" validate:"required"`
	Price           *decimal.Decimal `json:"price" validate:"required"`
	Thumbnail       string           `json:"thumbnail" validate:"required"`
	Instructor      string           `json:"instructor" validate:"required"`
	Duration        string           `json:"duration" validate:"required"`
	Lessons         int              `json:"lessons" validate:"gte=0"`
	Level           string           `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	Category        string           `json:"category" validate:"required"`
	Features        string           `json:"features"`
	PreviewVideoURL *string          `json:"preview_video_url" validate:"omitempty,url"`
}

type courseUpdateRequest struct {
	Title           *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description" validate:"omitempty,min=1"`
	Price           *decimal.Decimal `json:"price"`
	Thumbnail       *string          `json:"thumbnail" validate:"omitempty,min=1"`
	Instructor      *string          `json:"instructor" validate:"omitempty,min=1"`
	Duration        *string          `json:"duration" validate:"omitempty,min=1"`
	Lessons         *int             `json:"lessons" validate:"omitempty,gte=0"`
	Level           *string          `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Category        *string          `json:"category" validate:"omitempty,min=1"`
	Features        *string          `json:"features"`
	PreviewVideoURL *string          `json:"preview_video_url" validate:"omitempty,url"`
}

func checkPrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"price": "must be greater than or equal to 0"})
	}
	return nil
}

func (req courseCreateRequest) input() catalog.CourseInput {
	return catalog.CourseInput{
		Title:           req.Title,
		Description:     req.Description,
		Price:           *req.Price,
		Thumbnail:       req.Thumbnail,
		Instructor:      req.Instructor,
		Duration:        req.Duration,
		Lessons:         req.Lessons,
		Level:           enums.CourseLevel(req.Level),
		Category:        req.Category,
		Features:        catalog.ParseFeatures(req.Features),
		PreviewVideoURL: req.PreviewVideoURL,
	}
}

func (req courseUpdateRequest) patch() catalog.CoursePatch {
	patch := catalog.CoursePatch{
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		Thumbnail:       req.Thumbnail,
		Instructor:      req.Instructor,
		Duration:        req.Duration,
		Lessons:         req.Lessons,
		Category:        req.Category,
		PreviewVideoURL: req.PreviewVideoURL,
	}
	if req.Level != nil {
		level := enums.CourseLevel(*req.Level)
		patch.Level = &level
	}
	if req.Features != nil {
		features := catalog.ParseFeatures(*req.Features)
		patch.Features = &features
	}
	return patch
}

func AdminCourseCreate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}

		var body courseCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := checkPrice(body.Price); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		course, err := app.Catalog.Create(r.Context(), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, course)
	}
}

func AdminCourseUpdate(logg *logger.Logger) http.HandlerFunc {
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

		var body courseUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := checkPrice(body.Price); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		course, err := app.Catalog.Update(r.Context(), id, body.patch())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, course)
	}
}

func AdminCourseDelete(logg *logger.Logger) http.HandlerFunc {
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
		if err := app.Catalog.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminStats feeds the dashboard counters.
func AdminStats(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		stats, err := app.Catalog.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
