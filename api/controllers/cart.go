package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/api/validators"
	"github.com/angelmondragon/skillhunter-backend/internal/cart"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

type cartResponse struct {
	Items     []cart.Item     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type courseRefRequest struct {
	CourseID uuid.UUID `json:"course_id" validate:"required"`
}

func cartSnapshot(app *storefront.App) cartResponse {
	items := app.Cart.Items()
	return cartResponse{Items: items, Total: cart.Total(items), ItemCount: cart.ItemCount(items)}
}

func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, cartSnapshot(app))
	}
}

// CartAdd puts a catalog course into the cart. Adding a course twice is not an
// error; the response status tells whether anything changed.
func CartAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}

		var body courseRefRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		course, err := app.Catalog.Get(r.Context(), body.CourseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if course == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "course not found"))
			return
		}

		changed, err := app.Cart.Add(r.Context(), *course)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if changed {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, cartSnapshot(app))
	}
}

func CartRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		courseID, err := validators.ParseUUIDParam(r, "courseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := app.Cart.Remove(r.Context(), courseID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartSnapshot(app))
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		if err := app.Cart.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartSnapshot(app))
	}
}
