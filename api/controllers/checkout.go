package controllers

import (
	"net/http"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// Checkout turns the device's cart into a paid order for the signed-in user.
func Checkout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		order, err := app.Checkout.Execute(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"order_id":     order.ID.String(),
				"course_count": len(order.CourseIDs),
				"total":        order.Total.String(),
			})
			logg.Info(ctx, "checkout.completed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
