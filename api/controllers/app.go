package controllers

import (
	"net/http"

	"github.com/angelmondragon/skillhunter-backend/api/middleware"
	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// deviceApp returns the App opened by middleware.Device, writing an error
// response when the route was mounted without it.
func deviceApp(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*storefront.App, bool) {
	app := middleware.AppFromContext(r.Context())
	if app == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "device context missing"))
		return nil, false
	}
	return app, true
}
