package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// DeviceIDHeader identifies the browser or client whose local storage backs
// the session and cart of a request.
const DeviceIDHeader = "X-Device-Id"

type appOpener interface {
	Open(ctx context.Context, deviceID string) (*storefront.App, error)
}

// Device opens the App of the calling device for the lifetime of the request.
func Device(factory appOpener, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if factory == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storefront unavailable"))
				return
			}

			app, err := factory.Open(ctx, r.Header.Get(DeviceIDHeader))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			defer func() {
				if err := app.Close(); err != nil && logg != nil {
					logg.WarnErr(ctx, "device.close_failed", err)
				}
			}()

			if logg != nil {
				ctx = logg.WithDeviceID(ctx, app.DeviceID)
				if user := app.Session.CurrentUser(); user != nil {
					ctx = logg.WithUserID(ctx, user.ID.String())
				}
			}
			next.ServeHTTP(w, r.WithContext(WithApp(ctx, app)))
		})
	}
}
