package middleware

import (
	"context"

	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
)

type contextKey string

const ctxApp contextKey = "storefront_app"

// AppFromContext returns the device App opened by Device, or nil.
func AppFromContext(ctx context.Context) *storefront.App {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxApp).(*storefront.App); ok {
		return v
	}
	return nil
}

// WithApp injects the device App into the context for downstream handlers.
func WithApp(ctx context.Context, app *storefront.App) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxApp, app)
}
