package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/skillhunter-backend/api/controllers"
	"github.com/angelmondragon/skillhunter-backend/api/middleware"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
	"github.com/angelmondragon/skillhunter-backend/pkg/config"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
	"github.com/angelmondragon/skillhunter-backend/pkg/metrics"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Params carries everything the router mounts.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Storefront  *storefront.Factory
	Confirmer   controllers.EmailConfirmer
	RateLimiter rateLimiter
	// Ready lists the dependencies pinged by /health/ready.
	Ready    map[string]controllers.Pinger
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Ready))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/api/v1/auth/confirm", controllers.AuthConfirm(p.Confirmer, logg))
	r.Post("/api/v1/devices", controllers.DeviceIssue())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Device(p.Storefront, logg))

		r.Get("/session", controllers.SessionState(logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).Post("/login", controllers.AuthLogin(logg))
			r.With(middleware.AuthRateLimit(registerPolicy, p.RateLimiter, logg)).Post("/register", controllers.AuthRegister(logg))
			r.Post("/logout", controllers.AuthLogout(logg))
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", controllers.CourseList(logg))
			r.Get("/search", controllers.CourseSearch(logg))
			r.Get("/suggest", controllers.CourseSuggest(logg))
			r.Get("/categories", controllers.CourseCategories(logg))
			r.Get("/{courseId}", controllers.CourseDetail(logg))
			r.Get("/{courseId}/reviews", controllers.ReviewList(logg))
			r.Post("/{courseId}/reviews", controllers.ReviewCreate(logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(logg))
			r.Post("/items", controllers.CartAdd(logg))
			r.Delete("/items/{courseId}", controllers.CartRemove(logg))
			r.Delete("/", controllers.CartClear(logg))
		})
		r.Post("/checkout", controllers.Checkout(logg))
		r.Get("/orders", controllers.OrderList(logg))

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(logg))
			r.Post("/", controllers.WishlistAdd(logg))
			r.Delete("/{courseId}", controllers.WishlistRemove(logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Device(p.Storefront, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Get("/stats", controllers.AdminStats(logg))
		r.Route("/courses", func(r chi.Router) {
			r.Post("/", controllers.AdminCourseCreate(logg))
			r.Patch("/{courseId}", controllers.AdminCourseUpdate(logg))
			r.Delete("/{courseId}", controllers.AdminCourseDelete(logg))
		})
	})

	return r
}
