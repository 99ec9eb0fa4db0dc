package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"greenshillings/internal/http/handlers"
	"greenshillings/internal/middleware"
)

// Options tunes the router's middleware chain.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string

	// BurstLimit caps requests per client ip per minute; zero disables it.
	BurstLimit    int
	DefaultLocale string
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.BurstLimit > 0 {
		r.Use(middleware.RateLimit(opts.BurstLimit, time.Minute))
	}

	// Health
	r.Get("/v1/healthz", app.Health)

	// Public impact summary
	r.Get("/v1/stats", app.Stats)

	r.Route("/v1/checkout", func(r chi.Router) {
		r.Post("/", app.CheckoutCreate)
	})

	r.Route("/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", app.StripeWebhook)
	})

	r.Route("/v1/donations", func(r chi.Router) {
		r.Post("/", app.DonationsCreate)
		r.Get("/recent", app.DonationsRecent)
	})

	r.Route("/v1/chat", func(r chi.Router) {
		r.Post("/", app.ChatSend)
		r.Get("/status", app.ChatStatus)
		r.Post("/escalate", app.ChatEscalate)
		r.Post("/quick", app.ChatQuick)
		r.Get("/analytics", app.ChatAnalytics)
	})

	r.Route("/v1/partner-organizations", func(r chi.Router) {
		r.Get("/", app.PartnersList)
		r.Post("/", app.PartnersCreate)
	})

	return r
}
