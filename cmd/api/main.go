package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"greenshillings/internal/adapter/repo"
	"greenshillings/internal/auth"
	"greenshillings/internal/chat"
	"greenshillings/internal/donations"
	"greenshillings/internal/email"
	"greenshillings/internal/http/handlers"
	httpapi "greenshillings/internal/http/httpapi"
	"greenshillings/internal/infra"
	"greenshillings/internal/infra/geoip"
	"greenshillings/internal/middleware"
	"greenshillings/internal/payments/stripe"
	"greenshillings/internal/providers/assistant"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	donors := repo.NewDonorRepository(dbpool)
	donationsRepo := repo.NewDonationRepository(dbpool)
	conversations := repo.NewConversationRepository(dbpool)
	limits := repo.NewRateLimitRepository(dbpool)
	partners := repo.NewPartnerRepository(dbpool)

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country enrichment disabled")
	}

	// Outbound providers are optional: a missing key degrades the feature
	// instead of blocking startup.
	var checkout donations.CheckoutProvider
	if cfg.StripeSecretKey != "" {
		client, err := stripe.NewClient(stripe.Options{
			APIKey:  cfg.StripeSecretKey,
			BaseURL: cfg.StripeBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe client init failed")
		}
		checkout = client
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, checkout disabled")
	}

	var mailer email.Mailer = email.Noop{}
	if cfg.ResendAPIKey != "" {
		resend, err := email.NewResend(email.ResendOptions{
			APIKey:  cfg.ResendAPIKey,
			BaseURL: cfg.ResendBaseURL,
			From:    cfg.EmailFrom,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("resend client init failed")
		}
		mailer = resend
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set, confirmation emails disabled")
	}

	var completer assistant.Completer
	if cfg.OpenAIAPIKey != "" {
		client, err := assistant.NewOpenAIClient(assistant.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("openai client init failed")
		}
		completer = client
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, assistant offline")
	}

	donationService := donations.NewService(donors, donationsRepo, checkout, mailer, logger, donations.Config{
		BaseURL:   cfg.AppBaseURL,
		EmailFrom: cfg.EmailFrom,
	})
	chatService := chat.NewService(completer, conversations, limits, resolver, logger, chat.Config{
		RateLimit:  cfg.ChatRateLimit,
		RateWindow: cfg.ChatRateWindow,
		HashSalt:   cfg.IPHashSalt,
		Prompt:     chat.DefaultPromptConfig(),
	})

	app := &handlers.App{
		Donations:     donationService,
		Chat:          chatService,
		Partners:      partners,
		Donors:        donors,
		Auth:          auth.NewAuthenticator(cfg.AdminAPIKey, partners),
		Logger:        logger,
		WebhookSecret: cfg.StripeWebhookSecret,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		BurstLimit:     cfg.BurstLimitPerMin,
		DefaultLocale:  cfg.DefaultLocale,
		CountryLookup:  middleware.CountryLookup(resolver.CountryCode),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
