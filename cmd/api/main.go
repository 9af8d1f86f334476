package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kompis/server/internal/adapter/repo"
	"kompis/server/internal/generation"
	httpapi "kompis/server/internal/http"
	"kompis/server/internal/http/handlers"
	"kompis/server/internal/infra"
	"kompis/server/internal/infra/geoip"
	"kompis/server/internal/middleware"
	"kompis/server/internal/providers/faceswap"
	"kompis/server/internal/providers/getimg"
	imageprovider "kompis/server/internal/providers/image"
	"kompis/server/internal/providers/novita"
	"kompis/server/internal/providers/prompt"
	"kompis/server/internal/providers/vision"
	"kompis/server/internal/storage"
	"kompis/server/internal/tokens"
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

	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	store := newStore(cfg, logger)

	var analyzer generation.Analyzer
	if a := vision.NewOpenRouterAnalyzer(vision.Options{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.VisionModel,
	}); a.HasCredentials() {
		analyzer = a
	}
	enricher := prompt.NewEnricher(prompt.EnricherOptions{
		Rewriter: prompt.NewOpenRouterRewriter(prompt.OpenRouterOptions{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.TextModel,
		}),
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("prompt enrichment degraded")
		},
	})

	synthesizer := imageprovider.NewSynthesizer(imageprovider.SynthesizerOptions{
		Primary: getimg.NewClient(getimg.Options{
			APIKey:         cfg.GetimgAPIKey,
			BaseURL:        cfg.GetimgBaseURL,
			Model:          cfg.GetimgModel,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		Fallback: novita.NewClient(novita.Options{
			APIKey:         cfg.NovitaAPIKey,
			BaseURL:        cfg.NovitaBaseURL,
			Model:          cfg.NovitaModel,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.PollMaxAttempts,
		Logger:       &logger,
	})

	swapper := faceswap.NewClient(faceswap.Options{
		APIKey:         cfg.FaceSwapAPIKey,
		Endpoint:       cfg.FaceSwapBaseURL,
		RequestTimeout: cfg.ProviderTimeout,
	})

	companions := repo.NewCompanionRepository(sqlRunner, logger)
	images := repo.NewImageRepository(sqlRunner)
	ledger := tokens.NewLedger(sqlRunner, logger)

	pipeline := generation.NewPipeline(generation.Options{
		Companions: companions,
		Analyzer:   analyzer,
		Enricher:   enricher,
		Generator:  synthesizer,
		Swapper:    swapper,
		Ledger:     ledger,
		Store:      store,
		Recorder:   images,
		TokenCost:  cfg.TokenCostImage,
		Logger:     &logger,
	})

	app := &handlers.App{
		Config:     cfg,
		Logger:     logger,
		Pipeline:   pipeline,
		Images:     images,
		Companions: companions,
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
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

// newStore prefers the hosted bucket and falls back to the local filesystem
// store when bucket credentials are absent.
func newStore(cfg *infra.Config, logger infra.Logger) storage.Store {
	if cfg.StorageBaseURL != "" && cfg.StorageAPIKey != "" {
		bucket, err := storage.NewBucketStore(storage.BucketOptions{
			BaseURL: cfg.StorageBaseURL,
			Bucket:  cfg.StorageBucket,
			APIKey:  cfg.StorageAPIKey,
		})
		if err == nil {
			return bucket
		}
		logger.Warn().Err(err).Msg("bucket store unavailable, using filesystem")
	}
	fs, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	return fs
}
