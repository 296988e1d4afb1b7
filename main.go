package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"fd-advisor/config"
	httpLayer "fd-advisor/http"
	"fd-advisor/logger"
	"fd-advisor/repository"
	"fd-advisor/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cache := newCache(ctx, cfg, log)

	generator := service.NewAIService(service.AIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		APIURL:  cfg.OpenAIAPIURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.AdvisoryTimeout,
	}, service.ReferenceRate, log)
	if !generator.Enabled() {
		log.Warn().Msg("OPENAI_API_KEY not set, advisories will never carry a message")
	}

	rule := service.AnomalyRule{
		RateDeviationThreshold: cfg.RateDeviationThreshold,
		MaturityTolerance:      cfg.MaturityTolerance,
	}
	advisoryService := service.NewAdvisoryService(service.ReferenceRate, rule, generator, cfg.AdvisoryTimeout, log)
	tracker := service.NewAdvisoryTracker(advisoryService, cache, cfg.AdvisoryTTL, log)
	depositService := service.NewDepositService(log)

	depositHandler := httpLayer.NewDepositHandler(depositService, tracker, service.ReferenceRate, log)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimitCapacity, cfg.RateLimitWindow)
	defer rateLimiter.Stop()

	server := httpLayer.NewServer(httpLayer.Config{
		Port:        cfg.Port,
		Log:         log,
		Deposits:    depositHandler,
		RateLimiter: rateLimiter,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("Error starting server")
		closeCache(cache, log)
		return
	case <-quit:
		log.Info().Msg("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	closeCache(cache, log)

	log.Info().Msg("Server exited")
}

// newCache prefers Redis and falls back to memory when it is unset or unreachable.
func newCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) repository.CacheRepository {
	if cfg.RedisAddr != "" {
		redisCache := repository.NewRedisCache(cfg.RedisAddr)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		err := redisCache.Ping(pingCtx)
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis advisory cache")
			return redisCache
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, using in-memory cache")
		_ = redisCache.Close()
	}

	memory := repository.NewMemoryCache()
	go memory.RunCleanup(ctx, time.Minute)
	return memory
}

// closeCache releases backend connections for caches that hold any.
func closeCache(cache repository.CacheRepository, log zerolog.Logger) {
	closer, ok := cache.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing advisory cache")
	}
}
