package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dharmasatrya/skyfinder/internal/cache"
	"github.com/dharmasatrya/skyfinder/internal/config"
	"github.com/dharmasatrya/skyfinder/internal/handler"
	"github.com/dharmasatrya/skyfinder/internal/ratelimit"
	"github.com/dharmasatrya/skyfinder/internal/skyscanner"
	"github.com/dharmasatrya/skyfinder/internal/suggest"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(os.Getenv("SKYFINDER_CONFIG"))
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer log.Sync()

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.Upstream.RateLimitRPS,
		BurstSize:         cfg.Upstream.RateLimitBurst,
	})
	// Airport lookups fire on every debounced keystroke; flight searches are
	// rarer and far more expensive on the provider's quota.
	limiter.SetLimit(ratelimit.EndpointAirports, cfg.Upstream.RateLimitRPS, cfg.Upstream.RateLimitBurst)
	limiter.SetLimit(ratelimit.EndpointFlights, cfg.Upstream.RateLimitRPS/2, max(1, cfg.Upstream.RateLimitBurst/2))

	client := skyscanner.NewClient(skyscanner.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		APIHost: cfg.Upstream.APIHost,
		Timeout: cfg.Upstream.Timeout.Duration,
		Limiter: limiter,
	}, log)

	var airportCache cache.Cache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host: cfg.Cache.RedisHost,
			Port: cfg.Cache.RedisPort,
			TTL:  cfg.Cache.TTL.Duration,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", logger.Error(err))
		}
		airportCache = redisCache
		log.Info("Redis airport cache enabled",
			logger.String("addr", cfg.Cache.RedisHost+":"+cfg.Cache.RedisPort),
			logger.Duration("ttl", cfg.Cache.TTL.Duration))
	} else {
		airportCache = cache.NewNoOpCache()
		log.Info("Airport cache disabled")
	}
	defer airportCache.Close()

	factory := handler.NewWorkspaceFactory(client, suggest.WithCache(client, airportCache, log), handler.WorkspaceConfig{
		SuggestDelay:  cfg.Search.SuggestDebounce.Duration,
		SearchTimeout: cfg.Search.Timeout.Duration,
	}, log)
	store := handler.NewStore(cfg.Server.SessionTTL.Duration, factory, log)
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go store.Run(ctx, sweepInterval)

	e := handler.NewRouter(handler.NewSearchHandler(store), log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown failed", logger.Error(err))
		}
	}()

	log.Info("Starting skyfinder server", logger.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server stopped", logger.Error(err))
		return
	}
	log.Info("Server stopped")
}
