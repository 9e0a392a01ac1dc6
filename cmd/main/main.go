package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-service/internal/catalog/service"
	"catalog-service/internal/clients/assistant"
	"catalog-service/internal/clients/equivalence"
	"catalog-service/internal/clients/settings"
	"catalog-service/internal/config"
	serverhttp "catalog-service/server/http"
)

func main() {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	cfg := config.Load()
	logger, logFile := config.SetupLogger(cfg)
	defer logFile.Close()

	// источник конфигурации цен
	var source *settings.RedisSource
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// не фатально: резолвер откатится на прошлый JSON или defaults
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		cancel()
		source = settings.NewRedisSource(rdb, cfg.PricingConfigKey)
	}
	resolver := settings.NewResolver(source, cfg.ConfigTimeout, logger)

	var asst service.Assistant
	if cfg.OpenAIKey != "" {
		asst = assistant.New(assistant.Config{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel})
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, column mapping uses heuristics only")
	}
	mapper := service.NewMapper(asst, cfg.AssistTimeout, logger)

	opts := []service.Option{service.WithWorkers(cfg.Workers), service.WithTimeout(cfg.ProcessTimeout)}
	if cfg.EquivalenceURL != "" {
		opts = append(opts, service.WithEquivalence(equivalence.New(cfg.EquivalenceURL, cfg.EquivalenceRPS, 5*time.Second)))
	}
	pipeline := service.NewPipeline(mapper, resolver, logger, opts...)

	r := serverhttp.NewRouter(cfg, logger, pipeline)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
