package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stockleague/stockleague_api/config"
	"github.com/stockleague/stockleague_api/data"
	"github.com/stockleague/stockleague_api/data/cache"
	"github.com/stockleague/stockleague_api/data/repository/postgres"
	"github.com/stockleague/stockleague_api/internal/externalApi/quotesApi"
	"github.com/stockleague/stockleague_api/internal/reportGenerator/xlsxGenerator"
	"github.com/stockleague/stockleague_api/internal/scheduler"
	"github.com/stockleague/stockleague_api/internal/service/leagueService"
	"github.com/stockleague/stockleague_api/internal/service/tradingService"
	"github.com/stockleague/stockleague_api/internal/transport/httpserver"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	quotesApiClient := quotesApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	tradingSrv := tradingService.New(cfg, pgRepo, redisCache, quotesApiClient, reportGenerator)
	leagueSrv := leagueService.New(cfg, pgRepo)

	sched := scheduler.New()
	sched.NewIntervalJob("refresh stock quotes", tradingSrv.RefreshStockPrices, cfg.Jobs.RefreshQuotesInterval, true)
	sched.Start()
	defer sched.Stop()

	ctrl := httpserver.NewController(tradingSrv, leagueSrv)
	router := httpserver.NewRouter(ctrl, cfg.API.Debug)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		slog.Info("http server listening", slog.Int("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", slog.Any("error", err))
		}
	}()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", slog.Any("error", err))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
