package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/finsightlab/finsight-go/internal/advisor"
	"github.com/finsightlab/finsight-go/internal/api"
	"github.com/finsightlab/finsight-go/internal/api/handlers"
	"github.com/finsightlab/finsight-go/internal/cache"
	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/database"
	"github.com/finsightlab/finsight-go/internal/logging"
	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/providers"
	"github.com/finsightlab/finsight-go/internal/services"
	"github.com/finsightlab/finsight-go/internal/telemetry"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Setup(cfg.LogLevel, cfg.Environment)
	logger := logrus.StandardLogger()

	tel, err := telemetry.Init(cfg.Environment != "test", cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Failed to shut down telemetry")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redis.Close()

	// Provider clients.
	market := providers.NewMarketDataClient(cfg.Providers.MarketData, logger)
	funds := providers.NewFundsClient(cfg.Providers.Funds, logger)
	news := providers.NewNewsClient(cfg.Providers.News, logger)
	econ := providers.NewEconClient(cfg.Providers.Econ, logger)
	filings := providers.NewFilingsClient(cfg.Providers.Filings, logger)

	quoteTTL := config.Duration(cfg.Cache.QuoteTTL, time.Minute)
	quoteCache := cache.NewRedisQuoteCache(redis.Client, quoteTTL)

	// Per-user session state, seeded from persisted holdings.
	portfolioRepo := database.NewPortfolioRepository(db.Pool)
	watchlistRepo := database.NewWatchlistRepository(db.Pool)
	validityTTL := config.Duration(cfg.Cache.ValidityTTL, 24*time.Hour)
	factory := func(ownerID string) (*services.SessionContext, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		holdings, err := portfolioRepo.List(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("loading holdings for session: %w", err)
		}
		return services.NewSessionContext(ownerID, holdings, watchlistRepo, market, validityTTL), nil
	}
	idleTTL := config.Duration(cfg.Session.IdleTTL, 30*time.Minute)
	sessions := services.NewSessionManager(factory, idleTTL)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, config.Duration(cfg.Session.SweepInterval, 5*time.Minute), logging.WithComponent("session_sweeper"))

	auth := middleware.NewAuthMiddleware(cfg.Security.JWTSecret)

	var summarizer handlers.Summarizer
	if cfg.Advisor.APIKey != "" {
		gen, err := advisor.NewGeminiGenerator(context.Background(), cfg.Advisor)
		if err != nil {
			logger.WithError(err).Warn("Advisor disabled: generator initialization failed")
		} else {
			summarizer = advisor.New(gen, logger)
		}
	} else {
		logger.Info("Advisor disabled: no API key configured")
	}

	pricer := handlers.NewPriceFetcher(market, quoteCache, quoteTTL, logger)

	h := api.Handlers{
		Health: handlers.NewHealthHandler(db, redis, version),
		Users: handlers.NewUserHandler(
			database.NewUserRepository(db.Pool), auth,
			config.Duration(cfg.Security.JWTExpiry, 24*time.Hour), cfg.Security.BcryptCost, logger),
		Portfolio: handlers.NewPortfolioHandler(sessions, portfolioRepo, pricer, logger),
		Watchlist: handlers.NewWatchlistHandler(sessions, logger),
		Market:    handlers.NewMarketHandler(sessions, market, config.Duration(cfg.Cache.HistoryTTL, time.Hour), quoteTTL, logger),
		Research: handlers.NewResearchHandler(sessions, funds, news, econ, filings,
			config.Duration(cfg.Cache.NewsTTL, 15*time.Minute),
			config.Duration(cfg.Cache.FilingsTTL, 12*time.Hour), logger),
		Advisor: handlers.NewAdvisorHandler(sessions, summarizer, pricer, logger),
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("finsight-go"))
	api.SetupRoutes(router, h, auth)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"version": version,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

// sweepSessions periodically drops idle sessions.
func sweepSessions(ctx context.Context, sessions *services.SessionManager, interval time.Duration, logger *logrus.Entry) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := sessions.Sweep(); dropped > 0 {
				logger.WithField("dropped", dropped).Debug("Swept idle sessions")
			}
		}
	}
}
