package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/haulbid/bidboard-backend/api/routes"
	"github.com/haulbid/bidboard-backend/internal/adjudication"
	"github.com/haulbid/bidboard-backend/internal/analytics"
	"github.com/haulbid/bidboard-backend/internal/auctions"
	"github.com/haulbid/bidboard-backend/internal/bids"
	"github.com/haulbid/bidboard-backend/internal/carriers"
	"github.com/haulbid/bidboard-backend/internal/leaderboard"
	"github.com/haulbid/bidboard-backend/internal/notifications"
	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	"github.com/haulbid/bidboard-backend/pkg/config"
	"github.com/haulbid/bidboard-backend/pkg/db"
	"github.com/haulbid/bidboard-backend/pkg/logger"
	"github.com/haulbid/bidboard-backend/pkg/metrics"
	"github.com/haulbid/bidboard-backend/pkg/migrate"
	"github.com/haulbid/bidboard-backend/pkg/outbox"
	"github.com/haulbid/bidboard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.DefaultRegisterer
	httpMetrics := metrics.NewHTTPMetrics(registry)
	feed := changefeed.New(changefeed.Options{
		SubscriberBuffer: cfg.ChangeFeed.SubscriberBuffer,
		Metrics:          metrics.NewFeedMetrics(registry),
	})

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	auctionsRepo := auctions.NewRepository(dbClient.DB())
	auctionsService, err := auctions.NewService(auctionsRepo, dbClient, outboxService, feed)
	if err != nil {
		logg.Error(context.Background(), "failed to create auctions service", err)
		os.Exit(1)
	}
	bidsService, err := bids.NewService(bids.NewRepository(dbClient.DB()), auctionsRepo, dbClient, outboxService, feed)
	if err != nil {
		logg.Error(context.Background(), "failed to create bids service", err)
		os.Exit(1)
	}
	adjudicationService, err := adjudication.NewService(adjudication.NewRepository(dbClient.DB()), dbClient, outboxService, feed, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create adjudication service", err)
		os.Exit(1)
	}
	analyticsService, err := analytics.NewService(analytics.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}
	leaderboardService, err := leaderboard.NewService(
		leaderboard.NewRepository(dbClient.DB()), redisClient, logg, cfg.Leaderboard.CacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create leaderboard service", err)
		os.Exit(1)
	}
	carriersService, err := carriers.NewService(carriers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create carriers service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			HTTPMetrics:   httpMetrics,
			Feed:          feed,
			Auctions:      auctionsService,
			Bids:          bidsService,
			Adjudication:  adjudicationService,
			Analytics:     analyticsService,
			Leaderboard:   leaderboardService,
			Carriers:      carriersService,
			Notifications: notificationsService,
		}),
	}

	go runExpirySweeper(ctx, logg, auctionsService, metrics.NewCronJobMetrics(registry))

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
	feed.Close()
	shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	shutdownErr = multierr.Append(shutdownErr, dbClient.Close())
	if shutdownErr != nil {
		logg.Error(ctx, "shutdown finished with errors", shutdownErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}

// runExpirySweeper flips auctions past their window to expired on a
// fixed cadence. Expiry itself is decided from the stored close instant
// on every read; the sweep only materializes the archive view and emits
// the expiry event, so correctness never waits on a tick. Every instance
// may run it; the sweep is idempotent.
func runExpirySweeper(ctx context.Context, logg *logger.Logger, svc auctions.Service, cron *metrics.CronJobMetrics) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		start := time.Now()
		swept, err := svc.SweepExpired(ctx, 200)
		cron.ObserveDuration("auction_expiry_sweep", time.Since(start))
		if err != nil {
			cron.IncFailure("auction_expiry_sweep")
			logg.Error(ctx, "auction expiry sweep failed", err)
			continue
		}
		cron.IncSuccess("auction_expiry_sweep")
		if swept > 0 {
			logg.Info(logg.WithField(ctx, "swept", swept), "auctions expired")
		}
	}
}
