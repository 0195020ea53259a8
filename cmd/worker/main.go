package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/estatehub-backend/internal/listingevents"
	"github.com/angelmondragon/estatehub-backend/internal/mail"
	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/internal/savedsearches"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/metrics"
	"github.com/angelmondragon/estatehub-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if !cfg.PubSub.Enabled() {
		logg.Warn(ctx, "pubsub listings topic not configured, nothing to consume")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	mailer, err := mail.NewSender(cfg.Sendgrid, cfg.App.Name, logg)
	if err != nil {
		logg.Error(ctx, "failed to create mail sender", err)
		os.Exit(1)
	}

	notifier, err := savedsearches.NewNotifier(savedsearches.NotifierParams{
		Repo:        savedsearches.NewRepository(dbClient.DB()),
		Properties:  properties.NewRepository(dbClient.DB()),
		Mailer:      mailer,
		FrontendURL: cfg.App.FrontendURL,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create saved search notifier", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	subscriber := pubsubClient.ListingsSubscriber()
	if subscriber == nil {
		logg.Warn(ctx, "pubsub listings subscription not configured, nothing to consume")
		return
	}

	consumer, err := listingevents.NewConsumer(listingevents.ConsumerParams{
		Subscription: subscriber,
		Handler:      notifier,
		Metrics:      metrics.NewJobMetrics(reg),
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create listing consumer", err)
		os.Exit(1)
	}

	svc, err := NewService(ServiceParams{
		Logger: logg,
		Dependencies: map[string]pinger{
			"database": dbClient,
			"pubsub":   pubsubClient,
		},
		Consumer: consumer,
		Metrics: &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	if err := svc.Run(ctx); err != nil {
		logg.Error(ctx, "worker exited with error", err)
		os.Exit(1)
	}
}
