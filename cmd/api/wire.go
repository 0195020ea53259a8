package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/estatehub-backend/api/routes"
	"github.com/angelmondragon/estatehub-backend/internal/analytics"
	"github.com/angelmondragon/estatehub-backend/internal/auth"
	"github.com/angelmondragon/estatehub-backend/internal/bookings"
	"github.com/angelmondragon/estatehub-backend/internal/favorites"
	"github.com/angelmondragon/estatehub-backend/internal/listingevents"
	"github.com/angelmondragon/estatehub-backend/internal/mail"
	"github.com/angelmondragon/estatehub-backend/internal/messages"
	"github.com/angelmondragon/estatehub-backend/internal/payments"
	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/internal/realtime"
	"github.com/angelmondragon/estatehub-backend/internal/reviews"
	"github.com/angelmondragon/estatehub-backend/internal/savedsearches"
	"github.com/angelmondragon/estatehub-backend/internal/users"
	"github.com/angelmondragon/estatehub-backend/pkg/auth/session"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/metrics"
	"github.com/angelmondragon/estatehub-backend/pkg/oauth"
	"github.com/angelmondragon/estatehub-backend/pkg/pubsub"
	"github.com/angelmondragon/estatehub-backend/pkg/redis"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
	"github.com/angelmondragon/estatehub-backend/pkg/storage/gcs"
	"github.com/angelmondragon/estatehub-backend/pkg/storage/local"
	"github.com/angelmondragon/estatehub-backend/pkg/stripe"
)

type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) close(ctx context.Context, logg *logger.Logger) {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	if err != nil {
		logg.Error(ctx, "error releasing clients", err)
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*app, error) {
	a := &app{}
	conn := dbClient.DB()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	store, uploads, err := buildStorage(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}

	mailer, err := mail.NewSender(cfg.Sendgrid, cfg.App.Name, logg)
	if err != nil {
		return nil, fmt.Errorf("mail sender: %w", err)
	}

	userRepo := users.NewRepository(conn)
	propertyRepo := properties.NewRepository(conn)
	searchRepo := savedsearches.NewRepository(conn)

	authSvc, err := buildAuth(cfg, logg, userRepo, sessions, mailer, redisClient)
	if err != nil {
		return nil, err
	}
	emailSvc, err := auth.NewEmailService(auth.EmailServiceParams{
		UserRepo:       userRepo,
		Mailer:         mailer,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("email service: %w", err)
	}
	userSvc, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		Storage:        store,
		PasswordConfig: cfg.Password,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes(),
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}

	onCreated, err := buildListingHook(ctx, a, cfg, logg, searchRepo, propertyRepo, mailer)
	if err != nil {
		return nil, err
	}
	propertySvc, err := properties.NewService(properties.ServiceParams{
		Repo:           propertyRepo,
		Storage:        store,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes(),
		OnCreated:      onCreated,
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("properties service: %w", err)
	}

	relay, err := realtime.NewRelay(realtime.RelayParams{
		Registry: realtime.NewRegistry(),
		Config:   cfg.Realtime,
		Metrics:  metrics.NewRelayMetrics(reg),
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("realtime relay: %w", err)
	}
	messageSvc, err := messages.NewService(messages.ServiceParams{
		Repo:     messages.NewRepository(conn),
		Notifier: relay,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("messages service: %w", err)
	}

	favoriteSvc, err := favorites.NewService(favorites.ServiceParams{Repo: favorites.NewRepository(conn)})
	if err != nil {
		return nil, fmt.Errorf("favorites service: %w", err)
	}
	reviewSvc, err := reviews.NewService(reviews.ServiceParams{Repo: reviews.NewRepository(conn), Logger: logg})
	if err != nil {
		return nil, fmt.Errorf("reviews service: %w", err)
	}
	bookingSvc, err := bookings.NewService(bookings.ServiceParams{Repo: bookings.NewRepository(conn)})
	if err != nil {
		return nil, fmt.Errorf("bookings service: %w", err)
	}
	searchSvc, err := savedsearches.NewService(savedsearches.ServiceParams{Repo: searchRepo, Properties: propertyRepo})
	if err != nil {
		return nil, fmt.Errorf("saved searches service: %w", err)
	}
	analyticsSvc, err := analytics.NewService(analytics.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("analytics service: %w", err)
	}

	var paymentSvc payments.Service
	if strings.TrimSpace(cfg.Stripe.APIKey) != "" {
		stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, fmt.Errorf("stripe client: %w", err)
		}
		if paymentSvc, err = payments.NewService(payments.NewStripeClient(stripeClient), logg); err != nil {
			return nil, fmt.Errorf("payments service: %w", err)
		}
	} else {
		logg.Warn(ctx, "stripe api key not set, payments disabled")
	}

	a.handler = routes.NewRouter(routes.Params{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Sessions:      sessions,
		Metrics:       metrics.NewHTTPMetrics(reg),
		Gatherer:      reg,
		Relay:         relay,
		Uploads:       uploads,
		Auth:          authSvc,
		Email:         emailSvc,
		Users:         userSvc,
		Properties:    propertySvc,
		Messages:      messageSvc,
		Favorites:     favoriteSvc,
		Reviews:       reviewSvc,
		Bookings:      bookingSvc,
		SavedSearches: searchSvc,
		Analytics:     analyticsSvc,
		Payments:      paymentSvc,
	})
	return a, nil
}

// buildStorage returns the file store and, for the local driver, the handler
// serving stored files.
func buildStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, http.Handler, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Storage.Driver), config.StorageDriverGCS) {
		client, err := gcs.NewClient(ctx, cfg.Storage, cfg.GCP, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		return client, nil, nil
	}
	store, err := local.New(ctx, cfg.Storage.UploadDir, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("local storage: %w", err)
	}
	return store, store.Handler(), nil
}

func buildAuth(cfg *config.Config, logg *logger.Logger, userRepo *users.Repository, sessions *session.Manager, mailer mail.Sender, redisClient *redis.Client) (auth.Service, error) {
	google := oauth.NewGoogle(cfg.OAuth)
	facebook := oauth.NewFacebook(cfg.OAuth)

	params := auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		Mailer:         mailer,
		StateStore:     redisClient,
		Providers:      oauth.NewProviders(google, facebook),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		OAuthStateTTL:  cfg.OAuth.StateTTL,
		Logger:         logg,
	}
	// typed nils would defeat the service's missing-provider checks
	if google != nil {
		params.Google = google
	}
	if facebook != nil {
		params.Facebook = facebook
	}
	svc, err := auth.NewService(params)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	return svc, nil
}

// buildListingHook publishes listing events when a topic is configured and
// otherwise notifies saved searches in the background of this process.
func buildListingHook(ctx context.Context, a *app, cfg *config.Config, logg *logger.Logger, searchRepo *savedsearches.Repository, propertyRepo *properties.Repository, mailer mail.Sender) (properties.CreatedHook, error) {
	if cfg.PubSub.Enabled() {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		publisher, err := listingevents.NewPublisher(listingevents.PublisherParams{
			Publisher: listingevents.NewGCPPublisher(client.ListingsPublisher()),
			Logger:    logg,
		})
		if err != nil {
			return nil, fmt.Errorf("listing publisher: %w", err)
		}
		return publisher, nil
	}

	notifier, err := savedsearches.NewNotifier(savedsearches.NotifierParams{
		Repo:        searchRepo,
		Properties:  propertyRepo,
		Mailer:      mailer,
		FrontendURL: cfg.App.FrontendURL,
		Logger:      logg,
	})
	if err != nil {
		return nil, fmt.Errorf("saved search notifier: %w", err)
	}
	return backgroundHook{next: notifier, logg: logg}, nil
}

type backgroundHook struct {
	next properties.CreatedHook
	logg *logger.Logger
}

func (h backgroundHook) PropertyCreated(ctx context.Context, propertyID uuid.UUID) error {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := h.next.PropertyCreated(ctx, propertyID); err != nil {
			h.logg.Error(h.logg.WithField(ctx, "property_id", propertyID.String()), "saved_search.notify_failed", err)
		}
	}()
	return nil
}
