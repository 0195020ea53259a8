package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/estatehub-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/estatehub-backend/api/controllers/analytics"
	authcontrollers "github.com/angelmondragon/estatehub-backend/api/controllers/auth"
	"github.com/angelmondragon/estatehub-backend/api/middleware"
	"github.com/angelmondragon/estatehub-backend/internal/analytics"
	"github.com/angelmondragon/estatehub-backend/internal/auth"
	"github.com/angelmondragon/estatehub-backend/internal/bookings"
	"github.com/angelmondragon/estatehub-backend/internal/favorites"
	"github.com/angelmondragon/estatehub-backend/internal/messages"
	"github.com/angelmondragon/estatehub-backend/internal/payments"
	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/internal/realtime"
	"github.com/angelmondragon/estatehub-backend/internal/reviews"
	"github.com/angelmondragon/estatehub-backend/internal/savedsearches"
	"github.com/angelmondragon/estatehub-backend/internal/users"
	"github.com/angelmondragon/estatehub-backend/pkg/auth/session"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/metrics"
	"github.com/angelmondragon/estatehub-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Params carries everything the HTTP surface is built from. Redis, Relay,
// Payments, Uploads and Gatherer are optional; the routes that need them are
// degraded or left out when they are nil.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions sessionManager
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
	Relay    *realtime.Relay
	Uploads  http.Handler

	Auth          auth.Service
	Email         auth.EmailService
	Users         users.Service
	Properties    properties.Service
	Messages      messages.Service
	Favorites     favorites.Service
	Reviews       reviews.Service
	Bookings      bookings.Service
	SavedSearches savedsearches.Service
	Analytics     analytics.Service
	Payments      payments.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy, registerPolicy, resetPolicy := middleware.AuthRateLimitPolicies(cfg.AuthRateLimit)
	rateLimit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if p.Redis == nil {
			return passThrough
		}
		return middleware.AuthRateLimit(policy, p.Redis, logg)
	}
	idempotent := passThrough
	if p.Redis != nil {
		idempotent = middleware.Idempotency(p.Redis, logg)
	}
	requireAuth := middleware.Auth(cfg.JWT, p.Sessions, logg)
	maxUpload := cfg.Storage.MaxUploadBytes()

	readiness := map[string]controllers.Pinger{}
	if p.DB != nil {
		readiness["db"] = p.DB
	}
	if p.Redis != nil {
		readiness["redis"] = p.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(p.Gatherer))
	}
	if p.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", p.Uploads))
	}
	if p.Relay != nil {
		upgrader := realtime.NewUpgrader(cfg.App.CORSOrigins)
		r.With(middleware.SocketAuth(cfg.JWT, p.Sessions, logg)).
			Get("/ws", controllers.RealtimeSocket(p.Relay, upgrader, logg))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(rateLimit(registerPolicy)).Post("/register", authcontrollers.AuthRegister(p.Auth, logg))
		r.With(rateLimit(loginPolicy)).Post("/login", authcontrollers.AuthLogin(p.Auth, logg))
		r.With(rateLimit(resetPolicy)).Post("/forgot-password", authcontrollers.AuthForgotPassword(p.Auth, logg))
		r.With(requireAuth).Get("/me", authcontrollers.AuthMe(p.Users, logg))
		r.With(requireAuth).Post("/logout", authcontrollers.AuthLogout(p.Sessions, cfg.JWT, logg))
		r.Post("/refresh", authcontrollers.AuthRefresh(p.Sessions, cfg.JWT, logg))
		r.Post("/google/mobile", authcontrollers.GoogleMobile(p.Auth, logg))
		r.Post("/facebook/mobile", authcontrollers.FacebookMobile(p.Auth, logg))
		r.Get("/{provider}", authcontrollers.OAuthRedirect(p.Auth, logg))
		r.Get("/{provider}/callback", authcontrollers.OAuthCallback(p.Auth, cfg.App.FrontendURL, logg))
	})

	r.Route("/api/email", func(r chi.Router) {
		r.With(rateLimit(resetPolicy)).Post("/request-reset", authcontrollers.RequestReset(p.Email, logg))
		r.Post("/reset-password", authcontrollers.ResetPassword(p.Email, logg))
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/send-verification", authcontrollers.SendVerification(p.Email, logg))
			r.Post("/resend-verification", authcontrollers.ResendVerification(p.Email, logg))
			r.Post("/verify-email", authcontrollers.VerifyEmail(p.Email, logg))
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/my-properties", controllers.UserMyProperties(p.Properties, logg))
			r.Put("/profile", controllers.UserUpdateProfile(p.Users, logg))
			r.Post("/upload-photo", controllers.UserUploadPhoto(p.Users, maxUpload, logg))
			r.Put("/change-password", controllers.UserChangePassword(p.Users, logg))
			r.Put("/settings", controllers.UserUpdateSettings(p.Users, logg))
			r.Delete("/account", controllers.UserDeleteAccount(p.Users, logg))
		})
		r.Get("/{id}", controllers.UserProfile(p.Users, logg))
	})

	r.Route("/api/properties", func(r chi.Router) {
		r.Get("/", controllers.PropertySearch(p.Properties, logg))
		r.Get("/nearby/{lat}/{lng}", controllers.PropertyNearby(p.Properties, logg))
		r.Get("/{id}", controllers.PropertyGet(p.Properties, logg))
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", controllers.PropertyCreate(p.Properties, maxUpload, logg))
			r.Put("/{id}", controllers.PropertyUpdate(p.Properties, maxUpload, logg))
			r.Delete("/{id}", controllers.PropertyDelete(p.Properties, logg))
			r.Post("/{id}/images", controllers.PropertyAddImages(p.Properties, maxUpload, logg))
			r.Delete("/{id}/images/{name}", controllers.PropertyRemoveImage(p.Properties, logg))
		})
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/conversations", controllers.MessageConversations(p.Messages, logg))
		r.With(idempotent).Post("/", controllers.MessageSend(p.Messages, logg))
		r.Delete("/conversation/{userId}", controllers.MessageDeleteConversation(p.Messages, logg))
		r.Put("/{id}/read", controllers.MessageMarkRead(p.Messages, logg))
		r.Get("/{userId}", controllers.MessageThread(p.Messages, logg))
		r.Delete("/{messageId}", controllers.MessageDelete(p.Messages, logg))
	})

	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.FavoriteList(p.Favorites, logg))
		r.Get("/check/{propertyId}", controllers.FavoriteCheck(p.Favorites, logg))
		r.Post("/{propertyId}", controllers.FavoriteAdd(p.Favorites, logg))
		r.Delete("/{propertyId}", controllers.FavoriteRemove(p.Favorites, logg))
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.With(requireAuth).Get("/user/me", controllers.ReviewListMine(p.Reviews, logg))
		r.Get("/{propertyId}", controllers.ReviewListByProperty(p.Reviews, logg))
		r.With(requireAuth, idempotent).Post("/{propertyId}", controllers.ReviewCreate(p.Reviews, logg))
		r.With(requireAuth).Put("/{id}", controllers.ReviewUpdate(p.Reviews, logg))
		r.With(requireAuth).Delete("/{id}", controllers.ReviewDelete(p.Reviews, logg))
	})

	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(idempotent).Post("/", controllers.BookingCreate(p.Bookings, logg))
		r.Get("/my-bookings", controllers.BookingListMine(p.Bookings, logg))
		r.Get("/owner-bookings", controllers.BookingListForOwner(p.Bookings, logg))
		r.Get("/property/{propertyId}/slots", controllers.BookingSlots(p.Bookings, logg))
		r.Put("/{id}/status", controllers.BookingUpdateStatus(p.Bookings, logg))
		r.Put("/{id}/cancel", controllers.BookingCancel(p.Bookings, logg))
		r.Delete("/{id}", controllers.BookingDelete(p.Bookings, logg))
	})

	r.Route("/api/saved-searches", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.SavedSearchList(p.SavedSearches, logg))
		r.Post("/", controllers.SavedSearchCreate(p.SavedSearches, logg))
		r.Put("/{id}", controllers.SavedSearchUpdate(p.SavedSearches, logg))
		r.Delete("/{id}", controllers.SavedSearchDelete(p.SavedSearches, logg))
		r.Get("/{id}/properties", controllers.SavedSearchMatches(p.SavedSearches, logg))
	})

	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/listings", analyticscontrollers.ListingAnalytics(p.Analytics, logg))
		r.Get("/property/{id}", analyticscontrollers.PropertyAnalytics(p.Analytics, logg))
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(idempotent).Post("/create-intent", controllers.PaymentCreateIntent(p.Payments, logg))
	})

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}
