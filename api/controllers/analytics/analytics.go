package analytics

import (
	"net/http"

	"github.com/angelmondragon/estatehub-backend/api/middleware"
	"github.com/angelmondragon/estatehub-backend/api/responses"
	"github.com/angelmondragon/estatehub-backend/api/validators"
	"github.com/angelmondragon/estatehub-backend/internal/analytics"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

// ListingAnalytics reports totals across the caller's listings.
func ListingAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := middleware.UserUUIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		result, err := svc.Listings(ctx, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PropertyAnalytics reports totals for one listing owned by the caller.
func PropertyAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := middleware.UserUUIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		propertyID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Property(ctx, ownerID, propertyID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
