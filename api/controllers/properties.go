package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/estatehub-backend/api/responses"
	"github.com/angelmondragon/estatehub-backend/api/validators"
	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
)

// decodeListingBody accepts either a JSON body or a multipart form whose
// "data" field holds the JSON and whose "images" parts are uploads. The
// returned cleanup must run after the uploads are consumed.
func decodeListingBody(w http.ResponseWriter, r *http.Request, dest any, maxFileBytes int64) ([]storage.Upload, func(), error) {
	noop := func() {}
	if !validators.IsMultipart(r) {
		return nil, noop, validators.DecodeJSONBody(r, dest)
	}

	form, err := validators.ParseMultipart(w, r, models.MaxPropertyImages, maxFileBytes)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() { _ = form.Close() }

	if err := validators.DecodeJSONString(form.Value("data"), dest); err != nil {
		cleanup()
		return nil, noop, err
	}
	images, err := form.Files("images", models.MaxPropertyImages)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return images, cleanup, nil
}

func searchFilters(r *http.Request) (properties.Filters, error) {
	q := r.URL.Query()
	f := properties.Filters{
		PropertyType: strings.TrimSpace(q.Get("propertyType")),
		Status:       strings.TrimSpace(q.Get("status")),
		City:         strings.TrimSpace(q.Get("city")),
		Search:       strings.TrimSpace(q.Get("search")),
	}
	var err error
	if f.MinPrice, err = validators.ParseOptionalFloat(r, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = validators.ParseOptionalFloat(r, "maxPrice"); err != nil {
		return f, err
	}
	if f.Bedrooms, err = validators.ParseOptionalInt(r, "bedrooms"); err != nil {
		return f, err
	}
	if f.Bathrooms, err = validators.ParseOptionalInt(r, "bathrooms"); err != nil {
		return f, err
	}
	return f, nil
}

// PropertySearch lists listings newest first with pagination metadata.
func PropertySearch(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := searchFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Search(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, result)
	}
}

// PropertyNearby lists listings inside a bounding box around lat/lng.
func PropertyNearby(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, err := validators.URLParamFloat(r, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.URLParamFloat(r, "lng")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		distance, err := validators.ParseOptionalFloat(r, "distance")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius := properties.DefaultNearbyRadiusKm
		if distance != nil {
			radius = *distance
		}

		list, err := svc.Nearby(r.Context(), lat, lng, radius)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

func PropertyGet(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		property, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, property)
	}
}

func PropertyCreate(svc properties.Service, maxFileBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body properties.CreatePropertyRequest
		images, cleanup, err := decodeListingBody(w, r, &body, maxFileBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		property, err := svc.Create(r.Context(), ownerID, body, images)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, property)
	}
}

func PropertyUpdate(svc properties.Service, maxFileBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := currentActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body properties.UpdatePropertyRequest
		images, cleanup, err := decodeListingBody(w, r, &body, maxFileBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		property, err := svc.Update(r.Context(), actor, id, body, images)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, property)
	}
}

func PropertyDelete(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := currentActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Property deleted successfully")
	}
}

// PropertyAddImages appends multipart "images" parts to a listing.
func PropertyAddImages(svc properties.Service, maxFileBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := currentActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !validators.IsMultipart(r) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Please upload a file"))
			return
		}
		form, err := validators.ParseMultipart(w, r, models.MaxPropertyImages, maxFileBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer form.Close()

		images, err := form.Files("images", models.MaxPropertyImages)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		property, err := svc.AddImages(r.Context(), actor, id, images)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, property)
	}
}

func PropertyRemoveImage(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := currentActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		property, err := svc.RemoveImage(r.Context(), actor, id, chi.URLParam(r, "name"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, property)
	}
}
