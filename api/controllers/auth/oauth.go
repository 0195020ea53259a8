package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/estatehub-backend/api/responses"
	"github.com/angelmondragon/estatehub-backend/api/validators"
	"github.com/angelmondragon/estatehub-backend/internal/auth"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

// OAuthRedirect sends the browser to the provider consent page.
func OAuthRedirect(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := svc.OAuthRedirectURL(r.Context(), chi.URLParam(r, "provider"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// OAuthCallback finishes the browser flow. Both outcomes redirect to the
// frontend; failures carry the provider in the error parameter.
func OAuthCallback(svc auth.Service, frontendURL string, logg *logger.Logger) http.HandlerFunc {
	base := strings.TrimRight(frontendURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		provider := strings.ToLower(chi.URLParam(r, "provider"))
		q := r.URL.Query()

		result, err := svc.OAuthCallback(r.Context(), provider, q.Get("state"), q.Get("code"))
		if err != nil {
			if logg != nil {
				ctx := logg.WithField(r.Context(), "provider", provider)
				logg.Warn(ctx, "oauth.callback_failed")
			}
			http.Redirect(w, r, base+"/login?error="+url.QueryEscape(provider+"_auth_failed"), http.StatusFound)
			return
		}

		params := url.Values{}
		params.Set("token", result.Token)
		params.Set("refreshToken", result.RefreshToken)
		params.Set("provider", provider)
		http.Redirect(w, r, base+"/auth-success?"+params.Encode(), http.StatusFound)
	}
}

func GoogleMobile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.GoogleMobileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GoogleMobile(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func FacebookMobile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.FacebookMobileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.FacebookMobile(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
