package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/auth"
	"github.com/petshop-baronesa/api/internal/platform/httpx"
	"github.com/petshop-baronesa/api/internal/services"
)

// MeHandlers exposes the authenticated user's profile and admin token issuance.
type MeHandlers struct {
	authn  *auth.Authenticator
	authz  services.AuthorizationService
	tokens *auth.AccessTokenIssuer
}

// NewMeHandlers constructs handlers for the /me endpoints.
func NewMeHandlers(authn *auth.Authenticator, authz services.AuthorizationService, tokens *auth.AccessTokenIssuer) *MeHandlers {
	return &MeHandlers{
		authn:  authn,
		authz:  authz,
		tokens: tokens,
	}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/profile", h.getProfile)
	r.Post("/access-tokens", h.issueAccessToken)
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.authz == nil {
		httpx.WriteError(ctx, w, httpx.NewError("profile_unavailable", "authorization service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	displayName := ""
	if token := identity.Token(); token != nil {
		if name, ok := token.Claims["name"].(string); ok {
			displayName = name
		}
	}

	profile, err := h.authz.Profile(ctx, identity.UID, identity.Email, displayName)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"profile": map[string]any{
			"uid":         profile.UID,
			"email":       profile.Email,
			"displayName": profile.DisplayName,
			"tipo":        profile.Type,
			"createdAt":   formatTime(profile.CreatedAt),
		},
	})
}

// issueAccessToken mints a short-lived admin token. The caller must already
// be an admin according to the profile store; the token only shortens later
// checks, it never elevates.
func (h *MeHandlers) issueAccessToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.authz == nil || h.tokens == nil {
		httpx.WriteError(ctx, w, httpx.NewError("tokens_unavailable", "token issuance is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	tokenRole := ""
	if identity.HasRole(domain.UserTypeAdmin) {
		tokenRole = domain.UserTypeAdmin
	}
	if !h.authz.IsAdmin(ctx, identity.UID, tokenRole) {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "admin access required", http.StatusForbidden))
		return
	}

	token, expiresAt, err := h.tokens.Issue(identity.UID, domain.UserTypeAdmin)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("token_issue_failed", "could not issue access token", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"accessToken": token,
		"expiresAt":   formatTime(expiresAt),
		"header":      h.tokens.Header(),
	})
}
