package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petshop-baronesa/api/internal/platform/auth"
	"github.com/petshop-baronesa/api/internal/platform/httpx"
	"github.com/petshop-baronesa/api/internal/services"
)

// CheckoutHandlers turns the authenticated user's cart into a WhatsApp order.
type CheckoutHandlers struct {
	authn    *auth.Authenticator
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs handlers for the checkout endpoint.
func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{
		authn:    authn,
		checkout: checkout,
	}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.submit)
}

func (h *CheckoutHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	result, err := h.checkout.Checkout(ctx, identity.UID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"whatsappUrl": result.WhatsAppURL,
		"resumo":      result.Summary,
		"total":       result.Total,
	})
}
