package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/petshop-baronesa/api/internal/platform/auth"
	"github.com/petshop-baronesa/api/internal/services"
)

func newCheckoutRouter(checkout *stubCheckoutService, identity *auth.Identity) http.Handler {
	h := NewCheckoutHandlers(nil, checkout)
	r := chi.NewRouter()
	if identity != nil {
		r.Use(identityMiddleware(identity))
	}
	r.Route("/checkout", h.Routes)
	return r
}

func TestCheckoutRequiresIdentity(t *testing.T) {
	router := newCheckoutRouter(&stubCheckoutService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestCheckoutReturnsWhatsAppLink(t *testing.T) {
	checkout := &stubCheckoutService{result: services.CheckoutResult{
		WhatsAppURL: "https://wa.me/5511999990000?text=pedido",
		Summary:     "Olá! Gostaria de fazer um pedido",
		Total:       79.80,
	}}
	router := newCheckoutRouter(checkout, &auth.Identity{UID: "user-1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	if payload["whatsappUrl"] != "https://wa.me/5511999990000?text=pedido" {
		t.Fatalf("missing whatsapp url in %v", payload)
	}
	if len(checkout.calls) != 1 || checkout.calls[0] != "user-1" {
		t.Fatalf("checkout should run for the authenticated uid, got %v", checkout.calls)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	checkout := &stubCheckoutService{err: services.ErrCheckoutEmptyCart}
	router := newCheckoutRouter(checkout, &auth.Identity{UID: "user-1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout/", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty cart, got %d", rec.Code)
	}
}
