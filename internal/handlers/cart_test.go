package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/auth"
)

func newCartRouter(carts *stubCartService, identity *auth.Identity) http.Handler {
	h := NewCartHandlers(nil, carts)
	r := chi.NewRouter()
	if identity != nil {
		r.Use(identityMiddleware(identity))
	}
	r.Route("/cart", h.Routes)
	return r
}

func TestCartRequiresIdentity(t *testing.T) {
	router := newCartRouter(newStubCartService(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestCartAddAndGet(t *testing.T) {
	carts := newStubCartService()
	router := newCartRouter(carts, &auth.Identity{UID: "user-1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":"p1","quantidade":2}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: unexpected status %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	cart, ok := payload["cart"].(map[string]any)
	if !ok {
		t.Fatalf("missing cart in %v", payload)
	}
	items, _ := cart["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %v", cart["items"])
	}
}

func TestCartUpdateMissingItem(t *testing.T) {
	router := newCartRouter(newStubCartService(), &auth.Identity{UID: "user-1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/cart/items/absent", strings.NewReader(`{"quantidade":3}`)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing item, got %d", rec.Code)
	}
}

func TestCartClear(t *testing.T) {
	carts := newStubCartService()
	carts.carts["user-1"] = domain.Cart{UID: "user-1", Items: []domain.CartItem{{ProductID: "p1", Quantity: 1}}}
	router := newCartRouter(carts, &auth.Identity{UID: "user-1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cart/", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := carts.carts["user-1"]; ok {
		t.Fatalf("cart should be cleared")
	}
}
