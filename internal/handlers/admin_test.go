package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/auth"
	"github.com/petshop-baronesa/api/internal/services"
)

type adminFixture struct {
	router   http.Handler
	issuer   *auth.AccessTokenIssuer
	catalog  *stubCatalogService
	pricing  *stubPricingService
	bookings *stubBookingService
	errlog   *stubErrorLogService
	media    *stubMediaService
}

func newAdminFixture(t *testing.T, identity *auth.Identity) *adminFixture {
	t.Helper()
	authz := newStubAuthorizationService()
	authz.types["admin-1"] = domain.UserTypeAdmin
	authz.types["guest-1"] = domain.UserTypeGuest

	issuer := newTestTokenIssuer(t)
	catalog := &stubCatalogService{}
	pricing := &stubPricingService{pricing: domain.DefaultServicePricing()}
	bookings := &stubBookingService{}
	errlog := &stubErrorLogService{}
	media := &stubMediaService{upload: services.MediaUpload{
		UploadURL: "https://signed.example/media/products/prod-1/upload01/racao.webp",
		Method:    "PUT",
		ObjectKey: "media/products/prod-1/upload01/racao.webp",
		PublicURL: "https://storage.googleapis.com/petshop-media/media/products/prod-1/upload01/racao.webp",
	}}

	h := NewAdminHandlers(AdminHandlersDeps{
		Authorization: authz,
		Tokens:        issuer,
		Catalog:       catalog,
		Slides:        &stubSlideService{},
		Tips:          &stubTipService{},
		Pricing:       pricing,
		Bookings:      bookings,
		Errors:        errlog,
		Media:         media,
	})

	r := chi.NewRouter()
	if identity != nil {
		r.Use(identityMiddleware(identity))
	}
	r.Route("/admin", h.Routes)

	return &adminFixture{
		router:   r,
		issuer:   issuer,
		catalog:  catalog,
		pricing:  pricing,
		bookings: bookings,
		errlog:   errlog,
		media:    media,
	}
}

func (f *adminFixture) request(t *testing.T, method, target, body, uid string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if uid != "" {
		token, _, err := f.issuer.Issue(uid, domain.UserTypeAdmin)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("X-Admin-Access-Token", token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRejectsMissingAccessToken(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	rec := f.request(t, http.MethodGet, "/admin/products", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without access token, got %d", rec.Code)
	}
}

func TestAdminRejectsTokenIdentityMismatch(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	rec := f.request(t, http.MethodGet, "/admin/products", "", "someone-else")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on identity mismatch, got %d", rec.Code)
	}
}

func TestAdminRejectsNonAdminUser(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "guest-1"})

	rec := f.request(t, http.MethodGet, "/admin/products", "", "guest-1")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestAdminCreatesProduct(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	body := `{"nome":"Ração Premium","categoria":"cachorros","preco":129.9,"ativo":true}`
	rec := f.request(t, http.MethodPost, "/admin/products", body, "admin-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.catalog.created) != 1 || f.catalog.created[0].Name != "Ração Premium" {
		t.Fatalf("product input not forwarded: %#v", f.catalog.created)
	}
}

func TestAdminUpdatesPricing(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	body := `{
		"base": {"cao": {"medio": {"banho": 65}}},
		"addons": {"corteUnhas": {"label": "Corte de unhas", "flat": {"cao": 15}}},
		"coatMultipliers": {"curta": 1.0}
	}`
	rec := f.request(t, http.MethodPut, "/admin/banho-tosa/precos", body, "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if f.pricing.saved == nil {
		t.Fatalf("pricing table not saved")
	}
	if got := f.pricing.saved.Base[domain.PetTypeCao][domain.SizeMedio][domain.ServiceBanho]; got != 65 {
		t.Fatalf("unexpected saved table, banho medio %v", got)
	}
}

func TestAdminListsErrors(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})
	f.errlog.entries = []domain.ErrorLogEntry{
		{ID: "e1", Scope: "catalog.list", Message: "firestore unavailable"},
	}

	rec := f.request(t, http.MethodGet, "/admin/errors", "", "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	entries, _ := payload["errors"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one error entry, got %v", payload["errors"])
	}
}

func TestAdminListErrorsRejectsBadLimit(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	rec := f.request(t, http.MethodGet, "/admin/errors?limit=abc", "", "admin-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric limit, got %d", rec.Code)
	}
}

func TestAdminListProductsRejectsBadLimit(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	for _, limit := range []string{"0", "-3", "abc"} {
		rec := f.request(t, http.MethodGet, "/admin/products?limit="+limit, "", "admin-1")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for limit=%s, got %d", limit, rec.Code)
		}
	}
}

func TestAdminListProductsHonoursLimit(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})
	f.catalog.products = []domain.Product{
		{ID: "p1", Name: "Ração", Ativo: true},
		{ID: "p2", Name: "Brinquedo", Ativo: true},
		{ID: "p3", Name: "Coleira", Ativo: false},
	}

	rec := f.request(t, http.MethodGet, "/admin/products?limit=2", "", "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	products, _ := payload["products"].([]any)
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %v", payload["products"])
	}
}

func TestAdminListSlidesAndTipsRejectBadLimit(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	for _, target := range []string{"/admin/slides?limit=0", "/admin/dicas?limit=x"} {
		rec := f.request(t, http.MethodGet, target, "", "admin-1")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestAdminCreatesUploadURL(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	body := `{"kind":"product","ownerId":"prod-1","fileName":"racao.webp","contentType":"image/webp"}`
	rec := f.request(t, http.MethodPost, "/admin/uploads", body, "admin-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if f.media.lastInput.Kind != "product" || f.media.lastInput.OwnerID != "prod-1" {
		t.Fatalf("upload input not forwarded: %#v", f.media.lastInput)
	}
	payload := decodeBody(t, rec)
	if payload["uploadUrl"] == "" || payload["publicUrl"] == "" {
		t.Fatalf("missing upload urls in %v", payload)
	}
}

func TestAdminUploadRejectsUnknownKind(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})
	f.media.err = services.ErrMediaInvalidInput

	body := `{"kind":"video","ownerId":"prod-1","fileName":"clip.mp4","contentType":"video/mp4"}`
	rec := f.request(t, http.MethodPost, "/admin/uploads", body, "admin-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid upload kind, got %d", rec.Code)
	}
}

func TestAdminSlideNumberMustBeInteger(t *testing.T) {
	f := newAdminFixture(t, &auth.Identity{UID: "admin-1"})

	rec := f.request(t, http.MethodPut, "/admin/slides/abc", `{"imagem":"x.webp"}`, "admin-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric slide number, got %d", rec.Code)
	}
}
