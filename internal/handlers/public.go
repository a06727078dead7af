package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/petshop-baronesa/api/internal/platform/httpx"
	"github.com/petshop-baronesa/api/internal/services"
)

// PublicHandlers exposes the unauthenticated storefront endpoints.
type PublicHandlers struct {
	catalog  services.CatalogService
	slides   services.SlideService
	tips     services.TipService
	pricing  services.PricingService
	bookings services.BookingService

	bookingLimiter rateLimiter
}

const (
	maxEstimateBodySize = 8 * 1024
	maxBookingBodySize  = 16 * 1024

	bookingRateLimit  = 5
	bookingRateWindow = time.Minute
)

// PublicOption customises the public handlers.
type PublicOption func(*PublicHandlers)

// WithBookingRateLimiter overrides the limiter applied to booking submissions.
func WithBookingRateLimiter(limiter rateLimiter) PublicOption {
	return func(h *PublicHandlers) {
		h.bookingLimiter = limiter
	}
}

// NewPublicHandlers constructs the storefront handlers.
func NewPublicHandlers(
	catalog services.CatalogService,
	slides services.SlideService,
	tips services.TipService,
	pricing services.PricingService,
	bookings services.BookingService,
	opts ...PublicOption,
) *PublicHandlers {
	h := &PublicHandlers{
		catalog:        catalog,
		slides:         slides,
		tips:           tips,
		pricing:        pricing,
		bookings:       bookings,
		bookingLimiter: newSimpleRateLimiter(bookingRateLimit, bookingRateWindow, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /public endpoints onto the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{slug}", h.getProduct)
	r.Get("/slides", h.listSlides)
	r.Get("/dicas", h.listTips)
	r.Get("/dicas/{tipId}", h.getTip)
	r.Get("/banho-tosa/precos", h.getPricing)
	r.Post("/banho-tosa/estimate", h.estimate)
	r.Post("/agendamentos", h.createBooking)
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := services.ProductFilter{
		Category: strings.TrimSpace(query.Get("categoria")),
		Type:     strings.TrimSpace(query.Get("tipo")),
		Query:    strings.TrimSpace(query.Get("q")),
	}
	switch strings.ToLower(strings.TrimSpace(query.Get("promocao"))) {
	case "true", "1":
		yes := true
		filter.Promotional = &yes
	case "false", "0":
		no := false
		filter.Promotional = &no
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.GetProductBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if !product.Ativo {
		writeServiceError(ctx, w, services.ErrCatalogNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *PublicHandlers) listSlides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.slides == nil {
		httpx.WriteError(ctx, w, httpx.NewError("slides_unavailable", "slide service is unavailable", http.StatusServiceUnavailable))
		return
	}

	slides, err := h.slides.ListSlides(ctx, true)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"slides": buildSlidePayloads(slides)})
}

func (h *PublicHandlers) listTips(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.tips == nil {
		httpx.WriteError(ctx, w, httpx.NewError("tips_unavailable", "tip service is unavailable", http.StatusServiceUnavailable))
		return
	}

	tips, err := h.tips.ListTips(ctx, true)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]tipPayload, 0, len(tips))
	for _, tip := range tips {
		payloads = append(payloads, buildTipPayload(tip, false))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"dicas": payloads})
}

func (h *PublicHandlers) getTip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.tips == nil {
		httpx.WriteError(ctx, w, httpx.NewError("tips_unavailable", "tip service is unavailable", http.StatusServiceUnavailable))
		return
	}

	tip, err := h.tips.GetTip(ctx, chi.URLParam(r, "tipId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	// Drafts never leak through the public read.
	if !tip.Published() {
		writeServiceError(ctx, w, services.ErrTipNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"dica": buildTipPayload(tip, true)})
}

func (h *PublicHandlers) getPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	pricing, err := h.pricing.GetPricing(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"pricing": buildPricingPayload(pricing)})
}

func (h *PublicHandlers) estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req selectionPayload
	if err := decodeJSONBody(r, maxEstimateBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	estimate, err := h.pricing.EstimatePrice(ctx, req.toSelection())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"estimate": buildEstimatePayload(estimate)})
}

type createBookingRequest struct {
	CustomerName  string           `json:"nomeCliente"`
	CustomerPhone string           `json:"telefone"`
	PetName       string           `json:"nomePet"`
	Selection     selectionPayload `json:"selecao"`
	RequestedDate string           `json:"dataDesejada"`
	Notes         string           `json:"observacoes"`
}

func (h *PublicHandlers) createBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bookings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bookings_unavailable", "booking service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.bookingLimiter != nil && !h.bookingLimiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many booking requests, try again shortly", http.StatusTooManyRequests))
		return
	}

	var req createBookingRequest
	if err := decodeJSONBody(r, maxBookingBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	input := services.BookingInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PetName:       req.PetName,
		Selection:     req.Selection.toSelection(),
		Notes:         req.Notes,
	}
	if raw := strings.TrimSpace(req.RequestedDate); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "dataDesejada must be an RFC 3339 timestamp or YYYY-MM-DD date", http.StatusBadRequest))
			return
		}
		input.RequestedDate = parsed
	}

	result, err := h.bookings.CreateBooking(ctx, input)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"agendamento": buildBookingPayload(result.Booking),
		"whatsappUrl": result.WhatsAppURL,
	})
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}
