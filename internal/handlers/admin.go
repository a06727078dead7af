package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/auth"
	"github.com/petshop-baronesa/api/internal/platform/httpx"
	"github.com/petshop-baronesa/api/internal/platform/pagination"
	"github.com/petshop-baronesa/api/internal/services"
)

// AdminHandlers exposes the management endpoints behind the double gate of
// Firebase authentication and a server-issued access token.
type AdminHandlers struct {
	authn  *auth.Authenticator
	authz  services.AuthorizationService
	tokens *auth.AccessTokenIssuer

	catalog  services.CatalogService
	slides   services.SlideService
	tips     services.TipService
	pricing  services.PricingService
	bookings services.BookingService
	errlog   services.ErrorLogService
	media    services.MediaService
}

const maxAdminBodySize = 64 * 1024

// AdminHandlersDeps bundles the collaborators for the admin handlers.
type AdminHandlersDeps struct {
	Authenticator *auth.Authenticator
	Authorization services.AuthorizationService
	Tokens        *auth.AccessTokenIssuer
	Catalog       services.CatalogService
	Slides        services.SlideService
	Tips          services.TipService
	Pricing       services.PricingService
	Bookings      services.BookingService
	Errors        services.ErrorLogService
	// Media is optional; the uploads endpoint answers 503 when unset.
	Media services.MediaService
}

// NewAdminHandlers constructs the admin panel handlers.
func NewAdminHandlers(deps AdminHandlersDeps) *AdminHandlers {
	return &AdminHandlers{
		authn:    deps.Authenticator,
		authz:    deps.Authorization,
		tokens:   deps.Tokens,
		catalog:  deps.Catalog,
		slides:   deps.Slides,
		tips:     deps.Tips,
		pricing:  deps.Pricing,
		bookings: deps.Bookings,
		errlog:   deps.Errors,
		media:    deps.Media,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	if h.tokens != nil {
		r.Use(h.tokens.RequireAccessToken())
	}
	r.Use(h.requireAdmin)

	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{productId}", h.updateProduct)
	r.Delete("/products/{productId}", h.deleteProduct)

	r.Get("/slides", h.listSlides)
	r.Put("/slides/{slideNumber}", h.upsertSlide)
	r.Delete("/slides/{slideId}", h.deleteSlide)

	r.Get("/dicas", h.listTips)
	r.Post("/dicas", h.createTip)
	r.Put("/dicas/{tipId}", h.updateTip)
	r.Patch("/dicas/{tipId}/status", h.setTipStatus)
	r.Delete("/dicas/{tipId}", h.deleteTip)

	r.Put("/banho-tosa/precos", h.updatePricing)

	r.Get("/agendamentos", h.listBookings)
	r.Get("/errors", h.listErrors)

	r.Post("/uploads", h.createUpload)
}

// requireAdmin resolves the caller's user type and refuses everything that is
// not a confirmed admin. Resolution failures count as refusals.
func (h *AdminHandlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.authz == nil {
			httpx.WriteError(ctx, w, httpx.NewError("authorization_unavailable", "authorization service is unavailable", http.StatusServiceUnavailable))
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

		next.ServeHTTP(w, r)
	})
}

type productRequest struct {
	Name        string   `json:"nome"`
	Description string   `json:"descricao"`
	Price       float64  `json:"preco"`
	PrecoPromo  *float64 `json:"precoPromo"`
	Promocional bool     `json:"promocional"`
	Image       string   `json:"imagem"`
	Category    string   `json:"categoria"`
	Type        string   `json:"tipo"`
	Ativo       bool     `json:"ativo"`
}

func (req productRequest) toInput() services.ProductInput {
	return services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		PrecoPromo:  req.PrecoPromo,
		Promocional: req.Promocional,
		Image:       req.Image,
		Category:    req.Category,
		Type:        req.Type,
		Ativo:       req.Ativo,
	}
}

func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromRequest(r, adminListOptions)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	filter := services.ProductFilter{
		Category:        strings.TrimSpace(query.Get("categoria")),
		Type:            strings.TrimSpace(query.Get("tipo")),
		Query:           strings.TrimSpace(query.Get("q")),
		IncludeInactive: true,
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": buildProductPayloads(capList(products, params.Limit))})
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req productRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, req.toInput())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req productRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "productId"), req.toInput())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "productId")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listSlides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromRequest(r, adminListOptions)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
		return
	}

	slides, err := h.slides.ListSlides(ctx, false)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"slides": buildSlidePayloads(capList(slides, params.Limit))})
}

type slideRequest struct {
	Title    string `json:"titulo"`
	Image    string `json:"imagem"`
	IsActive bool   `json:"ativo"`
	Order    int    `json:"ordem"`
}

func (h *AdminHandlers) upsertSlide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slideNumber, err := strconv.Atoi(chi.URLParam(r, "slideNumber"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "slideNumber must be an integer", http.StatusBadRequest))
		return
	}

	var req slideRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	slide, err := h.slides.UpsertSlide(ctx, slideNumber, services.SlideInput{
		Title:    req.Title,
		Image:    req.Image,
		IsActive: req.IsActive,
		Order:    req.Order,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"slide": buildSlidePayload(slide)})
}

func (h *AdminHandlers) deleteSlide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.slides.DeleteSlide(ctx, chi.URLParam(r, "slideId")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listTips(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromRequest(r, adminListOptions)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
		return
	}

	tips, err := h.tips.ListTips(ctx, false)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	tips = capList(tips, params.Limit)
	payloads := make([]tipPayload, 0, len(tips))
	for _, tip := range tips {
		payloads = append(payloads, buildTipPayload(tip, true))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"dicas": payloads})
}

type tipRequest struct {
	Title    string   `json:"titulo"`
	Category string   `json:"categoria"`
	Date     string   `json:"data"`
	Image    string   `json:"imagem"`
	Summary  string   `json:"resumo"`
	Content  string   `json:"conteudo"`
	Tags     []string `json:"tags"`
}

func (req tipRequest) toInput() (services.TipInput, error) {
	input := services.TipInput{
		Title:    req.Title,
		Category: req.Category,
		Image:    req.Image,
		Summary:  req.Summary,
		Content:  req.Content,
		Tags:     req.Tags,
	}
	if raw := strings.TrimSpace(req.Date); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return services.TipInput{}, err
		}
		input.Date = parsed
	}
	return input, nil
}

func (h *AdminHandlers) createTip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req tipRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "data must be an RFC 3339 timestamp or YYYY-MM-DD date", http.StatusBadRequest))
		return
	}

	tip, err := h.tips.CreateTip(ctx, input)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"dica": buildTipPayload(tip, true)})
}

func (h *AdminHandlers) updateTip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req tipRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "data must be an RFC 3339 timestamp or YYYY-MM-DD date", http.StatusBadRequest))
		return
	}

	tip, err := h.tips.UpdateTip(ctx, chi.URLParam(r, "tipId"), input)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"dica": buildTipPayload(tip, true)})
}

func (h *AdminHandlers) setTipStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	tip, err := h.tips.SetTipStatus(ctx, chi.URLParam(r, "tipId"), req.Status)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"dica": buildTipPayload(tip, true)})
}

func (h *AdminHandlers) deleteTip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.tips.DeleteTip(ctx, chi.URLParam(r, "tipId")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) updatePricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pricingPayload
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	saved, err := h.pricing.UpdatePricing(ctx, pricingFromPayload(req))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"pricing": buildPricingPayload(saved)})
}

func (h *AdminHandlers) listBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromRequest(r, adminListOptions)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
		return
	}

	bookings, err := h.bookings.ListBookings(ctx, params.Limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]bookingPayload, 0, len(bookings))
	for _, booking := range bookings {
		payloads = append(payloads, buildBookingPayload(booking))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"agendamentos": payloads})
}

func (h *AdminHandlers) listErrors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.errlog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("errors_unavailable", "error log service is unavailable", http.StatusServiceUnavailable))
		return
	}
	params, err := pagination.FromRequest(r, adminListOptions)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
		return
	}

	entries, err := h.errlog.Recent(ctx, params.Limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, map[string]any{
			"id":         entry.ID,
			"scope":      entry.Scope,
			"message":    entry.Message,
			"occurredAt": formatTime(entry.OccurredAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"errors": payloads})
}

type uploadRequest struct {
	Kind        string `json:"kind"`
	OwnerID     string `json:"ownerId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	ContentMD5  string `json:"contentMd5"`
}

func (h *AdminHandlers) createUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.media == nil {
		httpx.WriteError(ctx, w, httpx.NewError("uploads_unavailable", "media uploads are not configured", http.StatusServiceUnavailable))
		return
	}

	var req uploadRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	upload, err := h.media.CreateUploadURL(ctx, services.MediaUploadInput{
		Kind:        req.Kind,
		OwnerID:     req.OwnerID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		ContentMD5:  req.ContentMD5,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"uploadUrl": upload.UploadURL,
		"method":    upload.Method,
		"headers":   upload.Headers,
		"expiresAt": formatTime(upload.ExpiresAt),
		"objectKey": upload.ObjectKey,
		"publicUrl": upload.PublicURL,
	})
}

var adminListOptions = pagination.Options{
	DefaultLimit: pagination.DefaultLimit,
	MaxLimit:     pagination.DefaultMaxLimit,
}

// capList bounds a list response. Collections are re-read in full per the
// client contract, so the bound applies to the response, not the query.
func capList[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
