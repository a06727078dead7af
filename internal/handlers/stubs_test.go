package handlers

import (
	"context"
	"net/http"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/auth"
	"github.com/petshop-baronesa/api/internal/services"
)

// identityMiddleware injects a fixed identity, standing in for the Firebase
// authenticator in handler tests.
func identityMiddleware(identity *auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

type stubCatalogService struct {
	products []domain.Product
	created  []services.ProductInput
	err      error
}

func (s *stubCatalogService) ListProducts(_ context.Context, filter services.ProductFilter) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Product
	for _, product := range s.products {
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if !filter.IncludeInactive && !product.Ativo {
			continue
		}
		if filter.Promotional != nil && product.Promocional != *filter.Promotional {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (s *stubCatalogService) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	for _, product := range s.products {
		if product.ID == productID {
			return product, nil
		}
	}
	return domain.Product{}, services.ErrCatalogNotFound
}

func (s *stubCatalogService) GetProductBySlug(_ context.Context, slug string) (domain.Product, error) {
	for _, product := range s.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return domain.Product{}, services.ErrCatalogNotFound
}

func (s *stubCatalogService) CreateProduct(_ context.Context, input services.ProductInput) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	s.created = append(s.created, input)
	return domain.Product{ID: "prod-new", Name: input.Name, Slug: "slug-new", Category: input.Category, Price: input.Price, Ativo: input.Ativo}, nil
}

func (s *stubCatalogService) UpdateProduct(_ context.Context, productID string, input services.ProductInput) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	return domain.Product{ID: productID, Name: input.Name, Slug: "slug-upd", Category: input.Category, Price: input.Price, Ativo: input.Ativo}, nil
}

func (s *stubCatalogService) DeleteProduct(_ context.Context, productID string) error {
	for _, product := range s.products {
		if product.ID == productID {
			return nil
		}
	}
	return services.ErrCatalogNotFound
}

type stubSlideService struct {
	slides []domain.Slide
	err    error
}

func (s *stubSlideService) ListSlides(_ context.Context, activeOnly bool) ([]domain.Slide, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Slide
	for _, slide := range s.slides {
		if activeOnly && !slide.IsActive {
			continue
		}
		out = append(out, slide)
	}
	return out, nil
}

func (s *stubSlideService) UpsertSlide(_ context.Context, slideNumber int, input services.SlideInput) (domain.Slide, error) {
	if s.err != nil {
		return domain.Slide{}, s.err
	}
	return domain.Slide{ID: "slide-1", SlideNumber: slideNumber, Title: input.Title, Image: input.Image, IsActive: input.IsActive, Order: input.Order}, nil
}

func (s *stubSlideService) DeleteSlide(_ context.Context, slideID string) error {
	if s.err != nil {
		return s.err
	}
	return nil
}

type stubTipService struct {
	tips []domain.Tip
	err  error
}

func (s *stubTipService) ListTips(_ context.Context, publishedOnly bool) ([]domain.Tip, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Tip
	for _, tip := range s.tips {
		if publishedOnly && !tip.Published() {
			continue
		}
		out = append(out, tip)
	}
	return out, nil
}

func (s *stubTipService) GetTip(_ context.Context, tipID string) (domain.Tip, error) {
	for _, tip := range s.tips {
		if tip.ID == tipID {
			return tip, nil
		}
	}
	return domain.Tip{}, services.ErrTipNotFound
}

func (s *stubTipService) CreateTip(_ context.Context, input services.TipInput) (domain.Tip, error) {
	if s.err != nil {
		return domain.Tip{}, s.err
	}
	return domain.Tip{ID: "tip-new", Title: input.Title, Content: input.Content, Status: domain.TipStatusDraft}, nil
}

func (s *stubTipService) UpdateTip(_ context.Context, tipID string, input services.TipInput) (domain.Tip, error) {
	if s.err != nil {
		return domain.Tip{}, s.err
	}
	return domain.Tip{ID: tipID, Title: input.Title, Content: input.Content, Status: domain.TipStatusDraft}, nil
}

func (s *stubTipService) SetTipStatus(_ context.Context, tipID string, status string) (domain.Tip, error) {
	if s.err != nil {
		return domain.Tip{}, s.err
	}
	return domain.Tip{ID: tipID, Title: "Dica", Content: "x", Status: status}, nil
}

func (s *stubTipService) DeleteTip(_ context.Context, tipID string) error {
	return s.err
}

type stubPricingService struct {
	pricing domain.ServicePricing
	saved   *domain.ServicePricing
	err     error
}

func (s *stubPricingService) GetPricing(_ context.Context) (domain.ServicePricing, error) {
	if s.err != nil {
		return domain.ServicePricing{}, s.err
	}
	return s.pricing, nil
}

func (s *stubPricingService) UpdatePricing(_ context.Context, pricing domain.ServicePricing) (domain.ServicePricing, error) {
	if s.err != nil {
		return domain.ServicePricing{}, s.err
	}
	s.saved = &pricing
	return pricing, nil
}

func (s *stubPricingService) EstimatePrice(_ context.Context, selection services.Selection) (services.Estimate, error) {
	if s.err != nil {
		return services.Estimate{}, s.err
	}
	return services.EstimateSelection(s.pricing, selection)
}

type stubCartService struct {
	carts map[string]domain.Cart
	err   error
}

func newStubCartService() *stubCartService {
	return &stubCartService{carts: make(map[string]domain.Cart)}
}

func (s *stubCartService) GetCart(_ context.Context, uid string) (domain.Cart, error) {
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	cart, ok := s.carts[uid]
	if !ok {
		return domain.Cart{UID: uid}, nil
	}
	return cart, nil
}

func (s *stubCartService) AddItem(_ context.Context, uid, productID string, quantity int) (domain.Cart, error) {
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	cart := s.carts[uid]
	cart.UID = uid
	cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Name: "Produto", Price: 10, Quantity: quantity})
	s.carts[uid] = cart
	return cart, nil
}

func (s *stubCartService) UpdateItemQuantity(_ context.Context, uid, productID string, quantity int) (domain.Cart, error) {
	cart, ok := s.carts[uid]
	if !ok {
		return domain.Cart{}, services.ErrCartItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			s.carts[uid] = cart
			return cart, nil
		}
	}
	return domain.Cart{}, services.ErrCartItemNotFound
}

func (s *stubCartService) RemoveItem(_ context.Context, uid, productID string) (domain.Cart, error) {
	cart, ok := s.carts[uid]
	if !ok {
		return domain.Cart{}, services.ErrCartItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			s.carts[uid] = cart
			return cart, nil
		}
	}
	return domain.Cart{}, services.ErrCartItemNotFound
}

func (s *stubCartService) ClearCart(_ context.Context, uid string) error {
	delete(s.carts, uid)
	return nil
}

type stubCheckoutService struct {
	result services.CheckoutResult
	err    error
	calls  []string
}

func (s *stubCheckoutService) Checkout(_ context.Context, uid string) (services.CheckoutResult, error) {
	s.calls = append(s.calls, uid)
	if s.err != nil {
		return services.CheckoutResult{}, s.err
	}
	return s.result, nil
}

type stubBookingService struct {
	result services.BookingResult
	listed []domain.Booking
	err    error
}

func (s *stubBookingService) CreateBooking(_ context.Context, input services.BookingInput) (services.BookingResult, error) {
	if s.err != nil {
		return services.BookingResult{}, s.err
	}
	return s.result, nil
}

func (s *stubBookingService) ListBookings(_ context.Context, limit int) ([]domain.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.listed, nil
}

type stubAuthorizationService struct {
	types    map[string]string
	profiles map[string]domain.UserProfile
}

func newStubAuthorizationService() *stubAuthorizationService {
	return &stubAuthorizationService{
		types:    make(map[string]string),
		profiles: make(map[string]domain.UserProfile),
	}
}

func (s *stubAuthorizationService) ResolveUserType(_ context.Context, uid string, tokenRole string) string {
	if tokenRole == domain.UserTypeAdmin {
		return domain.UserTypeAdmin
	}
	if t, ok := s.types[uid]; ok {
		return t
	}
	return domain.UserTypeUnknown
}

func (s *stubAuthorizationService) IsAdmin(ctx context.Context, uid string, tokenRole string) bool {
	return s.ResolveUserType(ctx, uid, tokenRole) == domain.UserTypeAdmin
}

func (s *stubAuthorizationService) Profile(_ context.Context, uid, email, displayName string) (domain.UserProfile, error) {
	if profile, ok := s.profiles[uid]; ok {
		return profile, nil
	}
	profile := domain.UserProfile{UID: uid, Email: email, DisplayName: displayName, Type: domain.UserTypeGuest}
	s.profiles[uid] = profile
	return profile, nil
}

type stubErrorLogService struct {
	entries []domain.ErrorLogEntry
}

func (s *stubErrorLogService) Record(_ context.Context, scope string, err error) {
	if err == nil {
		return
	}
	s.entries = append(s.entries, domain.ErrorLogEntry{Scope: scope, Message: err.Error()})
}

func (s *stubErrorLogService) Recent(_ context.Context, limit int) ([]domain.ErrorLogEntry, error) {
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

type stubMediaService struct {
	lastInput services.MediaUploadInput
	upload    services.MediaUpload
	err       error
}

func (s *stubMediaService) CreateUploadURL(_ context.Context, input services.MediaUploadInput) (services.MediaUpload, error) {
	s.lastInput = input
	if s.err != nil {
		return services.MediaUpload{}, s.err
	}
	return s.upload, nil
}

type stubSystemService struct {
	report domain.SystemHealthReport
	err    error
}

func (s *stubSystemService) Health(_ context.Context) (domain.SystemHealthReport, error) {
	if s.err != nil {
		return domain.SystemHealthReport{}, s.err
	}
	return s.report, nil
}
