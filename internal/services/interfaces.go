package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product            = domain.Product
	Slide              = domain.Slide
	Tip                = domain.Tip
	ServicePricing     = domain.ServicePricing
	Cart               = domain.Cart
	CartItem           = domain.CartItem
	Booking            = domain.Booking
	UserProfile        = domain.UserProfile
	ErrorLogEntry      = domain.ErrorLogEntry
	SystemHealthReport = domain.SystemHealthReport
)

// ProductFilter narrows catalog listings for public and admin reads.
type ProductFilter struct {
	Category    string
	Type        string
	Query       string
	Promotional *bool
	// IncludeInactive is only honoured for admin listings.
	IncludeInactive bool
}

// ProductInput carries the writable product fields for create and update.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Image       string
	Category    string
	Type        string
	Promocional bool
	PrecoPromo  *float64
	Ativo       bool
}

// CatalogService manages the product catalog.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, productID string, input ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

// SlideInput carries the writable slide fields. Slides are addressed by slide number.
type SlideInput struct {
	Title    string
	Image    string
	IsActive bool
	Order    int
}

// SlideService manages the home carousel.
type SlideService interface {
	ListSlides(ctx context.Context, activeOnly bool) ([]Slide, error)
	UpsertSlide(ctx context.Context, slideNumber int, input SlideInput) (Slide, error)
	DeleteSlide(ctx context.Context, slideID string) error
}

// TipInput carries the writable tip fields. Content is sanitized on write.
type TipInput struct {
	Title    string
	Category string
	Date     time.Time
	Image    string
	Summary  string
	Content  string
	Tags     []string
}

// TipService manages care articles and their publication state.
type TipService interface {
	ListTips(ctx context.Context, publishedOnly bool) ([]Tip, error)
	GetTip(ctx context.Context, tipID string) (Tip, error)
	CreateTip(ctx context.Context, input TipInput) (Tip, error)
	UpdateTip(ctx context.Context, tipID string, input TipInput) (Tip, error)
	SetTipStatus(ctx context.Context, tipID string, status string) (Tip, error)
	DeleteTip(ctx context.Context, tipID string) error
}

// Selection identifies one grooming configuration to price.
type Selection struct {
	PetType string
	Size    string
	Service string
	Coat    string
	Addons  []string
}

// EstimateAddon is one priced optional service within an estimate.
type EstimateAddon struct {
	Key   string
	Label string
	Price float64
}

// Estimate is the priced result for a selection.
type Estimate struct {
	Base   float64
	Addons []EstimateAddon
	Total  float64
}

// PricingService resolves and maintains the grooming price table.
type PricingService interface {
	GetPricing(ctx context.Context) (ServicePricing, error)
	UpdatePricing(ctx context.Context, pricing ServicePricing) (ServicePricing, error)
	EstimatePrice(ctx context.Context, selection Selection) (Estimate, error)
}

// CartService manages the per-user cart document.
type CartService interface {
	GetCart(ctx context.Context, uid string) (Cart, error)
	AddItem(ctx context.Context, uid, productID string, quantity int) (Cart, error)
	UpdateItemQuantity(ctx context.Context, uid, productID string, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, uid, productID string) (Cart, error)
	ClearCart(ctx context.Context, uid string) error
}

// CheckoutResult carries the WhatsApp deep link handed back to the client.
type CheckoutResult struct {
	WhatsAppURL string
	Summary     string
	Total       float64
}

// CheckoutService turns a cart into a WhatsApp order submission.
type CheckoutService interface {
	Checkout(ctx context.Context, uid string) (CheckoutResult, error)
}

// BookingInput carries the fields of a public booking request.
type BookingInput struct {
	CustomerName  string
	CustomerPhone string
	PetName       string
	Selection     Selection
	RequestedDate time.Time
	Notes         string
}

// BookingResult bundles the stored booking with its WhatsApp deep link.
type BookingResult struct {
	Booking     Booking
	WhatsAppURL string
}

// BookingService manages grooming appointment requests.
type BookingService interface {
	CreateBooking(ctx context.Context, input BookingInput) (BookingResult, error)
	ListBookings(ctx context.Context, limit int) ([]Booking, error)
}

// MediaUploadInput describes a direct-to-bucket upload the admin panel wants to perform.
type MediaUploadInput struct {
	Kind        string
	OwnerID     string
	FileName    string
	ContentType string
	ContentMD5  string
}

// MediaUpload carries the signed upload URL and the public address the object
// will have once uploaded.
type MediaUpload struct {
	UploadURL string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
	ObjectKey string
	PublicURL string
}

// MediaService issues signed upload URLs for product, slide, and tip imagery.
type MediaService interface {
	CreateUploadURL(ctx context.Context, input MediaUploadInput) (MediaUpload, error)
}

// AuthorizationService resolves a uid's user type with a bounded cache.
// Unknown is an explicit result and never grants access.
type AuthorizationService interface {
	ResolveUserType(ctx context.Context, uid string, tokenRole string) string
	IsAdmin(ctx context.Context, uid string, tokenRole string) bool
	Profile(ctx context.Context, uid, email, displayName string) (UserProfile, error)
}

// ErrorLogService records failures for the admin panel, capped at
// domain.ErrorLogCap entries.
type ErrorLogService interface {
	Record(ctx context.Context, scope string, err error)
	Recent(ctx context.Context, limit int) ([]ErrorLogEntry, error)
}

// StoreEvent is the notification payload published after checkout and booking
// submissions.
type StoreEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Total     float64   `json:"total,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store event types.
const (
	EventOrderSubmitted = "order.submitted"
	EventBookingCreated = "booking.created"
)

// EventPublisher publishes store events to the notification channel.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event StoreEvent) (string, error)
}

// SystemService aggregates health and runtime information for probes.
type SystemService interface {
	Health(ctx context.Context) (SystemHealthReport, error)
}

// asRepositoryError extracts repository categorisation from an error chain.
func asRepositoryError(err error) (repositories.RepositoryError, bool) {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr, true
	}
	return nil, false
}

// isNotFound reports whether the error is a repository not-found.
func isNotFound(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.IsNotFound()
}

// isUnavailable reports whether the error is a transient backend outage.
func isUnavailable(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.IsUnavailable()
}
