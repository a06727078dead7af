package repositories

import (
	"context"

	domain "github.com/petshop-baronesa/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Slides() SlideRepository
	Tips() TipRepository
	Pricing() PricingRepository
	Users() UserRepository
	Carts() CartRepository
	Bookings() BookingRepository
	ErrorLog() ErrorLogRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	Category        string
	Type            string
	Query           string
	Promotional     *bool
	IncludeInactive bool
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
}

// SlideRepository persists home carousel slides.
type SlideRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Slide, error)
	FindByNumber(ctx context.Context, slideNumber int) (domain.Slide, error)
	Save(ctx context.Context, slide domain.Slide) (domain.Slide, error)
	Delete(ctx context.Context, slideID string) error
}

// TipRepository persists care articles.
type TipRepository interface {
	List(ctx context.Context, publishedOnly bool) ([]domain.Tip, error)
	FindByID(ctx context.Context, tipID string) (domain.Tip, error)
	Insert(ctx context.Context, tip domain.Tip) error
	Update(ctx context.Context, tip domain.Tip) error
	Delete(ctx context.Context, tipID string) error
}

// PricingRepository persists the singleton service pricing table.
type PricingRepository interface {
	Get(ctx context.Context) (domain.ServicePricing, error)
	Save(ctx context.Context, pricing domain.ServicePricing) (domain.ServicePricing, error)
}

// UserRepository persists user profiles keyed by Firebase uid.
type UserRepository interface {
	FindByUID(ctx context.Context, uid string) (domain.UserProfile, error)
	Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
}

// CartRepository persists one cart document per uid.
type CartRepository interface {
	Get(ctx context.Context, uid string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Delete(ctx context.Context, uid string) error
}

// BookingRepository persists grooming appointment requests.
type BookingRepository interface {
	Insert(ctx context.Context, booking domain.Booking) error
	List(ctx context.Context, limit int) ([]domain.Booking, error)
}

// ErrorLogRepository persists the capped error log.
type ErrorLogRepository interface {
	Append(ctx context.Context, entry domain.ErrorLogEntry) error
	Recent(ctx context.Context, limit int) ([]domain.ErrorLogEntry, error)
}

// HealthRepository aggregates dependency probes for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
