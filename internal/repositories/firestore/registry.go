package firestore

import (
	"context"
	"errors"
	"fmt"

	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the repositories.Registry contract.
// The health repository is supplied by the caller because its dependency checks reach beyond
// Firestore (Pub/Sub, pricing fallback file).
type Registry struct {
	provider *pfirestore.Provider

	products *ProductRepository
	slides   *SlideRepository
	tips     *TipRepository
	pricing  *PricingRepository
	users    *UserRepository
	carts    *CartRepository
	bookings *BookingRepository
	errorLog *ErrorLogRepository
	health   repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs every Firestore repository from the shared provider.
func NewRegistry(provider *pfirestore.Provider, health repositories.HealthRepository) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	reg := &Registry{provider: provider, health: health}

	var err error
	if reg.products, err = NewProductRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: product repository: %w", err)
	}
	if reg.slides, err = NewSlideRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: slide repository: %w", err)
	}
	if reg.tips, err = NewTipRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: tip repository: %w", err)
	}
	if reg.pricing, err = NewPricingRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: pricing repository: %w", err)
	}
	if reg.users, err = NewUserRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: user repository: %w", err)
	}
	if reg.carts, err = NewCartRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: cart repository: %w", err)
	}
	if reg.bookings, err = NewBookingRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: booking repository: %w", err)
	}
	if reg.errorLog, err = NewErrorLogRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: error log repository: %w", err)
	}

	return reg, nil
}

// Close releases the shared Firestore provider.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Products exposes the product repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Slides exposes the slide repository.
func (r *Registry) Slides() repositories.SlideRepository { return r.slides }

// Tips exposes the tip repository.
func (r *Registry) Tips() repositories.TipRepository { return r.tips }

// Pricing exposes the pricing repository.
func (r *Registry) Pricing() repositories.PricingRepository { return r.pricing }

// Users exposes the user repository.
func (r *Registry) Users() repositories.UserRepository { return r.users }

// Carts exposes the cart repository.
func (r *Registry) Carts() repositories.CartRepository { return r.carts }

// Bookings exposes the booking repository.
func (r *Registry) Bookings() repositories.BookingRepository { return r.bookings }

// ErrorLog exposes the error log repository.
func (r *Registry) ErrorLog() repositories.ErrorLogRepository { return r.errorLog }

// Health exposes the dependency health repository when configured.
func (r *Registry) Health() repositories.HealthRepository { return r.health }
