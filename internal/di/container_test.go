package di

import (
	"context"
	"testing"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/config"
	"github.com/petshop-baronesa/api/internal/repositories"
)

type stubProductRepo struct{}

func (stubProductRepo) Insert(context.Context, domain.Product) error { return nil }
func (stubProductRepo) Update(context.Context, domain.Product) error { return nil }
func (stubProductRepo) Delete(context.Context, string) error         { return nil }
func (stubProductRepo) FindByID(context.Context, string) (domain.Product, error) {
	return domain.Product{}, nil
}
func (stubProductRepo) FindBySlug(context.Context, string) (domain.Product, error) {
	return domain.Product{}, nil
}
func (stubProductRepo) List(context.Context, repositories.ProductListFilter) ([]domain.Product, error) {
	return nil, nil
}

type stubSlideRepo struct{}

func (stubSlideRepo) List(context.Context, bool) ([]domain.Slide, error) { return nil, nil }
func (stubSlideRepo) FindByNumber(context.Context, int) (domain.Slide, error) {
	return domain.Slide{}, nil
}
func (stubSlideRepo) Save(_ context.Context, slide domain.Slide) (domain.Slide, error) {
	return slide, nil
}
func (stubSlideRepo) Delete(context.Context, string) error { return nil }

type stubTipRepo struct{}

func (stubTipRepo) List(context.Context, bool) ([]domain.Tip, error)     { return nil, nil }
func (stubTipRepo) FindByID(context.Context, string) (domain.Tip, error) { return domain.Tip{}, nil }
func (stubTipRepo) Insert(context.Context, domain.Tip) error             { return nil }
func (stubTipRepo) Update(context.Context, domain.Tip) error             { return nil }
func (stubTipRepo) Delete(context.Context, string) error                 { return nil }

type stubPricingRepo struct{}

func (stubPricingRepo) Get(context.Context) (domain.ServicePricing, error) {
	return domain.DefaultServicePricing(), nil
}
func (stubPricingRepo) Save(_ context.Context, pricing domain.ServicePricing) (domain.ServicePricing, error) {
	return pricing, nil
}

type stubUserRepo struct{}

func (stubUserRepo) FindByUID(context.Context, string) (domain.UserProfile, error) {
	return domain.UserProfile{}, nil
}
func (stubUserRepo) Upsert(_ context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	return profile, nil
}

type stubCartRepo struct{}

func (stubCartRepo) Get(context.Context, string) (domain.Cart, error) { return domain.Cart{}, nil }
func (stubCartRepo) Save(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	return cart, nil
}
func (stubCartRepo) Delete(context.Context, string) error { return nil }

type stubBookingRepo struct{}

func (stubBookingRepo) Insert(context.Context, domain.Booking) error       { return nil }
func (stubBookingRepo) List(context.Context, int) ([]domain.Booking, error) { return nil, nil }

type stubErrorLogRepo struct{}

func (stubErrorLogRepo) Append(context.Context, domain.ErrorLogEntry) error { return nil }
func (stubErrorLogRepo) Recent(context.Context, int) ([]domain.ErrorLogEntry, error) {
	return nil, nil
}

type stubHealthRepo struct{}

func (stubHealthRepo) Collect(context.Context) (domain.SystemHealthReport, error) {
	return domain.SystemHealthReport{Status: domain.HealthStatusOK}, nil
}

type stubRegistry struct {
	closed bool
	empty  bool
}

func (r *stubRegistry) Close(context.Context) error { r.closed = true; return nil }

func (r *stubRegistry) Products() repositories.ProductRepository {
	if r.empty {
		return nil
	}
	return stubProductRepo{}
}

func (r *stubRegistry) Slides() repositories.SlideRepository {
	if r.empty {
		return nil
	}
	return stubSlideRepo{}
}

func (r *stubRegistry) Tips() repositories.TipRepository {
	if r.empty {
		return nil
	}
	return stubTipRepo{}
}

func (r *stubRegistry) Pricing() repositories.PricingRepository {
	if r.empty {
		return nil
	}
	return stubPricingRepo{}
}

func (r *stubRegistry) Users() repositories.UserRepository {
	if r.empty {
		return nil
	}
	return stubUserRepo{}
}

func (r *stubRegistry) Carts() repositories.CartRepository {
	if r.empty {
		return nil
	}
	return stubCartRepo{}
}

func (r *stubRegistry) Bookings() repositories.BookingRepository {
	if r.empty {
		return nil
	}
	return stubBookingRepo{}
}

func (r *stubRegistry) ErrorLog() repositories.ErrorLogRepository {
	if r.empty {
		return nil
	}
	return stubErrorLogRepo{}
}

func (r *stubRegistry) Health() repositories.HealthRepository {
	if r.empty {
		return nil
	}
	return stubHealthRepo{}
}

func testConfig() config.Config {
	return config.Config{
		Outbound: config.OutboundConfig{WhatsAppPhone: "5511999999999"},
		Cache: config.CacheConfig{
			SnapshotTTL: time.Minute,
			UserTypeTTL: time.Minute,
		},
	}
}

func TestNewContainerRequiresRegistry(t *testing.T) {
	if _, err := NewContainer(context.Background(), testConfig(), nil); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestNewContainerBuildsAllServices(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig(), &stubRegistry{})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	svc := container.Services
	if svc.Catalog == nil || svc.Slides == nil || svc.Tips == nil || svc.Pricing == nil {
		t.Fatalf("content services missing: %+v", svc)
	}
	if svc.Cart == nil || svc.Checkout == nil || svc.Bookings == nil {
		t.Fatalf("commerce services missing: %+v", svc)
	}
	if svc.Authorization == nil || svc.Errors == nil || svc.System == nil {
		t.Fatalf("support services missing: %+v", svc)
	}
}

func TestNewContainerSkipsServicesWithoutRepositories(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig(), &stubRegistry{empty: true})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if container.Services.Catalog != nil || container.Services.Checkout != nil {
		t.Fatalf("expected unbuilt services for empty registry")
	}
}

func TestContainerCloseDelegatesToRegistry(t *testing.T) {
	reg := &stubRegistry{}
	container, err := NewContainer(context.Background(), testConfig(), reg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if err := container.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !reg.closed {
		t.Fatalf("registry was not closed")
	}
}
