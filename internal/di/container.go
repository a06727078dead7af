package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/cache"
	"github.com/petshop-baronesa/api/internal/platform/config"
	"github.com/petshop-baronesa/api/internal/repositories"
	"github.com/petshop-baronesa/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog       services.CatalogService
	Slides        services.SlideService
	Tips          services.TipService
	Pricing       services.PricingService
	Cart          services.CartService
	Checkout      services.CheckoutService
	Bookings      services.BookingService
	Authorization services.AuthorizationService
	Errors        services.ErrorLogService
	System        services.SystemService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// ContainerOption customises optional collaborators before services are built.
type ContainerOption func(*containerDeps)

type containerDeps struct {
	events services.EventPublisher
	logger *zap.Logger
	clock  func() time.Time
	build  services.BuildInfo
}

// WithEventPublisher wires the Pub/Sub publisher used for checkout and booking events.
func WithEventPublisher(publisher services.EventPublisher) ContainerOption {
	return func(deps *containerDeps) {
		deps.events = publisher
	}
}

// WithLogger injects the process logger used by best-effort paths.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(deps *containerDeps) {
		deps.logger = logger
	}
}

// WithBuildInfo records build metadata surfaced by the readiness report.
func WithBuildInfo(build services.BuildInfo) ContainerOption {
	return func(deps *containerDeps) {
		deps.build = build
	}
}

// WithClock overrides the container clock, primarily for tests.
func WithClock(clock func() time.Time) ContainerOption {
	return func(deps *containerDeps) {
		if clock != nil {
			deps.clock = clock
		}
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides the Firestore
// registry, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...ContainerOption) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	deps := containerDeps{
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}

	svc, err := buildServices(cfg, reg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close shuts down the repository layer and anything it holds open.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, reg repositories.Registry, deps containerDeps) (Services, error) {
	var svc Services

	if errorsRepo := reg.ErrorLog(); errorsRepo != nil {
		errorsSvc, err := services.NewErrorLogService(services.ErrorLogServiceDeps{
			Entries: errorsRepo,
			Logger:  deps.logger,
			Clock:   deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build error log service: %w", err)
		}
		svc.Errors = errorsSvc
	}

	if productsRepo := reg.Products(); productsRepo != nil {
		catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
			Products: productsRepo,
			Errors:   svc.Errors,
			Clock:    deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build catalog service: %w", err)
		}
		svc.Catalog = catalogSvc
	}

	if slidesRepo := reg.Slides(); slidesRepo != nil {
		slideSvc, err := services.NewSlideService(services.SlideServiceDeps{
			Slides:   slidesRepo,
			Snapshot: cache.New[[]domain.Slide](cfg.Cache.SnapshotTTL),
			Errors:   svc.Errors,
			Clock:    deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build slide service: %w", err)
		}
		svc.Slides = slideSvc
	}

	if tipsRepo := reg.Tips(); tipsRepo != nil {
		tipSvc, err := services.NewTipService(services.TipServiceDeps{
			Tips:     tipsRepo,
			Snapshot: cache.New[[]domain.Tip](cfg.Cache.SnapshotTTL),
			Errors:   svc.Errors,
			Clock:    deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build tip service: %w", err)
		}
		svc.Tips = tipSvc
	}

	if pricingRepo := reg.Pricing(); pricingRepo != nil {
		pricingSvc, err := services.NewPricingService(services.PricingServiceDeps{
			Pricing:      pricingRepo,
			Snapshot:     cache.New[domain.ServicePricing](cfg.Cache.SnapshotTTL),
			FallbackFile: cfg.Pricing.FallbackFile,
			Errors:       svc.Errors,
			Clock:        deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build pricing service: %w", err)
		}
		svc.Pricing = pricingSvc
	}

	if cartsRepo := reg.Carts(); cartsRepo != nil && svc.Catalog != nil {
		cartSvc, err := services.NewCartService(services.CartServiceDeps{
			Carts:   cartsRepo,
			Catalog: svc.Catalog,
			Errors:  svc.Errors,
			Clock:   deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build cart service: %w", err)
		}
		svc.Cart = cartSvc
	}

	if svc.Cart != nil && cfg.Outbound.WhatsAppPhone != "" {
		checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
			Cart:          svc.Cart,
			WhatsAppPhone: cfg.Outbound.WhatsAppPhone,
			Events:        deps.events,
			Errors:        svc.Errors,
			Clock:         deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build checkout service: %w", err)
		}
		svc.Checkout = checkoutSvc
	}

	if bookingsRepo := reg.Bookings(); bookingsRepo != nil && svc.Pricing != nil && cfg.Outbound.WhatsAppPhone != "" {
		bookingSvc, err := services.NewBookingService(services.BookingServiceDeps{
			Bookings:      bookingsRepo,
			Pricing:       svc.Pricing,
			WhatsAppPhone: cfg.Outbound.WhatsAppPhone,
			Events:        deps.events,
			Errors:        svc.Errors,
			Clock:         deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build booking service: %w", err)
		}
		svc.Bookings = bookingSvc
	}

	if usersRepo := reg.Users(); usersRepo != nil {
		authzSvc, err := services.NewAuthorizationService(services.AuthorizationServiceDeps{
			Users:     usersRepo,
			TypeCache: cache.New[string](cfg.Cache.UserTypeTTL),
			Errors:    svc.Errors,
			Clock:     deps.clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build authorization service: %w", err)
		}
		svc.Authorization = authzSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		build := deps.build
		if build.StartedAt.IsZero() {
			build.StartedAt = deps.clock().UTC()
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            deps.clock,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
