package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/cache"
	"github.com/petshop-baronesa/api/internal/repositories"
)

var (
	// ErrPricingRepositoryMissing signals that the pricing repository dependency is absent.
	ErrPricingRepositoryMissing = errors.New("pricing service: pricing repository is not configured")
	// ErrPricingInvalidInput marks validation failures on price table writes.
	ErrPricingInvalidInput = errors.New("pricing service: invalid input")
)

const pricingSnapshotKey = "servicePricing"

// PricingServiceDeps groups constructor parameters for the pricing service.
type PricingServiceDeps struct {
	Pricing repositories.PricingRepository
	// Snapshot holds the last table read from the backend.
	Snapshot *cache.TTLCache[ServicePricing]
	// FallbackFile is an optional JSON table consulted when the backend and
	// snapshot both fail. The compiled-in default is the last resort.
	FallbackFile string
	Errors       ErrorLogService
	Clock        func() time.Time
}

type pricingService struct {
	pricing      repositories.PricingRepository
	snapshot     *cache.TTLCache[ServicePricing]
	fallbackFile string
	errlog       ErrorLogService
	clock        func() time.Time
}

// NewPricingService constructs the pricing service with the supplied dependencies.
func NewPricingService(deps PricingServiceDeps) (PricingService, error) {
	if deps.Pricing == nil {
		return nil, ErrPricingRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &pricingService{
		pricing:      deps.Pricing,
		snapshot:     deps.Snapshot,
		fallbackFile: deps.FallbackFile,
		errlog:       deps.Errors,
		clock:        func() time.Time { return clock().UTC() },
	}, nil
}

// GetPricing resolves the price table through the fallback chain: backend,
// then the cached snapshot, then the fallback file, then the compiled-in
// default. The public estimator must keep working through a backend outage.
func (s *pricingService) GetPricing(ctx context.Context) (ServicePricing, error) {
	pricing, err := s.pricing.Get(ctx)
	if err == nil {
		if s.snapshot != nil {
			s.snapshot.Set(pricingSnapshotKey, pricing)
		}
		return pricing, nil
	}

	if !isNotFound(err) {
		s.record(ctx, "pricing.get", err)
	}

	if s.snapshot != nil {
		if cached, ok := s.snapshot.Get(pricingSnapshotKey); ok {
			return cached, nil
		}
	}

	if s.fallbackFile != "" {
		if fromFile, fileErr := loadPricingFile(s.fallbackFile); fileErr == nil {
			return fromFile, nil
		} else if !os.IsNotExist(fileErr) {
			s.record(ctx, "pricing.fallbackFile", fileErr)
		}
	}

	return domain.DefaultServicePricing(), nil
}

func (s *pricingService) UpdatePricing(ctx context.Context, pricing ServicePricing) (ServicePricing, error) {
	if err := validatePricing(pricing); err != nil {
		return ServicePricing{}, err
	}

	pricing.UpdatedAt = s.clock()
	saved, err := s.pricing.Save(ctx, pricing)
	if err != nil {
		s.record(ctx, "pricing.update", err)
		return ServicePricing{}, err
	}

	if s.snapshot != nil {
		s.snapshot.Set(pricingSnapshotKey, saved)
	}
	return saved, nil
}

func (s *pricingService) EstimatePrice(ctx context.Context, selection Selection) (Estimate, error) {
	pricing, err := s.GetPricing(ctx)
	if err != nil {
		return Estimate{}, err
	}
	return EstimateSelection(pricing, selection)
}

func (s *pricingService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func validatePricing(pricing ServicePricing) error {
	if len(pricing.Base) == 0 {
		return fmt.Errorf("%w: base price table is empty", ErrPricingInvalidInput)
	}
	for petType, sizes := range pricing.Base {
		if len(sizes) == 0 {
			return fmt.Errorf("%w: pet type %q has no sizes", ErrPricingInvalidInput, petType)
		}
		for size, services := range sizes {
			if len(services) == 0 {
				return fmt.Errorf("%w: %s/%s has no services", ErrPricingInvalidInput, petType, size)
			}
			for service, price := range services {
				if price <= 0 {
					return fmt.Errorf("%w: %s/%s/%s price must be positive", ErrPricingInvalidInput, petType, size, service)
				}
			}
		}
	}
	for coat, factor := range pricing.CoatMultipliers {
		if factor <= 0 {
			return fmt.Errorf("%w: coat multiplier for %q must be positive", ErrPricingInvalidInput, coat)
		}
	}
	for key, rule := range pricing.Addons {
		if err := validateAddonRule(key, rule); err != nil {
			return err
		}
	}
	return nil
}

func validateAddonRule(key string, rule domain.AddonRule) error {
	shapes := 0
	if len(rule.Flat) > 0 {
		shapes++
		for petType, price := range rule.Flat {
			if price <= 0 {
				return fmt.Errorf("%w: addon %q flat price for %q must be positive", ErrPricingInvalidInput, key, petType)
			}
		}
	}
	if rule.PercentOfBase != nil {
		shapes++
		if rule.PercentOfBase.Percent <= 0 {
			return fmt.Errorf("%w: addon %q percent must be positive", ErrPricingInvalidInput, key)
		}
		if rule.PercentOfBase.Floor < 0 {
			return fmt.Errorf("%w: addon %q floor must not be negative", ErrPricingInvalidInput, key)
		}
	}
	if len(rule.TieredByCoat) > 0 {
		shapes++
		for coat, price := range rule.TieredByCoat {
			if price <= 0 {
				return fmt.Errorf("%w: addon %q tiered price for %q must be positive", ErrPricingInvalidInput, key, coat)
			}
		}
	}
	if shapes == 0 {
		return fmt.Errorf("%w: addon %q has no pricing shape", ErrPricingInvalidInput, key)
	}
	return nil
}

// pricingFileDocument mirrors the JSON layout of the fallback file, which
// matches the Firestore document shape.
type pricingFileDocument struct {
	Base            map[string]map[string]map[string]float64 `json:"base"`
	Addons          map[string]addonRuleFile                 `json:"addons"`
	CoatMultipliers map[string]float64                       `json:"coatMultipliers"`
}

type addonRuleFile struct {
	Label         string             `json:"label"`
	Flat          map[string]float64 `json:"flat,omitempty"`
	PercentOfBase *percentRuleFile   `json:"percentOfBase,omitempty"`
	TieredByCoat  map[string]float64 `json:"tieredByCoat,omitempty"`
}

type percentRuleFile struct {
	Percent float64 `json:"percent"`
	Floor   float64 `json:"floor"`
}

func loadPricingFile(path string) (ServicePricing, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ServicePricing{}, err
	}

	var doc pricingFileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ServicePricing{}, fmt.Errorf("pricing service: parse fallback file %s: %w", path, err)
	}

	pricing := ServicePricing{
		Base:            doc.Base,
		CoatMultipliers: doc.CoatMultipliers,
		Addons:          make(map[string]domain.AddonRule, len(doc.Addons)),
	}
	for key, rule := range doc.Addons {
		converted := domain.AddonRule{
			Label:        rule.Label,
			Flat:         rule.Flat,
			TieredByCoat: rule.TieredByCoat,
		}
		if rule.PercentOfBase != nil {
			converted.PercentOfBase = &domain.PercentRule{
				Percent: rule.PercentOfBase.Percent,
				Floor:   rule.PercentOfBase.Floor,
			}
		}
		pricing.Addons[key] = converted
	}

	if err := validatePricing(pricing); err != nil {
		return ServicePricing{}, fmt.Errorf("pricing service: fallback file %s: %w", path, err)
	}
	return pricing, nil
}
