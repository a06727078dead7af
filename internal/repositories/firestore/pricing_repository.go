package firestore

import (
	"context"
	"errors"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/repositories"
)

const (
	settingsCollection = "settings"
	pricingDocumentID  = "servicePricing"
)

// PricingRepository persists the singleton grooming price table.
// Writes are last-writer-wins; the table has no version history.
type PricingRepository struct {
	base *pfirestore.BaseRepository[pricingDocument]
}

// NewPricingRepository constructs a Firestore-backed pricing repository.
func NewPricingRepository(provider *pfirestore.Provider) (*PricingRepository, error) {
	if provider == nil {
		return nil, errors.New("pricing repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[pricingDocument](provider, settingsCollection, nil, nil)
	return &PricingRepository{base: base}, nil
}

// Get loads the pricing table document.
func (r *PricingRepository) Get(ctx context.Context) (domain.ServicePricing, error) {
	if r == nil || r.base == nil {
		return domain.ServicePricing{}, errors.New("pricing repository not initialised")
	}
	doc, err := r.base.Get(ctx, pricingDocumentID)
	if err != nil {
		return domain.ServicePricing{}, err
	}
	pricing := decodePricing(doc.Data)
	if pricing.UpdatedAt.IsZero() {
		pricing.UpdatedAt = doc.UpdateTime
	}
	return pricing, nil
}

// Save overwrites the pricing table document.
func (r *PricingRepository) Save(ctx context.Context, pricing domain.ServicePricing) (domain.ServicePricing, error) {
	if r == nil || r.base == nil {
		return domain.ServicePricing{}, errors.New("pricing repository not initialised")
	}
	result, err := r.base.Set(ctx, pricingDocumentID, encodePricing(pricing))
	if err != nil {
		return domain.ServicePricing{}, err
	}
	pricing.UpdatedAt = result.UpdateTime
	return pricing, nil
}

func encodePricing(pricing domain.ServicePricing) pricingDocument {
	doc := pricingDocument{
		Base:            pricing.Base,
		CoatMultipliers: pricing.CoatMultipliers,
		UpdatedAt:       time.Now().UTC(),
	}
	if len(pricing.Addons) > 0 {
		doc.Addons = make(map[string]addonRuleDocument, len(pricing.Addons))
		for key, rule := range pricing.Addons {
			encoded := addonRuleDocument{
				Label:        rule.Label,
				Flat:         rule.Flat,
				TieredByCoat: rule.TieredByCoat,
			}
			if rule.PercentOfBase != nil {
				encoded.PercentOfBase = &percentRuleDocument{
					Percent: rule.PercentOfBase.Percent,
					Floor:   rule.PercentOfBase.Floor,
				}
			}
			doc.Addons[key] = encoded
		}
	}
	return doc
}

func decodePricing(doc pricingDocument) domain.ServicePricing {
	pricing := domain.ServicePricing{
		Base:            doc.Base,
		CoatMultipliers: doc.CoatMultipliers,
		UpdatedAt:       doc.UpdatedAt,
	}
	if len(doc.Addons) > 0 {
		pricing.Addons = make(map[string]domain.AddonRule, len(doc.Addons))
		for key, rule := range doc.Addons {
			decoded := domain.AddonRule{
				Label:        rule.Label,
				Flat:         rule.Flat,
				TieredByCoat: rule.TieredByCoat,
			}
			if rule.PercentOfBase != nil {
				decoded.PercentOfBase = &domain.PercentRule{
					Percent: rule.PercentOfBase.Percent,
					Floor:   rule.PercentOfBase.Floor,
				}
			}
			pricing.Addons[key] = decoded
		}
	}
	return pricing
}

type pricingDocument struct {
	Base            map[string]map[string]map[string]float64 `firestore:"base"`
	Addons          map[string]addonRuleDocument             `firestore:"addons,omitempty"`
	CoatMultipliers map[string]float64                       `firestore:"coatMultipliers,omitempty"`
	UpdatedAt       time.Time                                `firestore:"updatedAt"`
}

type addonRuleDocument struct {
	Label         string               `firestore:"label"`
	Flat          map[string]float64   `firestore:"flat,omitempty"`
	PercentOfBase *percentRuleDocument `firestore:"percentOfBase,omitempty"`
	TieredByCoat  map[string]float64   `firestore:"tieredByCoat,omitempty"`
}

type percentRuleDocument struct {
	Percent float64 `firestore:"percent"`
	Floor   float64 `firestore:"floor"`
}

var _ repositories.PricingRepository = (*PricingRepository)(nil)
