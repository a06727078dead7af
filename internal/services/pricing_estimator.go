package services

import (
	"fmt"
	"math"
	"strings"

	domain "github.com/petshop-baronesa/api/internal/domain"
)

// EstimateError marks an estimate rejection caused by the selection rather
// than by infrastructure.
type EstimateError struct {
	msg string
}

// Error implements the error interface.
func (e *EstimateError) Error() string { return e.msg }

func estimateErrorf(format string, args ...any) error {
	return &EstimateError{msg: fmt.Sprintf(format, args...)}
}

// EstimateSelection prices a grooming selection against the given table.
// The table is never mutated. The base price is adjusted by the coat
// multiplier when one is defined for the selected coat; addon amounts are
// added unrounded on top of the adjusted base.
func EstimateSelection(table domain.ServicePricing, selection Selection) (Estimate, error) {
	petType := strings.TrimSpace(selection.PetType)
	service := strings.TrimSpace(selection.Service)
	size := strings.TrimSpace(selection.Size)
	coat := strings.TrimSpace(selection.Coat)

	if petType == "" {
		return Estimate{}, estimateErrorf("selecione o tipo de pet")
	}
	if service == "" {
		return Estimate{}, estimateErrorf("selecione o serviço")
	}

	sizes, ok := table.Base[petType]
	if !ok || len(sizes) == 0 {
		return Estimate{}, estimateErrorf("não há preços cadastrados para %s", petType)
	}

	if table.SizeBearing(petType) {
		if size == "" {
			return Estimate{}, estimateErrorf("selecione o porte do pet")
		}
	} else {
		size = domain.SizeUnico
	}

	servicePrices, ok := sizes[size]
	if !ok {
		return Estimate{}, estimateErrorf("não há preços cadastrados para porte %s", size)
	}
	base, ok := servicePrices[service]
	if !ok {
		return Estimate{}, estimateErrorf("serviço %s indisponível para essa seleção", service)
	}

	if coat != "" {
		if factor, defined := table.CoatMultipliers[coat]; defined {
			base = math.Round(base * factor)
		}
	}

	estimate := Estimate{Base: base, Total: base}
	for _, key := range selection.Addons {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		rule, defined := table.Addons[key]
		if !defined {
			continue
		}
		price, priced := priceAddon(rule, petType, coat, base)
		if !priced {
			continue
		}
		estimate.Addons = append(estimate.Addons, EstimateAddon{
			Key:   key,
			Label: rule.Label,
			Price: price,
		})
		estimate.Total += price
	}

	return estimate, nil
}

// priceAddon applies the first matching pricing shape: flat per pet type,
// percent of the adjusted base with a floor, then tiered by coat.
func priceAddon(rule domain.AddonRule, petType, coat string, base float64) (float64, bool) {
	if price, ok := rule.Flat[petType]; ok {
		return price, true
	}
	if rule.PercentOfBase != nil {
		price := base * rule.PercentOfBase.Percent / 100
		if price < rule.PercentOfBase.Floor {
			price = rule.PercentOfBase.Floor
		}
		return price, true
	}
	if coat != "" {
		if price, ok := rule.TieredByCoat[coat]; ok {
			return price, true
		}
	}
	return 0, false
}
