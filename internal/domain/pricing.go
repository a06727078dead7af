package domain

// DefaultServicePricing returns the compiled-in grooming price table used
// when neither Firestore nor the fallback file can provide one. Values are
// the store's standing table in reais.
func DefaultServicePricing() ServicePricing {
	return ServicePricing{
		Base: map[string]map[string]map[string]float64{
			PetTypeCao: {
				SizePequeno: {
					ServiceBanho:      45,
					ServiceTosa:       55,
					ServiceBanhoETosa: 85,
				},
				SizeMedio: {
					ServiceBanho:      60,
					ServiceTosa:       70,
					ServiceBanhoETosa: 110,
				},
				SizeGrande: {
					ServiceBanho:      80,
					ServiceTosa:       95,
					ServiceBanhoETosa: 150,
				},
			},
			PetTypeGato: {
				SizeUnico: {
					ServiceBanho:      70,
					ServiceTosa:       90,
					ServiceBanhoETosa: 140,
				},
			},
		},
		Addons: map[string]AddonRule{
			"corteUnhas": {
				Label: "Corte de unhas",
				Flat: map[string]float64{
					PetTypeCao:  15,
					PetTypeGato: 15,
				},
			},
			"hidratacao": {
				Label:         "Hidratação",
				PercentOfBase: &PercentRule{Percent: 30, Floor: 20},
			},
			"tosaHigienica": {
				Label: "Tosa higiênica",
				TieredByCoat: map[string]float64{
					CoatCurta: 20,
					CoatMedia: 25,
					CoatLonga: 30,
				},
			},
		},
		CoatMultipliers: map[string]float64{
			CoatCurta: 1.0,
			CoatMedia: 1.05,
			CoatLonga: 1.10,
		},
	}
}

// SizeBearing reports whether the pet type prices by porte. Types keyed only
// by SizeUnico (cats) do not require a size on selection.
func (p ServicePricing) SizeBearing(petType string) bool {
	sizes, ok := p.Base[petType]
	if !ok {
		return false
	}
	if len(sizes) == 1 {
		if _, only := sizes[SizeUnico]; only {
			return false
		}
	}
	return true
}
