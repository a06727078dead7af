package handlers

import (
	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/services"
)

type productPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"nome"`
	Slug        string   `json:"slug"`
	Description string   `json:"descricao,omitempty"`
	Price       float64  `json:"preco"`
	PrecoPromo  *float64 `json:"precoPromo,omitempty"`
	Promocional bool     `json:"promocional"`
	Image       string   `json:"imagem,omitempty"`
	Category    string   `json:"categoria"`
	Type        string   `json:"tipo,omitempty"`
	Ativo       bool     `json:"ativo"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

func buildProductPayload(product domain.Product) productPayload {
	payload := productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Price:       product.Price,
		Promocional: product.Promocional,
		Image:       product.Image,
		Category:    product.Category,
		Type:        product.Type,
		Ativo:       product.Ativo,
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
	if product.PrecoPromo != nil {
		value := *product.PrecoPromo
		payload.PrecoPromo = &value
	}
	return payload
}

func buildProductPayloads(products []domain.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, product := range products {
		out = append(out, buildProductPayload(product))
	}
	return out
}

type slidePayload struct {
	ID          string `json:"id"`
	SlideNumber int    `json:"slideNumber"`
	Title       string `json:"titulo,omitempty"`
	Image       string `json:"imagem"`
	IsActive    bool   `json:"ativo"`
	Order       int    `json:"ordem"`
}

func buildSlidePayload(slide domain.Slide) slidePayload {
	return slidePayload{
		ID:          slide.ID,
		SlideNumber: slide.SlideNumber,
		Title:       slide.Title,
		Image:       slide.Image,
		IsActive:    slide.IsActive,
		Order:       slide.Order,
	}
}

func buildSlidePayloads(slides []domain.Slide) []slidePayload {
	out := make([]slidePayload, 0, len(slides))
	for _, slide := range slides {
		out = append(out, buildSlidePayload(slide))
	}
	return out
}

type tipPayload struct {
	ID       string   `json:"id"`
	Title    string   `json:"titulo"`
	Category string   `json:"categoria,omitempty"`
	Status   string   `json:"status"`
	Date     string   `json:"data,omitempty"`
	Image    string   `json:"imagem,omitempty"`
	Summary  string   `json:"resumo,omitempty"`
	Content  string   `json:"conteudo,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func buildTipPayload(tip domain.Tip, includeContent bool) tipPayload {
	payload := tipPayload{
		ID:       tip.ID,
		Title:    tip.Title,
		Category: tip.Category,
		Status:   tip.Status,
		Date:     formatTime(tip.Date),
		Image:    tip.Image,
		Summary:  tip.Summary,
		Tags:     tip.Tags,
	}
	if includeContent {
		payload.Content = tip.Content
	}
	return payload
}

type addonRulePayload struct {
	Label         string             `json:"label"`
	Flat          map[string]float64 `json:"flat,omitempty"`
	PercentOfBase *percentPayload    `json:"percentOfBase,omitempty"`
	TieredByCoat  map[string]float64 `json:"tieredByCoat,omitempty"`
}

type percentPayload struct {
	Percent float64 `json:"percent"`
	Floor   float64 `json:"floor"`
}

type pricingPayload struct {
	Base            map[string]map[string]map[string]float64 `json:"base"`
	Addons          map[string]addonRulePayload              `json:"addons"`
	CoatMultipliers map[string]float64                       `json:"coatMultipliers"`
	UpdatedAt       string                                   `json:"updatedAt,omitempty"`
}

func buildPricingPayload(pricing domain.ServicePricing) pricingPayload {
	payload := pricingPayload{
		Base:            pricing.Base,
		CoatMultipliers: pricing.CoatMultipliers,
		Addons:          make(map[string]addonRulePayload, len(pricing.Addons)),
		UpdatedAt:       formatTime(pricing.UpdatedAt),
	}
	for key, rule := range pricing.Addons {
		converted := addonRulePayload{
			Label:        rule.Label,
			Flat:         rule.Flat,
			TieredByCoat: rule.TieredByCoat,
		}
		if rule.PercentOfBase != nil {
			converted.PercentOfBase = &percentPayload{
				Percent: rule.PercentOfBase.Percent,
				Floor:   rule.PercentOfBase.Floor,
			}
		}
		payload.Addons[key] = converted
	}
	return payload
}

func pricingFromPayload(payload pricingPayload) domain.ServicePricing {
	pricing := domain.ServicePricing{
		Base:            payload.Base,
		CoatMultipliers: payload.CoatMultipliers,
		Addons:          make(map[string]domain.AddonRule, len(payload.Addons)),
	}
	for key, rule := range payload.Addons {
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
	return pricing
}

type selectionPayload struct {
	PetType string   `json:"tipoPet"`
	Size    string   `json:"porte,omitempty"`
	Service string   `json:"servico"`
	Coat    string   `json:"pelagem,omitempty"`
	Addons  []string `json:"adicionais,omitempty"`
}

func (p selectionPayload) toSelection() services.Selection {
	return services.Selection{
		PetType: p.PetType,
		Size:    p.Size,
		Service: p.Service,
		Coat:    p.Coat,
		Addons:  p.Addons,
	}
}

type estimatePayload struct {
	Base   float64               `json:"base"`
	Addons []estimateAddonDetail `json:"adicionais"`
	Total  float64               `json:"total"`
}

type estimateAddonDetail struct {
	Key   string  `json:"chave"`
	Label string  `json:"label"`
	Price float64 `json:"preco"`
}

func buildEstimatePayload(estimate services.Estimate) estimatePayload {
	payload := estimatePayload{
		Base:   estimate.Base,
		Total:  estimate.Total,
		Addons: make([]estimateAddonDetail, 0, len(estimate.Addons)),
	}
	for _, addon := range estimate.Addons {
		payload.Addons = append(payload.Addons, estimateAddonDetail{
			Key:   addon.Key,
			Label: addon.Label,
			Price: addon.Price,
		})
	}
	return payload
}

type cartItemPayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"nome"`
	Price     float64 `json:"preco"`
	Image     string  `json:"imagem,omitempty"`
	Quantity  int     `json:"quantidade"`
}

type cartPayload struct {
	Items     []cartItemPayload `json:"items"`
	Total     float64           `json:"total"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

func buildCartPayload(cart domain.Cart) cartPayload {
	payload := cartPayload{
		Items:     make([]cartItemPayload, 0, len(cart.Items)),
		Total:     cart.Total(),
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
	for _, item := range cart.Items {
		payload.Items = append(payload.Items, cartItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Quantity:  item.Quantity,
		})
	}
	return payload
}

type bookingPayload struct {
	ID            string   `json:"id"`
	CustomerName  string   `json:"nomeCliente"`
	CustomerPhone string   `json:"telefone"`
	PetName       string   `json:"nomePet"`
	PetType       string   `json:"tipoPet"`
	PetSize       string   `json:"porte,omitempty"`
	Service       string   `json:"servico"`
	Coat          string   `json:"pelagem,omitempty"`
	Addons        []string `json:"adicionais,omitempty"`
	RequestedDate string   `json:"dataDesejada,omitempty"`
	Notes         string   `json:"observacoes,omitempty"`
	EstimateBase  float64  `json:"estimativaBase"`
	EstimateTotal float64  `json:"estimativaTotal"`
	CreatedAt     string   `json:"createdAt"`
}

func buildBookingPayload(booking domain.Booking) bookingPayload {
	return bookingPayload{
		ID:            booking.ID,
		CustomerName:  booking.CustomerName,
		CustomerPhone: booking.CustomerPhone,
		PetName:       booking.PetName,
		PetType:       booking.PetType,
		PetSize:       booking.PetSize,
		Service:       booking.Service,
		Coat:          booking.Coat,
		Addons:        booking.Addons,
		RequestedDate: formatTime(booking.RequestedDate),
		Notes:         booking.Notes,
		EstimateBase:  booking.EstimateBase,
		EstimateTotal: booking.EstimateTotal,
		CreatedAt:     formatTime(booking.CreatedAt),
	}
}
