package domain

import "time"

// Product categories mirror the storefront navigation.
const (
	CategoryCachorros = "cachorros"
	CategoryGatos     = "gatos"
	CategoryPassaros  = "passaros"
	CategoryPeixes    = "peixes"
	CategoryOutros    = "outros"
)

// Product is a catalog entry. Prices are decimal reais.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Image       string
	Category    string
	Type        string
	Promocional bool
	PrecoPromo  *float64
	Ativo       bool
	Slug        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EffectivePrice returns the promotional price when the promotion is active.
func (p Product) EffectivePrice() float64 {
	if p.Promocional && p.PrecoPromo != nil {
		return *p.PrecoPromo
	}
	return p.Price
}

// Slide is a home-page carousel entry, addressed by its slide number.
type Slide struct {
	ID          string
	SlideNumber int
	Title       string
	Image       string
	IsActive    bool
	Order       int
	UpdatedAt   time.Time
}

// Tip publication states.
const (
	TipStatusDraft     = "draft"
	TipStatusPublished = "published"
)

// Tip is a grooming/care article. Content holds sanitized HTML.
type Tip struct {
	ID        string
	Title     string
	Category  string
	Status    string
	Date      time.Time
	Image     string
	Summary   string
	Content   string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Published reports whether the tip is visible on the public site.
func (t Tip) Published() bool {
	return t.Status == TipStatusPublished
}

// Pet types and sizes used by the service pricing table.
const (
	PetTypeCao  = "cao"
	PetTypeGato = "gato"

	SizePequeno = "pequeno"
	SizeMedio   = "medio"
	SizeGrande  = "grande"
	// SizeUnico keys species priced without a size distinction (cats).
	SizeUnico = "unico"

	CoatCurta = "curta"
	CoatMedia = "media"
	CoatLonga = "longa"

	ServiceBanho      = "banho"
	ServiceTosa       = "tosa"
	ServiceBanhoETosa = "banhoETosa"
)

// AddonRule prices a single optional service. Exactly one of the three
// pricing shapes is set; the first populated shape wins in the order
// flat, percent-of-base, tiered-by-coat.
type AddonRule struct {
	Label string
	// Flat maps pet type to a fixed price.
	Flat map[string]float64
	// PercentOfBase charges Percent of the coat-adjusted base, never below Floor.
	PercentOfBase *PercentRule
	// TieredByCoat maps coat length to a fixed price.
	TieredByCoat map[string]float64
}

// PercentRule expresses a percentage charge with a minimum amount.
type PercentRule struct {
	Percent float64
	Floor   float64
}

// ServicePricing is the singleton grooming price table.
// Base is indexed as Base[petType][size][service].
type ServicePricing struct {
	Base            map[string]map[string]map[string]float64
	Addons          map[string]AddonRule
	CoatMultipliers map[string]float64
	UpdatedAt       time.Time
}

// CartItem snapshots a product at the moment it entered the cart.
type CartItem struct {
	ProductID string
	Name      string
	Price     float64
	Image     string
	Quantity  int
}

// Cart holds one user's pending order. The document id is the uid.
type Cart struct {
	UID       string
	Items     []CartItem
	UpdatedAt time.Time
}

// Total sums the snapshotted prices weighted by quantity.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Booking is a grooming appointment request with the estimate captured at
// submission time.
type Booking struct {
	ID            string
	CustomerName  string
	CustomerPhone string
	PetName       string
	PetType       string
	PetSize       string
	Service       string
	Coat          string
	Addons        []string
	RequestedDate time.Time
	Notes         string
	EstimateBase  float64
	EstimateTotal float64
	CreatedAt     time.Time
}

// User profile types. Unknown is an explicit state and never grants access.
const (
	UserTypeAdmin   = "admin"
	UserTypeGuest   = "guest"
	UserTypeUnknown = "unknown"
)

// UserProfile mirrors the usuarios document for a Firebase account.
type UserProfile struct {
	UID         string
	Email       string
	DisplayName string
	Type        string
	CreatedAt   time.Time
}

// ErrorLogEntry records a failed operation for later inspection in the admin
// panel. The log keeps at most ErrorLogCap entries.
type ErrorLogEntry struct {
	ID         string
	Scope      string
	Message    string
	OccurredAt time.Time
}

// ErrorLogCap bounds the persisted error log, oldest entries evicted first.
const ErrorLogCap = 50
