package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/repositories"
)

const cartCollection = "carts"

// CartRepository persists one cart document per uid within Firestore.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil)
	return &CartRepository{base: base}, nil
}

// Get loads the cart document for the given uid.
func (r *CartRepository) Get(ctx context.Context, uid string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(uid))
	if err != nil {
		return domain.Cart{}, err
	}
	return decodeCart(doc.ID, doc.Data), nil
}

// Save overwrites the cart document keyed by the cart's uid.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(cart.UID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: uid is required")
	}

	result, err := r.base.Set(ctx, uid, encodeCart(cart))
	if err != nil {
		return domain.Cart{}, err
	}
	cart.UID = uid
	cart.UpdatedAt = result.UpdateTime
	return cart, nil
}

// Delete removes the cart document.
func (r *CartRepository) Delete(ctx context.Context, uid string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	doc, err := r.base.DocumentRef(ctx, strings.TrimSpace(uid))
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return pfirestore.WrapError("carts.delete", err)
	}
	return nil
}

func encodeCart(cart domain.Cart) cartDocument {
	doc := cartDocument{
		Items:     make([]cartItemDocument, 0, len(cart.Items)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, item := range cart.Items {
		doc.Items = append(doc.Items, cartItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Quantity:  item.Quantity,
		})
	}
	return doc
}

func decodeCart(uid string, doc cartDocument) domain.Cart {
	cart := domain.Cart{
		UID:       uid,
		Items:     make([]domain.CartItem, 0, len(doc.Items)),
		UpdatedAt: doc.UpdatedAt,
	}
	for _, item := range doc.Items {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Quantity:  item.Quantity,
		})
	}
	return cart
}

type cartDocument struct {
	Items     []cartItemDocument `firestore:"items"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartItemDocument struct {
	ProductID string  `firestore:"productId"`
	Name      string  `firestore:"name"`
	Price     float64 `firestore:"price"`
	Image     string  `firestore:"image,omitempty"`
	Quantity  int     `firestore:"quantity"`
}

var _ repositories.CartRepository = (*CartRepository)(nil)
