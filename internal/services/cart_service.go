package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/repositories"
)

var (
	// ErrCartRepositoryMissing signals that the cart repository dependency is absent.
	ErrCartRepositoryMissing = errors.New("cart service: cart repository is not configured")
	// ErrCartCatalogMissing signals that the catalog dependency is absent.
	ErrCartCatalogMissing = errors.New("cart service: catalog service is not configured")
	// ErrCartInvalidInput marks validation failures on cart operations.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartItemNotFound marks an item absent from the cart.
	ErrCartItemNotFound = errors.New("cart service: item not in cart")
)

// Quantity bounds per cart line.
const (
	minItemQuantity = 1
	maxItemQuantity = 99
)

// CartServiceDeps groups constructor parameters for the cart service.
type CartServiceDeps struct {
	Carts   repositories.CartRepository
	Catalog CatalogService
	Errors  ErrorLogService
	Clock   func() time.Time
}

type cartService struct {
	carts   repositories.CartRepository
	catalog CatalogService
	errlog  ErrorLogService
	clock   func() time.Time
}

// NewCartService constructs the cart service with the supplied dependencies.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, ErrCartRepositoryMissing
	}
	if deps.Catalog == nil {
		return nil, ErrCartCatalogMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &cartService{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		errlog:  deps.Errors,
		clock:   func() time.Time { return clock().UTC() },
	}, nil
}

// GetCart returns the user's cart, materialising an empty one on first access.
func (s *cartService) GetCart(ctx context.Context, uid string) (Cart, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return Cart{}, fmt.Errorf("%w: uid is required", ErrCartInvalidInput)
	}
	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		if isNotFound(err) {
			return Cart{UID: uid}, nil
		}
		s.record(ctx, "cart.get", err)
		return Cart{}, err
	}
	return cart, nil
}

// AddItem snapshots the product's current price, name and image into the cart
// line. Adding an already-present product raises its quantity instead.
func (s *cartService) AddItem(ctx context.Context, uid, productID string, quantity int) (Cart, error) {
	if err := validateQuantity(quantity); err != nil {
		return Cart{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Cart{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrCatalogNotFound) {
			return Cart{}, fmt.Errorf("%w: product %s does not exist", ErrCartInvalidInput, productID)
		}
		return Cart{}, err
	}
	if !product.Ativo {
		return Cart{}, fmt.Errorf("%w: product %s is not for sale", ErrCartInvalidInput, productID)
	}

	cart, err := s.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, err
	}

	if idx := findItem(cart.Items, productID); idx >= 0 {
		merged := cart.Items[idx].Quantity + quantity
		if merged > maxItemQuantity {
			merged = maxItemQuantity
		}
		cart.Items[idx].Quantity = merged
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.EffectivePrice(),
			Image:     product.Image,
			Quantity:  quantity,
		})
	}

	return s.save(ctx, cart)
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, uid, productID string, quantity int) (Cart, error) {
	if err := validateQuantity(quantity); err != nil {
		return Cart{}, err
	}

	cart, err := s.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, err
	}

	idx := findItem(cart.Items, strings.TrimSpace(productID))
	if idx < 0 {
		return Cart{}, ErrCartItemNotFound
	}
	cart.Items[idx].Quantity = quantity

	return s.save(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, uid, productID string) (Cart, error) {
	cart, err := s.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, err
	}

	idx := findItem(cart.Items, strings.TrimSpace(productID))
	if idx < 0 {
		return Cart{}, ErrCartItemNotFound
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	return s.save(ctx, cart)
}

func (s *cartService) ClearCart(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return fmt.Errorf("%w: uid is required", ErrCartInvalidInput)
	}
	if err := s.carts.Delete(ctx, uid); err != nil && !isNotFound(err) {
		s.record(ctx, "cart.clear", err)
		return err
	}
	return nil
}

func (s *cartService) save(ctx context.Context, cart Cart) (Cart, error) {
	cart.UpdatedAt = s.clock()
	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		s.record(ctx, "cart.save", err)
		return Cart{}, err
	}
	return saved, nil
}

func (s *cartService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func validateQuantity(quantity int) error {
	if quantity < minItemQuantity || quantity > maxItemQuantity {
		return fmt.Errorf("%w: quantity must be between %d and %d", ErrCartInvalidInput, minItemQuantity, maxItemQuantity)
	}
	return nil
}

func findItem(items []domain.CartItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
