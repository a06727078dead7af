package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
)

type stubCartRepository struct {
	carts map[string]domain.Cart
}

func newStubCartRepository() *stubCartRepository {
	return &stubCartRepository{carts: make(map[string]domain.Cart)}
}

func (s *stubCartRepository) Get(_ context.Context, uid string) (domain.Cart, error) {
	cart, ok := s.carts[uid]
	if !ok {
		return domain.Cart{}, errStubNotFound
	}
	return cart, nil
}

func (s *stubCartRepository) Save(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	s.carts[cart.UID] = cart
	return cart, nil
}

func (s *stubCartRepository) Delete(_ context.Context, uid string) error {
	if _, ok := s.carts[uid]; !ok {
		return errStubNotFound
	}
	delete(s.carts, uid)
	return nil
}

func newTestCartService(t *testing.T, carts *stubCartRepository, products *stubProductRepository) CartService {
	t.Helper()
	catalog := newTestCatalogService(t, products)
	svc, err := NewCartService(CartServiceDeps{
		Carts:   carts,
		Catalog: catalog,
		Clock:   func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func seedCartProduct(products *stubProductRepository) {
	promo := 39.90
	products.products["p1"] = domain.Product{
		ID: "p1", Name: "Ração Golden 15kg", Slug: "racao-golden-15kg",
		Category: domain.CategoryCachorros, Price: 49.90,
		Promocional: true, PrecoPromo: &promo,
		Image: "racao.webp", Ativo: true,
	}
}

func TestGetCartReturnsEmptyOnFirstAccess(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository(), newStubProductRepository())

	cart, err := svc.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if cart.UID != "user-1" || len(cart.Items) != 0 {
		t.Fatalf("expected empty cart for user-1, got %#v", cart)
	}
}

func TestAddItemSnapshotsEffectivePrice(t *testing.T) {
	carts := newStubCartRepository()
	products := newStubProductRepository()
	seedCartProduct(products)
	svc := newTestCartService(t, carts, products)

	cart, err := svc.AddItem(context.Background(), "user-1", "p1", 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Items))
	}
	item := cart.Items[0]
	if item.Price != 39.90 {
		t.Fatalf("expected promotional price snapshot, got %v", item.Price)
	}
	if item.Name != "Ração Golden 15kg" || item.Image != "racao.webp" {
		t.Fatalf("product fields not snapshotted: %#v", item)
	}
	if cart.Total() != 79.80 {
		t.Fatalf("unexpected total %v", cart.Total())
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	carts := newStubCartRepository()
	products := newStubProductRepository()
	seedCartProduct(products)
	svc := newTestCartService(t, carts, products)

	if _, err := svc.AddItem(context.Background(), "user-1", "p1", 2); err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	cart, err := svc.AddItem(context.Background(), "user-1", "p1", 3)
	if err != nil {
		t.Fatalf("second AddItem: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %#v", cart.Items)
	}

	cart, err = svc.AddItem(context.Background(), "user-1", "p1", 99)
	if err != nil {
		t.Fatalf("third AddItem: %v", err)
	}
	if cart.Items[0].Quantity != 99 {
		t.Fatalf("expected quantity clamped at 99, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	carts := newStubCartRepository()
	products := newStubProductRepository()
	seedCartProduct(products)
	products.products["inactive"] = domain.Product{ID: "inactive", Name: "Fora de linha", Slug: "fora-de-linha", Category: domain.CategoryOutros, Price: 10, Ativo: false}
	svc := newTestCartService(t, carts, products)

	if _, err := svc.AddItem(context.Background(), "user-1", "p1", 0); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), "user-1", "p1", 100); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected quantity above bound rejected, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), "user-1", "missing", 1); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected unknown product rejected, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), "user-1", "inactive", 1); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected inactive product rejected, got %v", err)
	}
}

func TestUpdateItemQuantityAndRemove(t *testing.T) {
	carts := newStubCartRepository()
	products := newStubProductRepository()
	seedCartProduct(products)
	svc := newTestCartService(t, carts, products)

	if _, err := svc.AddItem(context.Background(), "user-1", "p1", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cart, err := svc.UpdateItemQuantity(context.Background(), "user-1", "p1", 4)
	if err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	if cart.Items[0].Quantity != 4 {
		t.Fatalf("quantity not updated, got %d", cart.Items[0].Quantity)
	}

	if _, err := svc.UpdateItemQuantity(context.Background(), "user-1", "absent", 2); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}

	cart, err = svc.RemoveItem(context.Background(), "user-1", "p1")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart after removal, got %#v", cart.Items)
	}
	if _, err := svc.RemoveItem(context.Background(), "user-1", "p1"); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected item not found on second removal, got %v", err)
	}
}

func TestClearCartIsIdempotent(t *testing.T) {
	carts := newStubCartRepository()
	products := newStubProductRepository()
	seedCartProduct(products)
	svc := newTestCartService(t, carts, products)

	if _, err := svc.AddItem(context.Background(), "user-1", "p1", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.ClearCart(context.Background(), "user-1"); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	if err := svc.ClearCart(context.Background(), "user-1"); err != nil {
		t.Fatalf("ClearCart should tolerate a missing document, got %v", err)
	}
	if len(carts.carts) != 0 {
		t.Fatalf("cart document should be gone")
	}
}
