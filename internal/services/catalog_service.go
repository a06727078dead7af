package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/textutil"
	"github.com/petshop-baronesa/api/internal/repositories"
)

var (
	// ErrCatalogRepositoryMissing signals that the product repository dependency is absent.
	ErrCatalogRepositoryMissing = errors.New("catalog service: product repository is not configured")
	// ErrCatalogInvalidInput marks validation failures on product writes.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogNotFound marks a missing product.
	ErrCatalogNotFound = errors.New("catalog service: product not found")
)

// CatalogServiceDeps groups constructor parameters for the catalog service.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Errors   ErrorLogService
	Clock    func() time.Time
	IDFunc   func() string
}

type catalogService struct {
	products repositories.ProductRepository
	errlog   ErrorLogService
	clock    func() time.Time
	newID    func() string
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDFunc
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &catalogService{
		products: deps.Products,
		errlog:   deps.Errors,
		clock:    func() time.Time { return clock().UTC() },
		newID:    newID,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.products.List(ctx, repositories.ProductListFilter{
		Category:        strings.TrimSpace(filter.Category),
		Type:            strings.TrimSpace(filter.Type),
		Query:           strings.TrimSpace(filter.Query),
		Promotional:     filter.Promotional,
		IncludeInactive: filter.IncludeInactive,
	})
	if err != nil {
		s.record(ctx, "catalog.list", err)
		return nil, err
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, ErrCatalogNotFound
		}
		s.record(ctx, "catalog.get", err)
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Product{}, fmt.Errorf("%w: slug is required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return Product{}, ErrCatalogNotFound
		}
		s.record(ctx, "catalog.getBySlug", err)
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	if err := validateProductInput(input); err != nil {
		return Product{}, err
	}

	now := s.clock()
	product := productFromInput(input)
	product.ID = s.newID()
	product.CreatedAt = now
	product.UpdatedAt = now

	slug, err := s.deriveSlug(ctx, product.Name, now)
	if err != nil {
		return Product{}, err
	}
	product.Slug = slug

	if err := s.products.Insert(ctx, product); err != nil {
		s.record(ctx, "catalog.create", err)
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID string, input ProductInput) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if err := validateProductInput(input); err != nil {
		return Product{}, err
	}

	existing, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, ErrCatalogNotFound
		}
		s.record(ctx, "catalog.update", err)
		return Product{}, err
	}

	now := s.clock()
	product := productFromInput(input)
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = now
	product.Slug = existing.Slug

	if product.Name != existing.Name {
		slug, err := s.deriveSlug(ctx, product.Name, now)
		if err != nil {
			return Product{}, err
		}
		product.Slug = slug
	}

	if err := s.products.Update(ctx, product); err != nil {
		s.record(ctx, "catalog.update", err)
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		if isNotFound(err) {
			return ErrCatalogNotFound
		}
		s.record(ctx, "catalog.delete", err)
		return err
	}
	return nil
}

// deriveSlug slugifies the name and appends a timestamp suffix when another
// product already owns the slug. The read-then-write window is a benign race:
// two simultaneous creates with the same name can both pass the check, and the
// timestamp suffix keeps the ids readable rather than guaranteeing uniqueness.
func (s *catalogService) deriveSlug(ctx context.Context, name string, now time.Time) (string, error) {
	slug := textutil.Slugify(name)
	if slug == "" {
		return "", fmt.Errorf("%w: name yields an empty slug", ErrCatalogInvalidInput)
	}

	_, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return slug, nil
		}
		s.record(ctx, "catalog.slug", err)
		return "", err
	}
	return slug + "-" + strconv.FormatInt(now.Unix(), 10), nil
}

func (s *catalogService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if strings.TrimSpace(input.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrCatalogInvalidInput)
	}
	if input.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrCatalogInvalidInput)
	}
	if input.Promocional {
		if input.PrecoPromo == nil || *input.PrecoPromo <= 0 {
			return fmt.Errorf("%w: promotional price is required for promotions", ErrCatalogInvalidInput)
		}
		if *input.PrecoPromo >= input.Price {
			return fmt.Errorf("%w: promotional price must be below the regular price", ErrCatalogInvalidInput)
		}
	}
	return nil
}

func productFromInput(input ProductInput) domain.Product {
	product := domain.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Image:       strings.TrimSpace(input.Image),
		Category:    strings.TrimSpace(input.Category),
		Type:        strings.TrimSpace(input.Type),
		Promocional: input.Promocional,
		Ativo:       input.Ativo,
	}
	if input.Promocional && input.PrecoPromo != nil {
		value := *input.PrecoPromo
		product.PrecoPromo = &value
	}
	return product
}
