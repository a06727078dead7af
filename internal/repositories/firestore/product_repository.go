package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/petshop-baronesa/api/internal/domain"
	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/repositories"
)

const productCollection = "products"

// ProductRepository persists catalog products within Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// Insert stores a new product document under its assigned id.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	_, err := r.base.Set(ctx, id, encodeProduct(product))
	return err
}

// Update overwrites the product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	return r.Insert(ctx, product)
}

// Delete removes the product document. Cart documents referencing the product
// are intentionally left untouched.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	doc, err := r.base.DocumentRef(ctx, strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

// FindByID loads a product by document id.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(doc.ID, doc.Data), nil
}

// FindBySlug loads a product by its slug field.
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Product{}, errors.New("product repository: slug is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, notFoundError("products.findBySlug")
	}
	return decodeProduct(docs[0].ID, docs[0].Data), nil
}

// List returns products matching the filter. Category and type are equality
// filters pushed to Firestore; free-text and promotional filters are applied
// in memory over the result set.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if category := strings.TrimSpace(filter.Category); category != "" {
			q = q.Where("category", "==", category)
		}
		if productType := strings.TrimSpace(filter.Type); productType != "" {
			q = q.Where("type", "==", productType)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product := decodeProduct(doc.ID, doc.Data)
		if !filter.IncludeInactive && !product.Ativo {
			continue
		}
		if filter.Promotional != nil && product.Promocional != *filter.Promotional {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(product.Name), query) {
			continue
		}
		products = append(products, product)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func encodeProduct(product domain.Product) productDocument {
	doc := productDocument{
		Name:        strings.TrimSpace(product.Name),
		Description: strings.TrimSpace(product.Description),
		Price:       product.Price,
		Image:       strings.TrimSpace(product.Image),
		Category:    strings.TrimSpace(product.Category),
		Type:        strings.TrimSpace(product.Type),
		Promocional: product.Promocional,
		Ativo:       product.Ativo,
		Slug:        strings.TrimSpace(product.Slug),
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
	if product.PrecoPromo != nil {
		value := *product.PrecoPromo
		doc.PrecoPromo = &value
	}
	return doc
}

func decodeProduct(id string, doc productDocument) domain.Product {
	product := domain.Product{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Price:       doc.Price,
		Image:       doc.Image,
		Category:    doc.Category,
		Type:        doc.Type,
		Promocional: doc.Promocional,
		Ativo:       doc.Ativo,
		Slug:        doc.Slug,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.PrecoPromo != nil {
		value := *doc.PrecoPromo
		product.PrecoPromo = &value
	}
	return product
}

type productDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Price       float64   `firestore:"price"`
	Image       string    `firestore:"image,omitempty"`
	Category    string    `firestore:"category"`
	Type        string    `firestore:"type,omitempty"`
	Promocional bool      `firestore:"promocional"`
	PrecoPromo  *float64  `firestore:"precoPromo,omitempty"`
	Ativo       bool      `firestore:"ativo"`
	Slug        string    `firestore:"slug"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
