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

const slideCollection = "slides"

// SlideRepository persists carousel slides within Firestore.
type SlideRepository struct {
	base *pfirestore.BaseRepository[slideDocument]
}

// NewSlideRepository constructs a Firestore-backed slide repository.
func NewSlideRepository(provider *pfirestore.Provider) (*SlideRepository, error) {
	if provider == nil {
		return nil, errors.New("slide repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[slideDocument](provider, slideCollection, nil, nil)
	return &SlideRepository{base: base}, nil
}

// List returns slides ordered by their display order.
func (r *SlideRepository) List(ctx context.Context, activeOnly bool) ([]domain.Slide, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("slide repository not initialised")
	}

	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return nil, err
	}

	slides := make([]domain.Slide, 0, len(docs))
	for _, doc := range docs {
		slide := decodeSlide(doc.ID, doc.Data)
		if activeOnly && !slide.IsActive {
			continue
		}
		slides = append(slides, slide)
	}

	sort.Slice(slides, func(i, j int) bool {
		if slides[i].Order != slides[j].Order {
			return slides[i].Order < slides[j].Order
		}
		return slides[i].SlideNumber < slides[j].SlideNumber
	})
	return slides, nil
}

// FindByNumber loads the slide occupying the given slide number.
func (r *SlideRepository) FindByNumber(ctx context.Context, slideNumber int) (domain.Slide, error) {
	if r == nil || r.base == nil {
		return domain.Slide{}, errors.New("slide repository not initialised")
	}
	if slideNumber <= 0 {
		return domain.Slide{}, errors.New("slide repository: slide number must be positive")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slideNumber", "==", slideNumber).Limit(1)
	})
	if err != nil {
		return domain.Slide{}, err
	}
	if len(docs) == 0 {
		return domain.Slide{}, notFoundError("slides.findByNumber")
	}
	return decodeSlide(docs[0].ID, docs[0].Data), nil
}

// Save upserts the slide document under its id.
func (r *SlideRepository) Save(ctx context.Context, slide domain.Slide) (domain.Slide, error) {
	if r == nil || r.base == nil {
		return domain.Slide{}, errors.New("slide repository not initialised")
	}
	id := strings.TrimSpace(slide.ID)
	if id == "" {
		return domain.Slide{}, errors.New("slide repository: slide id is required")
	}

	result, err := r.base.Set(ctx, id, encodeSlide(slide))
	if err != nil {
		return domain.Slide{}, err
	}
	slide.ID = id
	slide.UpdatedAt = result.UpdateTime
	return slide, nil
}

// Delete removes the slide document.
func (r *SlideRepository) Delete(ctx context.Context, slideID string) error {
	if r == nil || r.base == nil {
		return errors.New("slide repository not initialised")
	}
	doc, err := r.base.DocumentRef(ctx, strings.TrimSpace(slideID))
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return pfirestore.WrapError("slides.delete", err)
	}
	return nil
}

func encodeSlide(slide domain.Slide) slideDocument {
	return slideDocument{
		SlideNumber: slide.SlideNumber,
		Title:       strings.TrimSpace(slide.Title),
		Image:       strings.TrimSpace(slide.Image),
		IsActive:    slide.IsActive,
		Order:       slide.Order,
		UpdatedAt:   slide.UpdatedAt.UTC(),
	}
}

func decodeSlide(id string, doc slideDocument) domain.Slide {
	return domain.Slide{
		ID:          id,
		SlideNumber: doc.SlideNumber,
		Title:       doc.Title,
		Image:       doc.Image,
		IsActive:    doc.IsActive,
		Order:       doc.Order,
		UpdatedAt:   doc.UpdatedAt,
	}
}

type slideDocument struct {
	SlideNumber int       `firestore:"slideNumber"`
	Title       string    `firestore:"title,omitempty"`
	Image       string    `firestore:"image"`
	IsActive    bool      `firestore:"isActive"`
	Order       int       `firestore:"order"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

var _ repositories.SlideRepository = (*SlideRepository)(nil)
