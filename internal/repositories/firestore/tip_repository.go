package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/repositories"
)

const tipCollection = "dicas"

// TipRepository persists care articles within Firestore.
type TipRepository struct {
	base *pfirestore.BaseRepository[tipDocument]
}

// NewTipRepository constructs a Firestore-backed tip repository.
func NewTipRepository(provider *pfirestore.Provider) (*TipRepository, error) {
	if provider == nil {
		return nil, errors.New("tip repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[tipDocument](provider, tipCollection, nil, nil)
	return &TipRepository{base: base}, nil
}

// List returns tips ordered newest first. Status filtering happens in memory
// so the admin panel and the public site share one query shape.
func (r *TipRepository) List(ctx context.Context, publishedOnly bool) ([]domain.Tip, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("tip repository not initialised")
	}

	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return nil, err
	}

	tips := make([]domain.Tip, 0, len(docs))
	for _, doc := range docs {
		tip := decodeTip(doc.ID, doc.Data)
		if publishedOnly && !tip.Published() {
			continue
		}
		tips = append(tips, tip)
	}

	sort.Slice(tips, func(i, j int) bool {
		return tips[i].Date.After(tips[j].Date)
	})
	return tips, nil
}

// FindByID loads a tip by document id.
func (r *TipRepository) FindByID(ctx context.Context, tipID string) (domain.Tip, error) {
	if r == nil || r.base == nil {
		return domain.Tip{}, errors.New("tip repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(tipID))
	if err != nil {
		return domain.Tip{}, err
	}
	return decodeTip(doc.ID, doc.Data), nil
}

// Insert stores a new tip document.
func (r *TipRepository) Insert(ctx context.Context, tip domain.Tip) error {
	if r == nil || r.base == nil {
		return errors.New("tip repository not initialised")
	}
	id := strings.TrimSpace(tip.ID)
	if id == "" {
		return errors.New("tip repository: tip id is required")
	}
	_, err := r.base.Set(ctx, id, encodeTip(tip))
	return err
}

// Update overwrites the tip document.
func (r *TipRepository) Update(ctx context.Context, tip domain.Tip) error {
	return r.Insert(ctx, tip)
}

// Delete removes the tip document.
func (r *TipRepository) Delete(ctx context.Context, tipID string) error {
	if r == nil || r.base == nil {
		return errors.New("tip repository not initialised")
	}
	doc, err := r.base.DocumentRef(ctx, strings.TrimSpace(tipID))
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return pfirestore.WrapError("dicas.delete", err)
	}
	return nil
}

func encodeTip(tip domain.Tip) tipDocument {
	return tipDocument{
		Title:     strings.TrimSpace(tip.Title),
		Category:  strings.TrimSpace(tip.Category),
		Status:    strings.TrimSpace(tip.Status),
		Date:      tip.Date.UTC(),
		Image:     strings.TrimSpace(tip.Image),
		Summary:   strings.TrimSpace(tip.Summary),
		Content:   tip.Content,
		Tags:      append([]string(nil), tip.Tags...),
		CreatedAt: tip.CreatedAt.UTC(),
		UpdatedAt: tip.UpdatedAt.UTC(),
	}
}

func decodeTip(id string, doc tipDocument) domain.Tip {
	return domain.Tip{
		ID:        id,
		Title:     doc.Title,
		Category:  doc.Category,
		Status:    doc.Status,
		Date:      doc.Date,
		Image:     doc.Image,
		Summary:   doc.Summary,
		Content:   doc.Content,
		Tags:      append([]string(nil), doc.Tags...),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

type tipDocument struct {
	Title     string    `firestore:"title"`
	Category  string    `firestore:"category,omitempty"`
	Status    string    `firestore:"status"`
	Date      time.Time `firestore:"date"`
	Image     string    `firestore:"image,omitempty"`
	Summary   string    `firestore:"summary,omitempty"`
	Content   string    `firestore:"content"`
	Tags      []string  `firestore:"tags,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

var _ repositories.TipRepository = (*TipRepository)(nil)
