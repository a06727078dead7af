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

const userCollection = "usuarios"

// UserRepository persists user profiles keyed by Firebase uid.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil)
	return &UserRepository{base: base}, nil
}

// FindByUID loads the profile document for the given uid.
func (r *UserRepository) FindByUID(ctx context.Context, uid string) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(uid))
	if err != nil {
		return domain.UserProfile{}, err
	}
	return decodeUser(doc.ID, doc.Data), nil
}

// Upsert stores the profile document under the uid.
func (r *UserRepository) Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	uid := strings.TrimSpace(profile.UID)
	if uid == "" {
		return domain.UserProfile{}, errors.New("user repository: uid is required")
	}

	if _, err := r.base.Set(ctx, uid, encodeUser(profile)); err != nil {
		return domain.UserProfile{}, err
	}
	profile.UID = uid
	return profile, nil
}

func encodeUser(profile domain.UserProfile) userDocument {
	return userDocument{
		Email:       strings.TrimSpace(profile.Email),
		DisplayName: strings.TrimSpace(profile.DisplayName),
		Type:        strings.TrimSpace(profile.Type),
		CreatedAt:   profile.CreatedAt.UTC(),
	}
}

func decodeUser(uid string, doc userDocument) domain.UserProfile {
	return domain.UserProfile{
		UID:         uid,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		Type:        doc.Type,
		CreatedAt:   doc.CreatedAt,
	}
}

type userDocument struct {
	Email       string    `firestore:"email,omitempty"`
	DisplayName string    `firestore:"displayName,omitempty"`
	Type        string    `firestore:"type"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

var _ repositories.UserRepository = (*UserRepository)(nil)
