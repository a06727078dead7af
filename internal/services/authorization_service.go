package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/cache"
	"github.com/petshop-baronesa/api/internal/repositories"
)

var (
	// ErrAuthorizationRepositoryMissing signals that the user repository dependency is absent.
	ErrAuthorizationRepositoryMissing = errors.New("authorization service: user repository is not configured")
	// ErrAuthorizationInvalidInput marks validation failures on profile access.
	ErrAuthorizationInvalidInput = errors.New("authorization service: invalid input")
)

// AuthorizationServiceDeps groups constructor parameters for the authorization service.
type AuthorizationServiceDeps struct {
	Users repositories.UserRepository
	// TypeCache bounds repeated profile lookups per uid.
	TypeCache *cache.TTLCache[string]
	Errors    ErrorLogService
	Clock     func() time.Time
}

type authorizationService struct {
	users     repositories.UserRepository
	typeCache *cache.TTLCache[string]
	errlog    ErrorLogService
	clock     func() time.Time
}

// NewAuthorizationService constructs the authorization service with the
// supplied dependencies.
func NewAuthorizationService(deps AuthorizationServiceDeps) (AuthorizationService, error) {
	if deps.Users == nil {
		return nil, ErrAuthorizationRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &authorizationService{
		users:     deps.Users,
		typeCache: deps.TypeCache,
		errlog:    deps.Errors,
		clock:     func() time.Time { return clock().UTC() },
	}, nil
}

// ResolveUserType determines the caller's type. A role claim baked into the
// token wins, then the stored profile, then the bounded cache of previous
// resolutions. Every failure path resolves to Unknown, which grants nothing.
func (s *authorizationService) ResolveUserType(ctx context.Context, uid string, tokenRole string) string {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return domain.UserTypeUnknown
	}

	if role := normalizeUserType(tokenRole); role != "" {
		s.cacheType(uid, role)
		return role
	}

	if s.typeCache != nil {
		if cached, ok := s.typeCache.Get(uid); ok {
			return cached
		}
	}

	profile, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		if isNotFound(err) {
			s.cacheType(uid, domain.UserTypeGuest)
			return domain.UserTypeGuest
		}
		s.record(ctx, "auth.resolveType", err)
		return domain.UserTypeUnknown
	}

	userType := normalizeUserType(profile.Type)
	if userType == "" {
		userType = domain.UserTypeGuest
	}
	s.cacheType(uid, userType)
	return userType
}

func (s *authorizationService) IsAdmin(ctx context.Context, uid string, tokenRole string) bool {
	return s.ResolveUserType(ctx, uid, tokenRole) == domain.UserTypeAdmin
}

// Profile returns the stored profile, creating a guest one on first access.
func (s *authorizationService) Profile(ctx context.Context, uid, email, displayName string) (UserProfile, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return UserProfile{}, fmt.Errorf("%w: uid is required", ErrAuthorizationInvalidInput)
	}

	profile, err := s.users.FindByUID(ctx, uid)
	if err == nil {
		return profile, nil
	}
	if !isNotFound(err) {
		s.record(ctx, "auth.profile", err)
		return UserProfile{}, err
	}

	created, err := s.users.Upsert(ctx, domain.UserProfile{
		UID:         uid,
		Email:       strings.TrimSpace(email),
		DisplayName: strings.TrimSpace(displayName),
		Type:        domain.UserTypeGuest,
		CreatedAt:   s.clock(),
	})
	if err != nil {
		s.record(ctx, "auth.profile", err)
		return UserProfile{}, err
	}
	s.cacheType(uid, domain.UserTypeGuest)
	return created, nil
}

func (s *authorizationService) cacheType(uid, userType string) {
	if s.typeCache != nil {
		s.typeCache.Set(uid, userType)
	}
}

func (s *authorizationService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

// normalizeUserType maps a raw role string to a known user type, or empty
// when unrecognised.
func normalizeUserType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case domain.UserTypeAdmin:
		return domain.UserTypeAdmin
	case domain.UserTypeGuest:
		return domain.UserTypeGuest
	default:
		return ""
	}
}
