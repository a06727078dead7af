package services

import (
	"context"
	"testing"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/cache"
)

type stubUserRepository struct {
	profiles map[string]domain.UserProfile
	findErr  error
	finds    int
	upserts  int
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{profiles: make(map[string]domain.UserProfile)}
}

func (s *stubUserRepository) FindByUID(_ context.Context, uid string) (domain.UserProfile, error) {
	s.finds++
	if s.findErr != nil {
		return domain.UserProfile{}, s.findErr
	}
	profile, ok := s.profiles[uid]
	if !ok {
		return domain.UserProfile{}, errStubNotFound
	}
	return profile, nil
}

func (s *stubUserRepository) Upsert(_ context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	s.upserts++
	s.profiles[profile.UID] = profile
	return profile, nil
}

func newTestAuthorizationService(t *testing.T, repo *stubUserRepository, typeCache *cache.TTLCache[string]) AuthorizationService {
	t.Helper()
	svc, err := NewAuthorizationService(AuthorizationServiceDeps{
		Users:     repo,
		TypeCache: typeCache,
		Clock:     func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewAuthorizationService: %v", err)
	}
	return svc
}

func TestResolveUserTypeTokenRoleWins(t *testing.T) {
	repo := newStubUserRepository()
	svc := newTestAuthorizationService(t, repo, nil)

	if got := svc.ResolveUserType(context.Background(), "u1", "admin"); got != domain.UserTypeAdmin {
		t.Fatalf("expected admin from token role, got %q", got)
	}
	if repo.finds != 0 {
		t.Fatalf("token role must short-circuit the profile lookup")
	}
}

func TestResolveUserTypeFallsBackToProfile(t *testing.T) {
	repo := newStubUserRepository()
	repo.profiles["u1"] = domain.UserProfile{UID: "u1", Type: domain.UserTypeAdmin}
	svc := newTestAuthorizationService(t, repo, nil)

	if got := svc.ResolveUserType(context.Background(), "u1", ""); got != domain.UserTypeAdmin {
		t.Fatalf("expected admin from profile, got %q", got)
	}
	if !svc.IsAdmin(context.Background(), "u1", "") {
		t.Fatalf("IsAdmin should agree with ResolveUserType")
	}
}

func TestResolveUserTypeUnknownProfileIsGuest(t *testing.T) {
	svc := newTestAuthorizationService(t, newStubUserRepository(), nil)

	if got := svc.ResolveUserType(context.Background(), "stranger", ""); got != domain.UserTypeGuest {
		t.Fatalf("expected guest for missing profile, got %q", got)
	}
}

func TestResolveUserTypeFailsClosed(t *testing.T) {
	repo := newStubUserRepository()
	repo.findErr = errStubUnavailable
	svc := newTestAuthorizationService(t, repo, nil)

	if got := svc.ResolveUserType(context.Background(), "u1", ""); got != domain.UserTypeUnknown {
		t.Fatalf("backend outage must resolve to unknown, got %q", got)
	}
	if svc.IsAdmin(context.Background(), "u1", "") {
		t.Fatalf("unknown must never grant admin")
	}
	if got := svc.ResolveUserType(context.Background(), "", ""); got != domain.UserTypeUnknown {
		t.Fatalf("empty uid must resolve to unknown, got %q", got)
	}
}

func TestResolveUserTypeCachesLookups(t *testing.T) {
	repo := newStubUserRepository()
	repo.profiles["u1"] = domain.UserProfile{UID: "u1", Type: domain.UserTypeAdmin}
	svc := newTestAuthorizationService(t, repo, cache.New[string](time.Minute))

	svc.ResolveUserType(context.Background(), "u1", "")
	svc.ResolveUserType(context.Background(), "u1", "")
	if repo.finds != 1 {
		t.Fatalf("expected single profile read with warm cache, got %d", repo.finds)
	}
}

func TestProfileCreatesGuestOnFirstAccess(t *testing.T) {
	repo := newStubUserRepository()
	svc := newTestAuthorizationService(t, repo, nil)

	profile, err := svc.Profile(context.Background(), "u1", "maria@example.com", "Maria")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Type != domain.UserTypeGuest {
		t.Fatalf("first access must create a guest profile, got %q", profile.Type)
	}
	if repo.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", repo.upserts)
	}

	again, err := svc.Profile(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("Profile second read: %v", err)
	}
	if repo.upserts != 1 {
		t.Fatalf("existing profile must not be rewritten")
	}
	if again.Email != "maria@example.com" {
		t.Fatalf("stored profile fields lost: %#v", again)
	}
}
