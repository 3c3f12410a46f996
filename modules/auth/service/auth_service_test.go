package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "schedulesync/core/errors"
	"schedulesync/modules/auth/entity"
)

type fakeAuthRepo struct {
	byID    map[uuid.UUID]*entity.User
	byToken map[string]*entity.User
	bySlug  map[string]*entity.User

	tokenLookups int
}

func (f *fakeAuthRepo) CreateUser(_ context.Context, user *entity.User) (*entity.User, error) {
	return user, nil
}

func (f *fakeAuthRepo) GetUserByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.byID[id], nil
}

func (f *fakeAuthRepo) GetUserByEmail(_ context.Context, _ string) (*entity.User, error) {
	return nil, nil
}

func (f *fakeAuthRepo) GetUserByPublicToken(_ context.Context, token string) (*entity.User, error) {
	f.tokenLookups++
	return f.byToken[token], nil
}

func (f *fakeAuthRepo) GetUserByPublicSlug(_ context.Context, slug string) (*entity.User, error) {
	return f.bySlug[slug], nil
}

func (f *fakeAuthRepo) SlugExists(_ context.Context, _ string) (bool, error) { return false, nil }

func (f *fakeAuthRepo) SaveOAuthState(_ context.Context, _ string, _ time.Time) error { return nil }

func (f *fakeAuthRepo) GetOAuthState(_ context.Context, _ string) (*entity.OAuthState, error) {
	return nil, nil
}

func (f *fakeAuthRepo) DeleteOAuthState(_ context.Context, _ string) error { return nil }

func (f *fakeAuthRepo) CleanupExpiredOAuthStates(_ context.Context) error { return nil }

type fakeTokenCache struct {
	entries     map[string]string
	invalidated []string
}

func (f *fakeTokenCache) SetPublicTokenUser(_ context.Context, token, userID string) error {
	f.entries[token] = userID
	return nil
}

func (f *fakeTokenCache) GetPublicTokenUser(_ context.Context, token string) (string, error) {
	return f.entries[token], nil
}

func (f *fakeTokenCache) InvalidatePublicToken(_ context.Context, token string) error {
	delete(f.entries, token)
	f.invalidated = append(f.invalidated, token)
	return nil
}

func (f *fakeTokenCache) AddToTokenBlacklist(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

func (f *fakeTokenCache) IsTokenBlacklisted(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (f *fakeTokenCache) Close() error { return nil }

func activeHost(token, slug string) *entity.User {
	u := &entity.User{
		Email:       "host@example.com",
		DisplayName: "Ada Host",
		PublicToken: token,
		PublicSlug:  slug,
		IsActive:    true,
	}
	u.ID = uuid.New()
	return u
}

func newResolveFixture() (*fakeAuthRepo, *fakeTokenCache, *AuthService) {
	repo := &fakeAuthRepo{
		byID:    map[uuid.UUID]*entity.User{},
		byToken: map[string]*entity.User{},
		bySlug:  map[string]*entity.User{},
	}
	tc := &fakeTokenCache{entries: map[string]string{}}
	return repo, tc, NewAuthService(repo, tc, nil)
}

func TestResolveHostByToken(t *testing.T) {
	repo, tc, svc := newResolveFixture()
	host := activeHost("tok-abc", "ada")
	repo.byID[host.ID] = host
	repo.byToken["tok-abc"] = host

	got, appErr := svc.ResolveHost(context.Background(), "tok-abc")
	if appErr != nil {
		t.Fatalf("ResolveHost failed: %v", appErr)
	}
	if got.ID != host.ID {
		t.Fatalf("resolved user %v, want %v", got.ID, host.ID)
	}
	if tc.entries["tok-abc"] != host.ID.String() {
		t.Fatal("resolved token not cached")
	}
}

func TestResolveHostBySlug(t *testing.T) {
	repo, _, svc := newResolveFixture()
	host := activeHost("tok-abc", "ada")
	repo.byID[host.ID] = host
	repo.bySlug["ada"] = host

	got, appErr := svc.ResolveHost(context.Background(), "ada")
	if appErr != nil {
		t.Fatalf("ResolveHost failed: %v", appErr)
	}
	if got.ID != host.ID {
		t.Fatalf("resolved user %v, want %v", got.ID, host.ID)
	}
}

func TestResolveHostCachedSkipsTokenLookup(t *testing.T) {
	repo, tc, svc := newResolveFixture()
	host := activeHost("tok-abc", "ada")
	repo.byID[host.ID] = host
	tc.entries["tok-abc"] = host.ID.String()

	if _, appErr := svc.ResolveHost(context.Background(), "tok-abc"); appErr != nil {
		t.Fatalf("ResolveHost failed: %v", appErr)
	}
	if repo.tokenLookups != 0 {
		t.Fatalf("token lookups = %d, want 0 on cache hit", repo.tokenLookups)
	}
}

func TestResolveHostStaleCacheInvalidated(t *testing.T) {
	repo, tc, svc := newResolveFixture()
	host := activeHost("tok-abc", "ada")
	repo.byID[host.ID] = host
	repo.byToken["tok-abc"] = host
	// Cached id of a user that no longer exists.
	tc.entries["tok-abc"] = uuid.NewString()

	got, appErr := svc.ResolveHost(context.Background(), "tok-abc")
	if appErr != nil {
		t.Fatalf("ResolveHost failed: %v", appErr)
	}
	if got.ID != host.ID {
		t.Fatalf("resolved user %v, want %v", got.ID, host.ID)
	}
	if len(tc.invalidated) != 1 || tc.invalidated[0] != "tok-abc" {
		t.Fatalf("stale cache entry not invalidated: %v", tc.invalidated)
	}
	if tc.entries["tok-abc"] != host.ID.String() {
		t.Fatal("cache not repopulated after table lookup")
	}
}

func TestResolveHostDeactivatedCachedUser(t *testing.T) {
	repo, tc, svc := newResolveFixture()
	host := activeHost("tok-abc", "ada")
	host.IsActive = false
	repo.byID[host.ID] = host
	repo.byToken["tok-abc"] = host
	tc.entries["tok-abc"] = host.ID.String()

	_, appErr := svc.ResolveHost(context.Background(), "tok-abc")
	if appErr == nil || appErr.Code != apperrors.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", appErr)
	}
	if len(tc.invalidated) != 1 {
		t.Fatalf("deactivated cached user not invalidated: %v", tc.invalidated)
	}
}

func TestResolveHostUnknown(t *testing.T) {
	_, _, svc := newResolveFixture()

	_, appErr := svc.ResolveHost(context.Background(), "nope")
	if appErr == nil || appErr.Code != apperrors.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", appErr)
	}
}
