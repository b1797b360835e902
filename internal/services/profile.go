// Package services implements the engine operations the delivery layer
// calls: profile management, conference creation and querying, the
// transactional registration and wishlist operations, and session
// creation with its async triggers. Every operation takes the acting
// profile (or identity) explicitly; nothing here reads ambient state.
package services

import (
	"context"
	"errors"
	"fmt"

	"confcentral/internal/domain"
)

// ProfileService manages the per-user profile entity.
type ProfileService struct {
	store domain.Store
}

func NewProfileService(store domain.Store) *ProfileService {
	return &ProfileService{store: store}
}

// GetOrCreateProfile fetches the profile keyed by email, creating it
// with defaults on first access. displayName seeds the new profile only;
// an existing profile keeps its stored name.
func (s *ProfileService) GetOrCreateProfile(ctx context.Context, email, displayName string) (*domain.Profile, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}

	key := domain.NewKey(domain.KindProfile, email)
	var prof domain.Profile
	err := s.store.Get(ctx, key, &prof)
	if err == nil {
		return &prof, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	created := domain.NewProfile(email, displayName)
	if err := s.store.Put(ctx, created); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return created, nil
}

// SaveProfile updates the mutable profile fields. Nil leaves a field
// unchanged.
func (s *ProfileService) SaveProfile(ctx context.Context, actor *domain.Profile, displayName, teeShirtSize *string) (*domain.Profile, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}

	var updated *domain.Profile
	err := s.store.RunAtomic(ctx, []*domain.Key{actor.Key.Root()}, func(tx domain.Tx) error {
		var prof domain.Profile
		if err := tx.Get(ctx, actor.Key, &prof); err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if displayName != nil {
			prof.DisplayName = *displayName
		}
		if teeShirtSize != nil {
			prof.TeeShirtSize = *teeShirtSize
		}
		updated = &prof
		return tx.Put(ctx, &prof)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
