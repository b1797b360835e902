package services

import (
	"context"
	"errors"
	"fmt"

	"confcentral/internal/domain"
)

// WishlistService maintains the wishlist embedded in a profile. The
// containment invariant, a session is only tracked while its parent
// conference is tracked, is enforced on every mutation.
type WishlistService struct {
	store domain.Store
}

func NewWishlistService(store domain.Store) *WishlistService {
	return &WishlistService{store: store}
}

// AddToWishlist tracks a session, tracking its parent conference in the
// same step when it is not tracked yet. Adding an already tracked
// session fails with ErrBadRequest.
func (s *WishlistService) AddToWishlist(ctx context.Context, actor *domain.Profile, websafeSessionKey string) (*domain.WishList, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	sessKey, err := domain.DecodeKeyKind(websafeSessionKey, domain.KindSession)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session key", domain.ErrBadRequest)
	}

	var sess domain.ConferenceSession
	if err := s.store.Get(ctx, sessKey, &sess); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	websafeConfKey := sessKey.Parent.Websafe()

	var updated domain.WishList
	err = s.store.RunAtomic(ctx, []*domain.Key{actor.Key.Root()}, func(tx domain.Tx) error {
		var prof domain.Profile
		if err := tx.Get(ctx, actor.Key, &prof); err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		switch {
		case !prof.WishList.ContainsConference(websafeConfKey):
			prof.WishList.Conferences = append(prof.WishList.Conferences, websafeConfKey)
			prof.WishList.Sessions = append(prof.WishList.Sessions, websafeSessionKey)
		case !prof.WishList.ContainsSession(websafeSessionKey):
			prof.WishList.Sessions = append(prof.WishList.Sessions, websafeSessionKey)
		default:
			return fmt.Errorf("%w: this session is already in your wishlist", domain.ErrBadRequest)
		}

		updated = prof.WishList
		return tx.Put(ctx, &prof)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveFromWishlist stops tracking a session. With removeConference set
// the parent conference is untracked too, which fails with ErrConflict
// while any sibling session remains tracked.
func (s *WishlistService) RemoveFromWishlist(ctx context.Context, actor *domain.Profile, websafeSessionKey string, removeConference bool) (*domain.WishList, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	sessKey, err := domain.DecodeKeyKind(websafeSessionKey, domain.KindSession)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session key", domain.ErrBadRequest)
	}

	var sess domain.ConferenceSession
	if err := s.store.Get(ctx, sessKey, &sess); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	confKey := sessKey.Parent
	websafeConfKey := confKey.Websafe()

	var updated domain.WishList
	err = s.store.RunAtomic(ctx, []*domain.Key{actor.Key.Root()}, func(tx domain.Tx) error {
		var prof domain.Profile
		if err := tx.Get(ctx, actor.Key, &prof); err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if !prof.WishList.ContainsSession(websafeSessionKey) {
			return fmt.Errorf("%w: this session is not in your wishlist", domain.ErrBadRequest)
		}

		sessions := prof.WishList.Sessions[:0]
		for _, k := range prof.WishList.Sessions {
			if k != websafeSessionKey {
				sessions = append(sessions, k)
			}
		}
		prof.WishList.Sessions = sessions

		if removeConference {
			for _, ws := range prof.WishList.Sessions {
				sk, err := domain.DecodeKey(ws)
				if err != nil {
					continue
				}
				if sk.Parent != nil && sk.Parent.Equal(confKey) {
					return fmt.Errorf("%w: other sessions of this conference are still in your wishlist", domain.ErrConflict)
				}
			}
			confs := prof.WishList.Conferences[:0]
			for _, k := range prof.WishList.Conferences {
				if k != websafeConfKey {
					confs = append(confs, k)
				}
			}
			prof.WishList.Conferences = confs
		}

		updated = prof.WishList
		return tx.Put(ctx, &prof)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetSessionsInWishlist resolves the acting profile's tracked sessions.
// A tracked key that no longer resolves is skipped rather than failing
// the whole read.
func (s *WishlistService) GetSessionsInWishlist(ctx context.Context, actor *domain.Profile) ([]*domain.ConferenceSession, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	sessions := make([]*domain.ConferenceSession, 0, len(actor.WishList.Sessions))
	for _, ws := range actor.WishList.Sessions {
		key, err := domain.DecodeKeyKind(ws, domain.KindSession)
		if err != nil {
			continue
		}
		var sess domain.ConferenceSession
		if err := s.store.Get(ctx, key, &sess); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get wishlist session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, nil
}
