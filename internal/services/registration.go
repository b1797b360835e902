package services

import (
	"context"
	"fmt"
	"log/slog"

	"confcentral/internal/domain"
)

// RegistrationService books and releases conference seats. Each mutation
// touches the attendee's profile and the conference together, two
// independent entity groups, inside one atomic operation so the seat
// count and the attending list never diverge.
type RegistrationService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewRegistrationService(store domain.Store, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{store: store, logger: logger}
}

// RegisterForConference takes one seat at the conference for the acting
// profile. Fails with ErrConflict when the profile already holds a seat
// or no seats remain.
func (s *RegistrationService) RegisterForConference(ctx context.Context, actor *domain.Profile, websafeConfKey string) (bool, error) {
	if actor == nil {
		return false, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	confKey, err := domain.DecodeKeyKind(websafeConfKey, domain.KindConference)
	if err != nil {
		return false, fmt.Errorf("%w: invalid conference key", domain.ErrBadRequest)
	}

	err = s.store.RunAtomic(ctx, []*domain.Key{actor.Key.Root(), confKey.Root()}, func(tx domain.Tx) error {
		var prof domain.Profile
		if err := tx.Get(ctx, actor.Key, &prof); err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		var conf domain.Conference
		if err := tx.Get(ctx, confKey, &conf); err != nil {
			return fmt.Errorf("get conference: %w", err)
		}

		if prof.IsAttending(websafeConfKey) {
			return fmt.Errorf("%w: already registered for this conference", domain.ErrConflict)
		}
		if conf.SeatsAvailable <= 0 {
			return fmt.Errorf("%w: there are no seats available", domain.ErrConflict)
		}

		prof.ConferenceKeysToAttend = append(prof.ConferenceKeysToAttend, websafeConfKey)
		conf.SeatsAvailable--

		if err := tx.Put(ctx, &prof); err != nil {
			return fmt.Errorf("put profile: %w", err)
		}
		if err := tx.Put(ctx, &conf); err != nil {
			return fmt.Errorf("put conference: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("seat registered", "profile", actor.MainEmail, "conference", confKey.Path())
	return true, nil
}

// UnregisterFromConference releases the acting profile's seat. When the
// profile does not hold one this is a no-op returning false, not an
// error.
func (s *RegistrationService) UnregisterFromConference(ctx context.Context, actor *domain.Profile, websafeConfKey string) (bool, error) {
	if actor == nil {
		return false, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	confKey, err := domain.DecodeKeyKind(websafeConfKey, domain.KindConference)
	if err != nil {
		return false, fmt.Errorf("%w: invalid conference key", domain.ErrBadRequest)
	}

	released := false
	err = s.store.RunAtomic(ctx, []*domain.Key{actor.Key.Root(), confKey.Root()}, func(tx domain.Tx) error {
		released = false

		var prof domain.Profile
		if err := tx.Get(ctx, actor.Key, &prof); err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if !prof.IsAttending(websafeConfKey) {
			return nil
		}
		var conf domain.Conference
		if err := tx.Get(ctx, confKey, &conf); err != nil {
			return fmt.Errorf("get conference: %w", err)
		}

		kept := prof.ConferenceKeysToAttend[:0]
		for _, k := range prof.ConferenceKeysToAttend {
			if k != websafeConfKey {
				kept = append(kept, k)
			}
		}
		prof.ConferenceKeysToAttend = kept
		conf.SeatsAvailable++

		if err := tx.Put(ctx, &prof); err != nil {
			return fmt.Errorf("put profile: %w", err)
		}
		if err := tx.Put(ctx, &conf); err != nil {
			return fmt.Errorf("put conference: %w", err)
		}
		released = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if released {
		s.logger.Info("seat released", "profile", actor.MainEmail, "conference", confKey.Path())
	}
	return released, nil
}
