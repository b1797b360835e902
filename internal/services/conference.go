package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"confcentral/internal/domain"
	"confcentral/internal/pipeline"
	"confcentral/internal/query"
)

// ConferenceResult pairs a conference with its organizer's display name
// for read endpoints.
type ConferenceResult struct {
	Conference    *domain.Conference
	OrganizerName string
}

// ConferenceService creates, updates, and queries conferences.
type ConferenceService struct {
	store  domain.Store
	cache  domain.Cache
	queue  domain.Queue
	logger *slog.Logger
}

func NewConferenceService(store domain.Store, cache domain.Cache, queue domain.Queue, logger *slog.Logger) *ConferenceService {
	return &ConferenceService{store: store, cache: cache, queue: queue, logger: logger}
}

// CreateConference creates a conference owned by the acting profile and
// enqueues the organizer's confirmation email. The email task is
// fire-and-forget; an enqueue failure never fails the creation.
func (s *ConferenceService) CreateConference(ctx context.Context, actor *domain.Profile, in domain.ConferenceInput) (*domain.Conference, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}

	key, err := s.store.AllocateID(ctx, actor.Key, domain.KindConference)
	if err != nil {
		return nil, fmt.Errorf("allocate conference id: %w", err)
	}
	conf, err := domain.NewConference(key, actor.MainEmail, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, conf); err != nil {
		return nil, fmt.Errorf("put conference: %w", err)
	}

	payload, err := json.Marshal(pipeline.ConfirmationEmailTask{
		Email:          actor.MainEmail,
		ConferenceInfo: conf.Name,
	})
	if err == nil {
		err = s.queue.Enqueue(ctx, domain.TaskSendConfirmationEmail, payload)
	}
	if err != nil {
		s.logger.Warn("confirmation email task not enqueued", "conference", conf.Key.Path(), "error", err)
	}

	s.logger.Info("conference created", "conference", conf.Key.Path(), "organizer", actor.MainEmail)
	return conf, nil
}

// UpdateConference applies the non-empty input fields to a conference
// the acting profile organizes. Seat counts are never touched here; only
// the registration engine mutates them.
func (s *ConferenceService) UpdateConference(ctx context.Context, actor *domain.Profile, websafeKey string, in domain.ConferenceInput) (*domain.Conference, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	confKey, err := domain.DecodeKeyKind(websafeKey, domain.KindConference)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid conference key", domain.ErrBadRequest)
	}

	var updated *domain.Conference
	err = s.store.RunAtomic(ctx, []*domain.Key{confKey.Root()}, func(tx domain.Tx) error {
		var conf domain.Conference
		if err := tx.Get(ctx, confKey, &conf); err != nil {
			return fmt.Errorf("get conference: %w", err)
		}
		if conf.OrganizerUserID != actor.MainEmail {
			return fmt.Errorf("%w: only the organizer can update this conference", domain.ErrForbidden)
		}

		if in.Name != "" {
			conf.Name = in.Name
		}
		if in.Description != "" {
			conf.Description = in.Description
		}
		if len(in.Topics) > 0 {
			conf.Topics = in.Topics
		}
		if in.City != "" {
			conf.City = in.City
		}
		if in.StartDate != "" {
			start, err := domain.ParseDate(in.StartDate)
			if err != nil {
				return fmt.Errorf("%w: startDate must be formatted like 2015-12-31", domain.ErrBadRequest)
			}
			conf.StartDate = &start
			conf.Month = int(start.Month())
		}
		if in.EndDate != "" {
			end, err := domain.ParseDate(in.EndDate)
			if err != nil {
				return fmt.Errorf("%w: endDate must be formatted like 2015-12-31", domain.ErrBadRequest)
			}
			conf.EndDate = &end
		}

		updated = &conf
		return tx.Put(ctx, &conf)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetConference fetches one conference by its websafe key along with the
// organizer's display name.
func (s *ConferenceService) GetConference(ctx context.Context, websafeKey string) (*ConferenceResult, error) {
	confKey, err := domain.DecodeKeyKind(websafeKey, domain.KindConference)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid conference key", domain.ErrBadRequest)
	}
	var conf domain.Conference
	if err := s.store.Get(ctx, confKey, &conf); err != nil {
		return nil, fmt.Errorf("get conference: %w", err)
	}
	return &ConferenceResult{Conference: &conf, OrganizerName: s.organizerName(ctx, &conf)}, nil
}

// QueryConferences runs a composed filter query and resolves each
// organizer's display name in one batched fetch.
func (s *ConferenceService) QueryConferences(ctx context.Context, filters []query.FilterSpec) ([]*ConferenceResult, error) {
	q, err := query.ComposeConferenceQuery(filters)
	if err != nil {
		return nil, err
	}
	entities, err := s.store.RunQuery(ctx, q, func() domain.Entity { return &domain.Conference{} })
	if err != nil {
		return nil, fmt.Errorf("query conferences: %w", err)
	}

	confs := make([]*domain.Conference, len(entities))
	for i, e := range entities {
		confs[i] = e.(*domain.Conference)
	}
	return s.withOrganizerNames(ctx, confs), nil
}

// GetConferencesCreated lists the conferences the acting profile
// organizes, an ancestor query over its entity group.
func (s *ConferenceService) GetConferencesCreated(ctx context.Context, actor *domain.Profile) ([]*domain.Conference, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	entities, err := s.store.RunQuery(ctx, domain.Query{
		Kind:     domain.KindConference,
		Ancestor: actor.Key,
		Orders:   []domain.Order{{Field: "name"}},
	}, func() domain.Entity { return &domain.Conference{} })
	if err != nil {
		return nil, fmt.Errorf("query created conferences: %w", err)
	}
	confs := make([]*domain.Conference, len(entities))
	for i, e := range entities {
		confs[i] = e.(*domain.Conference)
	}
	return confs, nil
}

// GetConferencesToAttend resolves the acting profile's attending list to
// conferences, preserving registration order.
func (s *ConferenceService) GetConferencesToAttend(ctx context.Context, actor *domain.Profile) ([]*ConferenceResult, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	if len(actor.ConferenceKeysToAttend) == 0 {
		return []*ConferenceResult{}, nil
	}

	keys := make([]*domain.Key, 0, len(actor.ConferenceKeysToAttend))
	for _, ws := range actor.ConferenceKeysToAttend {
		key, err := domain.DecodeKeyKind(ws, domain.KindConference)
		if err != nil {
			return nil, fmt.Errorf("decode attending key: %w", err)
		}
		keys = append(keys, key)
	}
	entities, err := s.store.GetMulti(ctx, keys, func() domain.Entity { return &domain.Conference{} })
	if err != nil {
		return nil, fmt.Errorf("get attending conferences: %w", err)
	}
	confs := make([]*domain.Conference, len(entities))
	for i, e := range entities {
		confs[i] = e.(*domain.Conference)
	}
	return s.withOrganizerNames(ctx, confs), nil
}

// GetAnnouncement returns the cached nearly-sold-out summary, empty when
// none is cached. The cache is best-effort; absence is not an error.
func (s *ConferenceService) GetAnnouncement(ctx context.Context) string {
	v, ok := s.cache.Get(domain.CacheKeyAnnouncements)
	if !ok {
		return ""
	}
	return string(v)
}

func (s *ConferenceService) organizerName(ctx context.Context, conf *domain.Conference) string {
	results := s.withOrganizerNames(ctx, []*domain.Conference{conf})
	return results[0].OrganizerName
}

// withOrganizerNames fetches the distinct organizer profiles in one
// multi-get and falls back to the organizer id when a profile is
// missing.
func (s *ConferenceService) withOrganizerNames(ctx context.Context, confs []*domain.Conference) []*ConferenceResult {
	seen := make(map[string]bool)
	var keys []*domain.Key
	for _, c := range confs {
		if c.OrganizerUserID == "" || seen[c.OrganizerUserID] {
			continue
		}
		seen[c.OrganizerUserID] = true
		keys = append(keys, domain.NewKey(domain.KindProfile, c.OrganizerUserID))
	}

	names := make(map[string]string)
	if len(keys) > 0 {
		profiles, err := s.store.GetMulti(ctx, keys, func() domain.Entity { return &domain.Profile{} })
		if err != nil {
			s.logger.Warn("organizer profiles not resolved", "error", err)
		} else {
			for _, e := range profiles {
				p := e.(*domain.Profile)
				names[p.MainEmail] = p.DisplayName
			}
		}
	}

	results := make([]*ConferenceResult, len(confs))
	for i, c := range confs {
		name, ok := names[c.OrganizerUserID]
		if !ok || name == "" {
			name = c.OrganizerUserID
		}
		results[i] = &ConferenceResult{Conference: c, OrganizerName: name}
	}
	return results
}
