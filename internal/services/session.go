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

// SessionSearchResult is the read-side view of an indexed session,
// start time converted back from minutes to "HH:MM".
type SessionSearchResult struct {
	Key            string `json:"websafeKey"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Duration       int    `json:"duration"`
	StartDate      string `json:"startDate"`
	StartTime      string `json:"startTime"`
	Highlights     string `json:"highlights"`
	SpeakerName    string `json:"speakerName"`
	ConferenceName string `json:"conferenceName"`
}

const searchResultLimit = 25

// SessionService creates sessions and speakers and serves the session
// read paths, including full-text search and the featured-speaker
// snapshot.
type SessionService struct {
	store   domain.Store
	cache   domain.Cache
	queue   domain.Queue
	index   domain.SearchIndex
	indexer *pipeline.Indexer
	logger  *slog.Logger
}

func NewSessionService(store domain.Store, cache domain.Cache, queue domain.Queue, index domain.SearchIndex, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:   store,
		cache:   cache,
		queue:   queue,
		index:   index,
		indexer: pipeline.NewIndexer(index, logger),
		logger:  logger,
	}
}

// CreateSession creates a session under a conference the acting profile
// organizes and links it to its speaker. The session identifier is
// allocated before the atomic portion; the session write and the
// speaker's list updates commit as one unit across the two entity
// groups. When the speaker already had a session in this conference the
// creation enqueues the featured-speaker task, and the session document
// is written to the search index best-effort.
func (s *SessionService) CreateSession(ctx context.Context, actor *domain.Profile, websafeConfKey string, in domain.SessionInput) (*domain.ConferenceSession, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	confKey, err := domain.DecodeKeyKind(websafeConfKey, domain.KindConference)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid conference key", domain.ErrBadRequest)
	}

	speakerKey, err := domain.DecodeKeyKind(in.SpeakerKey, domain.KindSpeaker)
	if err != nil && in.SpeakerKey != "" {
		return nil, fmt.Errorf("%w: speaker not found", domain.ErrNotFound)
	}
	var speaker domain.ConferenceSpeaker
	if speakerKey != nil {
		if err := s.store.Get(ctx, speakerKey, &speaker); err != nil {
			return nil, fmt.Errorf("get speaker: %w", err)
		}
	}

	var conf domain.Conference
	if err := s.store.Get(ctx, confKey, &conf); err != nil {
		return nil, fmt.Errorf("get conference: %w", err)
	}
	if conf.OrganizerUserID != actor.MainEmail {
		return nil, fmt.Errorf("%w: only the organizer can add sessions", domain.ErrForbidden)
	}

	// Identifier allocation needs only uniqueness, not atomicity; a crash
	// here leaks an id that is never reused.
	sessKey, err := s.store.AllocateID(ctx, confKey, domain.KindSession)
	if err != nil {
		return nil, fmt.Errorf("allocate session id: %w", err)
	}
	sess, err := domain.NewSession(sessKey, in)
	if err != nil {
		return nil, err
	}

	// Recomputed on every attempt so a commit retry sees fresh lists.
	var priorSessions []string
	err = s.store.RunAtomic(ctx, []*domain.Key{sessKey.Root(), speakerKey.Root()}, func(tx domain.Tx) error {
		var sp domain.ConferenceSpeaker
		if err := tx.Get(ctx, speakerKey, &sp); err != nil {
			return fmt.Errorf("get speaker: %w", err)
		}
		priorSessions = sp.SessionKeysIn(confKey)

		if !sp.AppearsIn(websafeConfKey) {
			sp.Conferences = append(sp.Conferences, websafeConfKey)
		}
		sp.ConferenceSessions = append(sp.ConferenceSessions, sessKey.Websafe())

		if err := tx.Put(ctx, sess); err != nil {
			return fmt.Errorf("put session: %w", err)
		}
		if err := tx.Put(ctx, &sp); err != nil {
			return fmt.Errorf("put speaker: %w", err)
		}
		speaker = sp
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(priorSessions) > 0 {
		payload, err := json.Marshal(pipeline.FeaturedSpeakerTask{
			SpeakerName:        speaker.DisplayName,
			SessionKeys:        priorSessions,
			CurrentSessionName: sess.Name,
			ConferenceName:     conf.Name,
			ConferenceCity:     conf.City,
		})
		if err == nil {
			err = s.queue.Enqueue(ctx, domain.TaskAddFeaturedSpeaker, payload)
		}
		if err != nil {
			s.logger.Warn("featured speaker task not enqueued", "speaker", speaker.DisplayName, "error", err)
		}
	}

	s.indexer.IndexSession(ctx, sess, &speaker, &conf)

	s.logger.Info("session created", "session", sess.Key.Path(), "speaker", speaker.DisplayName)
	return sess, nil
}

// RegisterSpeaker creates a speaker entity. Only profiles that organize
// at least one conference may register speakers.
func (s *SessionService) RegisterSpeaker(ctx context.Context, actor *domain.Profile, displayName string) (*domain.ConferenceSpeaker, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no identity", domain.ErrUnauthenticated)
	}
	if !domain.IsValidSpeakerName(displayName) {
		return nil, fmt.Errorf("%w: speaker name must be 3-50 letters in title case", domain.ErrBadRequest)
	}

	organized, err := s.store.RunQuery(ctx, domain.Query{
		Kind:     domain.KindConference,
		Ancestor: actor.Key,
		Limit:    1,
	}, func() domain.Entity { return &domain.Conference{} })
	if err != nil {
		return nil, fmt.Errorf("query organized conferences: %w", err)
	}
	if len(organized) == 0 {
		return nil, fmt.Errorf("%w: only conference organizers can register speakers", domain.ErrForbidden)
	}

	key, err := s.store.AllocateID(ctx, nil, domain.KindSpeaker)
	if err != nil {
		return nil, fmt.Errorf("allocate speaker id: %w", err)
	}
	speaker := &domain.ConferenceSpeaker{Key: key, DisplayName: displayName}
	if err := s.store.Put(ctx, speaker); err != nil {
		return nil, fmt.Errorf("put speaker: %w", err)
	}
	return speaker, nil
}

// ListSpeakers returns all speakers ordered by display name.
func (s *SessionService) ListSpeakers(ctx context.Context) ([]*domain.ConferenceSpeaker, error) {
	entities, err := s.store.RunQuery(ctx, domain.Query{
		Kind:   domain.KindSpeaker,
		Orders: []domain.Order{{Field: "displayName"}},
	}, func() domain.Entity { return &domain.ConferenceSpeaker{} })
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	speakers := make([]*domain.ConferenceSpeaker, len(entities))
	for i, e := range entities {
		speakers[i] = e.(*domain.ConferenceSpeaker)
	}
	return speakers, nil
}

// GetConferenceSessions lists a conference's sessions ordered by name.
func (s *SessionService) GetConferenceSessions(ctx context.Context, websafeConfKey string) ([]*domain.ConferenceSession, error) {
	return s.conferenceSessions(ctx, websafeConfKey, nil)
}

// GetConferenceSessionsByType lists a conference's sessions of one type.
func (s *SessionService) GetConferenceSessionsByType(ctx context.Context, websafeConfKey, sessionType string) ([]*domain.ConferenceSession, error) {
	return s.conferenceSessions(ctx, websafeConfKey, []domain.Filter{
		{Field: "type", Op: domain.OpEqual, Value: sessionType},
	})
}

func (s *SessionService) conferenceSessions(ctx context.Context, websafeConfKey string, filters []domain.Filter) ([]*domain.ConferenceSession, error) {
	confKey, err := domain.DecodeKeyKind(websafeConfKey, domain.KindConference)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid conference key", domain.ErrBadRequest)
	}
	entities, err := s.store.RunQuery(ctx, domain.Query{
		Kind:     domain.KindSession,
		Ancestor: confKey,
		Filters:  filters,
		Orders:   []domain.Order{{Field: "name"}},
	}, func() domain.Entity { return &domain.ConferenceSession{} })
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	sessions := make([]*domain.ConferenceSession, len(entities))
	for i, e := range entities {
		sessions[i] = e.(*domain.ConferenceSession)
	}
	return sessions, nil
}

// GetSessionsBySpeaker resolves a speaker's session list across all
// conferences.
func (s *SessionService) GetSessionsBySpeaker(ctx context.Context, websafeSpeakerKey string) ([]*domain.ConferenceSession, error) {
	speakerKey, err := domain.DecodeKeyKind(websafeSpeakerKey, domain.KindSpeaker)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid speaker key", domain.ErrBadRequest)
	}
	var speaker domain.ConferenceSpeaker
	if err := s.store.Get(ctx, speakerKey, &speaker); err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	if len(speaker.ConferenceSessions) == 0 {
		return []*domain.ConferenceSession{}, nil
	}

	keys := make([]*domain.Key, 0, len(speaker.ConferenceSessions))
	for _, ws := range speaker.ConferenceSessions {
		key, err := domain.DecodeKeyKind(ws, domain.KindSession)
		if err != nil {
			return nil, fmt.Errorf("decode session key: %w", err)
		}
		keys = append(keys, key)
	}
	entities, err := s.store.GetMulti(ctx, keys, func() domain.Entity { return &domain.ConferenceSession{} })
	if err != nil {
		return nil, fmt.Errorf("get speaker sessions: %w", err)
	}
	sessions := make([]*domain.ConferenceSession, len(entities))
	for i, e := range entities {
		sessions[i] = e.(*domain.ConferenceSession)
	}
	return sessions, nil
}

// SearchSessions composes and runs a full-text query against the session
// index. Results are eventually consistent with the store.
func (s *SessionService) SearchSessions(ctx context.Context, spec query.SessionSearchSpec) ([]*SessionSearchResult, error) {
	q, err := query.ComposeSessionSearch(spec)
	if err != nil {
		return nil, err
	}
	docs, err := s.index.Query(ctx, q, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search sessions: %w", err)
	}

	results := make([]*SessionSearchResult, len(docs))
	for i, doc := range docs {
		results[i] = &SessionSearchResult{
			Key:            doc.ID,
			Name:           doc.Name,
			Type:           doc.Type,
			Duration:       doc.Duration,
			StartDate:      doc.StartDate,
			StartTime:      domain.MinutesToTimeString(doc.StartTime),
			Highlights:     doc.Highlights,
			SpeakerName:    doc.SpeakerName,
			ConferenceName: doc.ConferenceName,
		}
	}
	return results, nil
}

// GetFeaturedSpeaker returns the cached featured-speaker record, or nil
// when none is cached.
func (s *SessionService) GetFeaturedSpeaker(ctx context.Context) (*domain.FeaturedSpeaker, error) {
	raw, ok := s.cache.Get(domain.CacheKeyFeaturedSpeaker)
	if !ok {
		return nil, nil
	}
	var record domain.FeaturedSpeaker
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode featured speaker record: %w", err)
	}
	return &record, nil
}
