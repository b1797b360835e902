// Package pipeline holds the out-of-band work triggered by the engine:
// featured-speaker recomputation, announcement refresh, search-index
// writes, and confirmation email. Nothing here is awaited by a request,
// and every handler is safe to run more than once.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"confcentral/internal/domain"
)

// FeaturedSpeakerTask is the payload enqueued when a session creation
// makes its speaker featured: the speaker already had at least one other
// session in the same conference.
type FeaturedSpeakerTask struct {
	SpeakerName        string   `json:"speaker_name"`
	SessionKeys        []string `json:"sess_keys"`
	CurrentSessionName string   `json:"current_sess_name"`
	ConferenceName     string   `json:"conf"`
	ConferenceCity     string   `json:"conf_loc"`
}

// FeaturedSpeaker recomputes the featured-speaker cache record. The same
// inputs always produce the same record, so redelivery is harmless.
type FeaturedSpeaker struct {
	store  domain.Store
	cache  domain.Cache
	logger *slog.Logger
}

func NewFeaturedSpeaker(store domain.Store, cache domain.Cache, logger *slog.Logger) *FeaturedSpeaker {
	return &FeaturedSpeaker{store: store, cache: cache, logger: logger}
}

// Handle resolves the sibling session keys to names, appends the new
// session's name, and overwrites the cached record.
func (f *FeaturedSpeaker) Handle(ctx context.Context, payload []byte) error {
	var t FeaturedSpeakerTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("decode featured speaker task: %w", err)
	}

	keys := make([]*domain.Key, 0, len(t.SessionKeys))
	for _, ws := range t.SessionKeys {
		key, err := domain.DecodeKeyKind(ws, domain.KindSession)
		if err != nil {
			return fmt.Errorf("decode session key: %w", err)
		}
		keys = append(keys, key)
	}
	sessions, err := f.store.GetMulti(ctx, keys, func() domain.Entity { return &domain.ConferenceSession{} })
	if err != nil {
		return fmt.Errorf("resolve sessions: %w", err)
	}

	names := make([]string, 0, len(sessions)+1)
	for _, e := range sessions {
		names = append(names, e.(*domain.ConferenceSession).Name)
	}
	names = append(names, t.CurrentSessionName)

	record, err := json.Marshal(domain.FeaturedSpeaker{
		Name:       t.SpeakerName,
		Sessions:   names,
		Conference: t.ConferenceName,
		Location:   t.ConferenceCity,
	})
	if err != nil {
		return fmt.Errorf("encode featured speaker: %w", err)
	}
	f.cache.Set(domain.CacheKeyFeaturedSpeaker, record)
	f.logger.Info("featured speaker updated", "speaker", t.SpeakerName, "conference", t.ConferenceName)
	return nil
}
