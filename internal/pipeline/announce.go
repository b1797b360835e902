package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"confcentral/internal/domain"
)

// Announcer refreshes the nearly-sold-out announcement. It runs on a
// timer, not per request; concurrent runs interleave last-writer-wins on
// the cache, which is acceptable for a non-authoritative summary.
type Announcer struct {
	store  domain.Store
	cache  domain.Cache
	logger *slog.Logger
}

func NewAnnouncer(store domain.Store, cache domain.Cache, logger *slog.Logger) *Announcer {
	return &Announcer{store: store, cache: cache, logger: logger}
}

// Recompute finds conferences with 1 to 5 seats left, caches a summary
// listing them, or clears the cached entry when there are none. Returns
// the announcement text, empty when cleared.
func (a *Announcer) Recompute(ctx context.Context) (string, error) {
	results, err := a.store.RunQuery(ctx, domain.Query{
		Kind: domain.KindConference,
		Filters: []domain.Filter{
			{Field: "seatsAvailable", Op: domain.OpGreater, Value: 0},
			{Field: "seatsAvailable", Op: domain.OpLessEqual, Value: 5},
		},
		Orders: []domain.Order{{Field: "seatsAvailable"}},
	}, func() domain.Entity { return &domain.Conference{} })
	if err != nil {
		return "", fmt.Errorf("query nearly sold out conferences: %w", err)
	}

	if len(results) == 0 {
		a.cache.Delete(domain.CacheKeyAnnouncements)
		return "", nil
	}

	names := make([]string, len(results))
	for i, e := range results {
		names[i] = e.(*domain.Conference).Name
	}
	announcement := fmt.Sprintf(domain.AnnouncementTemplate, strings.Join(names, ", "))
	a.cache.Set(domain.CacheKeyAnnouncements, []byte(announcement))
	a.logger.Info("announcement updated", "conferences", len(results))
	return announcement, nil
}
