package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"confcentral/internal/domain"
)

// Indexer writes session documents to the full-text index. Writes are
// best-effort: a transient failure gets exactly one retry, anything else
// is logged and dropped so the originating request never fails.
type Indexer struct {
	index  domain.SearchIndex
	logger *slog.Logger
}

func NewIndexer(index domain.SearchIndex, logger *slog.Logger) *Indexer {
	return &Indexer{index: index, logger: logger}
}

// IndexSession builds and writes the denormalized session document.
func (i *Indexer) IndexSession(ctx context.Context, sess *domain.ConferenceSession, speaker *domain.ConferenceSpeaker, conf *domain.Conference) {
	startMinutes, err := domain.TimeToMinutes(sess.StartTime)
	if err != nil {
		i.logger.Error("session has unparseable start time, skipping index", "session", sess.Key.Path(), "error", err)
		return
	}
	var startDate string
	if sess.StartDate != nil {
		startDate = sess.StartDate.Format(domain.DateFormat)
	}
	doc := domain.SessionDocument{
		ID:                    sess.Key.Websafe(),
		Name:                  sess.Name,
		Type:                  sess.Type,
		Duration:              sess.Duration,
		StartDate:             startDate,
		StartTime:             startMinutes,
		Highlights:            sess.Highlights,
		SpeakerName:           speaker.DisplayName,
		ConferenceName:        conf.Name,
		ConferenceTopics:      strings.Join(conf.Topics, " "),
		ConferenceCity:        conf.City,
		ConferenceDescription: conf.Description,
	}

	err = i.index.Put(ctx, doc)
	if err != nil && errors.Is(err, domain.ErrTransient) {
		err = i.index.Put(ctx, doc)
	}
	if err != nil {
		i.logger.Error("index write failed, dropping", "session", sess.Key.Path(), "error", err)
	}
}
