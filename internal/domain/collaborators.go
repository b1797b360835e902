package domain

import "context"

// Queue hands tasks to out-of-band workers. Delivery is at-least-once and
// unordered; task bodies must be idempotent.
type Queue interface {
	Enqueue(ctx context.Context, task string, payload []byte) error
}

// Task names understood by the pipeline workers.
const (
	TaskAddFeaturedSpeaker    = "add_featured_speaker"
	TaskSendConfirmationEmail = "send_confirmation_email"
)

// Cache is a best-effort key/value surface. Entries may be evicted at any
// time and concurrent writers race last-writer-wins; it never backs an
// invariant, only fast reads of derived summaries.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

// Cache keys for the two derived snapshots.
const (
	CacheKeyAnnouncements   = "RECENT_ANNOUNCEMENTS"
	CacheKeyFeaturedSpeaker = "featuredSpeaker"
)

// AnnouncementTemplate formats the nearly-sold-out conference summary.
const AnnouncementTemplate = "Last chance to attend! The following conferences are nearly sold out: %s"

// FeaturedSpeaker is the cached record produced when a speaker has more
// than one session within a conference.
type FeaturedSpeaker struct {
	Name       string   `json:"name"`
	Sessions   []string `json:"sessions"`
	Conference string   `json:"conf"`
	Location   string   `json:"conf_loc"`
}

// SessionDocument is the denormalized view of a session written to the
// full-text index. ID is the session's websafe key. StartTime is minutes
// since midnight so range predicates work.
type SessionDocument struct {
	ID                    string `json:"-"`
	Name                  string `json:"name"`
	Type                  string `json:"type"`
	Duration              int    `json:"duration"`
	StartDate             string `json:"startDate"`
	StartTime             int    `json:"startTime"`
	Highlights            string `json:"highlights"`
	SpeakerName           string `json:"speakerName"`
	ConferenceName        string `json:"conferenceName"`
	ConferenceTopics      string `json:"conferenceTopics"`
	ConferenceCity        string `json:"conferenceCity"`
	ConferenceDescription string `json:"conferenceDescription"`
}

// SearchIndex is the eventually consistent full-text index over session
// documents. Put errors wrapping ErrTransient are worth one retry.
type SearchIndex interface {
	Put(ctx context.Context, doc SessionDocument) error
	// Query runs a query-string search sorted by start date and returns at
	// most limit documents.
	Query(ctx context.Context, query string, limit int) ([]SessionDocument, error)
}

// Mailer sends outbound email. Implementations may use AWS SES or a no-op
// for development.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
