package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"confcentral/internal/domain"
	"confcentral/internal/store/memory"
)

type taskRecord struct {
	name    string
	payload []byte
}

type queueRecorder struct {
	tasks []taskRecord
}

func (q *queueRecorder) Enqueue(_ context.Context, task string, payload []byte) error {
	q.tasks = append(q.tasks, taskRecord{name: task, payload: payload})
	return nil
}

func (q *queueRecorder) named(name string) []taskRecord {
	var out []taskRecord
	for _, tk := range q.tasks {
		if tk.name == name {
			out = append(out, tk)
		}
	}
	return out
}

type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(key string) ([]byte, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(key string, value []byte) { c.entries[key] = value }
func (c *mapCache) Delete(key string)            { delete(c.entries, key) }

type recordingIndex struct {
	docs []domain.SessionDocument
}

func (r *recordingIndex) Put(_ context.Context, doc domain.SessionDocument) error {
	r.docs = append(r.docs, doc)
	return nil
}

func (r *recordingIndex) Query(_ context.Context, _ string, limit int) ([]domain.SessionDocument, error) {
	if limit > len(r.docs) {
		limit = len(r.docs)
	}
	return r.docs[:limit], nil
}

func newSessionFixture(t *testing.T) (*memory.Store, *SessionService, *queueRecorder, *mapCache, *recordingIndex) {
	t.Helper()
	store := memory.NewStore()
	queue := &queueRecorder{}
	cache := newMapCache()
	index := &recordingIndex{}
	svc := NewSessionService(store, cache, queue, index, testLogger())
	return store, svc, queue, cache, index
}

func seedSpeaker(t *testing.T, store *memory.Store, id, name string) *domain.ConferenceSpeaker {
	t.Helper()
	speaker := &domain.ConferenceSpeaker{Key: domain.NewKey(domain.KindSpeaker, id), DisplayName: name}
	require.NoError(t, store.Put(context.Background(), speaker))
	return speaker
}

func sessionInput(name, speakerKey string) domain.SessionInput {
	return domain.SessionInput{
		Name:       name,
		Type:       "Lecture",
		StartDate:  "2026-10-02",
		StartTime:  "14:30",
		Duration:   60,
		SpeakerKey: speakerKey,
	}
}

func TestCreateSessionLinksSpeaker(t *testing.T) {
	ctx := context.Background()
	store, svc, queue, _, index := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	speaker := seedSpeaker(t, store, "sp1", "Ada Lovelace")

	sess, err := svc.CreateSession(ctx, actor, conf.Key.Websafe(), sessionInput("Advanced Go", speaker.Key.Websafe()))
	require.NoError(t, err)
	require.Equal(t, conf.Key.Path(), sess.Key.Parent.Path())
	require.Equal(t, 14, sess.StartTimeSlot)

	var after domain.ConferenceSpeaker
	require.NoError(t, store.Get(ctx, speaker.Key, &after))
	require.True(t, after.AppearsIn(conf.Key.Websafe()))
	require.Contains(t, after.ConferenceSessions, sess.Key.Websafe())

	// First session in the conference: no featured-speaker task.
	require.Empty(t, queue.named(domain.TaskAddFeaturedSpeaker))
	// The session document went to the index.
	require.Len(t, index.docs, 1)
	require.Equal(t, sess.Key.Websafe(), index.docs[0].ID)
}

func TestCreateSessionSecondSessionTriggersFeaturedSpeaker(t *testing.T) {
	ctx := context.Background()
	store, svc, queue, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	speaker := seedSpeaker(t, store, "sp1", "Ada Lovelace")

	first, err := svc.CreateSession(ctx, actor, conf.Key.Websafe(), sessionInput("Intro to Go", speaker.Key.Websafe()))
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, actor, conf.Key.Websafe(), sessionInput("Advanced Go", speaker.Key.Websafe()))
	require.NoError(t, err)

	tasks := queue.named(domain.TaskAddFeaturedSpeaker)
	require.Len(t, tasks, 1)

	var payload struct {
		SpeakerName        string   `json:"speaker_name"`
		SessionKeys        []string `json:"sess_keys"`
		CurrentSessionName string   `json:"current_sess_name"`
		Conference         string   `json:"conf"`
		Location           string   `json:"conf_loc"`
	}
	require.NoError(t, json.Unmarshal(tasks[0].payload, &payload))
	require.Equal(t, "Ada Lovelace", payload.SpeakerName)
	require.Equal(t, []string{first.Key.Websafe()}, payload.SessionKeys)
	require.Equal(t, "Advanced Go", payload.CurrentSessionName)
	require.Equal(t, "GopherCon", payload.Conference)
	require.Equal(t, "Berlin", payload.Location)
}

func TestCreateSessionSpeakerInOtherConferenceDoesNotTrigger(t *testing.T) {
	ctx := context.Background()
	store, svc, queue, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	speaker := seedSpeaker(t, store, "sp1", "Ada Lovelace")

	confA := seedConference(t, store, "org@example.com", 10)
	confB := &domain.Conference{
		Key:             domain.ChildKey(actor.Key, domain.KindConference, "c2"),
		Name:            "GoDays",
		OrganizerUserID: "org@example.com",
		MaxAttendees:    50,
		SeatsAvailable:  50,
	}
	require.NoError(t, store.Put(ctx, confB))

	_, err := svc.CreateSession(ctx, actor, confA.Key.Websafe(), sessionInput("Intro to Go", speaker.Key.Websafe()))
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, actor, confB.Key.Websafe(), sessionInput("Advanced Go", speaker.Key.Websafe()))
	require.NoError(t, err)

	require.Empty(t, queue.named(domain.TaskAddFeaturedSpeaker))
}

func TestCreateSessionNotOrganizer(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "someone@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	speaker := seedSpeaker(t, store, "sp1", "Ada Lovelace")

	_, err := svc.CreateSession(ctx, actor, conf.Key.Websafe(), sessionInput("Advanced Go", speaker.Key.Websafe()))
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateSessionSpeakerNotFound(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	ghost := domain.NewKey(domain.KindSpeaker, "ghost")

	_, err := svc.CreateSession(ctx, actor, conf.Key.Websafe(), sessionInput("Advanced Go", ghost.Websafe()))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateSessionMissingFields(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	speaker := seedSpeaker(t, store, "sp1", "Ada Lovelace")

	in := sessionInput("", speaker.Key.Websafe())
	in.StartTime = ""
	_, err := svc.CreateSession(ctx, actor, conf.Key.Websafe(), in)
	require.ErrorIs(t, err, domain.ErrBadRequest)
	require.Contains(t, err.Error(), "name")
	require.Contains(t, err.Error(), "startTime")
}

func TestRegisterSpeaker(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	seedConference(t, store, "org@example.com", 10)

	speaker, err := svc.RegisterSpeaker(ctx, actor, "Ada Lovelace")
	require.NoError(t, err)
	require.NotNil(t, speaker.Key)
	require.Equal(t, "Ada Lovelace", speaker.DisplayName)
}

func TestRegisterSpeakerRequiresOrganizedConference(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "user@example.com")
	_, err := svc.RegisterSpeaker(ctx, actor, "Ada Lovelace")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRegisterSpeakerInvalidName(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	seedConference(t, store, "org@example.com", 10)

	for _, name := range []string{"x", "ada lovelace", "Ada  Lovelace", "Ada9"} {
		_, err := svc.RegisterSpeaker(ctx, actor, name)
		require.ErrorIs(t, err, domain.ErrBadRequest, "name %q", name)
	}
}

func TestGetConferenceSessionsByType(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	speaker := seedSpeaker(t, store, "sp1", "Ada Lovelace")

	in := sessionInput("Advanced Go", speaker.Key.Websafe())
	_, err := svc.CreateSession(ctx, actor, conf.Key.Websafe(), in)
	require.NoError(t, err)

	in = sessionInput("Hallway Track", speaker.Key.Websafe())
	in.Type = "Workshop"
	_, err = svc.CreateSession(ctx, actor, conf.Key.Websafe(), in)
	require.NoError(t, err)

	all, err := svc.GetConferenceSessions(ctx, conf.Key.Websafe())
	require.NoError(t, err)
	require.Len(t, all, 2)

	lectures, err := svc.GetConferenceSessionsByType(ctx, conf.Key.Websafe(), "Lecture")
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	require.Equal(t, "Advanced Go", lectures[0].Name)
}

func TestGetSessionsBySpeaker(t *testing.T) {
	ctx := context.Background()
	store, svc, _, _, _ := newSessionFixture(t)

	actor := seedProfile(t, store, "org@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	speaker := seedSpeaker(t, store, "sp1", "Ada Lovelace")
	other := seedSpeaker(t, store, "sp2", "Grace Hopper")

	_, err := svc.CreateSession(ctx, actor, conf.Key.Websafe(), sessionInput("Advanced Go", speaker.Key.Websafe()))
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, actor, conf.Key.Websafe(), sessionInput("Intro to Go", other.Key.Websafe()))
	require.NoError(t, err)

	sessions, err := svc.GetSessionsBySpeaker(ctx, speaker.Key.Websafe())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "Advanced Go", sessions[0].Name)
}

func TestGetFeaturedSpeaker(t *testing.T) {
	ctx := context.Background()
	_, svc, _, cache, _ := newSessionFixture(t)

	record, err := svc.GetFeaturedSpeaker(ctx)
	require.NoError(t, err)
	require.Nil(t, record)

	raw, _ := json.Marshal(domain.FeaturedSpeaker{
		Name:       "Ada Lovelace",
		Sessions:   []string{"Intro to Go", "Advanced Go"},
		Conference: "GopherCon",
		Location:   "Berlin",
	})
	cache.Set(domain.CacheKeyFeaturedSpeaker, raw)

	record, err = svc.GetFeaturedSpeaker(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", record.Name)
	require.Len(t, record.Sessions, 2)
}
