package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"confcentral/internal/domain"
	"confcentral/internal/store/memory"
)

func seedSession(t *testing.T, store *memory.Store, conf *domain.Conference, id, name string) *domain.ConferenceSession {
	t.Helper()
	sess := &domain.ConferenceSession{
		Key:       domain.ChildKey(conf.Key, domain.KindSession, id),
		Name:      name,
		Type:      domain.DefaultSessionType,
		StartTime: "10:00",
		Duration:  60,
	}
	require.NoError(t, store.Put(context.Background(), sess))
	return sess
}

// requireWishlistInvariant checks that every tracked session's parent
// conference is tracked.
func requireWishlistInvariant(t *testing.T, w *domain.WishList) {
	t.Helper()
	for _, ws := range w.Sessions {
		key, err := domain.DecodeKey(ws)
		require.NoError(t, err)
		require.NotNil(t, key.Parent)
		require.True(t, w.ContainsConference(key.Parent.Websafe()),
			"session %s tracked without its conference", ws)
	}
}

func TestAddToWishlistTracksConferenceWithSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	sess := seedSession(t, store, conf, "s1", "Advanced Go")

	w, err := svc.AddToWishlist(ctx, actor, sess.Key.Websafe())
	require.NoError(t, err)
	require.True(t, w.ContainsConference(conf.Key.Websafe()))
	require.True(t, w.ContainsSession(sess.Key.Websafe()))
	requireWishlistInvariant(t, w)
}

func TestAddToWishlistSecondSessionSameConference(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	s1 := seedSession(t, store, conf, "s1", "Advanced Go")
	s2 := seedSession(t, store, conf, "s2", "Intro to Go")

	_, err := svc.AddToWishlist(ctx, actor, s1.Key.Websafe())
	require.NoError(t, err)
	actor = getProfile(t, store, actor.Key)

	w, err := svc.AddToWishlist(ctx, actor, s2.Key.Websafe())
	require.NoError(t, err)
	require.Len(t, w.Conferences, 1)
	require.Len(t, w.Sessions, 2)
	requireWishlistInvariant(t, w)
}

func TestAddToWishlistDuplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	sess := seedSession(t, store, conf, "s1", "Advanced Go")

	_, err := svc.AddToWishlist(ctx, actor, sess.Key.Websafe())
	require.NoError(t, err)
	actor = getProfile(t, store, actor.Key)

	_, err = svc.AddToWishlist(ctx, actor, sess.Key.Websafe())
	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestAddToWishlistSessionNotFound(t *testing.T) {
	store := memory.NewStore()
	svc := NewWishlistService(store)
	actor := seedProfile(t, store, "user@example.com")

	missing := domain.ChildKey(
		domain.ChildKey(domain.NewKey(domain.KindProfile, "x"), domain.KindConference, "c"),
		domain.KindSession, "nope")
	_, err := svc.AddToWishlist(context.Background(), actor, missing.Websafe())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveFromWishlist(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	sess := seedSession(t, store, conf, "s1", "Advanced Go")

	_, err := svc.AddToWishlist(ctx, actor, sess.Key.Websafe())
	require.NoError(t, err)
	actor = getProfile(t, store, actor.Key)

	w, err := svc.RemoveFromWishlist(ctx, actor, sess.Key.Websafe(), false)
	require.NoError(t, err)
	require.False(t, w.ContainsSession(sess.Key.Websafe()))
	// The conference stays tracked unless removal was requested.
	require.True(t, w.ContainsConference(conf.Key.Websafe()))
	requireWishlistInvariant(t, w)
}

func TestRemoveFromWishlistNotTracked(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	sess := seedSession(t, store, conf, "s1", "Advanced Go")

	_, err := svc.RemoveFromWishlist(ctx, actor, sess.Key.Websafe(), false)
	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRemoveLastSessionAlsoRemovesConference(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	sess := seedSession(t, store, conf, "s1", "Advanced Go")

	_, err := svc.AddToWishlist(ctx, actor, sess.Key.Websafe())
	require.NoError(t, err)
	actor = getProfile(t, store, actor.Key)

	w, err := svc.RemoveFromWishlist(ctx, actor, sess.Key.Websafe(), true)
	require.NoError(t, err)
	require.Empty(t, w.Sessions)
	require.Empty(t, w.Conferences)
}

func TestRemoveConferenceBlockedBySiblingSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	s1 := seedSession(t, store, conf, "s1", "Advanced Go")
	s2 := seedSession(t, store, conf, "s2", "Intro to Go")

	_, err := svc.AddToWishlist(ctx, actor, s1.Key.Websafe())
	require.NoError(t, err)
	actor = getProfile(t, store, actor.Key)
	_, err = svc.AddToWishlist(ctx, actor, s2.Key.Websafe())
	require.NoError(t, err)
	actor = getProfile(t, store, actor.Key)

	_, err = svc.RemoveFromWishlist(ctx, actor, s1.Key.Websafe(), true)
	require.ErrorIs(t, err, domain.ErrConflict)

	// Nothing changed: both sessions and the conference are still tracked.
	after := getProfile(t, store, actor.Key)
	require.True(t, after.WishList.ContainsSession(s1.Key.Websafe()))
	require.True(t, after.WishList.ContainsSession(s2.Key.Websafe()))
	require.True(t, after.WishList.ContainsConference(conf.Key.Websafe()))
	requireWishlistInvariant(t, &after.WishList)
}

func TestGetSessionsInWishlist(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewWishlistService(store)

	actor := seedProfile(t, store, "user@example.com")
	conf := seedConference(t, store, "org@example.com", 10)
	s1 := seedSession(t, store, conf, "s1", "Advanced Go")

	_, err := svc.AddToWishlist(ctx, actor, s1.Key.Websafe())
	require.NoError(t, err)
	actor = getProfile(t, store, actor.Key)

	sessions, err := svc.GetSessionsInWishlist(ctx, actor)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "Advanced Go", sessions[0].Name)
}
