package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"confcentral/internal/domain"
)

func putConference(t *testing.T, s *Store, id, name, city string, topics []string, maxAttendees int) *domain.Conference {
	t.Helper()
	conf := &domain.Conference{
		Key:            domain.ChildKey(domain.NewKey(domain.KindProfile, "org@example.com"), domain.KindConference, id),
		Name:           name,
		City:           city,
		Topics:         topics,
		MaxAttendees:   maxAttendees,
		SeatsAvailable: maxAttendees,
	}
	require.NoError(t, s.Put(context.Background(), conf))
	return conf
}

func TestMemoryStoreQueryFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	putConference(t, s, "a", "Alpha", "Berlin", []string{"Go", "Cloud"}, 100)
	putConference(t, s, "b", "Beta", "Berlin", []string{"Rust"}, 20)
	putConference(t, s, "c", "Gamma", "Paris", []string{"Go"}, 50)

	got, err := s.RunQuery(ctx, domain.Query{
		Kind: domain.KindConference,
		Filters: []domain.Filter{
			{Field: "city", Op: "=", Value: "Berlin"},
			{Field: "maxAttendees", Op: ">", Value: 10},
		},
		Orders: []domain.Order{{Field: "maxAttendees"}, {Field: "name"}},
	}, func() domain.Entity { return &domain.Conference{} })
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Beta", got[0].(*domain.Conference).Name)
	require.Equal(t, "Alpha", got[1].(*domain.Conference).Name)
}

func TestMemoryStoreQueryTopicMembership(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	putConference(t, s, "a", "Alpha", "Berlin", []string{"Go", "Cloud"}, 100)
	putConference(t, s, "b", "Beta", "Berlin", []string{"Rust"}, 20)

	got, err := s.RunQuery(ctx, domain.Query{
		Kind:    domain.KindConference,
		Filters: []domain.Filter{{Field: "topics", Op: "=", Value: "Go"}},
	}, func() domain.Entity { return &domain.Conference{} })
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Alpha", got[0].(*domain.Conference).Name)
}

func TestMemoryStoreAncestorQuery(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	conf := putConference(t, s, "a", "Alpha", "Berlin", nil, 10)

	other := &domain.Conference{
		Key:  domain.ChildKey(domain.NewKey(domain.KindProfile, "someone@else.com"), domain.KindConference, "z"),
		Name: "Zeta",
	}
	require.NoError(t, s.Put(ctx, other))

	got, err := s.RunQuery(ctx, domain.Query{
		Kind:     domain.KindConference,
		Ancestor: domain.NewKey(domain.KindProfile, "org@example.com"),
	}, func() domain.Entity { return &domain.Conference{} })
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].EntityKey().Equal(conf.Key))
}

func TestMemoryStoreRunAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	conf := putConference(t, s, "a", "Alpha", "Berlin", nil, 10)

	err := s.RunAtomic(ctx, []*domain.Key{conf.Key.Root()}, func(tx domain.Tx) error {
		var c domain.Conference
		if err := tx.Get(ctx, conf.Key, &c); err != nil {
			return err
		}
		c.SeatsAvailable--
		if err := tx.Put(ctx, &c); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var c domain.Conference
	require.NoError(t, s.Get(ctx, conf.Key, &c))
	require.Equal(t, 10, c.SeatsAvailable)
}

func TestMemoryStoreRunAtomicReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	conf := putConference(t, s, "a", "Alpha", "Berlin", nil, 10)

	err := s.RunAtomic(ctx, []*domain.Key{conf.Key.Root()}, func(tx domain.Tx) error {
		var c domain.Conference
		if err := tx.Get(ctx, conf.Key, &c); err != nil {
			return err
		}
		c.SeatsAvailable = 5
		if err := tx.Put(ctx, &c); err != nil {
			return err
		}
		var again domain.Conference
		if err := tx.Get(ctx, conf.Key, &again); err != nil {
			return err
		}
		require.Equal(t, 5, again.SeatsAvailable)
		return nil
	})
	require.NoError(t, err)
}
