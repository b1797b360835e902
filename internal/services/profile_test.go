package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"confcentral/internal/domain"
	"confcentral/internal/store/memory"
)

func TestGetOrCreateProfileCreatesLazily(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewProfileService(store)

	prof, err := svc.GetOrCreateProfile(ctx, "user@example.com", "Test User")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", prof.MainEmail)
	require.Equal(t, "Test User", prof.DisplayName)
	require.Equal(t, domain.TeeShirtNotSpecified, prof.TeeShirtSize)

	// Second access returns the stored profile, not a fresh one.
	displayName := "Renamed"
	_, err = svc.SaveProfile(ctx, prof, &displayName, nil)
	require.NoError(t, err)

	again, err := svc.GetOrCreateProfile(ctx, "user@example.com", "Test User")
	require.NoError(t, err)
	require.Equal(t, "Renamed", again.DisplayName)
}

func TestGetOrCreateProfileNoIdentity(t *testing.T) {
	svc := NewProfileService(memory.NewStore())
	_, err := svc.GetOrCreateProfile(context.Background(), "", "")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSaveProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewProfileService(store)

	prof, err := svc.GetOrCreateProfile(ctx, "user@example.com", "Test User")
	require.NoError(t, err)

	size := "XL"
	updated, err := svc.SaveProfile(ctx, prof, nil, &size)
	require.NoError(t, err)
	require.Equal(t, "XL", updated.TeeShirtSize)
	// Display name untouched when nil.
	require.Equal(t, "Test User", updated.DisplayName)
}
