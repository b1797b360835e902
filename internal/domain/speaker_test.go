package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidSpeakerName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "Ada Lovelace", true},
		{"hyphenated", "Jean-Luc Picard", true},
		{"apostrophe", "Conan O'Brien", true},
		{"lowercase word", "ada Lovelace", false},
		{"all caps word", "ADA Lovelace", false},
		{"too short", "Al", false},
		{"digits", "Ada L0velace", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsValidSpeakerName(tt.input))
		})
	}
}

func TestSpeakerSessionKeysIn(t *testing.T) {
	prof := NewKey(KindProfile, "org@example.com")
	confA := ChildKey(prof, KindConference, "a")
	confB := ChildKey(prof, KindConference, "b")
	sessA1 := ChildKey(confA, KindSession, "1")
	sessA2 := ChildKey(confA, KindSession, "2")
	sessB1 := ChildKey(confB, KindSession, "1")

	sp := &ConferenceSpeaker{
		DisplayName:        "Ada Lovelace",
		Conferences:        []string{confA.Websafe(), confB.Websafe()},
		ConferenceSessions: []string{sessA1.Websafe(), sessB1.Websafe(), sessA2.Websafe()},
	}

	require.Equal(t, []string{sessA1.Websafe(), sessA2.Websafe()}, sp.SessionKeysIn(confA))
	require.Equal(t, []string{sessB1.Websafe()}, sp.SessionKeysIn(confB))
	require.True(t, sp.AppearsIn(confA.Websafe()))
	require.False(t, sp.AppearsIn(ChildKey(prof, KindConference, "z").Websafe()))
}
