package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// ConferenceSpeaker is a top-level entity, not owned by any conference.
// Invariant: whenever a session key appears in ConferenceSessions, its
// parent conference key appears in Conferences.
type ConferenceSpeaker struct {
	Key *Key `json:"-"`

	DisplayName        string   `json:"displayName"`
	Conferences        []string `json:"conferences"`
	ConferenceSessions []string `json:"conferenceSessions"`
}

func (s *ConferenceSpeaker) EntityKey() *Key     { return s.Key }
func (s *ConferenceSpeaker) SetEntityKey(k *Key) { s.Key = k }

// AppearsIn reports whether the speaker already has a presence in the
// conference named by the websafe key.
func (s *ConferenceSpeaker) AppearsIn(websafeConfKey string) bool {
	for _, k := range s.Conferences {
		if k == websafeConfKey {
			return true
		}
	}
	return false
}

// SessionKeysIn returns the speaker's session keys whose parent is the
// given conference key.
func (s *ConferenceSpeaker) SessionKeysIn(confKey *Key) []string {
	var out []string
	for _, ws := range s.ConferenceSessions {
		sk, err := DecodeKey(ws)
		if err != nil {
			continue
		}
		if sk.Parent != nil && sk.Parent.Equal(confKey) {
			out = append(out, ws)
		}
	}
	return out
}

var nameWordPattern = regexp.MustCompile(`^[\p{L}]+([ \-'][\p{L}]+)*$`)

// IsValidSpeakerName reports whether a display name is acceptable: 3 to 50
// characters, letters separated by single spaces, hyphens, or apostrophes,
// each word in title case.
func IsValidSpeakerName(name string) bool {
	if len(name) < 3 || len(name) > 50 {
		return false
	}
	if !nameWordPattern.MatchString(name) {
		return false
	}
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\''
	})
	for _, w := range words {
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes[1:] {
			if unicode.IsUpper(r) {
				return false
			}
		}
	}
	return true
}
