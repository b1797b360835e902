package domain

// Entity kind names as stored in keys.
const (
	KindProfile    = "Profile"
	KindConference = "Conference"
	KindSession    = "ConferenceSession"
	KindSpeaker    = "ConferenceSpeaker"
)

// Shirt sizes a profile may declare.
const TeeShirtNotSpecified = "NOT_SPECIFIED"

// Entity is implemented by every stored type. The key is carried outside
// the serialized properties.
type Entity interface {
	EntityKey() *Key
	SetEntityKey(*Key)
}

// WishList tracks conferences and sessions a user is interested in. It is
// a value embedded in Profile, never stored or addressed on its own.
// Invariant: every session key's parent conference key is present in
// Conferences; a conference may be tracked with no sessions.
type WishList struct {
	Conferences []string `json:"conferences"`
	Sessions    []string `json:"sessions"`
}

// ContainsConference reports whether the websafe conference key is tracked.
func (w *WishList) ContainsConference(websafeKey string) bool {
	for _, k := range w.Conferences {
		if k == websafeKey {
			return true
		}
	}
	return false
}

// ContainsSession reports whether the websafe session key is tracked.
func (w *WishList) ContainsSession(websafeKey string) bool {
	for _, k := range w.Sessions {
		if k == websafeKey {
			return true
		}
	}
	return false
}

// Profile holds per-user state. One exists per authenticated identity,
// created lazily on first access. Keyed by the user's email at the root
// of its own entity group.
type Profile struct {
	Key *Key `json:"-"`

	DisplayName            string   `json:"displayName"`
	MainEmail              string   `json:"mainEmail"`
	TeeShirtSize           string   `json:"teeShirtSize"`
	ConferenceKeysToAttend []string `json:"conferenceKeysToAttend"`
	WishList               WishList `json:"wishList"`
}

// NewProfile returns a profile keyed by email with defaults applied.
func NewProfile(email, displayName string) *Profile {
	return &Profile{
		Key:          NewKey(KindProfile, email),
		DisplayName:  displayName,
		MainEmail:    email,
		TeeShirtSize: TeeShirtNotSpecified,
	}
}

func (p *Profile) EntityKey() *Key     { return p.Key }
func (p *Profile) SetEntityKey(k *Key) { p.Key = k }

// IsAttending reports whether the profile holds a seat at the conference
// named by the websafe key.
func (p *Profile) IsAttending(websafeKey string) bool {
	for _, k := range p.ConferenceKeysToAttend {
		if k == websafeKey {
			return true
		}
	}
	return false
}
