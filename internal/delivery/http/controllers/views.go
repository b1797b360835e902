// Package controllers maps HTTP requests onto the engine services and
// their results onto the JSON envelope.
package controllers

import (
	"confcentral/internal/domain"
	"confcentral/internal/services"
)

// ConferenceView is the wire shape of a conference.
// swagger:model ConferenceView
type ConferenceView struct {
	WebsafeKey           string   `json:"websafeKey"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	OrganizerDisplayName string   `json:"organizerDisplayName,omitempty"`
	Topics               []string `json:"topics"`
	City                 string   `json:"city"`
	StartDate            string   `json:"startDate,omitempty"`
	EndDate              string   `json:"endDate,omitempty"`
	Month                int      `json:"month"`
	MaxAttendees         int      `json:"maxAttendees"`
	SeatsAvailable       int      `json:"seatsAvailable"`
}

func conferenceView(conf *domain.Conference, organizerName string) ConferenceView {
	v := ConferenceView{
		WebsafeKey:           conf.Key.Websafe(),
		Name:                 conf.Name,
		Description:          conf.Description,
		OrganizerDisplayName: organizerName,
		Topics:               conf.Topics,
		City:                 conf.City,
		Month:                conf.Month,
		MaxAttendees:         conf.MaxAttendees,
		SeatsAvailable:       conf.SeatsAvailable,
	}
	if conf.StartDate != nil {
		v.StartDate = conf.StartDate.Format(domain.DateFormat)
	}
	if conf.EndDate != nil {
		v.EndDate = conf.EndDate.Format(domain.DateFormat)
	}
	return v
}

func conferenceViews(results []*services.ConferenceResult) []ConferenceView {
	views := make([]ConferenceView, len(results))
	for i, r := range results {
		views[i] = conferenceView(r.Conference, r.OrganizerName)
	}
	return views
}

// SessionView is the wire shape of a conference session.
// swagger:model SessionView
type SessionView struct {
	WebsafeKey string `json:"websafeKey"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	StartDate  string `json:"startDate,omitempty"`
	StartTime  string `json:"startTime"`
	Duration   int    `json:"duration"`
	SpeakerKey string `json:"speakerKey,omitempty"`
	Highlights string `json:"highlights,omitempty"`
}

func sessionView(sess *domain.ConferenceSession) SessionView {
	v := SessionView{
		WebsafeKey: sess.Key.Websafe(),
		Name:       sess.Name,
		Type:       sess.Type,
		StartTime:  sess.StartTime,
		Duration:   sess.Duration,
		SpeakerKey: sess.SpeakerKey,
		Highlights: sess.Highlights,
	}
	if sess.StartDate != nil {
		v.StartDate = sess.StartDate.Format(domain.DateFormat)
	}
	return v
}

func sessionViews(sessions []*domain.ConferenceSession) []SessionView {
	views := make([]SessionView, len(sessions))
	for i, s := range sessions {
		views[i] = sessionView(s)
	}
	return views
}

// SpeakerView is the wire shape of a speaker.
// swagger:model SpeakerView
type SpeakerView struct {
	WebsafeKey  string `json:"websafeKey"`
	DisplayName string `json:"displayName"`
	Sessions    int    `json:"sessionCount"`
}

func speakerView(sp *domain.ConferenceSpeaker) SpeakerView {
	return SpeakerView{
		WebsafeKey:  sp.Key.Websafe(),
		DisplayName: sp.DisplayName,
		Sessions:    len(sp.ConferenceSessions),
	}
}

// ProfileView is the wire shape of the caller's profile.
// swagger:model ProfileView
type ProfileView struct {
	DisplayName            string          `json:"displayName"`
	MainEmail              string          `json:"mainEmail"`
	TeeShirtSize           string          `json:"teeShirtSize"`
	ConferenceKeysToAttend []string        `json:"conferenceKeysToAttend"`
	WishList               domain.WishList `json:"wishList"`
}

func profileView(p *domain.Profile) ProfileView {
	return ProfileView{
		DisplayName:            p.DisplayName,
		MainEmail:              p.MainEmail,
		TeeShirtSize:           p.TeeShirtSize,
		ConferenceKeysToAttend: p.ConferenceKeysToAttend,
		WishList:               p.WishList,
	}
}
