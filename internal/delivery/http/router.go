// Package http wires the controllers onto the mux.
package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"confcentral/internal/delivery/http/controllers"
)

// Middleware wraps a handler func, typically to require authentication.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// NewRouter initializes the HTTP router with all application routes.
// requireProfile guards the routes that act on behalf of a caller.
func NewRouter(
	requireProfile Middleware,
	profile *controllers.ProfileController,
	conference *controllers.ConferenceController,
	session *controllers.SessionController,
	wishlist *controllers.WishlistController,
	cron *controllers.CronController,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Profile
	mux.HandleFunc("GET /profile", requireProfile(profile.GetProfile))
	mux.HandleFunc("POST /profile", requireProfile(profile.SaveProfile))

	// Conferences
	mux.HandleFunc("POST /conferences", requireProfile(conference.CreateConference))
	mux.HandleFunc("POST /conferences/query", conference.QueryConferences)
	mux.HandleFunc("GET /conferences/created", requireProfile(conference.GetConferencesCreated))
	mux.HandleFunc("GET /conferences/attending", requireProfile(conference.GetConferencesToAttend))
	mux.HandleFunc("GET /conferences/{websafeConferenceKey}", conference.GetConference)
	mux.HandleFunc("PUT /conferences/{websafeConferenceKey}", requireProfile(conference.UpdateConference))
	mux.HandleFunc("POST /conferences/{websafeConferenceKey}/registration", requireProfile(conference.Register))
	mux.HandleFunc("DELETE /conferences/{websafeConferenceKey}/registration", requireProfile(conference.Unregister))
	mux.HandleFunc("GET /announcement", conference.GetAnnouncement)

	// Sessions
	mux.HandleFunc("POST /conferences/{websafeConferenceKey}/sessions", requireProfile(session.CreateSession))
	mux.HandleFunc("GET /conferences/{websafeConferenceKey}/sessions", session.GetConferenceSessions)
	mux.HandleFunc("POST /sessions/search", session.SearchSessions)

	// Speakers
	mux.HandleFunc("POST /speakers", requireProfile(session.RegisterSpeaker))
	mux.HandleFunc("GET /speakers", session.ListSpeakers)
	mux.HandleFunc("GET /speakers/featured", session.GetFeaturedSpeaker)
	mux.HandleFunc("GET /speakers/{websafeSpeakerKey}/sessions", session.GetSessionsBySpeaker)

	// Wishlist
	mux.HandleFunc("POST /profile/wishlist", requireProfile(wishlist.Add))
	mux.HandleFunc("GET /profile/wishlist", requireProfile(wishlist.GetSessions))
	mux.HandleFunc("DELETE /profile/wishlist/{websafeSessionKey}", requireProfile(wishlist.Remove))

	// Crons
	mux.HandleFunc("POST /crons/set_announcement", cron.SetAnnouncement)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
