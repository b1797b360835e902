package controllers

import (
	"log/slog"
	"net/http"

	"confcentral/internal/delivery/http/helpers"
	"confcentral/internal/delivery/http/middleware"
	"confcentral/internal/domain"
	"confcentral/internal/query"
	"confcentral/internal/services"
)

type SessionController struct {
	Logger  *slog.Logger
	Service *services.SessionService
}

func NewSessionController(logger *slog.Logger, svc *services.SessionService) *SessionController {
	return &SessionController{Logger: logger, Service: svc}
}

// SessionRequest is the request body for creating a session. StartDate
// uses 2006-01-02, StartTime uses 15:04.
type SessionRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	StartDate  string `json:"startDate"`
	StartTime  string `json:"startTime"`
	Duration   int    `json:"duration"`
	SpeakerKey string `json:"speakerKey"`
	Highlights string `json:"highlights"`
}

// CreateSession godoc
// @Summary Create a session in a conference the caller organizes
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Conference key"
// @Param body body controllers.SessionRequest true "Session fields"
// @Success 201 {object} helpers.APIResponse{data=controllers.SessionView}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{websafeConferenceKey}/sessions [post]
func (c *SessionController) CreateSession(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sess, err := c.Service.CreateSession(r.Context(), prof, r.PathValue("websafeConferenceKey"), domain.SessionInput{
		Name:       req.Name,
		Type:       req.Type,
		StartDate:  req.StartDate,
		StartTime:  req.StartTime,
		Duration:   req.Duration,
		SpeakerKey: req.SpeakerKey,
		Highlights: req.Highlights,
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, sessionView(sess))
}

// GetConferenceSessions godoc
// @Summary List a conference's sessions
// @Description Optional type query parameter narrows to one session type.
// @Tags sessions
// @Produce json
// @Param websafeConferenceKey path string true "Conference key"
// @Param type query string false "Session type"
// @Success 200 {object} helpers.APIResponse{data=[]controllers.SessionView}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /conferences/{websafeConferenceKey}/sessions [get]
func (c *SessionController) GetConferenceSessions(w http.ResponseWriter, r *http.Request) {
	confKey := r.PathValue("websafeConferenceKey")
	var (
		sessions []*domain.ConferenceSession
		err      error
	)
	if typ := r.URL.Query().Get("type"); typ != "" {
		sessions, err = c.Service.GetConferenceSessionsByType(r.Context(), confKey, typ)
	} else {
		sessions, err = c.Service.GetConferenceSessions(r.Context(), confKey)
	}
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessionViews(sessions))
}

// GetSessionsBySpeaker godoc
// @Summary List a speaker's sessions across all conferences
// @Tags sessions
// @Produce json
// @Param websafeSpeakerKey path string true "Speaker key"
// @Success 200 {object} helpers.APIResponse{data=[]controllers.SessionView}
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /speakers/{websafeSpeakerKey}/sessions [get]
func (c *SessionController) GetSessionsBySpeaker(w http.ResponseWriter, r *http.Request) {
	sessions, err := c.Service.GetSessionsBySpeaker(r.Context(), r.PathValue("websafeSpeakerKey"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessionViews(sessions))
}

// RegisterSpeakerRequest is the request body for POST /speakers.
type RegisterSpeakerRequest struct {
	DisplayName string `json:"displayName"`
}

// Validate implements helpers.Validator.
func (r *RegisterSpeakerRequest) Validate() []string {
	if r.DisplayName == "" {
		return []string{"displayName is required"}
	}
	return nil
}

// RegisterSpeaker godoc
// @Summary Register a speaker
// @Description Only callers organizing at least one conference may register speakers.
// @Tags speakers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.RegisterSpeakerRequest true "Speaker name"
// @Success 201 {object} helpers.APIResponse{data=controllers.SpeakerView}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /speakers [post]
func (c *SessionController) RegisterSpeaker(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req RegisterSpeakerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	speaker, err := c.Service.RegisterSpeaker(r.Context(), prof, req.DisplayName)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, speakerView(speaker))
}

// ListSpeakers godoc
// @Summary List all speakers
// @Tags speakers
// @Produce json
// @Success 200 {object} helpers.APIResponse{data=[]controllers.SpeakerView}
// @Router /speakers [get]
func (c *SessionController) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := c.Service.ListSpeakers(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	views := make([]SpeakerView, len(speakers))
	for i, sp := range speakers {
		views[i] = speakerView(sp)
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, views)
}

// SearchSessions godoc
// @Summary Full-text search over sessions
// @Description Results come from the search index and may lag recent writes.
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body query.SessionSearchSpec true "Search spec"
// @Success 200 {object} helpers.APIResponse{data=[]services.SessionSearchResult}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /sessions/search [post]
func (c *SessionController) SearchSessions(w http.ResponseWriter, r *http.Request) {
	var spec query.SessionSearchSpec
	if !helpers.DecodeAndValidate(w, r, &spec) {
		return
	}
	results, err := c.Service.SearchSessions(r.Context(), spec)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, results)
}

// GetFeaturedSpeaker godoc
// @Summary Get the cached featured-speaker record
// @Description Returns null data when no speaker is currently featured.
// @Tags speakers
// @Produce json
// @Success 200 {object} helpers.APIResponse{data=domain.FeaturedSpeaker}
// @Router /speakers/featured [get]
func (c *SessionController) GetFeaturedSpeaker(w http.ResponseWriter, r *http.Request) {
	record, err := c.Service.GetFeaturedSpeaker(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, record)
}
