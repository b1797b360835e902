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

type ConferenceController struct {
	Logger       *slog.Logger
	Conferences  *services.ConferenceService
	Registration *services.RegistrationService
}

func NewConferenceController(logger *slog.Logger, conferences *services.ConferenceService, registration *services.RegistrationService) *ConferenceController {
	return &ConferenceController{
		Logger:       logger,
		Conferences:  conferences,
		Registration: registration,
	}
}

// ConferenceRequest is the request body for creating or updating a
// conference. Dates use the 2006-01-02 layout.
type ConferenceRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Topics       []string `json:"topics"`
	City         string   `json:"city"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	MaxAttendees int      `json:"maxAttendees"`
}

func (r *ConferenceRequest) input() domain.ConferenceInput {
	return domain.ConferenceInput{
		Name:         r.Name,
		Description:  r.Description,
		Topics:       r.Topics,
		City:         r.City,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		MaxAttendees: r.MaxAttendees,
	}
}

// CreateConference godoc
// @Summary Create a conference organized by the caller
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.ConferenceRequest true "Conference fields"
// @Success 201 {object} helpers.APIResponse{data=controllers.ConferenceView}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /conferences [post]
func (c *ConferenceController) CreateConference(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ConferenceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	conf, err := c.Conferences.CreateConference(r.Context(), prof, req.input())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, conferenceView(conf, prof.DisplayName))
}

// UpdateConference godoc
// @Summary Update a conference the caller organizes
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Conference key"
// @Param body body controllers.ConferenceRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse{data=controllers.ConferenceView}
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{websafeConferenceKey} [put]
func (c *ConferenceController) UpdateConference(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ConferenceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	conf, err := c.Conferences.UpdateConference(r.Context(), prof, r.PathValue("websafeConferenceKey"), req.input())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conferenceView(conf, prof.DisplayName))
}

// GetConference godoc
// @Summary Get one conference
// @Tags conferences
// @Produce json
// @Param websafeConferenceKey path string true "Conference key"
// @Success 200 {object} helpers.APIResponse{data=controllers.ConferenceView}
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{websafeConferenceKey} [get]
func (c *ConferenceController) GetConference(w http.ResponseWriter, r *http.Request) {
	result, err := c.Conferences.GetConference(r.Context(), r.PathValue("websafeConferenceKey"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conferenceView(result.Conference, result.OrganizerName))
}

// QueryConferencesRequest is the request body for POST /conferences/query.
type QueryConferencesRequest struct {
	Filters []query.FilterSpec `json:"filters"`
}

// QueryConferences godoc
// @Summary Query conferences by field filters
// @Description At most one field may use an inequality operator; city and topics accept equality only.
// @Tags conferences
// @Accept json
// @Produce json
// @Param body body controllers.QueryConferencesRequest true "Filters"
// @Success 200 {object} helpers.APIResponse{data=[]controllers.ConferenceView}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /conferences/query [post]
func (c *ConferenceController) QueryConferences(w http.ResponseWriter, r *http.Request) {
	var req QueryConferencesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	results, err := c.Conferences.QueryConferences(r.Context(), req.Filters)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conferenceViews(results))
}

// GetConferencesCreated godoc
// @Summary List conferences the caller organizes
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]controllers.ConferenceView}
// @Router /conferences/created [get]
func (c *ConferenceController) GetConferencesCreated(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	confs, err := c.Conferences.GetConferencesCreated(r.Context(), prof)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	views := make([]ConferenceView, len(confs))
	for i, conf := range confs {
		views[i] = conferenceView(conf, prof.DisplayName)
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, views)
}

// GetConferencesToAttend godoc
// @Summary List conferences the caller is registered for
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]controllers.ConferenceView}
// @Router /conferences/attending [get]
func (c *ConferenceController) GetConferencesToAttend(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	results, err := c.Conferences.GetConferencesToAttend(r.Context(), prof)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conferenceViews(results))
}

// RegistrationResult is the success payload for seat operations.
type RegistrationResult struct {
	Success bool `json:"success"`
}

// Register godoc
// @Summary Register the caller for a conference
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Conference key"
// @Success 200 {object} helpers.APIResponse{data=controllers.RegistrationResult}
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /conferences/{websafeConferenceKey}/registration [post]
func (c *ConferenceController) Register(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	success, err := c.Registration.RegisterForConference(r.Context(), prof, r.PathValue("websafeConferenceKey"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationResult{Success: success})
}

// Unregister godoc
// @Summary Release the caller's seat at a conference
// @Description Returns success=false when the caller held no seat; that is not an error.
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Conference key"
// @Success 200 {object} helpers.APIResponse{data=controllers.RegistrationResult}
// @Router /conferences/{websafeConferenceKey}/registration [delete]
func (c *ConferenceController) Unregister(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	success, err := c.Registration.UnregisterFromConference(r.Context(), prof, r.PathValue("websafeConferenceKey"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationResult{Success: success})
}

// AnnouncementResult is the payload for GET /announcement.
type AnnouncementResult struct {
	Announcement string `json:"announcement"`
}

// GetAnnouncement godoc
// @Summary Get the cached nearly-sold-out announcement
// @Tags conferences
// @Produce json
// @Success 200 {object} helpers.APIResponse{data=controllers.AnnouncementResult}
// @Router /announcement [get]
func (c *ConferenceController) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, AnnouncementResult{
		Announcement: c.Conferences.GetAnnouncement(r.Context()),
	})
}
