package controllers

import (
	"log/slog"
	"net/http"

	"confcentral/internal/delivery/http/helpers"
	"confcentral/internal/pipeline"
)

// CronController serves the endpoints a scheduler hits on a timer.
type CronController struct {
	Logger    *slog.Logger
	Announcer *pipeline.Announcer
}

func NewCronController(logger *slog.Logger, announcer *pipeline.Announcer) *CronController {
	return &CronController{Logger: logger, Announcer: announcer}
}

// SetAnnouncement godoc
// @Summary Recompute the nearly-sold-out announcement
// @Tags crons
// @Produce json
// @Success 200 {object} helpers.APIResponse{data=controllers.AnnouncementResult}
// @Router /crons/set_announcement [post]
func (c *CronController) SetAnnouncement(w http.ResponseWriter, r *http.Request) {
	announcement, err := c.Announcer.Recompute(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AnnouncementResult{Announcement: announcement})
}
