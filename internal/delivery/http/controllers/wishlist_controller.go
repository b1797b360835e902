package controllers

import (
	"log/slog"
	"net/http"

	"confcentral/internal/delivery/http/helpers"
	"confcentral/internal/delivery/http/middleware"
	"confcentral/internal/services"
)

type WishlistController struct {
	Logger  *slog.Logger
	Service *services.WishlistService
}

func NewWishlistController(logger *slog.Logger, svc *services.WishlistService) *WishlistController {
	return &WishlistController{Logger: logger, Service: svc}
}

// AddToWishlistRequest is the request body for POST /profile/wishlist.
type AddToWishlistRequest struct {
	WebsafeSessionKey string `json:"websafeSessionKey"`
}

// Validate implements helpers.Validator.
func (r *AddToWishlistRequest) Validate() []string {
	if r.WebsafeSessionKey == "" {
		return []string{"websafeSessionKey is required"}
	}
	return nil
}

// Add godoc
// @Summary Add a session to the caller's wishlist
// @Description Tracks the session's conference in the same step when it is not tracked yet.
// @Tags wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.AddToWishlistRequest true "Session key"
// @Success 200 {object} helpers.APIResponse{data=domain.WishList}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /profile/wishlist [post]
func (c *WishlistController) Add(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req AddToWishlistRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	wishlist, err := c.Service.AddToWishlist(r.Context(), prof, req.WebsafeSessionKey)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, wishlist)
}

// Remove godoc
// @Summary Remove a session from the caller's wishlist
// @Description With removeConference=true the conference is untracked too, which fails with 409 while sibling sessions remain tracked.
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param websafeSessionKey path string true "Session key"
// @Param removeConference query bool false "Also untrack the parent conference"
// @Success 200 {object} helpers.APIResponse{data=domain.WishList}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /profile/wishlist/{websafeSessionKey} [delete]
func (c *WishlistController) Remove(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	removeConference := r.URL.Query().Get("removeConference") == "true"
	wishlist, err := c.Service.RemoveFromWishlist(r.Context(), prof, r.PathValue("websafeSessionKey"), removeConference)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, wishlist)
}

// GetSessions godoc
// @Summary List the sessions in the caller's wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]controllers.SessionView}
// @Router /profile/wishlist [get]
func (c *WishlistController) GetSessions(w http.ResponseWriter, r *http.Request) {
	prof, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	sessions, err := c.Service.GetSessionsInWishlist(r.Context(), prof)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessionViews(sessions))
}
