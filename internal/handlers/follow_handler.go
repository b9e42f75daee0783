package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	follows *services.FollowService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(follows *services.FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/is-following", h.IsFollowing)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows a user. Following an already followed user succeeds without a new
// notification; following yourself is a no-op.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := middleware.UserID(c)
	targetID := c.Param("id")

	created, err := h.follows.Follow(c.Request().Context(), currentUserID, targetID)
	if err != nil {
		return err
	}

	return success(c, http.StatusOK, echo.Map{
		"following": currentUserID != targetID,
		"created":   created,
	})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	removed, err := h.follows.Unfollow(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"following": false, "removed": removed})
}

// IsFollowing reports whether the current user follows :id
func (h *FollowHandler) IsFollowing(c echo.Context) error {
	following, err := h.follows.IsFollowing(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"following": following})
}

// GetFollowers lists the ids of the users following :id
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	ids, err := h.follows.GetFollowers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"followers": ids, "count": len(ids)})
}

// GetFollowing lists the ids of the users :id follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	ids, err := h.follows.GetFollowing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"following": ids, "count": len(ids)})
}
