package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ReactionHandler handles like/dislike toggles
type ReactionHandler struct {
	reactions *services.ReactionService
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

// RegisterReactionRoutes registers reaction routes. Each POST toggles the reaction.
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.ToggleLike)
	g.POST("/posts/:id/dislike", h.ToggleDislike)
}

// ToggleLike likes the post, or removes the like when already present
func (h *ReactionHandler) ToggleLike(c echo.Context) error {
	post, err := h.reactions.ToggleLike(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, post)
}

// ToggleDislike dislikes the post, or removes the dislike when already present
func (h *ReactionHandler) ToggleDislike(c echo.Context) error {
	post, err := h.reactions.ToggleDislike(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, post)
}
