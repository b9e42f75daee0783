package handlers

import (
	"net/http"
	"slices"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	posts *services.PostService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(posts *services.PostService) *FeedHandler {
	return &FeedHandler{posts: posts}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/feed/following", h.GetFollowingFeed)
}

// FeedPost is a post with the current user's reaction flags
type FeedPost struct {
	models.Post
	IsLiked    bool `json:"isLiked"`
	IsDisliked bool `json:"isDisliked"`
}

// GetFeed returns the newest posts of everyone
func (h *FeedHandler) GetFeed(c echo.Context) error {
	posts, err := h.posts.Feed(c.Request().Context(), queryLimit(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, enrich(posts, middleware.UserID(c)))
}

// GetFollowingFeed returns the newest posts of the users the current user follows
func (h *FeedHandler) GetFollowingFeed(c echo.Context) error {
	uid := middleware.UserID(c)
	posts, err := h.posts.FollowingFeed(c.Request().Context(), uid, queryLimit(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, enrich(posts, uid))
}

func enrich(posts []models.Post, uid string) []FeedPost {
	out := make([]FeedPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, FeedPost{
			Post:       p,
			IsLiked:    slices.Contains(p.Likes, uid),
			IsDisliked: slices.Contains(p.Dislikes, uid),
		})
	}
	return out
}
