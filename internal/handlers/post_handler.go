package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// imageField is the multipart field carrying an optional post image
const imageField = "image"

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts         *services.PostService
	maxUploadSize int64
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService, maxUploadSize int64) *PostHandler {
	return &PostHandler{
		posts:         posts,
		maxUploadSize: maxUploadSize,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts) // ?author=<uid> filters by author
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post from a JSON body or a multipart form with an optional image
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	image, err := h.readImage(c)
	if err != nil {
		return err
	}

	author := services.Author{UID: middleware.UserID(c), Email: middleware.UserEmail(c)}
	post, err := h.posts.Create(c.Request().Context(), author, req, image)
	if err != nil {
		return err
	}

	return success(c, http.StatusCreated, post)
}

// readImage returns the uploaded image, nil when the request carries none
func (h *PostHandler) readImage(c echo.Context) (*services.Image, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Validation("invalid image upload")
	}
	if fh.Size > h.maxUploadSize {
		return nil, apperror.Validation(fmt.Sprintf("image exceeds %d bytes", h.maxUploadSize))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperror.Validation("invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadSize+1))
	if err != nil {
		return nil, apperror.Validation("invalid image upload")
	}
	if int64(len(data)) > h.maxUploadSize {
		return nil, apperror.Validation(fmt.Sprintf("image exceeds %d bytes", h.maxUploadSize))
	}
	return &services.Image{Data: data, Filename: fh.Filename}, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.posts.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, post)
}

// GetPosts lists the newest posts, or the newest posts of one author
func (h *PostHandler) GetPosts(c echo.Context) error {
	ctx := c.Request().Context()
	limit := queryLimit(c)

	var (
		posts []models.Post
		err   error
	)
	if author := c.QueryParam("author"); author != "" {
		posts, err = h.posts.ListByAuthor(ctx, author, limit)
	} else {
		posts, err = h.posts.Feed(ctx, limit)
	}
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, posts)
}

// DeletePost deletes a post owned by the current user
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.posts.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
