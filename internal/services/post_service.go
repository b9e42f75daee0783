package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.uber.org/zap"
)

// excerptLength is how much of a post's content goes into the new_post notification body
const excerptLength = 50

// MediaStore hosts uploaded images
type MediaStore interface {
	Upload(ctx context.Context, data []byte, filename, folder string) (string, error)
	DeleteByURL(ctx context.Context, url string) error
}

// Author identifies the user creating a post
type Author struct {
	UID   string
	Email string
}

// Image is an optional file attached to a new post
type Image struct {
	Data     []byte
	Filename string
}

// PostService creates, lists and deletes posts
type PostService struct {
	posts         repositories.PostRepository
	follows       repositories.FollowRepository
	notifications *NotificationService
	media         MediaStore
	publisher     events.Publisher
	metrics       *metrics.Metrics
	log           *zap.Logger
}

func NewPostService(store *repositories.Store, notifications *NotificationService, media MediaStore, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *PostService {
	return &PostService{
		posts:         store.Posts,
		follows:       store.Follows,
		notifications: notifications,
		media:         media,
		publisher:     publisher,
		metrics:       m,
		log:           log,
	}
}

// Create uploads the optional image to posts/{uid}, stores the post and then announces it:
// a post.created event for moderation and a new_post message to every follower. Announcement
// failures are logged; the post is already stored.
func (s *PostService) Create(ctx context.Context, author Author, req models.CreatePostRequest, image *Image) (*models.Post, error) {
	if author.UID == "" {
		return nil, apperror.Unauthenticated("user is required")
	}

	post := &models.Post{
		Title:       strings.TrimSpace(req.Title),
		Content:     strings.TrimSpace(req.Content),
		AuthorUID:   author.UID,
		AuthorEmail: author.Email,
	}
	if post.Title == "" || post.Content == "" {
		return nil, apperror.Validation("title and content are required")
	}

	if image != nil && len(image.Data) > 0 {
		if s.media == nil {
			return nil, apperror.Upload(errors.New("no media store configured"), "image uploads are disabled")
		}
		url, err := s.media.Upload(ctx, image.Data, image.Filename, "posts/"+author.UID)
		s.metrics.UploadFinished(err)
		if err != nil {
			return nil, err
		}
		post.ImageURL = url
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.metrics.PostCreated()

	publish(ctx, s.publisher, s.log, events.SubjectPostCreated, events.PostCreated{
		PostID:      post.ID,
		AuthorUID:   post.AuthorUID,
		AuthorEmail: post.AuthorEmail,
		Title:       post.Title,
		Content:     post.Content,
		CreatedAt:   post.CreatedAt,
	})

	written, err := s.notifications.NotifyFollowers(ctx, author.UID, NewPostNotice(post))
	if err != nil {
		s.log.Warn("New post fan-out incomplete",
			zap.String("post", post.ID),
			zap.Int("written", written),
			zap.Error(err),
		)
	}
	return post, nil
}

// NewPostNotice builds the new_post message followers receive for post
func NewPostNotice(post *models.Post) Notice {
	return Notice{
		Type:  models.NotificationNewPost,
		Title: "Nuevo post de " + post.AuthorEmail,
		Body:  post.Title + ": " + excerpt(post.Content, excerptLength),
		Data: map[string]any{
			"postId":     post.ID,
			"authorName": post.AuthorEmail,
			"postTitle":  post.Title,
		},
	}
}

// excerpt cuts s to n runes, marking a cut with "..."
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func (s *PostService) Get(ctx context.Context, postID string) (*models.Post, error) {
	return s.posts.GetPostByID(ctx, postID)
}

// ListByAuthor returns the author's posts, newest first
func (s *PostService) ListByAuthor(ctx context.Context, authorUID string, limit int) ([]models.Post, error) {
	return s.posts.GetPostsByAuthor(ctx, authorUID, pageSize(limit))
}

// Feed returns the newest posts of everyone
func (s *PostService) Feed(ctx context.Context, limit int) ([]models.Post, error) {
	return s.posts.GetAllPosts(ctx, pageSize(limit))
}

// FollowingFeed returns the newest posts of the users userID follows
func (s *PostService) FollowingFeed(ctx context.Context, userID string, limit int) ([]models.Post, error) {
	following, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(following) == 0 {
		return []models.Post{}, nil
	}
	return s.posts.GetPostsByAuthors(ctx, following, pageSize(limit))
}

// Delete removes a post owned by userID. The hosted image is released best effort.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorUID != userID {
		return apperror.Forbidden("only the author can delete this post")
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}

	if post.ImageURL != "" && s.media != nil {
		if err := s.media.DeleteByURL(ctx, post.ImageURL); err != nil {
			s.log.Warn("Failed to delete post image", zap.String("post", postID), zap.Error(err))
		}
	}
	return nil
}
