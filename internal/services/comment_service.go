package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.uber.org/zap"
)

// CommentService manages comments and tells post authors about new ones
type CommentService struct {
	posts         repositories.PostRepository
	comments      repositories.CommentRepository
	notifications *NotificationService
	log           *zap.Logger
}

func NewCommentService(store *repositories.Store, notifications *NotificationService, log *zap.Logger) *CommentService {
	return &CommentService{
		posts:         store.Posts,
		comments:      store.Comments,
		notifications: notifications,
		log:           log,
	}
}

// Create stores a comment on postID and sends the post author a comment message. Commenting
// on your own post sends nothing. A failed notification is logged; the comment stays.
func (s *CommentService) Create(ctx context.Context, author Author, postID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if author.UID == "" {
		return nil, apperror.Unauthenticated("user is required")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("content is required")
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:      post.ID,
		AuthorUID:   author.UID,
		AuthorEmail: author.Email,
		Content:     content,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if _, err := s.notifications.NotifyUser(ctx, post.AuthorUID, author.UID, CommentNotice(post, comment)); err != nil {
		s.log.Warn("Failed to notify post author of comment",
			zap.String("post", post.ID),
			zap.String("comment", comment.ID),
			zap.Error(err),
		)
	}
	return comment, nil
}

// CommentNotice builds the message a post author receives for a new comment
func CommentNotice(post *models.Post, comment *models.Comment) Notice {
	commenter := comment.AuthorEmail
	if commenter == "" {
		commenter = "Usuario anónimo"
	}
	return Notice{
		Type:  models.NotificationComment,
		Title: "Nuevo comentario",
		Body:  fmt.Sprintf(`%s comentó tu post: "%s"`, commenter, post.Title),
		Data: map[string]any{
			"postId":          post.ID,
			"commentId":       comment.ID,
			"commenterUserId": comment.AuthorUID,
			"commenterEmail":  comment.AuthorEmail,
			"postTitle":       post.Title,
		},
	}
}

// List returns the comments of a post, oldest first
func (s *CommentService) List(ctx context.Context, postID string, limit int) ([]models.Comment, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.GetCommentsByPostID(ctx, postID, pageSize(limit))
}

// Delete removes a comment. Its author and the author of the post may delete it.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorUID != userID {
		post, err := s.posts.GetPostByID(ctx, comment.PostID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		if post == nil || post.AuthorUID != userID {
			return apperror.Forbidden("you are not allowed to delete this comment")
		}
	}
	return s.comments.DeleteComment(ctx, commentID)
}
