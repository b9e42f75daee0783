package repositories

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// FirestoreCommentRepository implements CommentRepository on "comments"
type FirestoreCommentRepository struct {
	client *firestore.Client
}

func NewFirestoreCommentRepository(client *firestore.Client) *FirestoreCommentRepository {
	return &FirestoreCommentRepository{client: client}
}

func (r *FirestoreCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	ref := r.client.Collection(CommentsCollection).NewDoc()
	comment.ID = ref.ID
	comment.CreatedAt = time.Now().UTC()
	if _, err := ref.Create(ctx, comment); err != nil {
		return apperror.Store(err, "create comment")
	}
	return nil
}

func (r *FirestoreCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	ref := doc(r.client, CommentsCollection, id)
	if ref == nil {
		return nil, apperror.NotFound("comment")
	}
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil, apperror.NotFound("comment")
	}
	if err != nil {
		return nil, apperror.Store(err, "get comment")
	}
	return decodeComment(snap)
}

func (r *FirestoreCommentRepository) GetCommentsByPostID(ctx context.Context, postID string, limit int) ([]models.Comment, error) {
	q := r.client.Collection(CommentsCollection).
		Where("postId", "==", postID).
		OrderBy("createdAt", firestore.Asc).
		Limit(limit)

	comments := []models.Comment{}
	err := eachDocument(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		c, err := decodeComment(snap)
		if err != nil {
			return err
		}
		comments = append(comments, *c)
		return nil
	})
	if err != nil {
		return nil, apperror.Store(err, "list comments")
	}
	return comments, nil
}

func (r *FirestoreCommentRepository) DeleteComment(ctx context.Context, id string) error {
	ref := doc(r.client, CommentsCollection, id)
	if ref == nil {
		return apperror.NotFound("comment")
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("comment")
		}
		return apperror.Store(err, "delete comment")
	}
	return nil
}

func decodeComment(snap *firestore.DocumentSnapshot) (*models.Comment, error) {
	var c models.Comment
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	c.ID = snap.Ref.ID
	return &c, nil
}
