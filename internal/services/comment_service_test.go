package services

import (
	"context"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentNotifiesPostAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	post, err := f.posts.Create(ctx, Author{UID: "A", Email: "a@x.com"}, models.CreatePostRequest{Title: "Hola", Content: "Mundo"}, nil)
	require.NoError(t, err)

	comment, err := f.comments.Create(ctx, Author{UID: "B", Email: "b@x.com"}, post.ID, models.CreateCommentRequest{Content: "  Bien  "})
	require.NoError(t, err)
	assert.Equal(t, "Bien", comment.Content)
	assert.NotEmpty(t, comment.ID)

	msgs := f.messagesOfType(models.NotificationComment)
	require.Len(t, msgs, 1)
	assert.Equal(t, "A", msgs[0].RecipientID)
	assert.Equal(t, "B", msgs[0].SenderID)
	assert.Equal(t, "Nuevo comentario", msgs[0].Title)
	assert.Equal(t, `b@x.com comentó tu post: "Hola"`, msgs[0].Body)
	assert.Equal(t, comment.ID, msgs[0].Data["commentId"])

	// Own post: stored, no message
	_, err = f.comments.Create(ctx, Author{UID: "A", Email: "a@x.com"}, post.ID, models.CreateCommentRequest{Content: "Gracias"})
	require.NoError(t, err)
	assert.Len(t, f.messagesOfType(models.NotificationComment), 1)

	list, err := f.comments.List(ctx, post.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bien", list[0].Content)
}

func TestCommentErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.comments.Create(ctx, Author{UID: "B"}, "missing", models.CreateCommentRequest{Content: "Hola"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.comments.List(ctx, "missing", 0)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	post, err := f.posts.Create(ctx, Author{UID: "A", Email: "a@x.com"}, models.CreatePostRequest{Title: "Hola", Content: "Mundo"}, nil)
	require.NoError(t, err)
	_, err = f.comments.Create(ctx, Author{UID: "B"}, post.ID, models.CreateCommentRequest{Content: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	post, err := f.posts.Create(ctx, Author{UID: "A", Email: "a@x.com"}, models.CreatePostRequest{Title: "Hola", Content: "Mundo"}, nil)
	require.NoError(t, err)

	first, err := f.comments.Create(ctx, Author{UID: "B"}, post.ID, models.CreateCommentRequest{Content: "uno"})
	require.NoError(t, err)
	second, err := f.comments.Create(ctx, Author{UID: "B"}, post.ID, models.CreateCommentRequest{Content: "dos"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.comments.Delete(ctx, "C", first.ID), apperror.ErrForbidden)
	require.NoError(t, f.comments.Delete(ctx, "B", first.ID))
	require.NoError(t, f.comments.Delete(ctx, "A", second.ID), "post author moderates the thread")
	assert.ErrorIs(t, f.comments.Delete(ctx, "B", first.ID), apperror.ErrNotFound)

	list, err := f.comments.List(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
