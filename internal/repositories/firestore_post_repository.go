package repositories

import (
	"context"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// FirestorePostRepository implements PostRepository on the "posts" collection
type FirestorePostRepository struct {
	client *firestore.Client
}

// NewFirestorePostRepository creates a new FirestorePostRepository
func NewFirestorePostRepository(client *firestore.Client) *FirestorePostRepository {
	return &FirestorePostRepository{client: client}
}

// CreatePost stores the post with a server-assigned creation time
func (r *FirestorePostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	prepareNewPost(post)
	ref := r.client.Collection(PostsCollection).NewDoc()
	post.ID = ref.ID
	post.CreatedAt = time.Time{}
	if _, err := ref.Create(ctx, post); err != nil {
		return apperror.Store(err, "create post")
	}
	post.CreatedAt = time.Now().UTC()
	return nil
}

func (r *FirestorePostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	ref := doc(r.client, PostsCollection, id)
	if ref == nil {
		return nil, apperror.NotFound("post")
	}
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil, apperror.NotFound("post")
	}
	if err != nil {
		return nil, apperror.Store(err, "get post")
	}
	return decodePost(snap)
}

func (r *FirestorePostRepository) GetPostsByAuthor(ctx context.Context, authorUID string, limit int) ([]models.Post, error) {
	q := r.client.Collection(PostsCollection).
		Where("authorUID", "==", authorUID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit)
	return r.query(ctx, q)
}

// GetPostsByAuthors splits the authors into "in" filters of at most 30 values and merges
// the newest posts of every chunk.
func (r *FirestorePostRepository) GetPostsByAuthors(ctx context.Context, authorUIDs []string, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	for chunk := range slices.Chunk(authorUIDs, firestoreInLimit) {
		q := r.client.Collection(PostsCollection).
			Where("authorUID", "in", chunk).
			OrderBy("createdAt", firestore.Desc).
			Limit(limit)
		found, err := r.query(ctx, q)
		if err != nil {
			return nil, err
		}
		posts = append(posts, found...)
	}
	return newestFirst(posts, limit), nil
}

func (r *FirestorePostRepository) GetAllPosts(ctx context.Context, limit int) ([]models.Post, error) {
	q := r.client.Collection(PostsCollection).OrderBy("createdAt", firestore.Desc).Limit(limit)
	return r.query(ctx, q)
}

func (r *FirestorePostRepository) query(ctx context.Context, q firestore.Query) ([]models.Post, error) {
	posts := []models.Post{}
	err := eachDocument(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		post, err := decodePost(snap)
		if err != nil {
			return err
		}
		posts = append(posts, *post)
		return nil
	})
	if err != nil {
		return nil, apperror.Store(err, "list posts")
	}
	return posts, nil
}

func (r *FirestorePostRepository) ApplyModeration(ctx context.Context, id, title, content string, at time.Time) error {
	ref := doc(r.client, PostsCollection, id)
	if ref == nil {
		return apperror.NotFound("post")
	}
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "title", Value: title},
		{Path: "content", Value: content},
		{Path: "moderatedAt", Value: at},
	})
	if isNotFound(err) {
		return apperror.NotFound("post")
	}
	return apperror.Store(err, "moderate post")
}

func (r *FirestorePostRepository) DeletePost(ctx context.Context, id string) error {
	ref := doc(r.client, PostsCollection, id)
	if ref == nil {
		return apperror.NotFound("post")
	}
	_, err := ref.Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return apperror.NotFound("post")
	}
	return apperror.Store(err, "delete post")
}

// ToggleReaction reads and writes the post in one transaction. Firestore reruns the function
// when the document changed underneath it, so before/after always come from the final attempt.
func (r *FirestorePostRepository) ToggleReaction(ctx context.Context, id, userID string, kind models.ReactionKind) (*models.Post, *models.Post, error) {
	ref := doc(r.client, PostsCollection, id)
	if ref == nil {
		return nil, nil, apperror.NotFound("post")
	}

	var before, after *models.Post
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, err := decodePost(snap)
		if err != nil {
			return err
		}

		delta := current.PlanToggle(userID, kind)
		before = current
		after = current.Clone()
		after.Apply(userID, delta)
		return tx.Update(ref, firestoreReactionUpdates(userID, delta))
	})
	if isNotFound(err) {
		return nil, nil, apperror.NotFound("post")
	}
	if err != nil {
		return nil, nil, apperror.Store(err, "toggle reaction")
	}
	return before, after, nil
}

func firestoreReactionUpdates(userID string, d models.ReactionDelta) []firestore.Update {
	var updates []firestore.Update
	switch {
	case d.AddLike:
		updates = append(updates, firestore.Update{Path: "likes", Value: firestore.ArrayUnion(userID)})
	case d.RemoveLike:
		updates = append(updates, firestore.Update{Path: "likes", Value: firestore.ArrayRemove(userID)})
	}
	switch {
	case d.AddDislike:
		updates = append(updates, firestore.Update{Path: "dislikes", Value: firestore.ArrayUnion(userID)})
	case d.RemoveDislike:
		updates = append(updates, firestore.Update{Path: "dislikes", Value: firestore.ArrayRemove(userID)})
	}
	if d.LikesDelta != 0 {
		updates = append(updates, firestore.Update{Path: "likesCount", Value: firestore.Increment(d.LikesDelta)})
	}
	if d.DislikesDelta != 0 {
		updates = append(updates, firestore.Update{Path: "dislikesCount", Value: firestore.Increment(d.DislikesDelta)})
	}
	return updates
}

func decodePost(snap *firestore.DocumentSnapshot) (*models.Post, error) {
	var post models.Post
	if err := snap.DataTo(&post); err != nil {
		return nil, err
	}
	post.ID = snap.Ref.ID
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Dislikes == nil {
		post.Dislikes = []string{}
	}
	return &post, nil
}

func newestFirst(posts []models.Post, limit int) []models.Post {
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}
