package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorUID string, limit int) ([]models.Post, error)
	GetPostsByAuthors(ctx context.Context, authorUIDs []string, limit int) ([]models.Post, error)
	GetAllPosts(ctx context.Context, limit int) ([]models.Post, error)
	ApplyModeration(ctx context.Context, id, title, content string, at time.Time) error
	DeletePost(ctx context.Context, id string) error
	// ToggleReaction atomically toggles userID's kind reaction on the post and returns the
	// post as it was before and after the write.
	ToggleReaction(ctx context.Context, id, userID string, kind models.ReactionKind) (before, after *models.Post, err error)
}

// maxToggleAttempts bounds the compare-and-swap loop of stores without transactions. A
// swap only misses when the same user's membership changed between read and write.
const maxToggleAttempts = 5

var errToggleContention = errors.New("reaction changed concurrently")

// prepareNewPost initializes reaction fields so set operators always find arrays
func prepareNewPost(post *models.Post) {
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Dislikes == nil {
		post.Dislikes = []string{}
	}
	post.LikesCount = len(post.Likes)
	post.DislikesCount = len(post.Dislikes)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	prepareNewPost(post)
	post.ID = primitive.NewObjectID().Hex()
	post.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return apperror.Store(err, "create post")
	}
	return nil
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("post")
	}
	if err != nil {
		return nil, apperror.Store(err, "get post")
	}
	return &post, nil
}

// GetPostsByAuthor retrieves posts by a specific author, newest first
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorUID string, limit int) ([]models.Post, error) {
	return r.find(ctx, bson.M{"authorUID": authorUID}, limit)
}

// GetPostsByAuthors retrieves the newest posts of any of the given authors
func (r *MongoPostRepository) GetPostsByAuthors(ctx context.Context, authorUIDs []string, limit int) ([]models.Post, error) {
	if len(authorUIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, bson.M{"authorUID": bson.M{"$in": authorUIDs}}, limit)
}

// GetAllPosts retrieves the newest posts of all authors
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, limit int) ([]models.Post, error) {
	return r.find(ctx, bson.D{}, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter any, limit int) ([]models.Post, error) {
	findOptions := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperror.Store(err, "list posts")
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, apperror.Store(err, "decode posts")
	}
	return posts, nil
}

// ApplyModeration overwrites title and content with their moderated versions
func (r *MongoPostRepository) ApplyModeration(ctx context.Context, id, title, content string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"title":       title,
			"content":     content,
			"moderatedAt": at,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return apperror.Store(err, "moderate post")
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("post")
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB. Its reaction sets go with it.
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperror.Store(err, "delete post")
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("post")
	}
	return nil
}

// ToggleReaction applies the toggle with a filter that pins the user's current membership,
// so concurrent reactions of other users never conflict and counters move with $inc.
func (r *MongoPostRepository) ToggleReaction(ctx context.Context, id, userID string, kind models.ReactionKind) (*models.Post, *models.Post, error) {
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		current, err := r.GetPostByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		delta := current.PlanToggle(userID, kind)
		filter := bson.M{
			"_id":      id,
			"likes":    membership(current.Likes, userID),
			"dislikes": membership(current.Dislikes, userID),
		}

		res, err := r.collection.UpdateOne(ctx, filter, mongoReactionUpdate(userID, delta))
		if err != nil {
			return nil, nil, apperror.Store(err, "toggle reaction")
		}
		if res.MatchedCount == 1 {
			after := current.Clone()
			after.Apply(userID, delta)
			return current, after, nil
		}
	}
	return nil, nil, apperror.Store(fmt.Errorf("post %s: %w", id, errToggleContention), "toggle reaction")
}

func membership(set []string, userID string) any {
	for _, id := range set {
		if id == userID {
			return userID
		}
	}
	return bson.M{"$ne": userID}
}

func mongoReactionUpdate(userID string, d models.ReactionDelta) bson.M {
	addToSet := bson.M{}
	pull := bson.M{}
	inc := bson.M{}

	if d.AddLike {
		addToSet["likes"] = userID
	}
	if d.AddDislike {
		addToSet["dislikes"] = userID
	}
	if d.RemoveLike {
		pull["likes"] = userID
	}
	if d.RemoveDislike {
		pull["dislikes"] = userID
	}
	if d.LikesDelta != 0 {
		inc["likesCount"] = d.LikesDelta
	}
	if d.DislikesDelta != 0 {
		inc["dislikesCount"] = d.DislikesDelta
	}

	update := bson.M{}
	if len(addToSet) > 0 {
		update["$addToSet"] = addToSet
	}
	if len(pull) > 0 {
		update["$pull"] = pull
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	return update
}
