package repositories

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoReactionUpdateSwapsInOneDocument(t *testing.T) {
	post := &models.Post{Likes: []string{}, Dislikes: []string{"B"}, DislikesCount: 1}
	update := mongoReactionUpdate("B", post.PlanToggle("B", models.ReactionLike))

	assert.Equal(t, bson.M{
		"$addToSet": bson.M{"likes": "B"},
		"$pull":     bson.M{"dislikes": "B"},
		"$inc":      bson.M{"likesCount": 1, "dislikesCount": -1},
	}, update)
}

func TestMongoMembershipPinsCurrentState(t *testing.T) {
	assert.Equal(t, "B", membership([]string{"A", "B"}, "B"))
	assert.Equal(t, bson.M{"$ne": "C"}, membership([]string{"A", "B"}, "C"))
}

func TestFirestoreReactionUpdates(t *testing.T) {
	post := &models.Post{Likes: []string{"B"}, Dislikes: []string{}, LikesCount: 1}
	updates := firestoreReactionUpdates("B", post.PlanToggle("B", models.ReactionLike))

	paths := make([]string, 0, len(updates))
	for _, u := range updates {
		paths = append(paths, u.Path)
	}
	assert.Equal(t, []string{"likes", "likesCount"}, paths)
	assert.Equal(t, firestore.ArrayRemove("B"), updates[0].Value)
	assert.Equal(t, firestore.Increment(-1), updates[1].Value)
}
