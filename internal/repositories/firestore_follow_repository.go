package repositories

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// FirestoreFollowRepository implements FollowRepository on "notification_subscriptions".
// New edges are keyed follower_followed so a repeated follow never duplicates; older
// randomly keyed edges are still found and removed by field queries.
type FirestoreFollowRepository struct {
	client *firestore.Client
}

// NewFirestoreFollowRepository creates a new FirestoreFollowRepository
func NewFirestoreFollowRepository(client *firestore.Client) *FirestoreFollowRepository {
	return &FirestoreFollowRepository{client: client}
}

func (r *FirestoreFollowRepository) edges(followerID, followedID string) firestore.Query {
	return r.client.Collection(SubscriptionsCollection).
		Where("followerId", "==", followerID).
		Where("followedId", "==", followedID)
}

func (r *FirestoreFollowRepository) CreateFollow(ctx context.Context, followerID, followedID string) (bool, error) {
	exists, err := r.IsFollowing(ctx, followerID, followedID)
	if err != nil || exists {
		return false, err
	}

	sub := models.Subscription{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	}
	ref := r.client.Collection(SubscriptionsCollection).Doc(models.SubscriptionID(followerID, followedID))
	_, err = ref.Create(ctx, sub)
	if isAlreadyExists(err) {
		return false, nil
	}
	if err != nil {
		return false, apperror.Store(err, "create follow")
	}
	return true, nil
}

func (r *FirestoreFollowRepository) DeleteFollow(ctx context.Context, followerID, followedID string) (int, error) {
	var refs []*firestore.DocumentRef
	err := eachDocument(ctx, r.edges(followerID, followedID), func(snap *firestore.DocumentSnapshot) error {
		refs = append(refs, snap.Ref)
		return nil
	})
	if err != nil {
		return 0, apperror.Store(err, "find follow")
	}

	removed := 0
	for _, ref := range refs {
		if _, err := ref.Delete(ctx); err != nil {
			return removed, apperror.Store(err, "delete follow")
		}
		removed++
	}
	return removed, nil
}

func (r *FirestoreFollowRepository) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	found := false
	err := eachDocument(ctx, r.edges(followerID, followedID).Limit(1), func(*firestore.DocumentSnapshot) error {
		found = true
		return nil
	})
	if err != nil {
		return false, apperror.Store(err, "check follow")
	}
	return found, nil
}

func (r *FirestoreFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	q := r.client.Collection(SubscriptionsCollection).Where("followedId", "==", userID)
	return r.collect(ctx, q, func(s models.Subscription) string { return s.FollowerID })
}

func (r *FirestoreFollowRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	q := r.client.Collection(SubscriptionsCollection).Where("followerId", "==", userID)
	return r.collect(ctx, q, func(s models.Subscription) string { return s.FollowedID })
}

// collect returns the distinct IDs picked from the edges matching q
func (r *FirestoreFollowRepository) collect(ctx context.Context, q firestore.Query, pick func(models.Subscription) string) ([]string, error) {
	ids := []string{}
	seen := map[string]bool{}
	err := eachDocument(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		var sub models.Subscription
		if err := snap.DataTo(&sub); err != nil {
			return err
		}
		id := pick(sub)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Store(err, "list follow edges")
	}
	return ids, nil
}
