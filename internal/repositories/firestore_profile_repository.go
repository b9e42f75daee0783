package repositories

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// FirestoreProfileRepository implements ProfileRepository on "notification_profiles", one
// document per user keyed by UID with the tokens kept in an array field.
type FirestoreProfileRepository struct {
	client *firestore.Client
}

// NewFirestoreProfileRepository creates a new FirestoreProfileRepository
func NewFirestoreProfileRepository(client *firestore.Client) *FirestoreProfileRepository {
	return &FirestoreProfileRepository{client: client}
}

func (r *FirestoreProfileRepository) EnsureProfile(ctx context.Context, uid string) (*models.NotificationProfile, error) {
	ref := doc(r.client, ProfilesCollection, uid)
	if ref == nil {
		return nil, apperror.Validation("user id is required")
	}

	now := time.Now().UTC()
	profile := models.NotificationProfile{
		UID:                    uid,
		NotificationTokens:     []string{},
		IsNotificationsEnabled: true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	_, err := ref.Create(ctx, profile)
	if isAlreadyExists(err) {
		return r.GetProfile(ctx, uid)
	}
	if err != nil {
		return nil, apperror.Store(err, "ensure notification profile")
	}
	return &profile, nil
}

func (r *FirestoreProfileRepository) GetProfile(ctx context.Context, uid string) (*models.NotificationProfile, error) {
	ref := doc(r.client, ProfilesCollection, uid)
	if ref == nil {
		return nil, apperror.NotFound("notification profile")
	}
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil, apperror.NotFound("notification profile")
	}
	if err != nil {
		return nil, apperror.Store(err, "get notification profile")
	}

	var profile models.NotificationProfile
	if err := snap.DataTo(&profile); err != nil {
		return nil, apperror.Store(err, "decode notification profile")
	}
	profile.UID = uid
	if profile.NotificationTokens == nil {
		profile.NotificationTokens = []string{}
	}
	return &profile, nil
}

func (r *FirestoreProfileRepository) AddToken(ctx context.Context, uid, token string) error {
	if _, err := r.EnsureProfile(ctx, uid); err != nil {
		return err
	}
	return r.update(ctx, uid,
		firestore.Update{Path: "notificationTokens", Value: firestore.ArrayUnion(token)},
	)
}

func (r *FirestoreProfileRepository) RemoveTokens(ctx context.Context, uid string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	values := make([]interface{}, len(tokens))
	for i, t := range tokens {
		values[i] = t
	}
	return r.update(ctx, uid,
		firestore.Update{Path: "notificationTokens", Value: firestore.ArrayRemove(values...)},
	)
}

func (r *FirestoreProfileRepository) SetEnabled(ctx context.Context, uid string, enabled bool) error {
	if _, err := r.EnsureProfile(ctx, uid); err != nil {
		return err
	}
	return r.update(ctx, uid, firestore.Update{Path: "isNotificationsEnabled", Value: enabled})
}

func (r *FirestoreProfileRepository) update(ctx context.Context, uid string, updates ...firestore.Update) error {
	ref := doc(r.client, ProfilesCollection, uid)
	if ref == nil {
		return apperror.NotFound("notification profile")
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})
	_, err := ref.Update(ctx, updates)
	if isNotFound(err) {
		return apperror.NotFound("notification profile")
	}
	return apperror.Store(err, "update notification profile")
}
