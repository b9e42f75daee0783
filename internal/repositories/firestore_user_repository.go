package repositories

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// FirestoreUserRepository implements UserRepository on the "users" collection
type FirestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new FirestoreUserRepository
func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client}
}

func (r *FirestoreUserRepository) UpsertIdentity(ctx context.Context, uid, email, displayName string) (*models.UserProfile, error) {
	ref := doc(r.client, UsersCollection, uid)
	if ref == nil {
		return nil, apperror.Validation("user id is required")
	}

	var user models.UserProfile
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			user = models.UserProfile{
				UID:         uid,
				Email:       email,
				DisplayName: displayName,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			return tx.Create(ref, user)
		}
		if err != nil {
			return err
		}

		if err := snap.DataTo(&user); err != nil {
			return err
		}
		user.UID = uid
		user.Email = email
		user.DisplayName = displayName
		user.UpdatedAt = now
		return tx.Update(ref, []firestore.Update{
			{Path: "email", Value: email},
			{Path: "displayName", Value: displayName},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return nil, apperror.Store(err, "save user")
	}
	return &user, nil
}

func (r *FirestoreUserRepository) GetUser(ctx context.Context, uid string) (*models.UserProfile, error) {
	ref := doc(r.client, UsersCollection, uid)
	if ref == nil {
		return nil, apperror.NotFound("user")
	}
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, apperror.Store(err, "get user")
	}

	var user models.UserProfile
	if err := snap.DataTo(&user); err != nil {
		return nil, apperror.Store(err, "decode user")
	}
	user.UID = uid
	return &user, nil
}

func (r *FirestoreUserRepository) UpdateDetails(ctx context.Context, uid, address, birthDate string, age *int) (*models.UserProfile, error) {
	ref := doc(r.client, UsersCollection, uid)
	if ref == nil {
		return nil, apperror.NotFound("user")
	}
	var ageValue interface{} = firestore.Delete
	if age != nil {
		ageValue = *age
	}
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "address", Value: address},
		{Path: "birthDate", Value: birthDate},
		{Path: "age", Value: ageValue},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if isNotFound(err) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, apperror.Store(err, "update user")
	}
	return r.GetUser(ctx, uid)
}
