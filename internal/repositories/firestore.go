package repositories

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names shared by every backend
const (
	PostsCollection         = "posts"
	ProfilesCollection      = "notification_profiles"
	SubscriptionsCollection = "notification_subscriptions"
	MessagesCollection      = "notification_messages"
	UsersCollection         = "users"
	CommentsCollection      = "comments"
)

// firestoreInLimit is the maximum number of values of an "in" filter
const firestoreInLimit = 30

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// doc returns the document reference for id, nil when id is not a valid document ID
func doc(client *firestore.Client, collection, id string) *firestore.DocumentRef {
	if id == "" {
		return nil
	}
	return client.Collection(collection).Doc(id)
}

// eachDocument iterates a query, stopping at the first callback error
func eachDocument(ctx context.Context, q firestore.Query, fn func(*firestore.DocumentSnapshot) error) error {
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}
