package repositories

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// FirestoreNotificationRepository implements NotificationRepository on "notification_messages"
type FirestoreNotificationRepository struct {
	client *firestore.Client
}

// NewFirestoreNotificationRepository creates a new FirestoreNotificationRepository
func NewFirestoreNotificationRepository(client *firestore.Client) *FirestoreNotificationRepository {
	return &FirestoreNotificationRepository{client: client}
}

func (r *FirestoreNotificationRepository) CreateNotification(ctx context.Context, n *models.NotificationMessage) error {
	ref := r.client.Collection(MessagesCollection).NewDoc()
	n.ID = ref.ID
	n.CreatedAt = time.Now().UTC()
	if _, err := ref.Create(ctx, n); err != nil {
		return apperror.Store(err, "create notification")
	}
	return nil
}

func (r *FirestoreNotificationRepository) GetByID(ctx context.Context, id string) (*models.NotificationMessage, error) {
	ref := doc(r.client, MessagesCollection, id)
	if ref == nil {
		return nil, apperror.NotFound("notification")
	}
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil, apperror.NotFound("notification")
	}
	if err != nil {
		return nil, apperror.Store(err, "get notification")
	}
	return decodeNotification(snap)
}

func (r *FirestoreNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]models.NotificationMessage, error) {
	q := r.client.Collection(MessagesCollection).
		Where("recipientId", "==", recipientID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit)

	notifications := []models.NotificationMessage{}
	err := eachDocument(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		n, err := decodeNotification(snap)
		if err != nil {
			return err
		}
		notifications = append(notifications, *n)
		return nil
	})
	if err != nil {
		return nil, apperror.Store(err, "list notifications")
	}
	return notifications, nil
}

func (r *FirestoreNotificationRepository) unread(recipientID string) firestore.Query {
	return r.client.Collection(MessagesCollection).
		Where("recipientId", "==", recipientID).
		Where("read", "==", false)
}

// GetUnreadCount uses a server-side count aggregation
func (r *FirestoreNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	q := r.unread(recipientID)
	res, err := q.NewAggregationQuery().WithCount("unread").Get(ctx)
	if err != nil {
		return 0, apperror.Store(err, "count unread notifications")
	}
	value, ok := res["unread"].(*firestorepb.Value)
	if !ok {
		return 0, apperror.Store(fmt.Errorf("unexpected aggregation result %T", res["unread"]), "count unread notifications")
	}
	return value.GetIntegerValue(), nil
}

func (r *FirestoreNotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	ref := doc(r.client, MessagesCollection, id)
	if ref == nil {
		return apperror.NotFound("notification")
	}
	_, err := ref.Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	if isNotFound(err) {
		return apperror.NotFound("notification")
	}
	return apperror.Store(err, "mark notification read")
}

func (r *FirestoreNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	var refs []*firestore.DocumentRef
	err := eachDocument(ctx, r.unread(recipientID), func(snap *firestore.DocumentSnapshot) error {
		refs = append(refs, snap.Ref)
		return nil
	})
	if err != nil {
		return 0, apperror.Store(err, "list unread notifications")
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Update(ref, []firestore.Update{{Path: "read", Value: true}})
		if err != nil {
			bw.End()
			return 0, apperror.Store(err, "mark all notifications read")
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var marked int64
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return marked, apperror.Store(err, "mark all notifications read")
		}
		marked++
	}
	return marked, nil
}

func decodeNotification(snap *firestore.DocumentSnapshot) (*models.NotificationMessage, error) {
	var n models.NotificationMessage
	if err := snap.DataTo(&n); err != nil {
		return nil, err
	}
	n.ID = snap.Ref.ID
	return &n, nil
}
