package events

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/anonto42/nano-social/backend/internal/models"
)

// Subjects
const (
	SubjectPostCreated         = "post.created"
	SubjectPostUpdated         = "post.updated"
	SubjectNotificationCreated = "notification.created"
)

// Handler processes one raw event payload
type Handler func(ctx context.Context, data []byte) error

// Publisher publishes events. Delivery is fire-and-forget: the writer gets no
// acknowledgement from consumers.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// Subscriber registers handlers. The returned func removes the registration.
type Subscriber interface {
	Subscribe(subject, queue string, h Handler) (unsubscribe func() error, err error)
}

// Bus is both ends of the event transport
type Bus interface {
	Publisher
	Subscriber
	Close()
}

// PostCreated is emitted after a post document is written
type PostCreated struct {
	PostID      string    `json:"postId"`
	AuthorUID   string    `json:"authorUID"`
	AuthorEmail string    `json:"authorEmail"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PostUpdated carries the reaction state of a post before and after a write
type PostUpdated struct {
	PostID    string                  `json:"postId"`
	AuthorUID string                  `json:"authorUID"`
	Title     string                  `json:"title"`
	Before    models.ReactionSnapshot `json:"before"`
	After     models.ReactionSnapshot `json:"after"`
}

// NotificationCreated is emitted after a NotificationMessage is durably written
type NotificationCreated struct {
	NotificationID string                  `json:"notificationId"`
	RecipientID    string                  `json:"recipientId"`
	SenderID       string                  `json:"senderId"`
	Type           models.NotificationType `json:"type"`
	Title          string                  `json:"title"`
	Body           string                  `json:"body"`
	Data           map[string]any          `json:"data,omitempty"`
}

// Encode serializes an event
func Encode(event any) ([]byte, error) {
	return json.Marshal(event)
}

// Decode deserializes an event payload into v
func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
