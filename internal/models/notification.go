package models

import "time"

// NotificationType enumerates the kinds of in-app notification
type NotificationType string

const (
	NotificationNewPost          NotificationType = "new_post"
	NotificationNewFollower      NotificationType = "new_follower"
	NotificationLike             NotificationType = "like"
	NotificationDislike          NotificationType = "dislike"
	NotificationComment          NotificationType = "comment"
	NotificationContentModerated NotificationType = "content_moderated"
)

// Valid reports whether t is one of the known types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewPost, NotificationNewFollower, NotificationLike,
		NotificationDislike, NotificationComment, NotificationContentModerated:
		return true
	}
	return false
}

// SystemSenderID is the sender of notifications not caused by a user
const SystemSenderID = "system"

// NotificationMessage is one in-app notification (collection "notification_messages")
type NotificationMessage struct {
	ID          string           `json:"id" firestore:"-" gorm:"primaryKey;size:64"`
	RecipientID string           `json:"recipientId" firestore:"recipientId" gorm:"size:128;index"`
	SenderID    string           `json:"senderId" firestore:"senderId" gorm:"size:128"`
	Type        NotificationType `json:"type" firestore:"type" gorm:"size:30;index"`
	Title       string           `json:"title" firestore:"title"`
	Body        string           `json:"body" firestore:"body"`
	Data        map[string]any   `json:"data,omitempty" firestore:"data,omitempty" gorm:"serializer:json;type:jsonb"`
	Read        bool             `json:"read" firestore:"read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"createdAt" firestore:"createdAt" gorm:"index"`
}

// TableName keeps the SQL table aligned with the document collection name
func (NotificationMessage) TableName() string { return "notification_messages" }

// NotificationProfile holds per-user push settings (collection "notification_profiles")
type NotificationProfile struct {
	UID                    string    `json:"uid" firestore:"uid" gorm:"primaryKey;size:128"`
	NotificationTokens     []string  `json:"notificationTokens" firestore:"notificationTokens" gorm:"-"`
	IsNotificationsEnabled bool      `json:"isNotificationsEnabled" firestore:"isNotificationsEnabled"`
	CreatedAt              time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// TableName keeps the SQL table aligned with the document collection name
func (NotificationProfile) TableName() string { return "notification_profiles" }

// DeviceToken is the SQL-side row for one push registration token of a profile
type DeviceToken struct {
	Token     string `gorm:"primaryKey;size:512"`
	UID       string `gorm:"size:128;index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegisterTokenRequest defines the request body for registering a push token
type RegisterTokenRequest struct {
	Token string `json:"token" validate:"required,min=10"`
}

// NotificationSettingsRequest toggles push delivery for the current user
type NotificationSettingsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
