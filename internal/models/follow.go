package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Subscription is one follower -> followed edge, the only representation of the follow
// graph. Stored in "notification_subscriptions"; in SQL the pair itself is the primary key.
type Subscription struct {
	ID         string    `json:"id" firestore:"-" gorm:"-"`
	FollowerID string    `json:"followerId" firestore:"followerId" gorm:"primaryKey;size:128"`
	FollowedID string    `json:"followedId" firestore:"followedId" gorm:"primaryKey;size:128;index"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
}

// TableName keeps the SQL table aligned with the document collection name
func (Subscription) TableName() string { return "notification_subscriptions" }

// SubscriptionID is the deterministic document key of the edge follower -> followed. The
// IDs are length-prefixed before hashing so no two distinct pairs share a key.
func SubscriptionID(followerID, followedID string) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(len(followerID))))
	h.Write([]byte{':'})
	h.Write([]byte(followerID))
	h.Write([]byte(followedID))
	return hex.EncodeToString(h.Sum(nil))
}
