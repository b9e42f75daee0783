package models

import "time"

// Comment is a reply on a post. Stored in "comments"; in the legacy backend it lives in
// PostgreSQL next to the follow edges while the post itself stays in MongoDB.
type Comment struct {
	ID          string    `json:"id" firestore:"-" gorm:"primaryKey;size:64"`
	PostID      string    `json:"postId" firestore:"postId" gorm:"size:64;index"`
	AuthorUID   string    `json:"authorUID" firestore:"authorUID" gorm:"size:128;index"`
	AuthorEmail string    `json:"authorEmail,omitempty" firestore:"authorEmail"`
	Content     string    `json:"content" firestore:"content" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt" gorm:"index"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
