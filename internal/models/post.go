package models

import (
	"slices"
	"time"
)

// Post is a text/image post. Stored in the "posts" collection; field names are shared by the
// Firestore and MongoDB backends.
type Post struct {
	ID            string     `json:"id" firestore:"-" bson:"_id,omitempty"`
	Title         string     `json:"title" firestore:"title" bson:"title"`
	Content       string     `json:"content" firestore:"content" bson:"content"`
	AuthorUID     string     `json:"authorUID" firestore:"authorUID" bson:"authorUID"`
	AuthorEmail   string     `json:"authorEmail,omitempty" firestore:"authorEmail" bson:"authorEmail"`
	ImageURL      string     `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp" bson:"createdAt"`
	ModeratedAt   *time.Time `json:"moderatedAt,omitempty" firestore:"moderatedAt,omitempty" bson:"moderatedAt,omitempty"`
	Likes         []string   `json:"likes" firestore:"likes" bson:"likes"`
	Dislikes      []string   `json:"dislikes" firestore:"dislikes" bson:"dislikes"`
	LikesCount    int        `json:"likesCount" firestore:"likesCount" bson:"likesCount"`
	DislikesCount int        `json:"dislikesCount" firestore:"dislikesCount" bson:"dislikesCount"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title   string `json:"title" form:"title" validate:"required,min=1,max=120"`
	Content string `json:"content" form:"content" validate:"required,min=1,max=5000"`
}

// ReactionKind is either a like or a dislike
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is a known reaction
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// ReactionDelta describes the field changes a toggle makes. Each backend turns it into its
// own atomic update (ArrayUnion/Increment, $addToSet/$inc, ...).
type ReactionDelta struct {
	AddLike       bool
	RemoveLike    bool
	AddDislike    bool
	RemoveDislike bool
	LikesDelta    int
	DislikesDelta int
}

// PlanToggle computes the delta for userID toggling kind on p. Liking removes an existing
// dislike in the same update and vice versa.
func (p *Post) PlanToggle(userID string, kind ReactionKind) ReactionDelta {
	liked := slices.Contains(p.Likes, userID)
	disliked := slices.Contains(p.Dislikes, userID)

	var d ReactionDelta
	switch kind {
	case ReactionLike:
		if liked {
			d.RemoveLike, d.LikesDelta = true, -1
			break
		}
		d.AddLike, d.LikesDelta = true, 1
		if disliked {
			d.RemoveDislike, d.DislikesDelta = true, -1
		}
	case ReactionDislike:
		if disliked {
			d.RemoveDislike, d.DislikesDelta = true, -1
			break
		}
		d.AddDislike, d.DislikesDelta = true, 1
		if liked {
			d.RemoveLike, d.LikesDelta = true, -1
		}
	}
	return d
}

// Apply applies d for userID to p in place
func (p *Post) Apply(userID string, d ReactionDelta) {
	if d.RemoveLike {
		p.Likes = slices.DeleteFunc(p.Likes, func(id string) bool { return id == userID })
	}
	if d.RemoveDislike {
		p.Dislikes = slices.DeleteFunc(p.Dislikes, func(id string) bool { return id == userID })
	}
	if d.AddLike && !slices.Contains(p.Likes, userID) {
		p.Likes = append(p.Likes, userID)
	}
	if d.AddDislike && !slices.Contains(p.Dislikes, userID) {
		p.Dislikes = append(p.Dislikes, userID)
	}
	p.LikesCount += d.LikesDelta
	p.DislikesCount += d.DislikesDelta
}

// Clone returns a deep copy of p
func (p *Post) Clone() *Post {
	c := *p
	c.Likes = slices.Clone(p.Likes)
	c.Dislikes = slices.Clone(p.Dislikes)
	if p.ModeratedAt != nil {
		t := *p.ModeratedAt
		c.ModeratedAt = &t
	}
	return &c
}

// ReactionSnapshot is the reaction state of a post at one point in time
type ReactionSnapshot struct {
	Likes    []string `json:"likes"`
	Dislikes []string `json:"dislikes"`
}

// Snapshot captures p's reaction sets
func (p *Post) Snapshot() ReactionSnapshot {
	return ReactionSnapshot{Likes: slices.Clone(p.Likes), Dislikes: slices.Clone(p.Dislikes)}
}
