package repositories

import (
	"cloud.google.com/go/firestore"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Store groups the repositories of one backend
type Store struct {
	Posts         PostRepository
	Follows       FollowRepository
	Notifications NotificationRepository
	Profiles      ProfileRepository
	Users         UserRepository
	Comments      CommentRepository
}

// NewFirestoreStore keeps every collection in Cloud Firestore
func NewFirestoreStore(client *firestore.Client) *Store {
	return &Store{
		Posts:         NewFirestorePostRepository(client),
		Follows:       NewFirestoreFollowRepository(client),
		Notifications: NewFirestoreNotificationRepository(client),
		Profiles:      NewFirestoreProfileRepository(client),
		Users:         NewFirestoreUserRepository(client),
		Comments:      NewFirestoreCommentRepository(client),
	}
}

// NewLegacyStore keeps posts in MongoDB and everything relational in PostgreSQL
func NewLegacyStore(db *gorm.DB, mongoDB *mongo.Database) *Store {
	return &Store{
		Posts:         NewMongoPostRepository(mongoDB),
		Follows:       NewPostgresFollowRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
		Profiles:      NewPostgresProfileRepository(db),
		Users:         NewPostgresUserRepository(db),
		Comments:      NewPostgresCommentRepository(db),
	}
}

// NewMemoryStore keeps everything in process memory
func NewMemoryStore() *Store {
	return &Store{
		Posts:         NewMemoryPostRepository(),
		Follows:       NewMemoryFollowRepository(),
		Notifications: NewMemoryNotificationRepository(),
		Profiles:      NewMemoryProfileRepository(),
		Users:         NewMemoryUserRepository(),
		Comments:      NewMemoryCommentRepository(),
	}
}

var (
	_ PostRepository         = (*MongoPostRepository)(nil)
	_ PostRepository         = (*FirestorePostRepository)(nil)
	_ PostRepository         = (*MemoryPostRepository)(nil)
	_ FollowRepository       = (*PostgresFollowRepository)(nil)
	_ FollowRepository       = (*FirestoreFollowRepository)(nil)
	_ FollowRepository       = (*MemoryFollowRepository)(nil)
	_ NotificationRepository = (*PostgresNotificationRepository)(nil)
	_ NotificationRepository = (*FirestoreNotificationRepository)(nil)
	_ NotificationRepository = (*MemoryNotificationRepository)(nil)
	_ ProfileRepository      = (*PostgresProfileRepository)(nil)
	_ ProfileRepository      = (*FirestoreProfileRepository)(nil)
	_ ProfileRepository      = (*MemoryProfileRepository)(nil)
	_ UserRepository         = (*PostgresUserRepository)(nil)
	_ UserRepository         = (*FirestoreUserRepository)(nil)
	_ UserRepository         = (*MemoryUserRepository)(nil)
	_ CommentRepository      = (*PostgresCommentRepository)(nil)
	_ CommentRepository      = (*FirestoreCommentRepository)(nil)
	_ CommentRepository      = (*MemoryCommentRepository)(nil)
)
