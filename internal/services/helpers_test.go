package services

import (
	"context"
	"errors"
	"sync"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.uber.org/zap"
)

type publishedEvent struct {
	Subject string
	Event   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Event: event})
	return nil
}

func (p *recordingPublisher) bySubject(subject string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.Subject == subject {
			out = append(out, e.Event)
		}
	}
	return out
}

var _ events.Publisher = (*recordingPublisher)(nil)

// failingNotifications rejects writes addressed to the listed recipients
type failingNotifications struct {
	repositories.NotificationRepository
	failFor map[string]bool
}

func (f *failingNotifications) CreateNotification(ctx context.Context, n *models.NotificationMessage) error {
	if f.failFor[n.RecipientID] {
		return errors.New("store unavailable")
	}
	return f.NotificationRepository.CreateNotification(ctx, n)
}

type fakeMedia struct {
	uploads []string
	deleted []string
	err     error
}

func (m *fakeMedia) Upload(_ context.Context, _ []byte, filename, folder string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploads = append(m.uploads, folder+"/"+filename)
	return "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + filename, nil
}

func (m *fakeMedia) DeleteByURL(_ context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	return nil
}

type fixture struct {
	store         *repositories.Store
	messages      *repositories.MemoryNotificationRepository
	publisher     *recordingPublisher
	media         *fakeMedia
	notifications *NotificationService
	follows       *FollowService
	reactions     *ReactionService
	posts         *PostService
	users         *UserService
	comments      *CommentService
}

func newFixture() *fixture {
	store := repositories.NewMemoryStore()
	return newFixtureWithStore(store)
}

func newFixtureWithStore(store *repositories.Store) *fixture {
	log := zap.NewNop()
	f := &fixture{
		store:     store,
		publisher: &recordingPublisher{},
		media:     &fakeMedia{},
	}
	if mem, ok := store.Notifications.(*repositories.MemoryNotificationRepository); ok {
		f.messages = mem
	}
	f.notifications = NewNotificationService(store, f.publisher, nil, log)
	f.follows = NewFollowService(store, f.notifications, nil, log)
	f.reactions = NewReactionService(store.Posts, f.publisher, nil, log)
	f.posts = NewPostService(store, f.notifications, f.media, f.publisher, nil, log)
	f.users = NewUserService(store.Users, log)
	f.comments = NewCommentService(store, f.notifications, log)
	return f
}

func (f *fixture) messagesOfType(t models.NotificationType) []models.NotificationMessage {
	var out []models.NotificationMessage
	for _, m := range f.messages.All() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}
