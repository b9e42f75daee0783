package triggers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/pkg/fcm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type fakeEmails map[string]string

func (f fakeEmails) EmailOf(_ context.Context, uid string) (string, error) {
	email, ok := f[uid]
	if !ok {
		return "", errors.New("user not found")
	}
	return email, nil
}

type sentPush struct {
	Tokens []string
	Data   fcm.NotificationData
}

type fakeSender struct {
	mu           sync.Mutex
	sent         []sentPush
	unregistered map[string]bool
}

func (s *fakeSender) SendToDevices(_ context.Context, tokens []string, n fcm.NotificationData) (*fcm.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentPush{Tokens: tokens, Data: n})
	res := &fcm.Result{}
	for _, t := range tokens {
		if s.unregistered[t] {
			res.Failed = append(res.Failed, t)
			res.Unregistered = append(res.Unregistered, t)
			continue
		}
		res.SuccessCount++
	}
	return res, nil
}

// TriggerSuite wires the services to an in-process bus with every trigger registered, so a
// service call runs the triggers before it returns.
type TriggerSuite struct {
	suite.Suite
	ctx           context.Context
	store         *repositories.Store
	messages      *repositories.MemoryNotificationRepository
	bus           *events.LocalBus
	sender        *fakeSender
	notifications *services.NotificationService
	posts         *services.PostService
	reactions     *services.ReactionService
	follows       *services.FollowService
	stop          func()
}

func (s *TriggerSuite) SetupTest() {
	log := zap.NewNop()
	s.ctx = context.Background()
	s.store = repositories.NewMemoryStore()
	s.messages = s.store.Notifications.(*repositories.MemoryNotificationRepository)
	s.bus = events.NewLocalBus(5*time.Second, log)
	s.sender = &fakeSender{unregistered: map[string]bool{}}

	s.notifications = services.NewNotificationService(s.store, s.bus, nil, log)
	s.posts = services.NewPostService(s.store, s.notifications, nil, s.bus, nil, log)
	s.reactions = services.NewReactionService(s.store.Posts, s.bus, nil, log)
	s.follows = services.NewFollowService(s.store, s.notifications, nil, log)

	stop, err := Register(s.bus, nil, log,
		NewModerationTrigger(s.store.Posts, s.notifications, nil, nil, log),
		NewReactionTrigger(s.notifications, fakeEmails{"B": "b@x.com"}, log),
		NewPushDispatcher(s.notifications, s.sender, nil, log),
	)
	s.Require().NoError(err)
	s.stop = stop
}

func (s *TriggerSuite) TearDownTest() {
	s.stop()
	s.bus.Close()
}

func (s *TriggerSuite) messagesOfType(t models.NotificationType) []models.NotificationMessage {
	var out []models.NotificationMessage
	for _, m := range s.messages.All() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (s *TriggerSuite) createPost(author, title, content string) *models.Post {
	post, err := s.posts.Create(s.ctx, services.Author{UID: author, Email: author + "@x.com"},
		models.CreatePostRequest{Title: title, Content: content}, nil)
	s.Require().NoError(err)
	return post
}

func (s *TriggerSuite) TestModerationRewritesOffensivePost() {
	post := s.createPost("A", "Saludo", "Eres un idiota")

	stored, err := s.posts.Get(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal("Eres un [redacted]", stored.Content)
	s.Equal("Saludo", stored.Title)
	s.NotNil(stored.ModeratedAt)

	msgs := s.messagesOfType(models.NotificationContentModerated)
	s.Require().Len(msgs, 1)
	s.Equal("A", msgs[0].RecipientID)
	s.Equal(models.SystemSenderID, msgs[0].SenderID)
	s.Equal(post.ID, msgs[0].Data["postId"])
	s.Equal("Saludo", msgs[0].Data["postTitle"])
}

func (s *TriggerSuite) TestCleanPostIsLeftAlone() {
	post := s.createPost("A", "Hola", "primer post")

	stored, err := s.posts.Get(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal("primer post", stored.Content)
	s.Nil(stored.ModeratedAt)
	s.Empty(s.messagesOfType(models.NotificationContentModerated))
}

func (s *TriggerSuite) TestNewLikeNotifiesAuthor() {
	post := s.createPost("A", "Hola", "primer post")

	_, err := s.reactions.ToggleLike(s.ctx, post.ID, "B")
	s.Require().NoError(err)

	msgs := s.messagesOfType(models.NotificationLike)
	s.Require().Len(msgs, 1)
	s.Equal("A", msgs[0].RecipientID)
	s.Equal("B", msgs[0].SenderID)
	s.Equal("Reacción a tu post", msgs[0].Title)
	s.Equal(`b@x.com le gustó tu post: "Hola"`, msgs[0].Body)
	s.Equal(map[string]any{
		"postId":        post.ID,
		"reactorUserId": "B",
		"reactorEmail":  "b@x.com",
		"reactionType":  "like",
		"postTitle":     "Hola",
	}, msgs[0].Data)

	// removing the like notifies nobody
	_, err = s.reactions.ToggleLike(s.ctx, post.ID, "B")
	s.Require().NoError(err)
	s.Len(s.messagesOfType(models.NotificationLike), 1)
}

func (s *TriggerSuite) TestSwapToDislikeNotifiesDislike() {
	post := s.createPost("A", "Hola", "primer post")

	_, err := s.reactions.ToggleLike(s.ctx, post.ID, "C")
	s.Require().NoError(err)
	_, err = s.reactions.ToggleDislike(s.ctx, post.ID, "C")
	s.Require().NoError(err)

	dislikes := s.messagesOfType(models.NotificationDislike)
	s.Require().Len(dislikes, 1)
	s.Equal(AnonymousReactor, dislikes[0].Data["reactorEmail"])
	s.Contains(dislikes[0].Body, "no le gustó")
}

func (s *TriggerSuite) TestOwnReactionIsSilent() {
	post := s.createPost("A", "Hola", "primer post")

	_, err := s.reactions.ToggleLike(s.ctx, post.ID, "A")
	s.Require().NoError(err)
	s.Empty(s.messagesOfType(models.NotificationLike))
}

func (s *TriggerSuite) TestPushDispatchRespectsSettingsAndPrunesTokens() {
	s.Require().NoError(s.notifications.RegisterToken(s.ctx, "A", "good-token-0001"))
	s.Require().NoError(s.notifications.RegisterToken(s.ctx, "A", "stale-token-0002"))
	s.sender.unregistered["stale-token-0002"] = true

	post := s.createPost("A", "Hola", "primer post")
	_, err := s.reactions.ToggleLike(s.ctx, post.ID, "B")
	s.Require().NoError(err)

	s.Require().Len(s.sender.sent, 1)
	push := s.sender.sent[0]
	s.Equal([]string{"good-token-0001", "stale-token-0002"}, push.Tokens)
	s.Equal("Reacción a tu post", push.Data.Title)
	s.Equal("like", push.Data.Data["type"])
	s.Equal(post.ID, push.Data.Data["postId"])

	tokens, err := s.notifications.TokensFor(s.ctx, "A")
	s.Require().NoError(err)
	s.Equal([]string{"good-token-0001"}, tokens)

	s.Require().NoError(s.notifications.SetEnabled(s.ctx, "A", false))
	_, err = s.reactions.ToggleDislike(s.ctx, post.ID, "B")
	s.Require().NoError(err)
	s.Len(s.sender.sent, 1)
}

func TestTriggerSuite(t *testing.T) {
	suite.Run(t, new(TriggerSuite))
}

func TestAdded(t *testing.T) {
	assert.Equal(t, []string{"C"}, added([]string{"A", "B"}, []string{"B", "C"}))
	assert.Empty(t, added([]string{"A"}, []string{}))
	assert.Empty(t, added(nil, nil))
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	trigger := NewReactionTrigger(nil, nil, zap.NewNop())
	require.Error(t, trigger.Handle(context.Background(), []byte("{")))
}

func TestStandardSkipsPushWithoutSender(t *testing.T) {
	log := zap.NewNop()
	store := repositories.NewMemoryStore()
	notifications := services.NewNotificationService(store, nil, nil, log)

	without := Standard(Deps{Posts: store.Posts, Notifications: notifications, Log: log})
	require.Len(t, without, 2)
	assert.Equal(t, "moderation", without[0].Name())
	assert.Equal(t, "reaction", without[1].Name())

	with := Standard(Deps{Posts: store.Posts, Notifications: notifications, Sender: &fakeSender{}, Log: log})
	require.Len(t, with, 3)
	assert.Equal(t, "push", with[2].Name())
}
