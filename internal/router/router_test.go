package router

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/internal/triggers"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type fakeVerifier map[string]*firebase.Identity

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebase.Identity, error) {
	id, ok := f[idToken]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return id, nil
}

type fakeMedia struct{}

func (fakeMedia) Upload(_ context.Context, _ []byte, filename, folder string) (string, error) {
	return "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + filename, nil
}

func (fakeMedia) DeleteByURL(context.Context, string) error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APISuite serves the full router over the in-memory store with every trigger attached to a
// local bus.
type APISuite struct {
	suite.Suite
	server *httptest.Server
	bus    *events.LocalBus
	stop   func()
	tokens map[string]string
}

func (s *APISuite) SetupTest() {
	log := zap.NewNop()
	store := repositories.NewMemoryStore()
	s.bus = events.NewLocalBus(5*time.Second, log)

	users := services.NewUserService(store.Users, log)
	notifications := services.NewNotificationService(store, s.bus, nil, log)
	svc := Services{
		Users:         users,
		Posts:         services.NewPostService(store, notifications, fakeMedia{}, s.bus, nil, log),
		Reactions:     services.NewReactionService(store.Posts, s.bus, nil, log),
		Follows:       services.NewFollowService(store, notifications, nil, log),
		Notifications: notifications,
		Comments:      services.NewCommentService(store, notifications, log),
	}

	stop, err := triggers.Register(s.bus, nil, log,
		triggers.NewModerationTrigger(store.Posts, notifications, nil, nil, log),
		triggers.NewReactionTrigger(notifications, users, log),
	)
	s.Require().NoError(err)
	s.stop = stop

	e := echo.New()
	SetupRoutes(e, svc, Options{
		JWTSecret:     testSecret,
		JWTTTL:        time.Hour,
		MaxUploadSize: 1 << 20,
		Verifier: fakeVerifier{
			"id-A": {UID: "A", Email: "a@x.com", Name: "Ana"},
			"id-B": {UID: "B", Email: "b@x.com", Name: "Beto"},
			"id-C": {UID: "C", Email: "c@x.com"},
		},
		Subscriber: s.bus,
	}, log)
	s.server = httptest.NewServer(e)

	s.tokens = map[string]string{}
	for _, uid := range []string{"A", "B", "C"} {
		s.tokens[uid] = s.session("id-" + uid)
	}
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
	s.stop()
	s.bus.Close()
}

func (s *APISuite) session(idToken string) string {
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/v1/auth/session", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+idToken)
	status, env := s.send(req)
	s.Require().Equal(http.StatusOK, status, env.Error.Message)

	var out struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Require().NotEmpty(out.Token)
	return out.Token
}

func (s *APISuite) send(req *http.Request) (int, envelope) {
	res, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()

	var env envelope
	body, err := io.ReadAll(res.Body)
	s.Require().NoError(err)
	if len(body) > 0 {
		s.Require().NoError(json.Unmarshal(body, &env), string(body))
	}
	return res.StatusCode, env
}

func (s *APISuite) call(method, path, uid string, body any, out any) (int, envelope) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[uid])
	}

	status, env := s.send(req)
	if out != nil && env.Success {
		s.Require().NoError(json.Unmarshal(env.Data, out))
	}
	return status, env
}

type postBody struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"imageUrl"`
	LikesCount    int        `json:"likesCount"`
	DislikesCount int        `json:"dislikesCount"`
	ModeratedAt   *time.Time `json:"moderatedAt"`
}

type inbox struct {
	Notifications []struct {
		ID    string         `json:"id"`
		Type  string         `json:"type"`
		Title string         `json:"title"`
		Body  string         `json:"body"`
		Data  map[string]any `json:"data"`
		Read  bool           `json:"read"`
	} `json:"notifications"`
	UnreadCount int64 `json:"unreadCount"`
}

func (s *APISuite) createPost(uid, title, content string) postBody {
	var post postBody
	status, env := s.call(http.MethodPost, "/api/v1/posts", uid, map[string]string{"title": title, "content": content}, &post)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)
	return post
}

func (s *APISuite) inboxOf(uid string) inbox {
	var in inbox
	status, _ := s.call(http.MethodGet, "/api/v1/notifications", uid, nil, &in)
	s.Require().Equal(http.StatusOK, status)
	return in
}

func (s *APISuite) TestHealth() {
	res, err := http.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
}

func (s *APISuite) TestProtectedRoutesRequireToken() {
	status, env := s.call(http.MethodGet, "/api/v1/feed", "", nil, nil)
	s.Equal(http.StatusUnauthorized, status)
	s.False(env.Success)
	s.Equal("UNAUTHENTICATED", env.Error.Code)
}

func (s *APISuite) TestSessionRejectsBadIDToken() {
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/v1/auth/session", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer forged")
	status, env := s.send(req)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("UNAUTHENTICATED", env.Error.Code)
}

func (s *APISuite) TestSessionSyncsProfile() {
	var profile struct {
		UID         string `json:"uid"`
		DisplayName string `json:"displayName"`
	}
	status, _ := s.call(http.MethodGet, "/api/v1/profile", "C", nil, &profile)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("C", profile.UID)
	s.Equal("c", profile.DisplayName)

	var updated struct {
		Age *int `json:"age"`
	}
	status, _ = s.call(http.MethodPut, "/api/v1/profile", "C", map[string]string{"address": "Calle 1", "birthDate": "2000-01-01"}, &updated)
	s.Require().Equal(http.StatusOK, status)
	s.NotNil(updated.Age)

	status, env := s.call(http.MethodPut, "/api/v1/profile", "C", map[string]string{"birthDate": "01/01/2000"}, nil)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("VALIDATION_ERROR", env.Error.Code)
}

func (s *APISuite) TestNewPostReachesFollowers() {
	var follow struct {
		Created bool `json:"created"`
	}
	status, _ := s.call(http.MethodPost, "/api/v1/users/A/follow", "B", nil, &follow)
	s.Require().Equal(http.StatusOK, status)
	s.True(follow.Created)

	status, _ = s.call(http.MethodPost, "/api/v1/users/A/follow", "B", nil, &follow)
	s.Require().Equal(http.StatusOK, status)
	s.False(follow.Created)

	toA := s.inboxOf("A")
	s.Require().Len(toA.Notifications, 1)
	s.Equal("new_follower", toA.Notifications[0].Type)
	s.Equal("Beto comenzó a seguirte", toA.Notifications[0].Body)

	s.createPost("A", "Hola", "Primer post")

	toB := s.inboxOf("B")
	s.Require().Len(toB.Notifications, 1)
	s.Equal("new_post", toB.Notifications[0].Type)
	s.Equal("Nuevo post de a@x.com", toB.Notifications[0].Title)
	s.Equal(int64(1), toB.UnreadCount)
	s.Empty(s.inboxOf("C").Notifications)

	var feed []postBody
	status, _ = s.call(http.MethodGet, "/api/v1/feed/following", "B", nil, &feed)
	s.Require().Equal(http.StatusOK, status)
	s.Require().Len(feed, 1)
	s.Equal("Hola", feed[0].Title)
}

func (s *APISuite) TestReactionToggleNotifiesAuthor() {
	post := s.createPost("A", "Hola", "Primer post")

	var after postBody
	status, _ := s.call(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", "B", nil, &after)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(1, after.LikesCount)

	status, _ = s.call(http.MethodPost, "/api/v1/posts/"+post.ID+"/dislike", "B", nil, &after)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(0, after.LikesCount)
	s.Equal(1, after.DislikesCount)

	status, _ = s.call(http.MethodPost, "/api/v1/posts/"+post.ID+"/dislike", "B", nil, &after)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(0, after.DislikesCount)

	toA := s.inboxOf("A")
	s.Require().Len(toA.Notifications, 2)
	s.Equal("dislike", toA.Notifications[0].Type)
	s.Equal("like", toA.Notifications[1].Type)
	s.Equal(`b@x.com le gustó tu post: "Hola"`, toA.Notifications[1].Body)

	status, env := s.call(http.MethodPost, "/api/v1/posts/missing/like", "B", nil, nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("NOT_FOUND", env.Error.Code)
}

func (s *APISuite) TestOffensivePostIsModerated() {
	post := s.createPost("A", "Saludo", "Eres un idiota")

	var stored postBody
	status, _ := s.call(http.MethodGet, "/api/v1/posts/"+post.ID, "B", nil, &stored)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Eres un [redacted]", stored.Content)
	s.NotNil(stored.ModeratedAt)

	toA := s.inboxOf("A")
	s.Require().Len(toA.Notifications, 1)
	s.Equal("content_moderated", toA.Notifications[0].Type)
}

func (s *APISuite) TestCreatePostValidation() {
	status, env := s.call(http.MethodPost, "/api/v1/posts", "A", map[string]string{"content": "sin título"}, nil)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("VALIDATION_ERROR", env.Error.Code)
	s.Equal("title is required", env.Error.Message)
}

func (s *APISuite) TestCreatePostWithImage() {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	s.Require().NoError(w.WriteField("title", "Foto"))
	s.Require().NoError(w.WriteField("content", "Mira esto"))
	part, err := w.CreateFormFile("image", "sunset.png")
	s.Require().NoError(err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nnot-really-a-png"))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/v1/posts", &buf)
	s.Require().NoError(err)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.tokens["A"])

	status, env := s.send(req)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)
	var post postBody
	s.Require().NoError(json.Unmarshal(env.Data, &post))
	s.Equal("https://res.cloudinary.com/demo/image/upload/v1/posts/A/sunset.png", post.ImageURL)
}

func (s *APISuite) TestOnlyAuthorDeletesPost() {
	post := s.createPost("A", "Hola", "Primer post")

	status, env := s.call(http.MethodDelete, "/api/v1/posts/"+post.ID, "B", nil, nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("FORBIDDEN", env.Error.Code)

	status, _ = s.call(http.MethodDelete, "/api/v1/posts/"+post.ID, "A", nil, nil)
	s.Equal(http.StatusNoContent, status)

	status, _ = s.call(http.MethodGet, "/api/v1/posts/"+post.ID, "A", nil, nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *APISuite) TestMarkNotificationsRead() {
	s.call(http.MethodPost, "/api/v1/users/A/follow", "B", nil, nil)
	s.call(http.MethodPost, "/api/v1/users/A/follow", "C", nil, nil)

	toA := s.inboxOf("A")
	s.Require().Len(toA.Notifications, 2)
	s.Equal(int64(2), toA.UnreadCount)

	status, _ := s.call(http.MethodPut, "/api/v1/notifications/"+toA.Notifications[0].ID+"/read", "B", nil, nil)
	s.Equal(http.StatusNotFound, status)

	status, _ = s.call(http.MethodPut, "/api/v1/notifications/"+toA.Notifications[0].ID+"/read", "A", nil, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(int64(1), s.inboxOf("A").UnreadCount)

	var res struct {
		Updated int64 `json:"updated"`
	}
	status, _ = s.call(http.MethodPut, "/api/v1/notifications/read-all", "A", nil, &res)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(int64(1), res.Updated)
	s.Equal(int64(0), s.inboxOf("A").UnreadCount)
}

func (s *APISuite) TestNotificationSettingsAndTokens() {
	status, _ := s.call(http.MethodPost, "/api/v1/notifications/tokens", "A", map[string]string{"token": "device-token-123"}, nil)
	s.Require().Equal(http.StatusCreated, status)

	var settings struct {
		Enabled bool `json:"isNotificationsEnabled"`
		Tokens  int  `json:"tokens"`
	}
	status, _ = s.call(http.MethodPut, "/api/v1/notifications/settings", "A", map[string]bool{"enabled": false}, nil)
	s.Require().Equal(http.StatusOK, status)
	status, _ = s.call(http.MethodGet, "/api/v1/notifications/settings", "A", nil, &settings)
	s.Require().Equal(http.StatusOK, status)
	s.False(settings.Enabled)
	s.Equal(1, settings.Tokens)

	status, _ = s.call(http.MethodDelete, "/api/v1/notifications/tokens", "A", map[string]string{"token": "device-token-123"}, nil)
	s.Require().Equal(http.StatusNoContent, status)
	s.call(http.MethodGet, "/api/v1/notifications/settings", "A", nil, &settings)
	s.Equal(0, settings.Tokens)
}

func (s *APISuite) TestNotificationStream() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.server.URL+"/api/v1/notifications/stream?access_token="+s.tokens["A"], nil)
	s.Require().NoError(err)
	res, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Require().Equal(http.StatusOK, res.StatusCode)
	s.Equal("text/event-stream", res.Header.Get(echo.HeaderContentType))

	// Headers are flushed after the subscription exists, so this event cannot be missed
	s.call(http.MethodPost, "/api/v1/users/A/follow", "B", nil, nil)
	// Not for A
	s.call(http.MethodPost, "/api/v1/users/C/follow", "B", nil, nil)

	reader := bufio.NewReader(res.Body)
	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		s.Require().NoError(err)
		if after, ok := strings.CutPrefix(line, "data: "); ok {
			data = strings.TrimSpace(after)
		}
	}

	var ev events.NotificationCreated
	s.Require().NoError(events.Decode([]byte(data), &ev))
	s.Equal("A", ev.RecipientID)
	s.Equal("B", ev.SenderID)
	s.EqualValues("new_follower", ev.Type)
}

func (s *APISuite) TestCommentThread() {
	post := s.createPost("A", "Hola", "Primer post")

	var comment struct {
		ID string `json:"id"`
	}
	status, _ := s.call(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", "B", map[string]string{"content": "Bien dicho"}, &comment)
	s.Require().Equal(http.StatusCreated, status)

	var thread []struct {
		Content   string `json:"content"`
		AuthorUID string `json:"authorUID"`
	}
	status, _ = s.call(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", "C", nil, &thread)
	s.Require().Equal(http.StatusOK, status)
	s.Require().Len(thread, 1)
	s.Equal("B", thread[0].AuthorUID)

	toA := s.inboxOf("A")
	s.Require().Len(toA.Notifications, 1)
	s.Equal("comment", toA.Notifications[0].Type)

	status, _ = s.call(http.MethodDelete, "/api/v1/comments/"+comment.ID, "C", nil, nil)
	s.Equal(http.StatusForbidden, status)
	status, _ = s.call(http.MethodDelete, "/api/v1/comments/"+comment.ID, "B", nil, nil)
	s.Equal(http.StatusNoContent, status)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
