package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	streamBuffer    = 16
	streamKeepAlive = 25 * time.Second
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
	subscriber    events.Subscriber
	keepAlive     time.Duration
	log           *zap.Logger
	now           func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler. subscriber feeds the live stream.
func NewNotificationHandler(notifications *services.NotificationService, subscriber events.Subscriber, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		subscriber:    subscriber,
		keepAlive:     streamKeepAlive,
		log:           log,
		now:           time.Now,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.GET("/notifications/stream", h.Stream)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.GET("/notifications/settings", h.GetSettings)
	g.PUT("/notifications/settings", h.UpdateSettings)
	g.POST("/notifications/tokens", h.RegisterToken)
	g.DELETE("/notifications/tokens", h.RemoveToken)
}

// GetNotifications returns the current user's inbox, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	list, err := h.notifications.List(ctx, uid, queryLimit(c))
	if err != nil {
		return err
	}
	unread, err := h.notifications.UnreadCount(ctx, uid)
	if err != nil {
		return err
	}

	return success(c, http.StatusOK, echo.Map{
		"notifications": list,
		"unreadCount":   unread,
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	list, err := h.notifications.List(ctx, uid, queryLimit(c))
	if err != nil {
		return err
	}
	unread, err := h.notifications.UnreadCount(ctx, uid)
	if err != nil {
		return err
	}

	return success(c, http.StatusOK, echo.Map{
		"notifications": groupByPeriod(list, h.now()),
		"unreadCount":   unread,
	})
}

// NotificationGroups buckets an inbox by age
type NotificationGroups struct {
	Today     []models.NotificationMessage `json:"today"`
	Yesterday []models.NotificationMessage `json:"yesterday"`
	ThisWeek  []models.NotificationMessage `json:"thisWeek"`
	Older     []models.NotificationMessage `json:"older"`
}

func groupByPeriod(list []models.NotificationMessage, now time.Time) NotificationGroups {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := today.AddDate(0, 0, -7)

	g := NotificationGroups{
		Today:     []models.NotificationMessage{},
		Yesterday: []models.NotificationMessage{},
		ThisWeek:  []models.NotificationMessage{},
		Older:     []models.NotificationMessage{},
	}
	for _, n := range list {
		switch at := n.CreatedAt.In(now.Location()); {
		case !at.Before(today):
			g.Today = append(g.Today, n)
		case !at.Before(yesterday):
			g.Yesterday = append(g.Yesterday, n)
		case !at.Before(weekAgo):
			g.ThisWeek = append(g.ThisWeek, n)
		default:
			g.Older = append(g.Older, n)
		}
	}
	return g
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the current user's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	if err := h.notifications.MarkAsRead(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"read": true})
}

// MarkAllAsRead marks the whole inbox as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	updated, err := h.notifications.MarkAllAsRead(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"updated": updated})
}

// GetSettings returns the current user's notification profile
func (h *NotificationHandler) GetSettings(c echo.Context) error {
	profile, err := h.notifications.Profile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{
		"isNotificationsEnabled": profile.IsNotificationsEnabled,
		"tokens":                 len(profile.NotificationTokens),
	})
}

// UpdateSettings turns push delivery on or off
func (h *NotificationHandler) UpdateSettings(c echo.Context) error {
	var req models.NotificationSettingsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.SetEnabled(c.Request().Context(), middleware.UserID(c), *req.Enabled); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"isNotificationsEnabled": *req.Enabled})
}

// RegisterToken stores a device push token for the current user
func (h *NotificationHandler) RegisterToken(c echo.Context) error {
	var req models.RegisterTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.RegisterToken(c.Request().Context(), middleware.UserID(c), req.Token); err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"registered": true})
}

// RemoveToken forgets a device push token, e.g. on sign-out
func (h *NotificationHandler) RemoveToken(c echo.Context) error {
	var req models.RegisterTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.RemoveTokens(c.Request().Context(), middleware.UserID(c), []string{req.Token}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream pushes the current user's new notifications as server-sent events until the client
// disconnects. Slow clients lose events rather than stall the bus.
func (h *NotificationHandler) Stream(c echo.Context) error {
	uid := middleware.UserID(c)
	ch := make(chan events.NotificationCreated, streamBuffer)

	unsubscribe, err := h.subscriber.Subscribe(events.SubjectNotificationCreated, "", func(_ context.Context, data []byte) error {
		var ev events.NotificationCreated
		if err := events.Decode(data, &ev); err != nil {
			return err
		}
		if ev.RecipientID != uid {
			return nil
		}
		select {
		case ch <- ev:
		default:
			h.log.Warn("Dropping notification for slow stream", zap.String("uid", uid), zap.String("notificationId", ev.NotificationID))
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := unsubscribe(); err != nil {
			h.log.Warn("Failed to close notification stream subscription", zap.Error(err))
		}
	}()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ch:
			data, err := events.Encode(ev)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "id: %s\nevent: notification\ndata: %s\n\n", ev.NotificationID, data); err != nil {
				return nil
			}
			res.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
