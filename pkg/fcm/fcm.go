package fcm

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
	appURL          string
	log             *zap.Logger
}

// NewClient wraps an initialized messaging client. appURL is opened when a web push is clicked.
func NewClient(messagingClient *messaging.Client, appURL string, log *zap.Logger) *Client {
	return &Client{messagingClient: messagingClient, appURL: appURL, log: log}
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title string
	Body  string
	Data  map[string]string // Custom data payload
}

// Result summarizes one multicast send
type Result struct {
	SuccessCount int
	// Failed holds every token that did not receive the message
	Failed []string
	// Unregistered holds the failed tokens the provider no longer knows; they should be removed
	Unregistered []string
}

// BuildMulticast builds the message for tokens: a notification block, the data payload and a
// web push click link to the app.
func (c *Client) BuildMulticast(tokens []string, notification NotificationData) *messaging.MulticastMessage {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
	}
	if c.appURL != "" {
		message.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: c.appURL},
		}
	}
	return message
}

// SendToDevices sends a push notification to multiple device tokens
func (c *Client) SendToDevices(ctx context.Context, tokens []string, notification NotificationData) (*Result, error) {
	if len(tokens) == 0 {
		return &Result{}, nil
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, c.BuildMulticast(tokens, notification))
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	c.log.Debug("FCM multicast sent",
		zap.Int("success", response.SuccessCount),
		zap.Int("failure", response.FailureCount),
	)

	result := &Result{SuccessCount: response.SuccessCount}
	for i, resp := range response.Responses {
		if resp.Success {
			continue
		}
		result.Failed = append(result.Failed, tokens[i])
		if messaging.IsUnregistered(resp.Error) {
			result.Unregistered = append(result.Unregistered, tokens[i])
		}
		c.log.Warn("FCM send failed", zap.String("token", shorten(tokens[i])), zap.Error(resp.Error))
	}
	return result, nil
}

// StringData flattens a notification data map into the string-only FCM data payload
func StringData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

func shorten(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
