package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and its service clients
type App struct {
	FirebaseApp     *firebase.App
	AuthClient      *auth.Client
	MessagingClient *messaging.Client
}

// Identity is the verified owner of a Firebase ID token
type Identity struct {
	UID   string
	Email string
	Name  string
}

// InitFirebase initializes the Firebase application with its auth and messaging clients.
// An empty credentialsPath falls back to Application Default Credentials.
func InitFirebase(ctx context.Context, credentialsPath string, log *zap.Logger) (*App, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		// Check if the credentials file exists
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	log.Info("Firebase app initialized", zap.Bool("defaultCredentials", credentialsPath == ""))
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, MessagingClient: messagingClient}, nil
}

// Firestore opens a Firestore client. An empty database selects "(default)"; a named one
// needs the project ID, taken from the app configuration.
func (a *App) Firestore(ctx context.Context, database, projectID string, credentialsPath string) (*firestore.Client, error) {
	if database == "" || database == firestore.DefaultDatabaseID {
		client, err := a.FirebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firestore client: %w", err)
		}
		return client, nil
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("error opening firestore database %s: %w", database, err)
	}
	return client, nil
}

// VerifyIDToken checks a Firebase ID token and returns its owner
func (a *App) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := a.AuthClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// EmailOf returns the email on the user's Firebase account
func (a *App) EmailOf(ctx context.Context, uid string) (string, error) {
	user, err := a.AuthClient.GetUser(ctx, uid)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
