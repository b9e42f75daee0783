package config

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"go.uber.org/zap"
)

// OpenStore connects the storage backend selected by STORE_BACKEND. The returned func
// releases the connections.
func OpenStore(ctx context.Context, cfg *Config, fb *firebase.App, log *zap.Logger) (*repositories.Store, func(), error) {
	switch cfg.StoreBackend {
	case BackendFirestore:
		if fb == nil {
			return nil, nil, fmt.Errorf("firestore backend requires firebase")
		}
		client, err := fb.Firestore(ctx, cfg.FirestoreDatabase, cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using Firestore store", zap.String("database", cfg.FirestoreDatabase))
		return repositories.NewFirestoreStore(client), func() {
			if err := client.Close(); err != nil {
				log.Error("Error closing Firestore client", zap.Error(err))
			}
		}, nil

	case BackendLegacy:
		db, err := InitDB(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using PostgreSQL + MongoDB store")
		return repositories.NewLegacyStore(db.Postgres, db.MongoDB), db.CloseDB, nil

	case BackendMemory:
		log.Warn("Using in-memory store, data is lost on exit")
		return repositories.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}
