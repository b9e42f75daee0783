package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	output string = "text" // "text" or "json"
	limit  int    = 20
)

// openStore connects the backend named by STORE_BACKEND. Tests replace it.
var openStore = func(ctx context.Context) (*repositories.Store, func(), error) {
	cfg := config.Load()
	log := zap.NewNop()

	var fb *firebase.App
	if cfg.StoreBackend == config.BackendFirestore {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
		if err != nil {
			return nil, nil, err
		}
		fb = app
	}
	return config.OpenStore(ctx, cfg, fb, log)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "socialctl",
		Short: "socialctl - inspect the social graph and notification inboxes",
		Long: `socialctl reads the configured store directly (STORE_BACKEND and friends, see .env).
It is meant for operators: it bypasses authentication.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	// Add command groups
	rootCmd.AddCommand(newModerateCmd())
	rootCmd.AddCommand(newFollowersCmd())
	rootCmd.AddCommand(newFollowingCmd())
	rootCmd.AddCommand(newNotificationsCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
