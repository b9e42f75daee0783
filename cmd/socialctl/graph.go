package main

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/spf13/cobra"
)

func newFollowersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "followers <uid>",
		Short: "List the users following uid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEdges(cmd, args[0], "followers", func(ctx context.Context, f repositories.FollowRepository, uid string) ([]string, error) {
				return f.GetFollowerIDs(ctx, uid)
			})
		},
	}
}

func newFollowingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "following <uid>",
		Short: "List the users uid follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEdges(cmd, args[0], "following", func(ctx context.Context, f repositories.FollowRepository, uid string) ([]string, error) {
				return f.GetFollowingIDs(ctx, uid)
			})
		},
	}
}

func listEdges(cmd *cobra.Command, uid, label string, lookup func(context.Context, repositories.FollowRepository, string) ([]string, error)) error {
	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	ids, err := lookup(ctx, store.Follows, uid)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", label, err)
	}

	out := cmd.OutOrStdout()
	if output == "json" {
		data, err := json.Marshal(map[string]any{"uid": uid, label: ids, "count": len(ids)})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "%s of %s (%d)\n", label, uid, len(ids))
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}
	return nil
}
