package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"

	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications <uid>",
		Short: "Show the newest notifications of uid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer closeStore()

			list, err := store.Notifications.GetByRecipientID(ctx, args[0], limit)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				data, err := json.Marshal(list)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(list) == 0 {
				fmt.Fprintln(out, "✓ No notifications")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tREAD\tFROM\tTITLE\tCREATED")
			for _, n := range list {
				fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n",
					n.Type,
					n.Read,
					n.SenderID,
					n.Title,
					n.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", limit, "Maximum number of notifications")
	return cmd
}
