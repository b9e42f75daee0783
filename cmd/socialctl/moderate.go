package main

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/anonto42/nano-social/backend/internal/moderation"
	"github.com/spf13/cobra"
)

func newModerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moderate <text>",
		Short: "Show what the content filter does to a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := moderation.Default().Moderate(strings.Join(args, " "))

			if output == "json" {
				data, err := json.Marshal(map[string]any{"text": res.Text, "wasModified": res.WasModified})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if !res.WasModified {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ clean")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✗ moderated: %s\n", res.Text)
			return nil
		},
	}
}
