package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jupiterclapton/gamefeed/pkg/reactable"
)

func NewCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <reactable-key> <body...>",
		Short: "Comment on a post or review",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, err := reactable.Parse(key); err != nil {
				return err
			}
			syncer, cleanup, err := newSyncer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if _, err := syncer.Refresh(ctx, key); err != nil {
				return err
			}
			syncer.OpenThread(key)
			if _, err := syncer.AddComment(ctx, key, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			st, err := syncer.CloseThread(ctx, key)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), "comment", key, st)
			return nil
		},
	}
	cmd.Flags().String("nats", "", "NATS URL for cross-device sync (defaults to in-process bus)")
	cmd.Flags().String("device", "", "device id on the sync bus")
	return cmd
}

func NewCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments <reactable-key>",
		Short: "Show the comment count of a post or review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := reactable.Parse(args[0]); err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			count, err := client.CommentCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d comments\n", args[0], count)
			return nil
		},
	}
	return cmd
}
