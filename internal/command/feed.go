package command

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	feedv1 "github.com/jupiterclapton/gamefeed/api/feed/v1"
	"github.com/jupiterclapton/gamefeed/pkg/feedsession"
)

func NewFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the merged feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			rawScope, _ := cmd.Flags().GetString("scope")
			scope, err := feedsession.ParseScope(rawScope)
			if err != nil {
				return err
			}
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			pages, _ := cmd.Flags().GetInt("pages")
			asJSON, _ := cmd.Flags().GetBool("json")

			ctrl := feedsession.NewController(client, feedsession.Options{Scope: scope, FilterTag: filter, Limit: limit})
			defer ctrl.Close()

			ctx := cmd.Context()
			if err := ctrl.Load(ctx); err != nil {
				return err
			}
			for i := 1; i < pages; i++ {
				fetched, err := ctrl.LoadMore(ctx)
				if err != nil {
					return err
				}
				if !fetched {
					break
				}
			}

			snap := ctrl.Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap.Items)
			}
			printFeed(cmd.OutOrStdout(), snap.Items)
			if snap.HasMore {
				fmt.Fprintln(cmd.OutOrStdout(), "… more available (--pages)")
			}
			return nil
		},
	}

	cmd.Flags().String("scope", string(feedsession.ScopeForYou), "feed scope: following or forYou")
	cmd.Flags().String("filter", "", "filter tag (game id)")
	cmd.Flags().Int("limit", 20, "items per page")
	cmd.Flags().Int("pages", 1, "number of pages to load")
	return cmd
}

func printFeed(out io.Writer, items []feedv1.FeedItem) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tAUTHOR\tGAME\tLIKES\tCOMMENTS\tCONTENT")
	for _, it := range items {
		game := "-"
		if it.Game != nil {
			game = it.Game.Name
		}
		fmt.Fprintf(tw, "%s\t@%s\t%s\t%d\t%d\t%s\n",
			it.ReactableKey, it.Author.Username, game, it.Reactions.Likes, it.Reactions.Comments, excerpt(it.Content, 60))
	}
	_ = tw.Flush()
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
