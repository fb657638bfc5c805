package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <content...>",
		Short: "Publish a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			gameID, _ := cmd.Flags().GetString("game")
			p, err := client.CreatePost(cmd.Context(), strings.Join(args, " "), gameID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "posted post:%s\n", p.ID)
			return nil
		},
	}
	cmd.Flags().String("game", "", "game id the post is about")
	return cmd
}

func NewRelationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation <follows|blocks|mutes> <user-id>",
		Short: "Set or remove a relation with another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			relation := strings.ToLower(args[0])
			switch relation {
			case "follows", "blocks", "mutes":
			default:
				return fmt.Errorf("unknown relation %q", args[0])
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			remove, _ := cmd.Flags().GetBool("remove")
			if err := client.SetRelation(cmd.Context(), relation, args[1], !remove); err != nil {
				return err
			}
			verb := "set"
			if remove {
				verb = "removed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, relation, args[1])
			return nil
		},
	}
	cmd.Flags().Bool("remove", false, "remove the relation instead of setting it")
	return cmd
}
