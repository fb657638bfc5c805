package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jupiterclapton/gamefeed/pkg/gatewayclient"
)

const AppName = "feedctl"

// Version est écrasée au build via -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "feedctl - client terminal du feed de reviews",
		Long:          "feedctl parle à l'api-gateway : feed paginé, likes synchronisés, commentaires et posts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("gateway", envOr("GAMEFEED_GATEWAY", "http://localhost:8080"), "api-gateway base URL")
	cmd.PersistentFlags().String("token", os.Getenv("GAMEFEED_TOKEN"), "bearer token (RS256 JWT)")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewFeedCmd(),
		NewLikeCmd(),
		NewCommentCmd(),
		NewCommentsCmd(),
		NewPostCmd(),
		NewRelationCmd(),
	)
	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}

func newClient(cmd *cobra.Command) (*gatewayclient.Client, error) {
	base, err := cmd.Flags().GetString("gateway")
	if err != nil {
		return nil, err
	}
	if base == "" {
		return nil, fmt.Errorf("--gateway is required")
	}
	token, _ := cmd.Flags().GetString("token")
	return gatewayclient.New(base, gatewayclient.WithToken(token)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
