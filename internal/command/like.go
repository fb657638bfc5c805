package command

import (
	"context"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/jupiterclapton/gamefeed/pkg/reactable"
	"github.com/jupiterclapton/gamefeed/pkg/reactionsync"
)

func NewLikeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "like <reactable-key>",
		Short: "Toggle your like on a post or review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := reactable.Parse(args[0]); err != nil {
				return err
			}
			syncer, cleanup, err := newSyncer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			key := args[0]
			out := cmd.OutOrStdout()

			if _, err := syncer.Refresh(ctx, key); err != nil {
				return err
			}
			st, err := syncer.Toggle(ctx, key)
			if err != nil {
				return err
			}
			printState(out, "toggled", key, st)

			// Attend la pulse de réconciliation sur l'horloge du syncer
			if err := syncer.Settle(ctx, key); err != nil {
				return err
			}
			printState(out, "settled", key, syncer.Store().Get(key).State)
			return nil
		},
	}
	cmd.Flags().String("nats", "", "NATS URL for cross-device sync (defaults to in-process bus)")
	cmd.Flags().String("device", "", "device id on the sync bus")
	return cmd
}

// newSyncer monte un Syncer sur le gateway, avec un bus NATS si --nats est fourni.
func newSyncer(cmd *cobra.Command) (*reactionsync.Syncer, func(), error) {
	client, err := newClient(cmd)
	if err != nil {
		return nil, nil, err
	}
	natsURL, _ := cmd.Flags().GetString("nats")
	device, _ := cmd.Flags().GetString("device")

	var bus reactionsync.LocalBus
	var nc *nats.Conn
	if natsURL != "" {
		nc, err = nats.Connect(natsURL, nats.Name(AppName))
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats: %w", err)
		}
		if device == "" {
			device = "default"
		}
		bus = reactionsync.NewNatsBus(nc, device)
	} else {
		bus = reactionsync.NewGoChannelBus(nil)
	}

	syncer := reactionsync.NewSyncer(reactionsync.NewStore(), client, bus, clockwork.NewRealClock(), reactionsync.Options{})
	listenCtx, stop := context.WithCancel(cmd.Context())
	if err := syncer.Listen(listenCtx); err != nil {
		stop()
		return nil, nil, err
	}
	cleanup := func() {
		stop()
		syncer.Close()
		_ = bus.Close()
		if nc != nil {
			nc.Close()
		}
	}
	return syncer, cleanup, nil
}

func printState(out io.Writer, label, key string, st reactionsync.State) {
	mark := "♡"
	if st.Liked {
		mark = "♥"
	}
	fmt.Fprintf(out, "%-8s %s %s %d likes, %d comments\n", label, key, mark, st.Count, st.Comments)
}
