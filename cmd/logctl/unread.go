package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"carbon-admin-console/internal/poller"
)

func newUnreadCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "Print the unread message count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			last := -1
			check := func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
				defer cancel()
				n, err := a.client.UnreadCount(ctx)
				if err != nil {
					return err
				}
				if n != last {
					if watch {
						fmt.Fprintf(out, "%s %d\n", time.Now().Format(time.TimeOnly), n)
					} else {
						fmt.Fprintln(out, n)
					}
					last = n
				}
				return nil
			}
			if !watch {
				return check(cmd.Context())
			}

			ctx, cancel := signalContext()
			defer cancel()
			defer a.startRefresher()()
			poller.New("unread-count", poller.UnreadCountInterval, check).Run(ctx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "poll every minute and print changes")
	return cmd
}
