package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBadgeCmd(a *app) *cobra.Command {
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "badge-recipients <badge_id>",
		Short: "List the users who were awarded a badge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			env, err := a.client.BadgeRecipients(ctx, args[0], page, perPage)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "USER_ID\tNAME\tEMAIL\tAWARDED_AT")
			for _, r := range env.Data {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.UserID, cell(r.Name), cell(r.Email), cell(r.AwardedAt))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printPagination(out, env.Pagination)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 20, "recipients per page")
	return cmd
}
