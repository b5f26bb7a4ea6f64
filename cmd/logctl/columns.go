package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"carbon-admin-console/internal/export"
	"carbon-admin-console/internal/model"
)

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newColumnsCmd(a *app) *cobra.Command {
	var (
		set    string
		reset  bool
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "columns <kind>",
		Short: "Show or change the table columns of a log stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			out := cmd.OutOrStdout()

			switch {
			case reset || set != "":
				cols := splitList(set)
				if reset || len(cols) == 0 {
					cols = export.ColumnsFor(kind)
				}
				if err := a.store.SetColumns(kind, cols); err != nil {
					return err
				}
				if remote {
					if err := a.requireAuth(); err != nil {
						return err
					}
					if err := a.client.SaveColumns(ctx, kind, cols); err != nil {
						return fmt.Errorf("save remote columns: %w", err)
					}
				}
			case remote:
				if err := a.requireAuth(); err != nil {
					return err
				}
				cols, err := a.client.Columns(ctx, kind)
				if err != nil {
					return err
				}
				if err := a.store.SetColumns(kind, cols); err != nil {
					return err
				}
			}

			fmt.Fprintln(out, strings.Join(a.columnsFor([]model.LogKind{kind}), ","))
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "comma-separated columns to show")
	cmd.Flags().BoolVar(&reset, "reset", false, "restore the default columns")
	cmd.Flags().BoolVar(&remote, "remote", false, "sync with the selection stored on the server")
	return cmd
}
