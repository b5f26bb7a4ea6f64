package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				password = os.Getenv("LOGCTL_PASSWORD")
			}
			if password == "" {
				p, err := readLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			u, err := a.client.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if !u.IsAdmin() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: account is not an admin, log endpoints will refuse it")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Email, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (default $LOGCTL_PASSWORD, else prompt)")
	return cmd
}

func readLine(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and session lifetime",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := a.session.CheckAuthStatus()
			if !status.IsAuthenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			u := status.User
			if remote {
				ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
				defer cancel()
				fresh, err := a.client.CurrentUser(ctx)
				if err != nil {
					return err
				}
				u = fresh
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:        %s\n", u.ID)
			fmt.Fprintf(out, "email:     %s\n", u.Email)
			fmt.Fprintf(out, "role:      %s\n", u.Role)
			fmt.Fprintf(out, "expires in %s\n", a.session.Remaining().Round(time.Second))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "refetch the profile from the API")
	return cmd
}
