package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/identity"
)

func newSessionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change the persisted session",
	}
	cmd.AddCommand(
		newSessionStatusCommand(a),
		newSessionLoginCommand(a),
		newSessionLogoutCommand(a),
	)
	return cmd
}

func newSessionStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Restore the persisted session and print the access decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.open(cmd.Context(), a.cfg, a.version)
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.console.Start(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), snap, rt.console.Gate().Decide(snap))
			return nil
		},
	}
}

func newSessionLoginCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				pw, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = pw
			}

			rt, err := a.open(cmd.Context(), a.cfg, a.version)
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.console.Start(cmd.Context()); err != nil {
				return err
			}
			if err := rt.console.Login(cmd.Context(), identity.Credentials{Email: email, Password: password}); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			snap := rt.console.Snapshot()
			printStatus(cmd.OutOrStdout(), snap, rt.console.Gate().Decide(snap))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSessionLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.open(cmd.Context(), a.cfg, a.version)
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.console.Start(cmd.Context())
			if err != nil {
				return err
			}
			if snap.State != goConsole.StateAuthenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "no active session")
				return nil
			}
			if err := rt.console.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed out %s\n", snap.Email())
			return nil
		},
	}
}

func printStatus(w io.Writer, snap goConsole.Snapshot, decision goConsole.Decision) {
	fmt.Fprintf(w, "state:    %s\n", snap.State)
	if snap.Session != nil {
		u := snap.Session.User
		fmt.Fprintf(w, "email:    %s\n", u.Email)
		fmt.Fprintf(w, "name:     %s\n", u.DisplayName())
		if !snap.Session.ExpiresAt.IsZero() {
			fmt.Fprintf(w, "expires:  %s\n", snap.Session.ExpiresAt.Format(time.RFC3339))
		}
	}
	fmt.Fprintf(w, "decision: %s\n", decision)
}
