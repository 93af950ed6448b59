package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goConsole/identity"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCommand(a))
	return cmd
}

func newUserCreateCommand(a *app) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account with the configured identity provider. The password is
read from standard input when --password is not given.`,
		Args: cobra.NoArgs,
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

			registrar, ok := rt.provider.(identity.Registrar)
			if !ok {
				return fmt.Errorf("provider %q cannot create accounts", a.cfg.Provider)
			}

			creds := identity.Credentials{Email: email, Password: password}
			if name != "" {
				creds.Metadata = map[string]string{"full_name": name}
			}
			user, err := registrar.SignUp(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("create %s: %w", email, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Email, user.ID)
			if a.cfg.Access.AllowedEmail != "" && a.cfg.Access.AllowedEmail != user.Email {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not the allowed email %s\n", user.Email, a.cfg.Access.AllowedEmail)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (read from stdin when empty)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name stored as full_name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readSecret reads the first line of r.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
