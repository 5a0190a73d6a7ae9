package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/api"
	"github.com/dmitrijs2005/cipherkeeper/internal/client/sessionfile"
	"github.com/dmitrijs2005/cipherkeeper/internal/common"
)

func (a *App) registerCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if name, err = a.valueOrPrompt(name, "Name"); err != nil {
				return err
			}
			if email, err = a.valueOrPrompt(email, "Email"); err != nil {
				return err
			}

			pw, err := GetPassword("Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			confirm, err := GetPassword("Repeat password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(confirm)

			if string(pw) != string(confirm) {
				return errors.New("passwords do not match")
			}

			u, err := a.client().Register(cmd.Context(), name, email, string(pw))
			if err != nil {
				if errors.Is(err, api.ErrAlreadyExists) {
					return errors.New("an account with this email already exists")
				}
				return a.explain(err)
			}

			fmt.Fprintf(a.out, "Registered %s <%s>. Run `cipherkeeper login` next.\n", u.Name, u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and verify the master password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = a.valueOrPrompt(email, "Email"); err != nil {
				return err
			}

			pw, err := GetPassword("Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			c := a.client()
			res, err := c.Login(cmd.Context(), email, string(pw))
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return errors.New("invalid credentials")
				}
				return a.explain(err)
			}

			s := sessionfile.FromLogin(res)
			if err := sessionfile.Save(a.config.SessionFile, s); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			// the login password is also the master password; opening the
			// vault now checks it and seals the canary for an empty vault
			v, creds, err := a.unlockWith(cmd.Context(), s, c, string(pw))
			if err != nil {
				return err
			}
			v.Lock()

			fmt.Fprintf(a.out, "Logged in as %s, %d entries, session valid until %s.\n",
				res.User.Email, len(creds), res.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.session()
			if errors.Is(err, sessionfile.ErrNoSession) {
				fmt.Fprintln(a.out, "Not logged in.")
				return sessionfile.Remove(a.config.SessionFile)
			}
			if err != nil {
				return err
			}

			logoutErr := c.Logout(cmd.Context())
			if err := sessionfile.Remove(a.config.SessionFile); err != nil {
				return err
			}
			if logoutErr != nil && !errors.Is(logoutErr, api.ErrUnauthorized) {
				return fmt.Errorf("local session removed, server logout failed: %w", a.explain(logoutErr))
			}

			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.session()
			if err != nil {
				return a.explain(err)
			}
			fmt.Fprintf(a.out, "%s <%s>\nserver:  %s\nexpires: %s\n",
				s.User.Name, s.User.Email, a.config.Server, s.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server and the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Health(cmd.Context()); err != nil {
				return a.explain(err)
			}
			fmt.Fprintf(a.out, "server:  %s (ok)\n", a.config.Server)

			s, err := sessionfile.Load(a.config.SessionFile, a.now())
			switch {
			case errors.Is(err, sessionfile.ErrNoSession):
				fmt.Fprintln(a.out, "session: none")
			case err != nil:
				return err
			default:
				fmt.Fprintf(a.out, "session: %s until %s\n", s.User.Email, s.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}
