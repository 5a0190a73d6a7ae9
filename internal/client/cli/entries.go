package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/api"
	"github.com/dmitrijs2005/cipherkeeper/internal/common"
)

func (a *App) listCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := a.session()
			if err != nil {
				return a.explain(err)
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)

			if !reveal {
				entries, err := c.ListEntries(cmd.Context())
				if err != nil {
					return a.explain(err)
				}
				fmt.Fprintln(tw, "ID\tPLATFORM\tUSERNAME\tCREATED")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Platform, e.Username, e.CreatedAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			}

			v, creds, err := a.unlock(cmd.Context(), s, c)
			if err != nil {
				return err
			}
			defer v.Lock()

			fmt.Fprintln(tw, "ID\tPLATFORM\tUSERNAME\tPASSWORD")
			for _, cr := range creds {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cr.ID, cr.Platform, cr.Username, cr.Password)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "decrypt and show passwords (asks for the master password)")
	return cmd
}

func (a *App) addCmd() *cobra.Command {
	var platform, username string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Encrypt and store a credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := a.session()
			if err != nil {
				return a.explain(err)
			}

			if platform, err = a.valueOrPrompt(platform, "Platform"); err != nil {
				return err
			}
			if username, err = a.valueOrPrompt(username, "Username"); err != nil {
				return err
			}

			v, _, err := a.unlock(cmd.Context(), s, c)
			if err != nil {
				return err
			}
			defer v.Lock()

			secret, err := GetPassword("Password to store", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(secret)

			cred, err := v.Add(cmd.Context(), platform, username, string(secret))
			if err != nil {
				if errors.Is(err, api.ErrValidation) {
					return fmt.Errorf("rejected by server: %w", err)
				}
				return a.explain(err)
			}

			fmt.Fprintf(a.out, "Added %s (%s@%s).\n", cred.ID, cred.Username, cred.Platform)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "site or service name")
	cmd.Flags().StringVar(&username, "username", "", "login on that platform")
	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.session()
			if err != nil {
				return a.explain(err)
			}

			if err := c.DeleteEntry(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("no entry %s", args[0])
				}
				return a.explain(err)
			}

			fmt.Fprintf(a.out, "Deleted %s.\n", args[0])
			return nil
		},
	}
}
