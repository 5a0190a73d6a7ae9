package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/config"
)

// NewRootCmd builds the command tree around a.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "cipherkeeper",
		Short:         "End-to-end encrypted password vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			a.config = cfg
			return nil
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.statusCmd(),
		a.listCmd(),
		a.addCmd(),
		a.deleteCmd(),
	)

	return root
}

// Execute runs the CLI with os.Args against the real terminal.
func Execute(ctx context.Context) error {
	return NewRootCmd(defaultApp()).ExecuteContext(ctx)
}
