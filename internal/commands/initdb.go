package commands

import (
	"fmt"

	"github.com/fatali-fataliyev/bank_ledger/internal/config"
	"github.com/fatali-fataliyev/bank_ledger/logging"
	"github.com/spf13/cobra"
)

func newInitDBCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database and the credential and ledger registry tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.App.Storage == config.StorageInMemory {
				return fmt.Errorf("init-db needs STORAGE=%s", config.StorageSQL)
			}

			db, err := openSQL(cmd.Context(), opts.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			logging.Logger.Infof("database initialized (%s)", opts.cfg.Database.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "database initialized")
			return nil
		},
	}
}
