package cli

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables of the schema",
		Long: `Create every missing table of the schema in the configured database.
Existing tables are left unchanged; with --drop they are dropped first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, logger, closeFn, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx := cmd.Context()
			if drop {
				if err := s.DropTables(ctx); err != nil {
					return err
				}
				logger.Info("dropped tables")
			}
			if err := s.CreateTables(ctx); err != nil {
				return err
			}
			logger.Info("created tables", "types", len(s.Metadata().TypeNames()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop existing tables first")
	return cmd
}
