package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDDLCmd() *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the DDL of the schema",
		Long: `Print the CREATE TABLE statements of every type in the schema, followed by
the join tables of many-to-many relationships. With --drop, print the DROP
statements instead, in reverse order.`,
		Example: `  cascade ddl --schema-file shop.yaml
  cascade ddl --drop --database-driver postgres`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, closeFn, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			create, dropStmts, err := s.Builder().SchemaDDL()
			if err != nil {
				return err
			}
			stmts := create
			if drop {
				stmts = dropStmts
			}
			for _, stmt := range stmts {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", stmt); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "print DROP statements")
	return cmd
}
