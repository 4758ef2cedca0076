package cli

import (
	"github.com/spf13/cobra"

	"github.com/syssam/cascade/compiler"
)

func newGenCmd() *cobra.Command {
	var (
		watch   bool
		imports map[string]string
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate entity types from the schema",
		Long: `Generate one Go file per schema type, holding the entity struct and its
EntityName, Get and Set methods, plus schema.go with a Registry function.
With --watch, regenerate whenever the schema document changes.`,
		Example: `  cascade gen --schema-file shop.yaml --schema-output internal/shop
  cascade gen --import money=example.com/shop/money --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := cfg.NewLogger(cmd.ErrOrStderr())
			opts := []compiler.Option{compiler.WithTarget(cfg.Schema.Output)}
			if cfg.Schema.Package != "" {
				opts = append(opts, compiler.WithPackage(cfg.Schema.Package))
			}
			for qualifier, path := range imports {
				opts = append(opts, compiler.WithImport(qualifier, path))
			}
			if watch {
				return compiler.Watch(cmd.Context(), cfg.Schema.File, logger, opts...)
			}
			if err := compiler.GenerateFile(cmd.Context(), cfg.Schema.File, opts...); err != nil {
				return err
			}
			logger.Info("generated accessors", "schema", cfg.Schema.File, "output", cfg.Schema.Output)
			return nil
		},
	}
	cmd.Flags().String("schema-package", "", "generated package name")
	cmd.Flags().String("schema-output", "", "output directory")
	cmd.Flags().StringToStringVar(&imports, "import", nil, "import path of a type qualifier, e.g. money=example.com/money")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate on schema changes")
	return cmd
}
