package main

import (
	"github.com/spf13/cobra"

	"property-billing/pkg/database/migrate"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version]",
		Short: "Применить или откатить миграции схемы",
		Long: `Управление схемой базы через goose. Миграции встроены в бинарник.

Examples:
  billingctl migrate up
  billingctl migrate down
  billingctl migrate status`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			return migrate.Run(cmd.Context(), e.pool, args[0])
		},
	}
}
