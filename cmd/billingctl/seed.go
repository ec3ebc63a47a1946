package main

import (
	"os"

	"github.com/spf13/cobra"

	"property-billing/seeders"
)

func seedCmd() *cobra.Command {
	var (
		adminUsername string
		withDemo      bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Наполнить базу начальными данными",
		Long: `Создаёт справочник комплексов и администратора. С --demo добавляет
тарифы и адреса демонстрационных комплексов. Пароль администратора берётся из
BILLING_ADMIN_PASSWORD.

Examples:
  BILLING_ADMIN_PASSWORD=secret billingctl seed
  BILLING_ADMIN_PASSWORD=secret billingctl seed --demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := seeders.SeedCommunities(ctx, e.pool, e.logger); err != nil {
				return err
			}
			if err := seeders.SeedAdmin(ctx, e.pool, adminUsername, os.Getenv("BILLING_ADMIN_PASSWORD"), e.logger); err != nil {
				return err
			}
			if !withDemo {
				return nil
			}
			if err := seeders.SeedPrices(ctx, e.pool, e.logger); err != nil {
				return err
			}
			return seeders.SeedAddresses(ctx, e.pool, e.logger)
		},
	}

	cmd.Flags().StringVar(&adminUsername, "admin", "admin", "логин администратора")
	cmd.Flags().BoolVar(&withDemo, "demo", false, "добавить демонстрационные тарифы и адреса")

	return cmd
}
