package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"property-billing/internal/repositories"
	"property-billing/internal/services"
	"property-billing/pkg/eventbus"
)

const (
	defaultRetentionDays = 365
	defaultPurgeBatch    = 1000
)

func purgeLogsCmd() *cobra.Command {
	var (
		days   int
		batch  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "purge-logs",
		Short: "Удалить старые записи журнала операций",
		Long: `Удаляет записи журнала операций старше --days дней порциями по --batch строк.

Examples:
  billingctl purge-logs
  billingctl purge-logs --days 180 --batch 5000
  billingctl purge-logs --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New("--days должен быть больше нуля")
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			logRepo := repositories.NewOperationLogRepository(e.pool)
			cutoff := time.Now().In(e.cfg.Location).AddDate(0, 0, -days)

			if dryRun {
				count, err := logRepo.CountOlderThan(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Будет удалено записей: %d (старше %s)\n", count, cutoff.Format("2006-01-02"))
				return nil
			}

			auditService := services.NewAuditService(logRepo, eventbus.New(e.logger), e.logger)

			deleted, err := auditService.PurgeOlderThan(cmd.Context(), cutoff, batch)
			if err != nil {
				e.logger.Error("Очистка журнала прервана", zap.Int64("deleted", deleted), zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Удалено записей: %d\n", deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", defaultRetentionDays, "хранить записи за последние N дней")
	cmd.Flags().IntVar(&batch, "batch", defaultPurgeBatch, "размер порции удаления")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "только посчитать записи, ничего не удалять")

	return cmd
}
