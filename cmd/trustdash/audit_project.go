package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trustdash/pkg/platform/audit/consumer"
	kafkasink "trustdash/pkg/platform/audit/store/kafka"
	auditpostgres "trustdash/pkg/platform/audit/store/postgres"
)

func newAuditProjectCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "audit-project",
		Short: "Copy audit events from Kafka into the postgres audit table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(cfg.Audit.Brokers) == 0 {
				return errors.New("audit.brokers is required")
			}
			log := cliLogger(cmd, cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := newStack(cfg, log, nil)
			defer st.close()

			pg, err := st.postgres(ctx)
			if err != nil {
				return err
			}
			store := auditpostgres.New(pg.DB)
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure audit schema: %w", err)
			}

			client, err := kafkasink.NewConsumerClient(cfg.Audit.Brokers, cfg.Audit.Topic, group)
			if err != nil {
				return err
			}
			defer client.Close()

			projector, err := consumer.NewProjector(client, store, log.With("component", "audit_projector"))
			if err != nil {
				return err
			}
			log.Info("projecting audit events", "topic", cfg.Audit.Topic, "group", group)
			if err := projector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "trustdash-audit-projector", "kafka consumer group")
	return cmd
}
