package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mysociety/policyscore/internal/sink/migrations"
)

func migrateCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply internal/sink's embedded SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, otelShutdown, db, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close(ctx)
			defer func() { _ = otelShutdown(context.Background()) }()

			if err := db.RunMigrations(ctx, migrations.FS); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}
